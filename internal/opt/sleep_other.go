//go:build !linux && !windows

package opt

import "time"

// Sleep suspends the calling goroutine for at least d.
func Sleep(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	deadline := time.Now().Add(d)
	for left := d; left > 0; left = time.Until(deadline) {
		time.Sleep(left)
	}
	return nil
}
