//go:build windows

package opt

import (
	"math"
	"time"

	"golang.org/x/sys/windows"
)

// Sleep suspends the calling OS thread for at least d using an alertable
// SleepEx. A wake by APC delivery re-sleeps until the deadline.
func Sleep(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	deadline := time.Now().Add(d)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return nil
		}
		ms := min((left+time.Millisecond-1)/time.Millisecond, math.MaxUint32-1)
		windows.SleepEx(uint32(ms), true)
	}
}
