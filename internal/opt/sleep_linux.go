//go:build linux

package opt

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// Sleep suspends the calling OS thread for at least d using nanosleep(2).
// A wake by signal delivery (EINTR) re-sleeps for the remainder reported by
// the kernel.
func Sleep(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	req := unix.NsecToTimespec(d.Nanoseconds())
	for {
		var rem unix.Timespec
		err := unix.Nanosleep(&req, &rem)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EINTR) {
			return err
		}
		req = rem
	}
}
