//go:build linux

package opt

import "golang.org/x/sys/unix"

// ThreadID returns the kernel id of the calling OS thread.
func ThreadID() int64 {
	return int64(unix.Gettid())
}
