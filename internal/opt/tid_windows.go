//go:build windows

package opt

import "golang.org/x/sys/windows"

// ThreadID returns the kernel id of the calling OS thread.
func ThreadID() int64 {
	return int64(windows.GetCurrentThreadId())
}
