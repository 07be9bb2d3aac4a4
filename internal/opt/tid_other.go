//go:build !linux && !windows

package opt

// ThreadID returns 0; the platform exposes no portable thread id.
func ThreadID() int64 {
	return 0
}
