package threadcore

import "errors"

// Failures reported by the primitives and the worker. They are returned
// wrapped with context; match them with errors.Is.
var (
	// ErrResource reports that the platform could not provide a thread,
	// handle or queue slot, or that a handle is unknown.
	ErrResource = errors.New("threadcore: resource unavailable")

	// ErrState reports misuse of a primitive: unlocking a mutex the caller
	// does not hold, destroying a locked mutex, or using a destroyed handle.
	ErrState = errors.New("threadcore: invalid state")

	// ErrNotInitialized is returned by wrappers and workers used before Init.
	ErrNotInitialized = errors.New("threadcore: not initialized")

	// ErrAlreadyRunning is returned by Start on a running worker.
	ErrAlreadyRunning = errors.New("threadcore: already running")

	// ErrNotRunning is returned by PostMessage and Stop on a worker that
	// has not been started.
	ErrNotRunning = errors.New("threadcore: not running")
)
