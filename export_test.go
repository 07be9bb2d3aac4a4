package threadcore

import "github.com/llxisdsh/threadcore/internal/opt"

func currentOSThreadID() int64 { return opt.ThreadID() }

// breakSemaphore destroys the worker's semaphore underneath its loop.
func (w *Worker) breakSemaphore() error { return w.sem.Close() }
