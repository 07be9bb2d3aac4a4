// Package threadcore is a small threading core: platform primitives
// (threads, reentrant mutexes, counting semaphores, sleep, compare-and-swap),
// thin wrappers over them, and a Worker that runs a priority-ordered message
// loop on a dedicated thread.
//
// A Worker is an actor mailbox. Producers call PostMessage from any
// goroutine; the worker's thread blocks on a semaphore counting the pending
// messages and hands them, one at a time and highest priority first, to a
// Handler:
//
//	w, _ := threadcore.NewWorker(threadcore.HandlerFunc(func(k threadcore.Kind, p1, p2 uintptr) {
//		// runs on the worker's thread
//	}))
//	_ = w.Init(1)
//	_ = w.Start()
//	_ = w.PostMessage(1, 0, 0, 0)
//	_ = w.Stop(false)
//	_ = w.Close()
//
// Errors wrap ErrResource, ErrState, ErrNotInitialized, ErrAlreadyRunning
// and ErrNotRunning; match them with errors.Is.
package threadcore
