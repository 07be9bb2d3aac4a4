package opt

import (
	_ "unsafe" // for linkname
)

// Sema is a zero-allocation counting semaphore.
// It is a direct wrapper around the runtime semaphore used by sync.Mutex:
// a Release that happens before the matching Acquire is remembered, so a
// waiter that has not parked yet can never miss its wakeup.
type Sema uint32

func (s *Sema) Acquire() {
	runtime_semacquire((*uint32)(s))
}

func (s *Sema) Release() {
	runtime_semrelease((*uint32)(s), false, 0)
}

// Handoff releases the semaphore and yields the processor directly to the
// woken waiter, if any.
func (s *Sema) Handoff() {
	runtime_semrelease((*uint32)(s), true, 0)
}

//go:linkname runtime_semacquire sync.runtime_Semacquire
func runtime_semacquire(s *uint32)

//go:linkname runtime_semrelease sync.runtime_Semrelease
func runtime_semrelease(s *uint32, handoff bool, skipframes int)
