package threadcore

import (
	"fmt"
	"sync/atomic"
)

// CountingSemaphore wraps a SemaphoreHandle. The zero value is
// uninitialized and must be set up with Init before use.
type CountingSemaphore struct {
	_ noCopy
	h atomic.Pointer[SemaphoreHandle]
}

// Init creates the underlying semaphore with the given value, replacing a
// previous one.
func (s *CountingSemaphore) Init(initial int) error {
	h, err := CreateSemaphore(initial)
	if err != nil {
		return err
	}
	if old := s.h.Swap(h); old != nil {
		_ = DestroySemaphore(old)
	}
	return nil
}

func (s *CountingSemaphore) handle() (*SemaphoreHandle, error) {
	h := s.h.Load()
	if h == nil {
		return nil, fmt.Errorf("%w: counting semaphore", ErrNotInitialized)
	}
	return h, nil
}

// Increment adds one unit.
func (s *CountingSemaphore) Increment() error {
	h, err := s.handle()
	if err != nil {
		return err
	}
	return IncrementSemaphore(h)
}

// Decrement blocks until a unit is available and consumes it.
func (s *CountingSemaphore) Decrement() error {
	h, err := s.handle()
	if err != nil {
		return err
	}
	return DecrementSemaphore(h)
}

// TryDecrement consumes a unit if one is available.
func (s *CountingSemaphore) TryDecrement() (bool, error) {
	h, err := s.handle()
	if err != nil {
		return false, err
	}
	return TryDecrementSemaphore(h)
}

// Value returns the current value, or 0 when uninitialized.
func (s *CountingSemaphore) Value() int {
	if h := s.h.Load(); h != nil {
		return h.Value()
	}
	return 0
}

// Close destroys the underlying semaphore if Init succeeded, waking any
// blocked Decrement with ErrState. It is a no-op otherwise.
func (s *CountingSemaphore) Close() error {
	h := s.h.Swap(nil)
	if h == nil {
		return nil
	}
	return DestroySemaphore(h)
}
