package threadcore

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/llxisdsh/threadcore/internal/opt"
)

// SemaphoreHandle is a counting semaphore with a non-negative value.
// Increment never blocks; Decrement blocks while the value is 0 and then
// consumes one unit.
//
// A unit released while goroutines are parked is handed to one of them
// directly instead of being added to the value, and the runtime semaphore
// used for parking remembers a release that arrives before the waiter has
// parked. A wakeup can therefore never be lost between a waiter's check and
// its wait.
//
// Size: 16 bytes (8 byte state + 4 byte sema + padding).
type SemaphoreHandle struct {
	_ noCopy
	// state 64-bit:
	//   Bit 63:    Destroyed
	//   Bit 32-62: Waiter Count
	//   Bit 0-31:  Value
	state atomic.Uint64
	sema  opt.Sema
}

const (
	semDestroyed  = 1 << 63
	semOneWaiter  = 1 << 32
	semValueMask  = 0xFFFFFFFF
	semWaiterMask = 0x7FFFFFFF
)

// CreateSemaphore creates a semaphore with the given initial value.
func CreateSemaphore(initial int) (*SemaphoreHandle, error) {
	if initial < 0 {
		return nil, fmt.Errorf("%w: negative initial semaphore value %d", ErrState, initial)
	}
	if uint64(initial) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: initial semaphore value %d too large", ErrResource, initial)
	}
	h := &SemaphoreHandle{}
	h.state.Store(uint64(initial))
	return h, nil
}

// DestroySemaphore destroys the semaphore. Goroutines blocked in
// DecrementSemaphore wake up and fail with ErrState, as does every later
// operation.
func DestroySemaphore(h *SemaphoreHandle) error {
	if h == nil {
		return fmt.Errorf("%w: nil semaphore handle", ErrState)
	}
	for {
		s := h.state.Load()
		if s&semDestroyed != 0 {
			return fmt.Errorf("%w: semaphore already destroyed", ErrState)
		}
		if h.state.CompareAndSwap(s, semDestroyed) {
			for range (s >> 32) & semWaiterMask {
				h.sema.Release()
			}
			return nil
		}
	}
}

// IncrementSemaphore adds one unit, waking at most one blocked waiter.
func IncrementSemaphore(h *SemaphoreHandle) error {
	if h == nil {
		return fmt.Errorf("%w: nil semaphore handle", ErrState)
	}
	for {
		s := h.state.Load()
		if s&semDestroyed != 0 {
			return fmt.Errorf("%w: semaphore destroyed", ErrState)
		}
		if (s>>32)&semWaiterMask != 0 {
			// Hand the unit to a parked waiter; the value stays as is.
			if h.state.CompareAndSwap(s, s-semOneWaiter) {
				h.sema.Handoff()
				return nil
			}
			continue
		}
		if s&semValueMask == semValueMask {
			return fmt.Errorf("%w: semaphore value overflow", ErrResource)
		}
		if h.state.CompareAndSwap(s, s+1) {
			return nil
		}
	}
}

// DecrementSemaphore blocks while the value is 0, then consumes one unit.
func DecrementSemaphore(h *SemaphoreHandle) error {
	if h == nil {
		return fmt.Errorf("%w: nil semaphore handle", ErrState)
	}
	for {
		s := h.state.Load()
		if s&semDestroyed != 0 {
			return fmt.Errorf("%w: semaphore destroyed", ErrState)
		}
		if s&semValueMask != 0 {
			if h.state.CompareAndSwap(s, s-1) {
				return nil
			}
			continue
		}
		if (s>>32)&semWaiterMask == semWaiterMask {
			return fmt.Errorf("%w: too many semaphore waiters", ErrResource)
		}
		if h.state.CompareAndSwap(s, s+semOneWaiter) {
			h.sema.Acquire()
			// Woken either by a hand-off, which carries the unit, or by
			// DestroySemaphore.
			if h.state.Load()&semDestroyed != 0 {
				return fmt.Errorf("%w: semaphore destroyed", ErrState)
			}
			return nil
		}
	}
}

// TryDecrementSemaphore consumes one unit if the value is positive, without
// blocking.
func TryDecrementSemaphore(h *SemaphoreHandle) (bool, error) {
	if h == nil {
		return false, fmt.Errorf("%w: nil semaphore handle", ErrState)
	}
	for {
		s := h.state.Load()
		if s&semDestroyed != 0 {
			return false, fmt.Errorf("%w: semaphore destroyed", ErrState)
		}
		if s&semValueMask == 0 {
			return false, nil
		}
		if h.state.CompareAndSwap(s, s-1) {
			return true, nil
		}
	}
}

// Value returns the current value of the semaphore.
func (h *SemaphoreHandle) Value() int {
	return int(h.state.Load() & semValueMask)
}

// Waiters returns the number of goroutines parked in DecrementSemaphore.
func (h *SemaphoreHandle) Waiters() int {
	return int((h.state.Load() >> 32) & semWaiterMask)
}

// Destroyed reports whether DestroySemaphore has been called.
func (h *SemaphoreHandle) Destroyed() bool {
	return h.state.Load()&semDestroyed != 0
}
