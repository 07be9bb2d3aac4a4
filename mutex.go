package threadcore

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// MutexHandle is a reentrant mutex owned by the goroutine that locked it.
// The owner may lock it again; it must unlock it as many times before
// another goroutine can acquire it.
type MutexHandle struct {
	_ noCopy
	// owner is the goroutine id of the holder, 0 when unlocked.
	owner atomic.Int64
	// depth is only touched by the owner.
	depth     int32
	destroyed atomic.Bool
	mu        sync.Mutex
}

// CreateMutex creates an unlocked reentrant mutex.
func CreateMutex() (*MutexHandle, error) {
	return &MutexHandle{}, nil
}

// DestroyMutex releases the mutex. Destroying a locked or already destroyed
// mutex fails with ErrState.
func DestroyMutex(h *MutexHandle) error {
	if h == nil {
		return fmt.Errorf("%w: nil mutex handle", ErrState)
	}
	if !h.mu.TryLock() {
		return fmt.Errorf("%w: destroying a locked mutex", ErrState)
	}
	defer h.mu.Unlock()
	if !h.destroyed.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: mutex already destroyed", ErrState)
	}
	return nil
}

// LockMutex blocks until the calling goroutine holds the mutex, or returns
// at once if it already does.
func LockMutex(h *MutexHandle) error {
	if err := checkMutex(h); err != nil {
		return err
	}
	g := goid.Get()
	if h.owner.Load() == g {
		h.depth++
		return nil
	}
	h.mu.Lock()
	// Destroyed while we were blocked.
	if h.destroyed.Load() {
		h.mu.Unlock()
		return fmt.Errorf("%w: mutex destroyed", ErrState)
	}
	h.owner.Store(g)
	h.depth = 1
	return nil
}

// UnlockMutex undoes one LockMutex by the calling goroutine. Unlocking a
// mutex the caller does not hold fails with ErrState.
func UnlockMutex(h *MutexHandle) error {
	if err := checkMutex(h); err != nil {
		return err
	}
	if h.owner.Load() != goid.Get() {
		return fmt.Errorf("%w: unlock of a mutex not held by the caller", ErrState)
	}
	h.depth--
	if h.depth == 0 {
		h.owner.Store(0)
		h.mu.Unlock()
	}
	return nil
}

// Held reports whether the calling goroutine holds the mutex.
func (h *MutexHandle) Held() bool {
	return h.owner.Load() == goid.Get()
}

func checkMutex(h *MutexHandle) error {
	if h == nil {
		return fmt.Errorf("%w: nil mutex handle", ErrState)
	}
	if h.destroyed.Load() {
		return fmt.Errorf("%w: mutex destroyed", ErrState)
	}
	return nil
}
