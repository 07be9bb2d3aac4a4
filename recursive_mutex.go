package threadcore

import (
	"fmt"
	"sync/atomic"
)

// RecursiveMutex wraps a MutexHandle. The zero value is uninitialized and
// must be set up with Init before use.
type RecursiveMutex struct {
	_ noCopy
	h atomic.Pointer[MutexHandle]
}

// Init creates the underlying mutex. Calling it again is a no-op.
func (m *RecursiveMutex) Init() error {
	if m.h.Load() != nil {
		return nil
	}
	h, err := CreateMutex()
	if err != nil {
		return err
	}
	if !m.h.CompareAndSwap(nil, h) {
		_ = DestroyMutex(h)
	}
	return nil
}

// Acquire locks the mutex, re-entering if the caller already holds it.
func (m *RecursiveMutex) Acquire() error {
	h := m.h.Load()
	if h == nil {
		return fmt.Errorf("%w: recursive mutex", ErrNotInitialized)
	}
	return LockMutex(h)
}

// Release undoes one Acquire.
func (m *RecursiveMutex) Release() error {
	h := m.h.Load()
	if h == nil {
		return fmt.Errorf("%w: recursive mutex", ErrNotInitialized)
	}
	return UnlockMutex(h)
}

// Close destroys the underlying mutex if Init succeeded. On an
// uninitialized or already closed mutex it does nothing.
func (m *RecursiveMutex) Close() error {
	h := m.h.Load()
	if h == nil {
		return nil
	}
	if err := DestroyMutex(h); err != nil {
		return err
	}
	m.h.CompareAndSwap(h, nil)
	return nil
}

// ScopedLock holds a RecursiveMutex until Release. Pair Lock with a
// deferred Release; an earlier explicit Release makes the deferred one a
// no-op.
//
//	l, err := threadcore.Lock(&mu)
//	if err != nil {
//		return err
//	}
//	defer l.Release()
type ScopedLock struct {
	m       *RecursiveMutex
	holding bool
}

// Lock acquires m and returns a guard that releases it.
func Lock(m *RecursiveMutex) (*ScopedLock, error) {
	if err := m.Acquire(); err != nil {
		return nil, err
	}
	return &ScopedLock{m: m, holding: true}, nil
}

// Release releases the mutex if the guard still holds it.
func (l *ScopedLock) Release() error {
	if l == nil || !l.holding {
		return nil
	}
	l.holding = false
	return l.m.Release()
}

// Holding reports whether the guard still holds the mutex.
func (l *ScopedLock) Holding() bool {
	return l != nil && l.holding
}
