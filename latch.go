package threadcore

import (
	"sync/atomic"

	"github.com/llxisdsh/threadcore/internal/opt"
)

// Latch is a one-way door: once Open is called, every current and future
// Wait returns. Threads use it to publish their exit and the indexer uses
// it as a barrier.
//
// Size: 8 bytes (4 byte state + 4 byte sema).
type Latch struct {
	_ noCopy
	// state 32-bit:
	//   bit 0: open flag
	//   bits 1-31: waiter count
	state atomic.Uint32
	sema  opt.Sema
}

const (
	latchOpen      = 1
	latchOneWaiter = 2 // 1 << 1
)

// Open opens the door and wakes every blocked waiter. It is idempotent.
func (e *Latch) Open() {
	for {
		s := e.state.Load()
		if s&latchOpen != 0 {
			return
		}
		if e.state.CompareAndSwap(s, s|latchOpen) {
			for range s >> 1 {
				e.sema.Release()
			}
			return
		}
	}
}

// Wait blocks until Open is called.
func (e *Latch) Wait() {
	for {
		s := e.state.Load()
		if s&latchOpen != 0 {
			return
		}
		if e.state.CompareAndSwap(s, s+latchOneWaiter) {
			e.sema.Acquire()
			return
		}
	}
}

// IsOpen reports whether Open has been called.
func (e *Latch) IsOpen() bool {
	return e.state.Load()&latchOpen != 0
}
