package threadcore

import (
	"sync/atomic"
)

// ticketLock is a fair, FIFO spin-lock guarding the very short critical
// sections of a MessageQueue.
//
// Lock takes a ticket and waits (spin, then adaptive sleep) until it is
// served; Unlock serves the next ticket. Producers therefore reach a queue
// in the order they asked for it, which is what keeps per-level FIFO order
// meaningful across goroutines.
type ticketLock struct {
	_       noCopy
	next    atomic.Uint32
	serving atomic.Uint32
}

func (m *ticketLock) Lock() {
	my := m.next.Add(1) - 1
	var spins int
	for m.serving.Load() != my {
		delay(&spins)
	}
}

func (m *ticketLock) Unlock() {
	m.serving.Add(1)
}
