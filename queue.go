package threadcore

import (
	"fmt"

	"github.com/gammazero/deque"
)

// MessageQueue is the FIFO of pending messages for one priority level.
// The zero value is an empty, unbounded queue. It is safe for concurrent
// use; access is serialized by a fair ticket lock.
type MessageQueue struct {
	_     noCopy
	mu    ticketLock
	q     deque.Deque[Message]
	limit int
}

// NewMessageQueue returns a queue holding at most limit messages.
// A limit <= 0 means unbounded.
func NewMessageQueue(limit int) *MessageQueue {
	return &MessageQueue{limit: max(limit, 0)}
}

// Enqueue appends m. On a full queue it fails with ErrResource and leaves
// the queue unchanged.
func (q *MessageQueue) Enqueue(m Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.limit > 0 && q.q.Len() >= q.limit {
		return fmt.Errorf("%w: message queue full (%d)", ErrResource, q.limit)
	}
	q.q.PushBack(m)
	return nil
}

// enqueueForced appends m regardless of the limit. Only the reserved stop
// message takes this path, so a full queue cannot block shutdown.
func (q *MessageQueue) enqueueForced(m Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.q.PushBack(m)
}

// Dequeue removes and returns the oldest message, if any.
func (q *MessageQueue) Dequeue() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.q.Len() == 0 {
		return Message{}, false
	}
	return q.q.PopFront(), true
}

// withdraw removes the newest message if it is the one tagged seq.
func (q *MessageQueue) withdraw(seq uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.q.Len() == 0 || q.q.Back().seq != seq {
		return false
	}
	q.q.PopBack()
	return true
}

// Len returns the number of pending messages.
func (q *MessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.q.Len()
}

// Limit returns the capacity of the queue, 0 when unbounded.
func (q *MessageQueue) Limit() int {
	return q.limit
}

// clear drops every pending message and returns how many there were.
func (q *MessageQueue) clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.q.Len()
	q.q.Clear()
	return n
}
