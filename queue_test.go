package threadcore

import (
	"errors"
	"testing"
)

func TestMessageQueueFIFO(t *testing.T) {
	var q MessageQueue
	for i := range 5 {
		if err := q.Enqueue(Message{Kind: Kind(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if q.Len() != 5 {
		t.Fatalf("len=%d", q.Len())
	}
	for i := range 5 {
		m, ok := q.Dequeue()
		if !ok || m.Kind != Kind(i) {
			t.Fatalf("dequeue %d: got %v %v", i, m.Kind, ok)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestMessageQueueLimit(t *testing.T) {
	q := NewMessageQueue(2)
	_ = q.Enqueue(Message{Kind: 1})
	_ = q.Enqueue(Message{Kind: 2})
	if err := q.Enqueue(Message{Kind: 3}); !errors.Is(err, ErrResource) {
		t.Fatalf("expected ErrResource, got %v", err)
	}
	if q.Len() != 2 || q.Limit() != 2 {
		t.Fatalf("len=%d limit=%d", q.Len(), q.Limit())
	}
	m, _ := q.Dequeue()
	if m.Kind != 1 {
		t.Fatalf("failed enqueue disturbed the queue: head %d", m.Kind)
	}
	if err := q.Enqueue(Message{Kind: 3}); err != nil {
		t.Fatal(err)
	}
}

func TestMessageQueueWithdraw(t *testing.T) {
	var q MessageQueue
	_ = q.Enqueue(Message{Kind: 1, seq: 1})
	_ = q.Enqueue(Message{Kind: 2, seq: 2})
	if q.withdraw(1) {
		t.Fatal("withdrew a message that is not the newest")
	}
	if !q.withdraw(2) {
		t.Fatal("failed to withdraw the newest message")
	}
	if q.Len() != 1 {
		t.Fatalf("len=%d", q.Len())
	}
	if n := q.clear(); n != 1 || q.Len() != 0 {
		t.Fatalf("clear=%d len=%d", n, q.Len())
	}
}
