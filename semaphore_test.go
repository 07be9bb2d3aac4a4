package threadcore

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSemaphore_Simple(t *testing.T) {
	s, err := CreateSemaphore(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := DecrementSemaphore(s); err != nil {
		t.Fatal(err)
	}
	if ok, _ := TryDecrementSemaphore(s); ok {
		t.Error("TryDecrement succeeded when empty")
	}
	if err := IncrementSemaphore(s); err != nil {
		t.Fatal(err)
	}
	if s.Value() != 1 {
		t.Errorf("value = %d, want 1", s.Value())
	}
	if err := DecrementSemaphore(s); err != nil {
		t.Fatal(err)
	}
}

func TestSemaphore_Invalid(t *testing.T) {
	if _, err := CreateSemaphore(-1); !errors.Is(err, ErrState) {
		t.Fatalf("negative initial: %v", err)
	}
	s, _ := CreateSemaphore(0)
	s.state.Store(semValueMask)
	if err := IncrementSemaphore(s); !errors.Is(err, ErrResource) {
		t.Fatalf("overflow: %v", err)
	}
}

func TestSemaphore_Blocks(t *testing.T) {
	s, _ := CreateSemaphore(0)
	done := make(chan struct{})
	go func() {
		_ = DecrementSemaphore(s)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Decrement returned with value 0")
	case <-time.After(20 * time.Millisecond):
	}
	if s.Waiters() != 1 {
		t.Fatalf("waiters = %d, want 1", s.Waiters())
	}

	_ = IncrementSemaphore(s)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Decrement did not wake")
	}
	if s.Value() != 0 {
		t.Fatalf("handed-off unit leaked into value: %d", s.Value())
	}
}

func TestSemaphore_WakesOnePerIncrement(t *testing.T) {
	s, _ := CreateSemaphore(0)
	const n = 4
	woke := make(chan struct{}, n)
	for range n {
		go func() {
			_ = DecrementSemaphore(s)
			woke <- struct{}{}
		}()
	}
	for s.Waiters() != n {
		time.Sleep(time.Millisecond)
	}
	_ = IncrementSemaphore(s)
	<-woke
	select {
	case <-woke:
		t.Fatal("one increment woke two waiters")
	case <-time.After(20 * time.Millisecond):
	}
	for range n - 1 {
		_ = IncrementSemaphore(s)
	}
	for range n - 1 {
		<-woke
	}
}

func TestSemaphore_NoLostWakeups(t *testing.T) {
	s, _ := CreateSemaphore(0)
	const N = 10000
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range N {
			_ = IncrementSemaphore(s)
		}
	}()
	go func() {
		defer wg.Done()
		for range N {
			_ = DecrementSemaphore(s)
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("lost wakeup: consumer stuck")
	}
	if s.Value() != 0 || s.Waiters() != 0 {
		t.Fatalf("value=%d waiters=%d", s.Value(), s.Waiters())
	}
}

func TestSemaphore_Destroy(t *testing.T) {
	s, _ := CreateSemaphore(0)
	errc := make(chan error, 2)
	for range 2 {
		go func() { errc <- DecrementSemaphore(s) }()
	}
	for s.Waiters() != 2 {
		time.Sleep(time.Millisecond)
	}
	if err := DestroySemaphore(s); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := <-errc; !errors.Is(err, ErrState) {
			t.Fatalf("waiter woke with %v", err)
		}
	}
	if err := IncrementSemaphore(s); !errors.Is(err, ErrState) {
		t.Fatalf("increment after destroy: %v", err)
	}
	if err := DestroySemaphore(s); !errors.Is(err, ErrState) {
		t.Fatalf("double destroy: %v", err)
	}
	if !s.Destroyed() {
		t.Fatal("expected destroyed")
	}
}
