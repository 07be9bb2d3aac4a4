package threadcore

import (
	"errors"
	"testing"
	"time"
)

func TestCountingSemaphoreNotInitialized(t *testing.T) {
	var s CountingSemaphore
	if err := s.Increment(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Increment: %v", err)
	}
	if err := s.Decrement(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Decrement: %v", err)
	}
	if _, err := s.TryDecrement(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("TryDecrement: %v", err)
	}
	if s.Value() != 0 {
		t.Fatal("uninitialized value must be 0")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCountingSemaphore(t *testing.T) {
	var s CountingSemaphore
	if err := s.Init(2); err != nil {
		t.Fatal(err)
	}
	_ = s.Decrement()
	_ = s.Decrement()
	if ok, _ := s.TryDecrement(); ok {
		t.Fatal("TryDecrement on empty semaphore")
	}

	done := make(chan error)
	go func() { done <- s.Decrement() }()
	time.Sleep(10 * time.Millisecond)
	_ = s.Increment()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if err := s.Init(-1); !errors.Is(err, ErrState) {
		t.Fatalf("negative Init: %v", err)
	}
}

func TestCountingSemaphoreCloseWakes(t *testing.T) {
	var s CountingSemaphore
	_ = s.Init(0)
	done := make(chan error)
	go func() { done <- s.Decrement() }()
	time.Sleep(10 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrState) {
			t.Fatalf("woken with %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not wake the waiter")
	}
}
