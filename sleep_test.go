package threadcore

import (
	"testing"
	"time"
)

func TestSleepAtLeast(t *testing.T) {
	start := time.Now()
	if err := Sleep(20 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if d := time.Since(start); d < 20*time.Millisecond {
		t.Fatalf("Sleep returned after %v", d)
	}
}
