package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestPacer_Wait(t *testing.T) {
	interval := 20 * time.Millisecond
	pacer := NewPacer(interval)

	start := time.Now()
	if err := pacer.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed < interval {
		t.Errorf("Wait() returned after %v, want at least %v", elapsed, interval)
	}
}

func TestPacer_ZeroIntervalDoesNotBlock(t *testing.T) {
	pacer := NewPacer(0)

	start := time.Now()
	if err := pacer.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("Wait() with zero interval took %v", elapsed)
	}
}

func TestPacer_ContextCancelled(t *testing.T) {
	pacer := NewPacer(10 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := pacer.Wait(ctx)
	if err == nil {
		t.Error("Wait() error = nil, want cancellation error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Cancelled Wait() took %v, want immediate return", elapsed)
	}
}

func TestPacer_Interval(t *testing.T) {
	pacer := NewPacer(150 * time.Millisecond)
	if got := pacer.Interval(); got != 150*time.Millisecond {
		t.Errorf("Interval() = %v, want 150ms", got)
	}
}
