package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunnerRunsSubmittedTasks(t *testing.T) {
	r := NewRunner(2)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		if err := r.Submit("work", func(ctx context.Context) {
			ran.Add(1)
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := ran.Load(); got != 5 {
		t.Fatalf("ran = %d, want 5", got)
	}
	if got := r.InFlight(); got != 0 {
		t.Fatalf("InFlight after drain = %d, want 0", got)
	}
}

func TestRunnerRejectsAfterShutdown(t *testing.T) {
	r := NewRunner(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if err := r.Submit("late", func(ctx context.Context) {}); err != ErrShuttingDown {
		t.Fatalf("Submit after shutdown = %v, want ErrShuttingDown", err)
	}
}

func TestRunnerShutdownWaitsForInFlight(t *testing.T) {
	r := NewRunner(1)

	release := make(chan struct{})
	var finished atomic.Bool
	if err := r.Submit("slow", func(ctx context.Context) {
		<-release
		finished.Store(true)
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Give the task a moment to start.
	time.Sleep(20 * time.Millisecond)
	if got := r.InFlight(); got != 1 {
		t.Fatalf("InFlight = %d, want 1", got)
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !finished.Load() {
		t.Fatal("task did not finish before Shutdown returned")
	}
}

func TestRunnerRecoversFromPanics(t *testing.T) {
	r := NewRunner(1)

	if err := r.Submit("boom", func(ctx context.Context) {
		panic("kaboom")
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestLeases(t *testing.T) {
	l := NewLeases()

	if !l.Acquire("resume:1") {
		t.Fatal("first Acquire should succeed")
	}
	if l.Acquire("resume:1") {
		t.Fatal("second Acquire on held lease should fail")
	}
	if !l.Acquire("resume:2") {
		t.Fatal("Acquire on a different key should succeed")
	}

	l.Release("resume:1")
	if !l.Acquire("resume:1") {
		t.Fatal("Acquire after Release should succeed")
	}

	// Releasing an unheld lease must not panic.
	l.Release("resume:99")
}
