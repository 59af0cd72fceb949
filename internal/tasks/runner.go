package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"resumematch-backend/internal/shared/telemetry"
)

// ErrShuttingDown is returned by Submit after Shutdown has been called.
var ErrShuttingDown = errors.New("task runner is shutting down")

// Runner executes background work with bounded concurrency. In-flight work is
// tracked so it can be drained at shutdown instead of abandoned mid-run.
type Runner struct {
	sem chan struct{}
	wg  sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]int
	closed   bool
}

// NewRunner creates a runner allowing at most maxConcurrent simultaneous tasks.
func NewRunner(maxConcurrent int) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Runner{
		sem:      make(chan struct{}, maxConcurrent),
		inflight: make(map[string]int),
	}
}

// Submit schedules fn to run in the background. The name identifies the task
// kind for logging and the in-flight inventory. Submit never blocks on a free
// worker slot; the task itself waits for one.
func (r *Runner) Submit(name string, fn func(ctx context.Context)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrShuttingDown
	}
	r.inflight[name]++
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer r.finish(name)
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("task.panic", map[string]any{
					"task":  name,
					"error": fmt.Sprint(rec),
				})
			}
		}()

		r.sem <- struct{}{}
		defer func() { <-r.sem }()

		fn(context.Background())
	}()

	return nil
}

// InFlight returns the number of tasks submitted but not yet finished.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.inflight {
		total += n
	}
	return total
}

// Shutdown stops accepting new tasks and waits for in-flight tasks to finish
// or for ctx to expire, whichever comes first.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("task runner drain: %w", ctx.Err())
	}
}

func (r *Runner) finish(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight[name]--
	if r.inflight[name] <= 0 {
		delete(r.inflight, name)
	}
}
