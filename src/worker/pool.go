package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// Task is a unit of blocking work, typically one engine call.
type Task func(ctx context.Context) (any, error)

// ResultCallback is invoked on task completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(value any, err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs   chan job
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
}

type job struct {
	ctx  context.Context
	task Task
	cb   ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int, logger *slog.Logger) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{jobs: make(chan job, 1), logger: logger}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				value, err := runWithContext(j.ctx, j.task)
				if err != nil {
					p.logger.Debug("worker: task failed", "error", err)
				}
				j.cb(value, err)
			}
		}()
	}
}

// Submit enqueues a task if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, task Task, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, task: task, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work. Safe to call more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}

// Shutdown is Close bounded by ctx. A task stuck past ctx keeps its goroutine; the pool does not
// wait for it and returns ctx.Err().
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runWithContext runs task with a deadline-aware path and converts panics into errors.
func runWithContext(ctx context.Context, task Task) (any, error) {
	// Fast path: if no deadline, call the task directly.
	if _, ok := ctx.Deadline(); !ok {
		return runRecovered(ctx, task)
	}
	// Deadline-aware shim: run in a sub-goroutine, respect ctx.Done().
	resCh := make(chan struct {
		value any
		err   error
	}, 1)
	go func() {
		value, err := runRecovered(ctx, task)
		resCh <- struct {
			value any
			err   error
		}{value, err}
	}()
	select {
	case r := <-resCh:
		return r.value, r.err
	case <-ctx.Done():
		// Allow the underlying call to continue in background; we return timeout.
		return nil, ctx.Err()
	}
}

func runRecovered(ctx context.Context, task Task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker: task panicked: %v", r)
		}
	}()
	return task(ctx)
}
