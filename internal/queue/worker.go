package queue

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// Task is one detached unit of work.
type Task func(ctx context.Context)

// WorkerPool runs each submitted task on its own goroutine. With a positive
// limit, at most that many tasks execute at once; the rest wait for a slot
// without blocking the submitter.
type WorkerPool struct {
	slots  chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	logger *zap.Logger
}

// NewWorkerPool creates a pool. maxConcurrent <= 0 means no cap.
func NewWorkerPool(maxConcurrent int, logger *zap.Logger) *WorkerPool {
	if logger == nil {
		logger = zap.NewNop()
	}

	wp := &WorkerPool{
		ctx:    context.Background(),
		logger: logger,
	}
	if maxConcurrent > 0 {
		wp.slots = make(chan struct{}, maxConcurrent)
	}

	logger.Info("worker pool ready", zap.Int("max_concurrent", maxConcurrent))
	return wp
}

// Submit schedules task and returns immediately.
func (wp *WorkerPool) Submit(name string, task Task) {
	wp.wg.Add(1)
	go wp.run(name, task)
}

// Wait blocks until every submitted task has returned.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// run acquires a slot, executes the task and recovers from panics.
func (wp *WorkerPool) run(name string, task Task) {
	defer wp.wg.Done()

	if wp.slots != nil {
		wp.slots <- struct{}{}
		defer func() { <-wp.slots }()
	}

	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("task panicked",
				zap.String("task", name),
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	task(wp.ctx)
}
