// Package parallel runs independent optimization jobs on a bounded set of
// goroutines. Jobs share nothing through the pool; each one owns its state.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dd0wney/cluso-infomap/pkg/logging"
)

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = 1 << 16

var (
	// ErrTooManyWorkers is returned when the worker count exceeds MaxWorkers.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
	// ErrTaskPanic wraps a panic recovered from a job run by RunIndexed.
	ErrTaskPanic = errors.New("task panicked")
)

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	panics    atomic.Int64
	logger    logging.Logger
}

// NewWorkerPool creates a pool with the given number of workers; values
// below one mean one worker.
func NewWorkerPool(workers int, logger logging.Logger) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
		logger:    logging.OrNop(logger).With(logging.Component("worker-pool")),
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool, nil
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.panics.Add(1)
					wp.logger.Error("worker panic recovered", logging.Any("panic", fmt.Sprint(r)))
				}
			}()
			task()
		}()
	}
}

// Submit queues a task. It returns false if the pool is closed.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// Close stops accepting tasks and waits for queued ones to finish
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Panics returns how many tasks panicked
func (wp *WorkerPool) Panics() int64 {
	return wp.panics.Load()
}

// RunIndexed calls fn for every index in [0, n) on a pool of the given size
// and waits for all started calls. No further indices are scheduled once ctx
// is done or a call fails. It returns ctx.Err() if the context ended,
// otherwise the first error from fn; a panic in fn becomes ErrTaskPanic.
func RunIndexed(ctx context.Context, workers, n int, logger logging.Logger, fn func(ctx context.Context, i int) error) error {
	pool, err := NewWorkerPool(workers, logger)
	if err != nil {
		return err
	}

	var (
		errOnce  sync.Once
		firstErr error
		failed   atomic.Bool
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		failed.Store(true)
	}

	for i := 0; i < n; i++ {
		if ctx.Err() != nil || failed.Load() {
			break
		}
		pool.Submit(func() {
			defer func() {
				if r := recover(); r != nil {
					fail(fmt.Errorf("%w: job %d: %v", ErrTaskPanic, i, r))
				}
			}()
			if ctx.Err() != nil {
				return
			}
			if err := fn(ctx, i); err != nil {
				fail(err)
			}
		})
	}
	pool.Close()

	if err := ctx.Err(); err != nil {
		return err
	}
	return firstErr
}
