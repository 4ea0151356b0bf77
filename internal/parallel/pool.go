// Package parallel provides a bounded worker pool for running many short,
// independent solver probes concurrently. The multi-pass resolver uses it
// to test every relaxation candidate with its own time-boxed solve without
// spawning an unbounded number of goroutines.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// ErrPoolShutdown is returned when submitting work to a pool that has
// already been shut down.
var ErrPoolShutdown = fmt.Errorf("worker pool has been shutdown")

// WorkerPool runs submitted tasks on a fixed number of goroutines.
// Submission applies backpressure: when every worker is busy and the
// queue is full, Submit blocks until capacity frees up or the context
// is cancelled.
type WorkerPool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
}

// NewWorkerPool creates a pool with the given number of workers.
// Zero or negative defaults to the number of CPU cores.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		maxWorkers:   maxWorkers,
		taskChan:     make(chan func(), maxWorkers*2),
		shutdownChan: make(chan struct{}),
	}

	for i := 0; i < maxWorkers; i++ {
		pool.workerWg.Add(1)
		go pool.worker()
	}

	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.workerWg.Done()

	for {
		select {
		case task := <-wp.taskChan:
			if task != nil {
				task()
			}
		case <-wp.shutdownChan:
			return
		}
	}
}

// Submit queues a task for execution. It blocks while the pool is full,
// returning early if ctx is cancelled or the pool shuts down.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	select {
	case wp.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown stops the workers after their current tasks finish. Queued but
// unstarted tasks are dropped; callers coordinate completion of submitted
// work with their own WaitGroup.
func (wp *WorkerPool) Shutdown() {
	wp.once.Do(func() {
		close(wp.shutdownChan)
		wp.workerWg.Wait()
	})
}
