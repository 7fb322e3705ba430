package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/timmy/soulsync/internal/logger"
)

var (
	// ErrQueueFull is returned when the worker queue has no free slot.
	ErrQueueFull = errors.New("job queue is full")
	// ErrWorkerStopped is returned when enqueueing after Stop.
	ErrWorkerStopped = errors.New("worker stopped")
)

// JobRunner processes one job to its terminal state.
type JobRunner interface {
	Run(ctx context.Context, jobID string) error
}

// Worker runs queued jobs one at a time on a single goroutine.
// Each job gets its own deadline.
type Worker struct {
	runner     JobRunner
	jobTimeout time.Duration
	queue      chan string

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	QueueSize  int
	JobTimeout time.Duration
}

// NewWorker creates a worker; call Start to begin processing.
func NewWorker(runner JobRunner, cfg *WorkerConfig) *Worker {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}
	return &Worker{
		runner:     runner,
		jobTimeout: cfg.JobTimeout,
		queue:      make(chan string, size),
	}
}

// Start launches the processing goroutine. Cancelling ctx aborts the running job.
func (w *Worker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(logger.SetComponent(ctx, "worker"))
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for jobID := range w.queue {
			w.process(ctx, jobID)
		}
		logger.CtxInfo(ctx, "Worker drained")
	}()
}

// Enqueue queues a job without blocking.
// Returns:
//   - error: ErrQueueFull when no slot is free, ErrWorkerStopped after Stop.
func (w *Worker) Enqueue(jobID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrWorkerStopped
	}
	select {
	case w.queue <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of queued jobs not yet started.
func (w *Worker) Pending() int {
	return len(w.queue)
}

// Stop stops accepting jobs and waits for queued ones to finish.
// If ctx expires first, the running job is cancelled and queued jobs stay pending in the store.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	cancel := w.cancel
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if cancel != nil {
			cancel()
		}
		return nil
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		<-done
		return ctx.Err()
	}
}

func (w *Worker) process(ctx context.Context, jobID string) {
	// a cancelled worker leaves remaining jobs pending
	if ctx.Err() != nil {
		return
	}

	ctx = logger.SetJobID(ctx, jobID)
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := w.runner.Run(ctx, jobID)
	entry := logger.With(logger.Fields{}).WithDuration(time.Since(start).Milliseconds())
	if err != nil {
		entry.With(logger.Fields{logger.FieldStatus: "error"}).Error(ctx, "Job run ended with error: %v", err)
		return
	}
	entry.With(logger.Fields{logger.FieldStatus: "done"}).Info(ctx, "Job run finished")
}
