package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu        sync.Mutex
	ran       []string
	deadlines []bool
	block     chan struct{}
	started   chan string
}

func (r *fakeRunner) Run(ctx context.Context, jobID string) error {
	if r.started != nil {
		r.started <- jobID
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	_, hasDeadline := ctx.Deadline()
	r.mu.Lock()
	r.ran = append(r.ran, jobID)
	r.deadlines = append(r.deadlines, hasDeadline)
	r.mu.Unlock()
	return nil
}

func (r *fakeRunner) runs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

func TestWorker_RunsInOrderWithDeadline(t *testing.T) {
	runner := &fakeRunner{}
	w := NewWorker(runner, &WorkerConfig{QueueSize: 4, JobTimeout: time.Minute})
	w.Start(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, w.Enqueue(id))
	}
	require.NoError(t, w.Stop(context.Background()))

	assert.Equal(t, []string{"a", "b", "c"}, runner.runs())
	assert.Equal(t, []bool{true, true, true}, runner.deadlines)
	assert.ErrorIs(t, w.Enqueue("d"), ErrWorkerStopped)
}

func TestWorker_QueueFull(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), started: make(chan string, 1)}
	w := NewWorker(runner, &WorkerConfig{QueueSize: 1, JobTimeout: time.Minute})
	w.Start(context.Background())

	require.NoError(t, w.Enqueue("a"))
	<-runner.started // a is running, queue empty
	require.NoError(t, w.Enqueue("b"))
	assert.Equal(t, 1, w.Pending())
	assert.ErrorIs(t, w.Enqueue("c"), ErrQueueFull)

	runner.started = nil
	close(runner.block)
	require.NoError(t, w.Stop(context.Background()))
	assert.Equal(t, []string{"a", "b"}, runner.runs())
}

func TestWorker_StopTimeoutCancelsRunningJob(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), started: make(chan string, 1)}
	w := NewWorker(runner, &WorkerConfig{QueueSize: 2, JobTimeout: time.Minute})
	w.Start(context.Background())

	require.NoError(t, w.Enqueue("a"))
	<-runner.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := w.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// cancelled before finishing
	assert.Empty(t, runner.runs())
}

func TestWorker_JobTimeout(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	w := NewWorker(runner, &WorkerConfig{QueueSize: 1, JobTimeout: 20 * time.Millisecond})
	w.Start(context.Background())

	require.NoError(t, w.Enqueue("slow"))
	start := time.Now()
	require.NoError(t, w.Stop(context.Background()))

	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, runner.runs())
}
