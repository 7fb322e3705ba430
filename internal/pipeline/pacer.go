package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/timmy/soulsync/internal/domain"
)

// TaskFunc executes a single task.
type TaskFunc func(ctx context.Context, task domain.Task) (domain.TaskResult, error)

// Batch is what a paced run collected before it finished or its deadline passed.
type Batch struct {
	Results  []domain.TaskResult // successful tasks, in task list order
	Failures []error
	Launched int
	TimedOut bool
}

// Pacer starts tasks no closer together than a fixed delay.
// Spacing is measured between call starts, so a slow call does not delay the next one.
type Pacer struct {
	delay time.Duration
}

// NewPacer creates a Pacer; a non-positive delay starts tasks back to back.
func NewPacer(delay time.Duration) *Pacer {
	if delay < 0 {
		delay = 0
	}
	return &Pacer{delay: delay}
}

// Delay returns the minimum spacing between task starts.
func (p *Pacer) Delay() time.Duration {
	return p.delay
}

func (p *Pacer) newLimiter() *rate.Limiter {
	if p.delay == 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(p.delay), 1)
}

type outcome struct {
	index  int
	result domain.TaskResult
	err    error
}

// Run executes tasks with paced starts.
// Parameters:
//   - deadline: bounds pacing waits and collection; once done no new task starts.
//   - taskCtx: passed to each task; in-flight calls are not cut off by deadline.
//   - tasks: tasks to run.
//   - fn: per-task operation.
//
// Returns:
//   - Batch: results collected before all tasks finished or deadline expired.
//     Results arriving after the deadline are discarded.
func (p *Pacer) Run(deadline, taskCtx context.Context, tasks []domain.Task, fn TaskFunc) Batch {
	var batch Batch
	if len(tasks) == 0 {
		return batch
	}

	limiter := p.newLimiter()
	outcomes := make(chan outcome, len(tasks))

	var g errgroup.Group
	for i, task := range tasks {
		if err := limiter.Wait(deadline); err != nil {
			break
		}
		batch.Launched++
		g.Go(func() error {
			o := outcome{index: i}
			defer func() {
				if r := recover(); r != nil {
					o.err = fmt.Errorf("task %s/%s panicked: %v", task.Agent, task.Key, r)
				}
				outcomes <- o
			}()
			o.result, o.err = fn(taskCtx, task)
			return nil
		})
	}

	// closed once every launched task has reported
	go func() {
		_ = g.Wait()
		close(outcomes)
	}()

	collected := make([]outcome, 0, batch.Launched)
	finished := false
	for !finished {
		select {
		case o, ok := <-outcomes:
			if !ok {
				finished = true
				break
			}
			collected = append(collected, o)
		case <-deadline.Done():
			collected = drain(outcomes, collected)
			finished = true
		}
	}
	batch.TimedOut = batch.Launched < len(tasks) || len(collected) < batch.Launched

	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })
	for _, o := range collected {
		if o.err != nil {
			batch.Failures = append(batch.Failures, o.err)
			continue
		}
		batch.Results = append(batch.Results, o.result)
	}
	return batch
}

// drain takes whatever outcomes are already buffered without blocking.
func drain(ch <-chan outcome, into []outcome) []outcome {
	for {
		select {
		case o, ok := <-ch:
			if !ok {
				return into
			}
			into = append(into, o)
		default:
			return into
		}
	}
}
