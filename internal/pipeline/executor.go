package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/timmy/soulsync/internal/domain"
	"github.com/timmy/soulsync/internal/logger"
	"github.com/timmy/soulsync/internal/prompts"
)

// ErrEmptyContent is returned for a successful response without text.
var ErrEmptyContent = errors.New("empty content")

// Generator is the external text-generation service.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

// TaskError reports a task that exhausted its attempts.
type TaskError struct {
	Agent    domain.AgentKind
	Key      string
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s/%s failed after %d attempts in %s: %v",
		e.Agent, e.Key, e.Attempts, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// RenderFunc turns a task into its system and user prompt.
type RenderFunc func(agent domain.AgentKind, key, input string) (string, string, error)

// Executor runs one task against the Generator with bounded retries.
// It is the only retry loop in the pipeline.
type Executor struct {
	gen        Generator
	maxRetries int
	delays     []time.Duration
	render     RenderFunc
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

// NewExecutor creates an Executor.
// Parameters:
//   - gen: text-generation service.
//   - maxRetries: total attempts per task; values below 1 mean a single attempt.
//   - delays: wait before each retry; the last entry repeats for later retries.
//
// Returns:
//   - *Executor: ready executor rendering prompts with prompts.Render.
func NewExecutor(gen Generator, maxRetries int, delays []time.Duration) *Executor {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Executor{
		gen:        gen,
		maxRetries: maxRetries,
		delays:     append([]time.Duration(nil), delays...),
		render:     prompts.Render,
		sleep:      sleepContext,
		now:        time.Now,
	}
}

// MaxRetries returns the configured number of attempts.
func (e *Executor) MaxRetries() int {
	return e.maxRetries
}

// retryDelay returns the wait after the given failed attempt (1-based).
func (e *Executor) retryDelay(attempt int) time.Duration {
	if len(e.delays) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx >= len(e.delays) {
		idx = len(e.delays) - 1
	}
	return e.delays[idx]
}

// Execute runs the task until it yields non-empty content or attempts run out.
// Parameters:
//   - ctx: context for the outbound calls and retry waits.
//   - task: task to run.
//
// Returns:
//   - domain.TaskResult: result with content and word count.
//   - error: *TaskError carrying the last failure and total elapsed time.
func (e *Executor) Execute(ctx context.Context, task domain.Task) (domain.TaskResult, error) {
	start := e.now()
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldAgent:   string(task.Agent),
		logger.FieldTaskKey: task.Key,
	})

	fail := func(attempts int, err error) (domain.TaskResult, error) {
		return domain.TaskResult{}, &TaskError{
			Agent:    task.Agent,
			Key:      task.Key,
			Attempts: attempts,
			Elapsed:  e.now().Sub(start),
			Err:      err,
		}
	}

	systemPrompt, userPrompt, err := e.render(task.Agent, task.Key, task.Input)
	if err != nil {
		return fail(0, err)
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		content, err := e.gen.Generate(ctx, systemPrompt, userPrompt)
		if err == nil && strings.TrimSpace(content) == "" {
			err = ErrEmptyContent
		}
		if err == nil {
			result := domain.NewTaskResult(task, content)
			logger.With(logger.Fields{
				logger.FieldAttempt:   attempt,
				logger.FieldWordCount: result.WordCount,
			}).WithDuration(e.now().Sub(start).Milliseconds()).Debug(ctx, "Task completed")
			return result, nil
		}

		lastErr = err
		logger.With(logger.Fields{logger.FieldAttempt: attempt}).
			Warn(ctx, "Task attempt failed: %v", err)

		if attempt == e.maxRetries {
			break
		}
		if err := e.sleep(ctx, e.retryDelay(attempt)); err != nil {
			return fail(attempt, fmt.Errorf("%w (retry wait: %v)", lastErr, err))
		}
	}

	return fail(e.maxRetries, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
