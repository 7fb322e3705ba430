package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/timmy/soulsync/internal/domain"
	"github.com/timmy/soulsync/internal/logger"
)

const defaultPhaseTimeout = 5 * time.Minute

// PhaseOutput holds the successful results of one phase and its metrics.
type PhaseOutput struct {
	Phase   domain.PhaseName
	Results []domain.TaskResult
	Metrics domain.PhaseMetrics
}

// Content returns the content of the result with key, if any.
func (o *PhaseOutput) Content(key string) (string, bool) {
	if o == nil {
		return "", false
	}
	for _, r := range o.Results {
		if r.Key == key {
			return r.Content, true
		}
	}
	return "", false
}

// ByKey maps result keys to content.
func (o *PhaseOutput) ByKey() map[string]string {
	out := make(map[string]string)
	if o == nil {
		return out
	}
	for _, r := range o.Results {
		out[r.Key] = r.Content
	}
	return out
}

// Text concatenates all results under key headings, for use as input to later phases.
func (o *PhaseOutput) Text() string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	for _, r := range o.Results {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## ")
		b.WriteString(r.Key)
		b.WriteString("\n")
		b.WriteString(r.Content)
	}
	return b.String()
}

// Outputs are the typed results of every task phase of one run.
type Outputs struct {
	Systems      *PhaseOutput
	Laws         *PhaseOutput
	Gates        *PhaseOutput
	Intelligence *PhaseOutput
	Synthesis    *PhaseOutput
}

// Metrics lists the metrics of the phases that ran, in order.
func (o *Outputs) Metrics() domain.PhaseMetricsList {
	list := domain.PhaseMetricsList{}
	for _, p := range []*PhaseOutput{o.Systems, o.Laws, o.Gates, o.Intelligence, o.Synthesis} {
		if p != nil {
			list = append(list, p.Metrics)
		}
	}
	return list
}

// PhaseRunner runs one phase of tasks through the pacer and executor.
type PhaseRunner struct {
	executor *Executor
	pacer    *Pacer
	timeout  time.Duration
}

// NewPhaseRunner creates a PhaseRunner with the given per-phase timeout.
func NewPhaseRunner(executor *Executor, pacer *Pacer, timeout time.Duration) *PhaseRunner {
	if timeout <= 0 {
		timeout = defaultPhaseTimeout
	}
	return &PhaseRunner{executor: executor, pacer: pacer, timeout: timeout}
}

// Run executes tasks as phase name.
// Parameters:
//   - ctx: job context; in-flight calls keep running on it after the phase deadline.
//   - name: phase name for logs and metrics.
//   - tasks: the phase's tasks.
//
// Returns:
//   - *PhaseOutput: successful results only; failed tasks are dropped.
//     A timeout sets Metrics.TimedOut and keeps whatever finished.
func (r *PhaseRunner) Run(ctx context.Context, name domain.PhaseName, tasks []domain.Task) *PhaseOutput {
	ctx = logger.SetPhase(ctx, string(name))
	start := time.Now()

	deadline, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	logger.WithCount(len(tasks)).Info(ctx, "Phase started")

	batch := r.pacer.Run(deadline, ctx, tasks, r.executor.Execute)

	for _, err := range batch.Failures {
		logger.CtxWarn(ctx, "Task dropped from phase: %v", err)
	}

	out := &PhaseOutput{
		Phase:   name,
		Results: batch.Results,
		Metrics: domain.PhaseMetrics{
			Phase:        name,
			TaskCount:    len(tasks),
			SuccessCount: len(batch.Results),
			FailureCount: len(batch.Failures),
			DurationMs:   time.Since(start).Milliseconds(),
			TimedOut:     batch.TimedOut,
		},
	}
	for _, res := range batch.Results {
		out.Metrics.WordCount += res.WordCount
	}

	entry := logger.With(logger.Fields{logger.FieldWordCount: out.Metrics.WordCount}).
		WithCount(out.Metrics.SuccessCount).
		WithDuration(out.Metrics.DurationMs)
	if batch.TimedOut {
		entry.With(logger.Fields{logger.FieldStatus: "timeout"}).
			Warn(ctx, "Phase timed out after %s with %d/%d tasks", r.timeout, out.Metrics.SuccessCount, len(tasks))
	} else {
		entry.With(logger.Fields{logger.FieldStatus: "ok"}).
			Info(ctx, "Phase completed: %d/%d tasks succeeded", out.Metrics.SuccessCount, len(tasks))
	}

	return out
}
