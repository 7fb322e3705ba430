package pipeline

import (
	"github.com/timmy/soulsync/internal/config"
)

// New wires an Orchestrator from resolved pipeline settings.
// Parameters:
//   - gen: text-generation service.
//   - settings: retries, delays, pacing and phase timeout.
//   - jobs: job state store.
//   - opts: optional quote store and archiver.
//
// Returns:
//   - *Orchestrator: orchestrator sharing one executor and pacer across phases.
func New(gen Generator, settings config.PipelineSettings, jobs JobStore, opts ...Option) *Orchestrator {
	executor := NewExecutor(gen, settings.MaxRetries, settings.RetryDelays)
	runner := NewPhaseRunner(executor, NewPacer(settings.APICallDelay), settings.PhaseTimeout)
	return NewOrchestrator(jobs, runner, opts...)
}
