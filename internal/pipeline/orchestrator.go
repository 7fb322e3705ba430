package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/soulsync/internal/domain"
	"github.com/timmy/soulsync/internal/logger"
	"github.com/timmy/soulsync/internal/repository"
)

// ErrJobLeftRunning is returned when a job's terminal state could not be recorded.
var ErrJobLeftRunning = errors.New("job left running")

// PhaseCompleted is the phase label of a finished job.
const PhaseCompleted = "completed"

const terminalUpdateTimeout = 10 * time.Second

// Progress checkpoints reached at the end of each phase. Claiming leaves a job at 0
// and only completion sets 100.
const (
	progressSystems      = 15
	progressLaws         = 20
	progressGates        = 60
	progressIntelligence = 65
	progressSynthesis    = 85
	progressAssembled    = 90
	progressQuotes       = 95
)

// JobStore is the persisted job state the orchestrator drives.
type JobStore interface {
	Claim(ctx context.Context, id string) (*domain.ReportJob, error)
	Update(ctx context.Context, id string, upd repository.JobUpdate) error
}

// QuoteStore persists generated quotes.
type QuoteStore interface {
	ReplaceForJob(ctx context.Context, jobID string, quotes []domain.PersonalizedQuote) error
}

// ReportArchiver copies a finished report to long-term storage.
type ReportArchiver interface {
	Archive(ctx context.Context, jobID string, report *domain.Report) (string, error)
}

// Orchestrator runs the fixed phase sequence for one job at a time.
type Orchestrator struct {
	jobs     JobStore
	quotes   QuoteStore
	archiver ReportArchiver
	runner   *PhaseRunner
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithQuoteStore stores quotes produced by the quote generation phase.
func WithQuoteStore(q QuoteStore) Option {
	return func(o *Orchestrator) { o.quotes = q }
}

// WithArchiver archives completed reports.
func WithArchiver(a ReportArchiver) Option {
	return func(o *Orchestrator) { o.archiver = a }
}

// NewOrchestrator creates an Orchestrator.
// Parameters:
//   - jobs: job state store.
//   - runner: phase runner shared by all phases.
//   - opts: optional quote store and archiver.
//
// Returns:
//   - *Orchestrator: ready orchestrator.
func NewOrchestrator(jobs JobStore, runner *PhaseRunner, opts ...Option) *Orchestrator {
	o := &Orchestrator{jobs: jobs, runner: runner}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run claims a pending job and drives it to completed or failed.
// Pipeline errors end up on the job, not in the return value.
// Parameters:
//   - ctx: job context; its deadline bounds the whole run.
//   - jobID: job to process.
//
// Returns:
//   - error: non-nil only if the job could not be claimed, or its terminal
//     state could not be recorded (ErrJobLeftRunning).
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	ctx = logger.SetComponent(logger.SetJobID(ctx, jobID), "orchestrator")

	job, err := o.jobs.Claim(ctx, jobID)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to claim job: %v", err)
		return fmt.Errorf("claim job %s: %w", jobID, err)
	}

	start := time.Now()
	logger.CtxInfo(ctx, "Job claimed, starting pipeline")

	report, metrics, err := o.process(ctx, job)
	if err != nil {
		return o.fail(ctx, jobID, err)
	}

	status := domain.JobStatusCompleted
	phase := PhaseCompleted
	uctx, cancel := terminalContext(ctx)
	defer cancel()
	if err := o.jobs.Update(uctx, jobID, repository.JobUpdate{
		Status:       &status,
		Phase:        &phase,
		Result:       report,
		PhaseMetrics: metrics,
	}); err != nil {
		return o.fail(ctx, jobID, fmt.Errorf("record completion: %w", err))
	}

	logger.With(logger.Fields{
		logger.FieldWordCount: report.TotalWordCount,
		logger.FieldStatus:    string(status),
	}).WithCount(report.SectionCount()).
		WithDuration(time.Since(start).Milliseconds()).
		Info(ctx, "Job completed")
	return nil
}

type taskPhase struct {
	name       domain.PhaseName
	checkpoint int
	tasks      func() []domain.Task
	store      func(*PhaseOutput)
}

// taskPhases lists the generation phases in order; later builders read earlier outputs.
func taskPhases(bp domain.Blueprint, out *Outputs) []taskPhase {
	return []taskPhase{
		{domain.PhaseSystemTranslation, progressSystems,
			func() []domain.Task { return SystemTasks(bp) },
			func(p *PhaseOutput) { out.Systems = p }},
		{domain.PhaseLawAnalysis, progressLaws,
			func() []domain.Task { return LawTasks(bp) },
			func(p *PhaseOutput) { out.Laws = p }},
		{domain.PhaseGateAnalysis, progressGates,
			func() []domain.Task { return GateTasks(bp) },
			func(p *PhaseOutput) { out.Gates = p }},
		{domain.PhaseIntelligenceExtraction, progressIntelligence,
			func() []domain.Task { return IntelligenceTasks(out.Laws) },
			func(p *PhaseOutput) { out.Intelligence = p }},
		{domain.PhaseSynthesis, progressSynthesis,
			func() []domain.Task { return SynthesisTasks(bp, out) },
			func(p *PhaseOutput) { out.Synthesis = p }},
	}
}

func (o *Orchestrator) process(ctx context.Context, job *domain.ReportJob) (report *domain.Report, metrics domain.PhaseMetricsList, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	if err := job.Blueprint.Validate(); err != nil {
		return nil, nil, fmt.Errorf("malformed job: %w", err)
	}

	out := &Outputs{}
	for _, phase := range taskPhases(job.Blueprint, out) {
		if err := o.enter(ctx, job.ID, phase.name); err != nil {
			return nil, nil, err
		}
		phase.store(o.runner.Run(ctx, phase.name, phase.tasks()))
		if err := o.checkpoint(ctx, job.ID, phase.checkpoint, out.Metrics()); err != nil {
			return nil, nil, err
		}
	}

	if err := o.enter(ctx, job.ID, domain.PhaseReportAssembly); err != nil {
		return nil, nil, err
	}
	report = Assemble(out)
	metrics = out.Metrics()
	if err := o.checkpoint(ctx, job.ID, progressAssembled, metrics); err != nil {
		return nil, nil, err
	}

	if err := o.enter(ctx, job.ID, domain.PhaseQuoteGeneration); err != nil {
		return nil, nil, err
	}
	quotes := o.runner.Run(ctx, domain.PhaseQuoteGeneration, QuoteTasks(report))
	metrics = append(metrics, quotes.Metrics)
	o.storeQuotes(ctx, job.ID, quotes)
	if err := o.checkpoint(ctx, job.ID, progressQuotes, metrics); err != nil {
		return nil, nil, err
	}

	o.archive(ctx, job.ID, report)
	return report, metrics, nil
}

// enter records the phase label before its work starts.
func (o *Orchestrator) enter(ctx context.Context, jobID string, phase domain.PhaseName) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("job aborted before %s: %w", phase, err)
	}
	label := string(phase)
	if err := o.jobs.Update(ctx, jobID, repository.JobUpdate{Phase: &label}); err != nil {
		return fmt.Errorf("record phase %s: %w", phase, err)
	}
	return nil
}

func (o *Orchestrator) checkpoint(ctx context.Context, jobID string, progress int, metrics domain.PhaseMetricsList) error {
	if err := o.jobs.Update(ctx, jobID, repository.JobUpdate{
		Progress:     &progress,
		PhaseMetrics: metrics,
	}); err != nil {
		return fmt.Errorf("record progress %d: %w", progress, err)
	}
	return nil
}

func (o *Orchestrator) storeQuotes(ctx context.Context, jobID string, out *PhaseOutput) {
	if o.quotes == nil {
		return
	}
	content, ok := out.Content(string(domain.AgentQuoteGenerator))
	if !ok {
		return
	}
	quotes := ParseQuotes(jobID, content)
	if err := o.quotes.ReplaceForJob(ctx, jobID, quotes); err != nil {
		logger.CtxWarn(ctx, "Failed to store quotes: %v", err)
		return
	}
	logger.WithCount(len(quotes)).Info(ctx, "Quotes stored")
}

func (o *Orchestrator) archive(ctx context.Context, jobID string, report *domain.Report) {
	if o.archiver == nil {
		return
	}
	key, err := o.archiver.Archive(ctx, jobID, report)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to archive report: %v", err)
		return
	}
	logger.CtxInfo(ctx, "Report archived to %s", key)
}

// fail makes the one attempt to record the job as failed.
func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error) error {
	logger.CtxError(ctx, "Job failed: %v", cause)

	status := domain.JobStatusFailed
	msg := cause.Error()
	uctx, cancel := terminalContext(ctx)
	defer cancel()
	if err := o.jobs.Update(uctx, jobID, repository.JobUpdate{
		Status:       &status,
		ErrorMessage: &msg,
	}); err != nil {
		logger.CtxError(ctx, "Could not record failure, job stays running: %v", err)
		return fmt.Errorf("%w: %s: %v", ErrJobLeftRunning, jobID, err)
	}
	return nil
}

// terminalContext detaches from the job deadline so an expired job can still be closed out.
func terminalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), terminalUpdateTimeout)
}
