package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/timmy/soulsync/internal/domain"
	"github.com/timmy/soulsync/internal/logger"
	"github.com/timmy/soulsync/internal/repository"
	"github.com/timmy/soulsync/internal/storage"
)

var (
	// ErrMissingJobID is returned when a submission has no job ID.
	ErrMissingJobID = errors.New("job_id is required")
	// ErrMissingBlueprint is returned when a submission has no blueprint.
	ErrMissingBlueprint = errors.New("blueprint is required")
	// ErrInvalidBlueprint is returned when the blueprint is not a JSON object.
	ErrInvalidBlueprint = errors.New("blueprint is invalid")
	// ErrJobNotPending is returned when resubmitting a job that already started.
	ErrJobNotPending = errors.New("job is not pending")
	// ErrReportNotReady is returned when asking for the report of an unfinished or failed job.
	ErrReportNotReady = errors.New("report is not ready")
	// ErrReportNotFound is returned when a completed job's report is neither stored nor archived.
	ErrReportNotFound = errors.New("report not found")
)

// Enqueuer accepts job IDs for background processing.
type Enqueuer interface {
	Enqueue(jobID string) error
}

// ReportLoader reads archived reports.
type ReportLoader interface {
	Load(ctx context.Context, jobID string) (*domain.Report, error)
}

// JobView is the polling response for one job.
type JobView struct {
	ID           string                  `json:"id"`
	Status       domain.JobStatus        `json:"status"`
	Phase        string                  `json:"phase"`
	Progress     int                     `json:"progress"`
	Result       *domain.Report          `json:"result,omitempty"`
	ErrorMessage string                  `json:"error_message,omitempty"`
	PhaseMetrics domain.PhaseMetricsList `json:"phase_metrics,omitempty"`
	Stale        bool                    `json:"stale"`
	StartedAt    *time.Time              `json:"started_at,omitempty"`
	CompletedAt  *time.Time              `json:"completed_at,omitempty"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// JobService accepts report jobs and answers polling requests.
type JobService struct {
	jobs       *repository.JobRepository
	quotes     *repository.QuoteRepository
	queue      Enqueuer
	archive    ReportLoader
	staleAfter time.Duration
	now        func() time.Time
}

// JobServiceConfig holds configuration for the job service.
type JobServiceConfig struct {
	// StaleAfter marks running jobs without updates for this long as stale. Zero disables it.
	StaleAfter time.Duration
	// Archive serves reports whose result column is empty, e.g. after a restore
	// from a backup taken before completion. Optional.
	Archive ReportLoader
}

// NewJobService creates a new job service.
// Parameters:
//   - jobs: job repository.
//   - quotes: quote repository.
//   - queue: background queue jobs are handed to.
//   - cfg: staleness settings.
//
// Returns:
//   - *JobService: initialized service.
func NewJobService(
	jobs *repository.JobRepository,
	quotes *repository.QuoteRepository,
	queue Enqueuer,
	cfg *JobServiceConfig,
) *JobService {
	return &JobService{
		jobs:       jobs,
		quotes:     quotes,
		queue:      queue,
		archive:    cfg.Archive,
		staleAfter: cfg.StaleAfter,
		now:        time.Now,
	}
}

// Submit creates a pending job and queues it.
// Resubmitting a job that is still pending queues it again; any other existing job is rejected.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: caller-chosen job ID.
//   - blueprint: JSON object describing the subject.
//
// Returns:
//   - *domain.ReportJob: the accepted job.
//   - error: ErrMissingJobID, ErrMissingBlueprint, ErrInvalidBlueprint,
//     ErrJobNotPending, ErrQueueFull or a storage error.
func (s *JobService) Submit(ctx context.Context, jobID string, blueprint domain.Blueprint) (*domain.ReportJob, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, ErrMissingJobID
	}
	if blueprint.IsEmpty() {
		return nil, ErrMissingBlueprint
	}
	if err := blueprint.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlueprint, err)
	}

	ctx = logger.SetJobID(ctx, jobID)

	job := &domain.ReportJob{ID: jobID, Blueprint: blueprint}
	err := s.jobs.Create(ctx, job)
	if errors.Is(err, repository.ErrJobExists) {
		existing, getErr := s.jobs.Get(ctx, jobID)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Status != domain.JobStatusPending {
			return nil, fmt.Errorf("%w: status %s", ErrJobNotPending, existing.Status)
		}
		logger.CtxInfo(ctx, "Job already pending, queueing again")
		job = existing
	} else if err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(jobID); err != nil {
		logger.CtxWarn(ctx, "Failed to queue job: %v", err)
		return nil, err
	}

	logger.CtxInfo(ctx, "Job accepted")
	return job, nil
}

// Get returns the polling view of a job.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: job to look up.
//
// Returns:
//   - *JobView: status, progress and result; Stale is set for running jobs
//     that stopped advancing.
//   - error: repository.ErrJobNotFound when absent.
func (s *JobService) Get(ctx context.Context, jobID string) (*JobView, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &JobView{
		ID:           job.ID,
		Status:       job.Status,
		Phase:        job.Phase,
		Progress:     job.Progress,
		Result:       job.Result,
		ErrorMessage: job.ErrorMessage,
		PhaseMetrics: job.PhaseMetrics,
		Stale:        s.isStale(job),
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		UpdatedAt:    job.UpdatedAt,
	}, nil
}

func (s *JobService) isStale(job *domain.ReportJob) bool {
	if s.staleAfter <= 0 || job.Status != domain.JobStatusRunning {
		return false
	}
	return s.now().Sub(job.UpdatedAt) > s.staleAfter
}

// Report returns the assembled report of a completed job.
// The stored result wins; the archive is read only when the row has none.
// Returns:
//   - *domain.Report: the report.
//   - error: repository.ErrJobNotFound, ErrReportNotReady for jobs that did not
//     complete, ErrReportNotFound when no copy exists.
func (s *JobService) Report(ctx context.Context, jobID string) (*domain.Report, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusCompleted {
		return nil, fmt.Errorf("%w: status %s", ErrReportNotReady, job.Status)
	}
	if job.Result != nil {
		return job.Result, nil
	}
	if s.archive == nil {
		return nil, ErrReportNotFound
	}

	ctx = logger.SetJobID(ctx, jobID)
	report, err := s.archive.Load(ctx, jobID)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrReportNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("load archived report: %w", err)
	}
	logger.CtxInfo(ctx, "Served report from archive")
	return report, nil
}

// Quotes returns the personalized quotes generated for a job.
func (s *JobService) Quotes(ctx context.Context, jobID string) ([]domain.PersonalizedQuote, error) {
	if _, err := s.jobs.Get(ctx, jobID); err != nil {
		return nil, err
	}
	return s.quotes.ListByJob(ctx, jobID)
}

// RequeuePending queues jobs left pending, e.g. after a restart.
// Returns:
//   - int: number of jobs queued.
//   - error: non-nil if listing fails; a full queue stops early without error.
func (s *JobService) RequeuePending(ctx context.Context, limit int) (int, error) {
	jobs, err := s.jobs.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, job := range jobs {
		if err := s.queue.Enqueue(job.ID); err != nil {
			logger.CtxWarn(ctx, "Stopped requeueing pending jobs: %v", err)
			break
		}
		queued++
	}
	if queued > 0 {
		logger.WithCount(queued).Info(ctx, "Requeued pending jobs")
	}
	return queued, nil
}

// StaleJobs returns the ids of running jobs that stopped advancing.
// These jobs lost their worker and cannot be recovered; they are reported, not retried.
func (s *JobService) StaleJobs(ctx context.Context, limit int) ([]string, error) {
	if s.staleAfter <= 0 {
		return nil, nil
	}
	jobs, err := s.jobs.ListStale(ctx, s.now().Add(-s.staleAfter), limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	return ids, nil
}
