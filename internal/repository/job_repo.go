package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/soulsync/internal/domain"
	"gorm.io/gorm"
)

var (
	// ErrJobNotFound is returned when no job has the requested ID.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobExists is returned when creating a job whose ID is taken.
	ErrJobExists = errors.New("job already exists")
	// ErrAlreadyClaimed is returned when claiming a job that is no longer pending.
	ErrAlreadyClaimed = errors.New("job already claimed")
	// ErrJobNotRunning is returned when updating a job that has not been claimed.
	ErrJobNotRunning = errors.New("job is not running")
	// ErrJobTerminal is returned when updating a completed or failed job.
	ErrJobTerminal = errors.New("job already finished")
	// ErrProgressRegression is returned when an update would lower progress.
	ErrProgressRegression = errors.New("progress cannot decrease")
	// ErrInvalidUpdate is returned when an update breaks the job field invariants.
	ErrInvalidUpdate = errors.New("invalid job update")
)

// JobUpdate carries the fields to change; nil fields are left untouched.
// Completing requires Result, failing requires ErrorMessage.
type JobUpdate struct {
	Status       *domain.JobStatus
	Phase        *string
	Progress     *int
	ErrorMessage *string
	Result       *domain.Report
	PhaseMetrics domain.PhaseMetricsList
}

// JobRepository persists report jobs.
type JobRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db, now: time.Now}
}

// Create inserts a new job in pending state.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job to persist; status, phase and progress are reset.
// Returns:
//   - error: ErrJobExists if the ID is taken, other errors on failure.
func (r *JobRepository) Create(ctx context.Context, job *domain.ReportJob) error {
	exists, err := r.exists(ctx, job.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrJobExists
	}

	job.Status = domain.JobStatusPending
	job.Phase = "queued"
	job.Progress = 0
	job.Result = nil
	job.ErrorMessage = ""
	job.StartedAt = nil
	job.CompletedAt = nil
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID.
// Returns:
//   - *domain.ReportJob: job if found.
//   - error: ErrJobNotFound when absent.
func (r *JobRepository) Get(ctx context.Context, id string) (*domain.ReportJob, error) {
	var job domain.ReportJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// Claim moves a pending job to running. Only the first claim succeeds.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - *domain.ReportJob: the claimed job.
//   - error: ErrAlreadyClaimed if the job is not pending, ErrJobNotFound if absent.
func (r *JobRepository) Claim(ctx context.Context, id string) (*domain.ReportJob, error) {
	now := r.now()
	res := r.db.WithContext(ctx).Model(&domain.ReportJob{}).
		Where("id = ? AND status = ?", id, domain.JobStatusPending).
		Updates(map[string]interface{}{
			"status":     domain.JobStatusRunning,
			"phase":      "claimed",
			"started_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to claim job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		exists, err := r.exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrJobNotFound
		}
		return nil, ErrAlreadyClaimed
	}
	return r.Get(ctx, id)
}

// Update applies changes to a running job.
// Terminal jobs are never modified and progress never decreases.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - upd: fields to change.
// Returns:
//   - error: one of the sentinel errors when the update is rejected.
func (r *JobRepository) Update(ctx context.Context, id string, upd JobUpdate) error {
	if err := upd.validate(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job domain.ReportJob
		if err := tx.Select("id", "status", "progress").First(&job, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return fmt.Errorf("failed to load job: %w", err)
		}
		if job.Status.IsTerminal() {
			return ErrJobTerminal
		}
		if job.Status != domain.JobStatusRunning {
			return ErrJobNotRunning
		}

		now := r.now()
		fields := map[string]interface{}{"updated_at": now}
		if upd.Phase != nil {
			fields["phase"] = *upd.Phase
		}
		if upd.Progress != nil {
			if *upd.Progress < job.Progress {
				return fmt.Errorf("%w: %d -> %d", ErrProgressRegression, job.Progress, *upd.Progress)
			}
			fields["progress"] = *upd.Progress
		}
		if upd.PhaseMetrics != nil {
			fields["phase_metrics"] = upd.PhaseMetrics
		}
		if upd.Status != nil {
			fields["status"] = *upd.Status
			fields["completed_at"] = now
			switch *upd.Status {
			case domain.JobStatusCompleted:
				fields["result"] = *upd.Result
				fields["progress"] = 100
			case domain.JobStatusFailed:
				fields["error_message"] = *upd.ErrorMessage
			}
		}

		res := tx.Model(&domain.ReportJob{}).
			Where("id = ? AND status = ?", id, domain.JobStatusRunning).
			Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("failed to update job: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrJobTerminal
		}
		return nil
	})
}

// ListStale returns running jobs not updated since before.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - before: cutoff time.
//   - limit: maximum number of jobs to return.
// Returns:
//   - []domain.ReportJob: stale jobs, oldest first.
//   - error: non-nil if the query fails.
func (r *JobRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]domain.ReportJob, error) {
	var jobs []domain.ReportJob
	if err := r.db.WithContext(ctx).
		Omit("blueprint", "result").
		Where("status = ? AND updated_at < ?", domain.JobStatusRunning, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale jobs: %w", err)
	}
	return jobs, nil
}

// ListPending returns pending jobs, oldest first.
func (r *JobRepository) ListPending(ctx context.Context, limit int) ([]domain.ReportJob, error) {
	var jobs []domain.ReportJob
	if err := r.db.WithContext(ctx).
		Select("id", "status", "created_at").
		Where("status = ?", domain.JobStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	return jobs, nil
}

func (r *JobRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ReportJob{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check job existence: %w", err)
	}
	return count > 0, nil
}

func (u JobUpdate) validate() error {
	if u.Progress != nil && (*u.Progress < 0 || *u.Progress > 100) {
		return fmt.Errorf("%w: progress %d out of range", ErrInvalidUpdate, *u.Progress)
	}
	if u.Status == nil {
		if u.Result != nil || u.ErrorMessage != nil {
			return fmt.Errorf("%w: result and error require a terminal status", ErrInvalidUpdate)
		}
		if u.Progress != nil && *u.Progress == 100 {
			return fmt.Errorf("%w: progress 100 requires completion", ErrInvalidUpdate)
		}
		return nil
	}

	switch *u.Status {
	case domain.JobStatusCompleted:
		if u.Result == nil {
			return fmt.Errorf("%w: completed job needs a result", ErrInvalidUpdate)
		}
		if u.ErrorMessage != nil {
			return fmt.Errorf("%w: completed job cannot carry an error", ErrInvalidUpdate)
		}
	case domain.JobStatusFailed:
		if u.ErrorMessage == nil || *u.ErrorMessage == "" {
			return fmt.Errorf("%w: failed job needs an error message", ErrInvalidUpdate)
		}
		if u.Result != nil {
			return fmt.Errorf("%w: failed job cannot carry a result", ErrInvalidUpdate)
		}
		if u.Progress != nil && *u.Progress == 100 {
			return fmt.Errorf("%w: progress 100 requires completion", ErrInvalidUpdate)
		}
	default:
		return fmt.Errorf("%w: status %q cannot be set by update", ErrInvalidUpdate, *u.Status)
	}
	return nil
}
