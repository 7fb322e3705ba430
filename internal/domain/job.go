package domain

import "time"

// JobStatus represents the status of a report job.
// Values include JobStatusPending, JobStatusRunning, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ReportJob tracks one run of the report pipeline for a blueprint.
// Result is set only when Status is completed; ErrorMessage only when Status is failed.
type ReportJob struct {
	ID           string           `gorm:"type:text;primaryKey" json:"id"`
	Status       JobStatus        `gorm:"type:text;index:idx_report_jobs_status;default:pending" json:"status"`
	Phase        string           `gorm:"type:text" json:"phase"`
	Progress     int              `gorm:"default:0" json:"progress"`
	Blueprint    Blueprint        `gorm:"type:text;not null" json:"-"`
	Result       *Report          `gorm:"type:text" json:"result,omitempty"`
	ErrorMessage string           `gorm:"type:text" json:"error_message,omitempty"`
	PhaseMetrics PhaseMetricsList `gorm:"type:text" json:"phase_metrics,omitempty"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// TableName returns the database table name for ReportJob.
// Returns:
//   - string: table name for GORM mapping.
func (ReportJob) TableName() string {
	return "report_jobs"
}
