package domain

import "time"

// JobStatus represents the delivery state of a queued translation job.
// Values include JobStatusQueued, JobStatusLeased, JobStatusDone, and
// JobStatusDead.
type JobStatus string

const (
	JobStatusQueued JobStatus = "queued"
	JobStatusLeased JobStatus = "leased"
	JobStatusDone   JobStatus = "done"
	JobStatusDead   JobStatus = "dead"
)

// TranslationJob is the durable queue record driving one translation request
// through the background processor. Attempts counts deliveries (incremented
// when a worker leases the job); Exceptions counts deliveries that returned
// an error. The job is abandoned once either counter reaches its cap.
type TranslationJob struct {
	ID             string     `gorm:"type:text;primaryKey" json:"id"`
	TranslationID  string     `gorm:"type:text;not null;index" json:"translation_id"`
	Status         JobStatus  `gorm:"type:text;index;default:queued" json:"status"`
	Attempts       int        `gorm:"default:0" json:"attempts"`
	Exceptions     int        `gorm:"default:0" json:"exceptions"`
	MaxAttempts    int        `gorm:"default:3" json:"max_attempts"`
	MaxExceptions  int        `gorm:"default:2" json:"max_exceptions"`
	LeaseExpiresAt *time.Time `gorm:"index" json:"lease_expires_at,omitempty"`
	LastError      string     `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for TranslationJob.
func (TranslationJob) TableName() string {
	return "translation_jobs"
}
