package repository

import (
	"context"
	"errors"
	"time"

	"github.com/n-translator/api/internal/domain"
	"gorm.io/gorm"
)

// leaseScanLimit bounds how many claim races a single LeaseNext call will
// retry before giving up and letting the caller poll again.
const leaseScanLimit = 5

// JobRepository handles the durable translation job queue records.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// WithTx returns a repository bound to the given transaction handle. Used to
// enqueue a job inside the same transaction creating its translation record.
func (r *JobRepository) WithTx(tx *gorm.DB) *JobRepository {
	return &JobRepository{db: tx}
}

// Enqueue inserts a new queued job.
func (r *JobRepository) Enqueue(ctx context.Context, job *domain.TranslationJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.TranslationJob, error) {
	var job domain.TranslationJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// CountByTranslation counts jobs referencing the given translation request.
func (r *JobRepository) CountByTranslation(ctx context.Context, translationID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.TranslationJob{}).
		Where("translation_id = ?", translationID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LeaseNext claims the oldest deliverable job: either queued, or leased with
// an expired lease (a worker crashed or overran its visibility timeout).
// Claiming is optimistic; the guarded update keeps exactly one delivery in
// flight per job. Returns (nil, nil) when no job is deliverable.
func (r *JobRepository) LeaseNext(ctx context.Context, visibility time.Duration) (*domain.TranslationJob, error) {
	now := time.Now()

	for i := 0; i < leaseScanLimit; i++ {
		var job domain.TranslationJob
		err := r.db.WithContext(ctx).
			Where("status = ? OR (status = ? AND lease_expires_at <= ?)",
				domain.JobStatusQueued, domain.JobStatusLeased, now).
			Order("created_at ASC").
			First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		expires := now.Add(visibility)
		res := r.db.WithContext(ctx).
			Model(&domain.TranslationJob{}).
			Where("id = ? AND status = ? AND attempts = ?", job.ID, job.Status, job.Attempts).
			Updates(map[string]interface{}{
				"status":           domain.JobStatusLeased,
				"attempts":         job.Attempts + 1,
				"lease_expires_at": &expires,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			job.Status = domain.JobStatusLeased
			job.Attempts++
			job.LeaseExpiresAt = &expires
			return &job, nil
		}
		// Lost the claim race to another worker; scan again.
	}

	return nil, nil
}

// Release returns a leased job to the queue for redelivery, recording the
// error that failed the attempt.
func (r *JobRepository) Release(ctx context.Context, job *domain.TranslationJob, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&domain.TranslationJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":           domain.JobStatusQueued,
			"exceptions":       job.Exceptions,
			"lease_expires_at": nil,
			"last_error":       lastError,
		}).Error
}

// MarkDone finishes a job after successful processing.
func (r *JobRepository) MarkDone(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&domain.TranslationJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           domain.JobStatusDone,
			"lease_expires_at": nil,
		}).Error
}

// MarkDead abandons a job after its retries are exhausted.
func (r *JobRepository) MarkDead(ctx context.Context, job *domain.TranslationJob, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&domain.TranslationJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":           domain.JobStatusDead,
			"exceptions":       job.Exceptions,
			"lease_expires_at": nil,
			"last_error":       lastError,
		}).Error
}
