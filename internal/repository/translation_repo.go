package repository

import (
	"context"
	"errors"
	"time"

	"github.com/n-translator/api/internal/domain"
	"gorm.io/gorm"
)

// PerPage is the fixed page size for translation listings.
const PerPage = 15

// ListFilters holds the optional exact-match filters for listing translation
// requests. Unrecognized status values are passed through as a literal
// equality filter and simply match nothing; the filter surface stays
// forward-compatible with new statuses.
type ListFilters struct {
	Status         string
	TargetLanguage string
}

// TranslationRepository handles translation request persistence. All status
// mutations are explicit commands that refuse to touch terminal records.
type TranslationRepository struct {
	db *gorm.DB
}

// NewTranslationRepository creates a new TranslationRepository.
func NewTranslationRepository(db *gorm.DB) *TranslationRepository {
	return &TranslationRepository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *TranslationRepository) WithTx(tx *gorm.DB) *TranslationRepository {
	return &TranslationRepository{db: tx}
}

// Create inserts a new translation request record.
func (r *TranslationRepository) Create(ctx context.Context, t *domain.Translation) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// GetByID retrieves a translation request by its ID.
func (r *TranslationRepository) GetByID(ctx context.Context, id string) (*domain.Translation, error) {
	var t domain.Translation
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// MarkProcessing transitions a non-terminal record to processing.
// Re-entry on a record already processing is a no-op update, which keeps
// redeliveries safe.
func (r *TranslationRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Translation{}).
		Where("id = ? AND status IN ?", id, []domain.TranslationStatus{
			domain.TranslationStatusPending,
			domain.TranslationStatusProcessing,
		}).
		Update("status", domain.TranslationStatusProcessing).Error
}

// MarkCompleted stores the translated content and moves the record to its
// completed terminal state. Records already terminal are left untouched.
func (r *TranslationRepository) MarkCompleted(ctx context.Context, id string, translated domain.JSONMap) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.Translation{}).
		Where("id = ? AND status IN ?", id, []domain.TranslationStatus{
			domain.TranslationStatusPending,
			domain.TranslationStatusProcessing,
		}).
		Updates(map[string]interface{}{
			"status":             domain.TranslationStatusCompleted,
			"translated_content": translated,
			"processed_at":       &now,
		}).Error
}

// MarkFailed stores the failure description and moves the record to its
// failed terminal state. Records already terminal are left untouched.
func (r *TranslationRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.Translation{}).
		Where("id = ? AND status IN ?", id, []domain.TranslationStatus{
			domain.TranslationStatusPending,
			domain.TranslationStatusProcessing,
		}).
		Updates(map[string]interface{}{
			"status":        domain.TranslationStatusFailed,
			"error_message": errorMessage,
			"processed_at":  &now,
		}).Error
}

// List retrieves a page of translation requests ordered by creation time
// descending, along with the total count of matching records.
func (r *TranslationRepository) List(ctx context.Context, filters ListFilters, page int) ([]domain.Translation, int64, error) {
	if page < 1 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&domain.Translation{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.TargetLanguage != "" {
		query = query.Where("target_language = ?", filters.TargetLanguage)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var translations []domain.Translation
	if err := query.
		Order("created_at DESC").
		Limit(PerPage).
		Offset((page - 1) * PerPage).
		Find(&translations).Error; err != nil {
		return nil, 0, err
	}

	return translations, total, nil
}
