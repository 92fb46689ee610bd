package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/n-translator/api/internal/domain"
	"github.com/n-translator/api/internal/logger"
	"github.com/n-translator/api/internal/repository"
	"gorm.io/gorm"
)

// DefaultSourceLanguage is assumed for all submitted content.
const DefaultSourceLanguage = "en"

// DefaultTargetLanguage is used when the request does not name one.
const DefaultTargetLanguage = "es"

// TranslationInput holds the already-validated fields of a creation request.
type TranslationInput struct {
	Name           string
	Title          string
	Description    string
	TargetLanguage string
}

// TranslationService orchestrates translation request intake and exposes the
// read-only query facade. Creation persists the record and enqueues exactly
// one processing job inside a single transaction, so a record without a job
// (or a job without a record) is never observable.
type TranslationService struct {
	db            *gorm.DB
	translations  *repository.TranslationRepository
	jobs          *repository.JobRepository
	maxAttempts   int
	maxExceptions int
	logger        *logger.Logger
}

// TranslationServiceConfig holds the retry caps stamped onto enqueued jobs.
type TranslationServiceConfig struct {
	MaxAttempts   int
	MaxExceptions int
}

// NewTranslationService creates a new TranslationService.
func NewTranslationService(
	db *gorm.DB,
	translations *repository.TranslationRepository,
	jobs *repository.JobRepository,
	log *logger.Logger,
	cfg *TranslationServiceConfig,
) *TranslationService {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	maxExceptions := cfg.MaxExceptions
	if maxExceptions <= 0 {
		maxExceptions = 2
	}
	return &TranslationService{
		db:            db,
		translations:  translations,
		jobs:          jobs,
		maxAttempts:   maxAttempts,
		maxExceptions: maxExceptions,
		logger:        log,
	}
}

// CreateTranslationRequest persists a new pending translation request and
// enqueues its processing job atomically. The record is returned
// synchronously; translation happens out-of-band.
func (s *TranslationService) CreateTranslationRequest(ctx context.Context, in TranslationInput) (*domain.Translation, error) {
	targetLanguage := in.TargetLanguage
	if targetLanguage == "" {
		targetLanguage = DefaultTargetLanguage
	}

	t := &domain.Translation{
		ID:             uuid.New().String(),
		Name:           in.Name,
		Title:          in.Title,
		Description:    in.Description,
		SourceLanguage: DefaultSourceLanguage,
		TargetLanguage: targetLanguage,
		OriginalContent: domain.JSONMap{
			"name":        in.Name,
			"title":       in.Title,
			"description": in.Description,
		},
		Status: domain.TranslationStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.translations.WithTx(tx).Create(ctx, t); err != nil {
			return fmt.Errorf("failed to create translation request: %w", err)
		}

		job := &domain.TranslationJob{
			ID:            uuid.New().String(),
			TranslationID: t.ID,
			Status:        domain.JobStatusQueued,
			MaxAttempts:   s.maxAttempts,
			MaxExceptions: s.maxExceptions,
		}
		if err := s.jobs.WithTx(tx).Enqueue(ctx, job); err != nil {
			return fmt.Errorf("failed to enqueue translation job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logger.Fields{
		logger.FieldTranslationID: t.ID,
		"target_language":         t.TargetLanguage,
	}).Info("Translation request created")

	return t, nil
}

// GetTranslationRequest retrieves a translation request by ID. Returns
// domain.ErrNotFound when no record exists.
func (s *TranslationService) GetTranslationRequest(ctx context.Context, id string) (*domain.Translation, error) {
	return s.translations.GetByID(ctx, id)
}

// ListTranslationRequests returns one page of translation requests, newest
// first, with the total count of records matching the filters.
func (s *TranslationService) ListTranslationRequests(ctx context.Context, filters repository.ListFilters, page int) ([]domain.Translation, int64, error) {
	return s.translations.List(ctx, filters, page)
}
