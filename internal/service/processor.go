package service

import (
	"context"
	"fmt"

	"github.com/n-translator/api/internal/domain"
	"github.com/n-translator/api/internal/logger"
	"github.com/n-translator/api/internal/repository"
)

// Processor executes a single delivery of a translation job: it moves the
// record to processing, calls the translation provider, and persists the
// outcome. Any returned error is a failed attempt; redelivery and retry
// accounting belong to the queue.
type Processor struct {
	translations *repository.TranslationRepository
	translator   Translator
	logger       *logger.Logger
}

// NewProcessor creates a new Processor.
func NewProcessor(translations *repository.TranslationRepository, translator Translator, log *logger.Logger) *Processor {
	return &Processor{
		translations: translations,
		translator:   translator,
		logger:       log,
	}
}

// Process handles one delivery of the given job. A record already in a
// terminal state makes the delivery a no-op, so late redeliveries never
// alter completed or failed records.
func (p *Processor) Process(ctx context.Context, job *domain.TranslationJob) error {
	t, err := p.translations.GetByID(ctx, job.TranslationID)
	if err != nil {
		return fmt.Errorf("failed to load translation request %s: %w", job.TranslationID, err)
	}

	if t.Status.Terminal() {
		logger.CtxInfo(ctx, "Translation request %s already %s, skipping delivery", t.ID, t.Status)
		return nil
	}

	if err := p.translations.MarkProcessing(ctx, t.ID); err != nil {
		return fmt.Errorf("failed to mark translation request %s as processing: %w", t.ID, err)
	}

	// The original content snapshot is fixed at creation; redelivery after a
	// mid-call crash re-invokes the provider with identical input.
	translated, err := p.translator.Translate(ctx, t.OriginalContent, t.SourceLanguage, t.TargetLanguage)
	if err != nil {
		return fmt.Errorf("failed to translate request %s: %w", t.ID, err)
	}

	if err := p.translations.MarkCompleted(ctx, t.ID, translated); err != nil {
		return fmt.Errorf("failed to store translation result for request %s: %w", t.ID, err)
	}

	p.logger.WithFields(logger.Fields{
		logger.FieldTranslationID: t.ID,
		"target_language":         t.TargetLanguage,
	}).Info("Translation completed")

	return nil
}

// Fail records the terminal failed state once the queue has exhausted the
// job's retries. The write is best-effort: if it fails too, the error is
// logged and the job is abandoned.
func (p *Processor) Fail(ctx context.Context, translationID, message string) {
	if err := p.translations.MarkFailed(ctx, translationID, message); err != nil {
		p.logger.WithFields(logger.Fields{
			logger.FieldTranslationID: translationID,
		}).WithError(err).Error("Failed to persist failed translation status, abandoning job")
		return
	}

	p.logger.WithFields(logger.Fields{
		logger.FieldTranslationID: translationID,
	}).Error("Translation job failed after all retries: " + message)
}
