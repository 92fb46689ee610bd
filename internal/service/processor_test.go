package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/n-translator/api/internal/domain"
	"github.com/n-translator/api/internal/logger"
	"github.com/n-translator/api/internal/repository"
	"github.com/stretchr/testify/require"
)

// stubTranslator returns a canned result or error and records invocations.
type stubTranslator struct {
	result map[string]string
	err    error
	calls  int
}

func (s *stubTranslator) Translate(_ context.Context, _ map[string]string, _, _ string) (map[string]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newProcessorFixture(t *testing.T, translator Translator) (*Processor, *repository.TranslationRepository, *domain.Translation, *domain.TranslationJob) {
	t.Helper()

	db := newTestDB(t)
	translationRepo := repository.NewTranslationRepository(db)

	rec := &domain.Translation{
		ID:             uuid.New().String(),
		Name:           "John Doe",
		Title:          "Welcome Message",
		Description:    "This is a welcome message for our users.",
		SourceLanguage: "en",
		TargetLanguage: "es",
		OriginalContent: domain.JSONMap{
			"name":        "John Doe",
			"title":       "Welcome Message",
			"description": "This is a welcome message for our users.",
		},
		Status: domain.TranslationStatusPending,
	}
	require.NoError(t, translationRepo.Create(context.Background(), rec))

	job := &domain.TranslationJob{
		ID:            uuid.New().String(),
		TranslationID: rec.ID,
		Status:        domain.JobStatusLeased,
		Attempts:      1,
		MaxAttempts:   3,
		MaxExceptions: 2,
	}

	return NewProcessor(translationRepo, translator, logger.GetDefault()), translationRepo, rec, job
}

func TestProcessorCompletesTranslation(t *testing.T) {
	translated := map[string]string{"name": "X", "title": "Y", "description": "Z"}
	proc, repo, rec, job := newProcessorFixture(t, &stubTranslator{result: translated})

	require.NoError(t, proc.Process(context.Background(), job))

	got, err := repo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TranslationStatusCompleted, got.Status)
	require.Equal(t, domain.JSONMap(translated), got.TranslatedContent)
	require.NotNil(t, got.ProcessedAt)
	require.Empty(t, got.ErrorMessage)
}

func TestProcessorReturnsErrorAndLeavesRecordProcessing(t *testing.T) {
	proc, repo, rec, job := newProcessorFixture(t, &stubTranslator{
		err: &ProviderError{Message: "invalid response format from provider"},
	})

	err := proc.Process(context.Background(), job)
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)

	// The record does not regress below processing before the final attempt.
	got, lookupErr := repo.GetByID(context.Background(), rec.ID)
	require.NoError(t, lookupErr)
	require.Equal(t, domain.TranslationStatusProcessing, got.Status)
	require.Nil(t, got.TranslatedContent)
}

func TestProcessorSkipsTerminalRecord(t *testing.T) {
	stub := &stubTranslator{result: map[string]string{"name": "other"}}
	proc, repo, rec, job := newProcessorFixture(t, stub)

	translated := domain.JSONMap{"name": "X"}
	require.NoError(t, repo.MarkProcessing(context.Background(), rec.ID))
	require.NoError(t, repo.MarkCompleted(context.Background(), rec.ID, translated))

	// Redelivery after the terminal state is a no-op.
	require.NoError(t, proc.Process(context.Background(), job))
	require.Zero(t, stub.calls)

	got, err := repo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TranslationStatusCompleted, got.Status)
	require.Equal(t, translated, got.TranslatedContent)
}

func TestProcessorFailPersistsTerminalFailure(t *testing.T) {
	proc, repo, rec, _ := newProcessorFixture(t, &stubTranslator{err: errors.New("boom")})

	require.NoError(t, repo.MarkProcessing(context.Background(), rec.ID))
	proc.Fail(context.Background(), rec.ID, "translation provider error: boom")

	got, err := repo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TranslationStatusFailed, got.Status)
	require.Equal(t, "translation provider error: boom", got.ErrorMessage)
	require.Nil(t, got.TranslatedContent)
	require.NotNil(t, got.ProcessedAt)
}
