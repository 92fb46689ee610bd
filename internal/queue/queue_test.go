package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/n-translator/api/internal/domain"
	"github.com/n-translator/api/internal/logger"
	"github.com/n-translator/api/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Translation{}, &domain.TranslationJob{}))
	return db
}

// stubHandler counts deliveries and failure notifications.
type stubHandler struct {
	mu        sync.Mutex
	processed int
	failed    []string
	err       error
}

func (s *stubHandler) Process(_ context.Context, _ *domain.TranslationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	return s.err
}

func (s *stubHandler) Fail(_ context.Context, translationID, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, translationID)
}

func (s *stubHandler) snapshot() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed, append([]string(nil), s.failed...)
}

func newQueueFixture(t *testing.T, handler Handler) (*Queue, *repository.JobRepository) {
	t.Helper()

	jobRepo := repository.NewJobRepository(newTestDB(t))
	q := New(jobRepo, handler, logger.GetDefault(), &Config{
		Workers:           2,
		PollInterval:      10 * time.Millisecond,
		VisibilityTimeout: time.Minute,
		JobTimeout:        time.Second,
	})
	return q, jobRepo
}

func enqueueJob(t *testing.T, jobRepo *repository.JobRepository, maxAttempts, maxExceptions int) *domain.TranslationJob {
	t.Helper()

	job := &domain.TranslationJob{
		ID:            uuid.New().String(),
		TranslationID: uuid.New().String(),
		Status:        domain.JobStatusQueued,
		MaxAttempts:   maxAttempts,
		MaxExceptions: maxExceptions,
	}
	require.NoError(t, jobRepo.Enqueue(context.Background(), job))
	return job
}

func TestQueueDeliversAndFinishesJob(t *testing.T) {
	handler := &stubHandler{}
	q, jobRepo := newQueueFixture(t, handler)

	job := enqueueJob(t, jobRepo, 3, 2)

	q.Start()
	defer q.Stop()

	require.Eventually(t, func() bool {
		got, err := jobRepo.GetByID(context.Background(), job.ID)
		return err == nil && got.Status == domain.JobStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	processed, failed := handler.snapshot()
	require.Equal(t, 1, processed)
	require.Empty(t, failed)
}

func TestQueueRetriesUntilExceptionCap(t *testing.T) {
	handler := &stubHandler{err: errors.New("provider down")}
	q, jobRepo := newQueueFixture(t, handler)

	job := enqueueJob(t, jobRepo, 3, 2)

	q.Start()
	defer q.Stop()

	require.Eventually(t, func() bool {
		got, err := jobRepo.GetByID(context.Background(), job.ID)
		return err == nil && got.Status == domain.JobStatusDead
	}, 2*time.Second, 10*time.Millisecond)

	// Two counted exceptions trip the cap before the three-attempt limit.
	processed, failed := handler.snapshot()
	require.Equal(t, 2, processed)
	require.Equal(t, []string{job.TranslationID}, failed)

	got, err := jobRepo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Attempts)
	require.Equal(t, 2, got.Exceptions)
	require.Equal(t, "provider down", got.LastError)
}

func TestQueueAbandonsJobPastAttemptCap(t *testing.T) {
	handler := &stubHandler{}
	q, jobRepo := newQueueFixture(t, handler)

	job := enqueueJob(t, jobRepo, 3, 2)

	// Burn the attempt budget with deliveries that expire without ever
	// reporting a result, as crashed workers would.
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		leased, err := jobRepo.LeaseNext(ctx, -time.Second)
		require.NoError(t, err)
		require.NotNil(t, leased)
	}

	q.Start()
	defer q.Stop()

	require.Eventually(t, func() bool {
		got, err := jobRepo.GetByID(ctx, job.ID)
		return err == nil && got.Status == domain.JobStatusDead
	}, 2*time.Second, 10*time.Millisecond)

	processed, failed := handler.snapshot()
	require.Zero(t, processed)
	require.Equal(t, []string{job.TranslationID}, failed)
}
