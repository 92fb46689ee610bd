// Package queue implements a durable, at-least-once delivery queue for
// translation jobs on top of the job repository. Jobs are enqueued by the
// intake transaction and pulled by a pool of polling workers. A leased job
// that is neither finished nor released before its visibility timeout is
// reclaimed and redelivered.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/n-translator/api/internal/domain"
	"github.com/n-translator/api/internal/logger"
	"github.com/n-translator/api/internal/repository"
)

// Handler consumes job deliveries. Process is invoked once per delivery; a
// returned error counts the delivery as a failed attempt. Fail is invoked
// exactly once, after the job's retries are exhausted.
type Handler interface {
	Process(ctx context.Context, job *domain.TranslationJob) error
	Fail(ctx context.Context, translationID, message string)
}

// Config holds queue delivery settings.
type Config struct {
	Workers           int
	PollInterval      time.Duration
	VisibilityTimeout time.Duration
	JobTimeout        time.Duration
}

// Queue dispatches durable translation jobs to a Handler with bounded retry.
type Queue struct {
	jobs    *repository.JobRepository
	handler Handler
	logger  *logger.Logger

	workers           int
	pollInterval      time.Duration
	visibilityTimeout time.Duration
	jobTimeout        time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new Queue.
func New(jobs *repository.JobRepository, handler Handler, log *logger.Logger, cfg *Config) *Queue {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	visibilityTimeout := cfg.VisibilityTimeout
	if visibilityTimeout <= 0 {
		visibilityTimeout = 150 * time.Second
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 120 * time.Second
	}

	return &Queue{
		jobs:              jobs,
		handler:           handler,
		logger:            log,
		workers:           workers,
		pollInterval:      pollInterval,
		visibilityTimeout: visibilityTimeout,
		jobTimeout:        jobTimeout,
		stopCh:            make(chan struct{}),
	}
}

// Start launches the worker pool.
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.logger.WithField("workers", q.workers).Info("Translation job queue started")
}

// Stop signals the workers to finish their current delivery and waits for
// them to exit.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
		q.wg.Wait()
		q.logger.Info("Translation job queue stopped")
	})
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	log := q.logger.WithField("worker", id)
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
		}

		// Drain deliverable jobs before sleeping again.
		for {
			select {
			case <-q.stopCh:
				return
			default:
			}

			job, err := q.jobs.LeaseNext(context.Background(), q.visibilityTimeout)
			if err != nil {
				log.WithError(err).Error("Failed to lease translation job")
				break
			}
			if job == nil {
				break
			}
			q.dispatch(job)
		}
	}
}

// dispatch runs one delivery of a leased job and settles it: done on
// success, released for redelivery on a retryable failure, dead once the
// attempt or exception cap is reached.
func (q *Queue) dispatch(job *domain.TranslationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), q.jobTimeout)
	defer cancel()

	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldJobID:         job.ID,
		logger.FieldTranslationID: job.TranslationID,
		logger.FieldAttempt:       job.Attempts,
		logger.FieldComponent:     "queue",
	})

	// A reclaimed lease past the attempt cap means earlier deliveries kept
	// crashing or timing out without ever reporting an error.
	if job.Attempts > job.MaxAttempts {
		q.exhaust(job, "processing attempts exhausted without a recorded result")
		return
	}

	err := q.handler.Process(ctx, job)
	if err == nil {
		if markErr := q.jobs.MarkDone(context.Background(), job.ID); markErr != nil {
			logger.CtxError(ctx, "Failed to mark translation job done: %v", markErr)
		}
		return
	}

	job.Exceptions++
	logger.CtxWarn(ctx, "Translation job delivery failed (attempt %d/%d, exceptions %d/%d): %v",
		job.Attempts, job.MaxAttempts, job.Exceptions, job.MaxExceptions, err)

	if job.Attempts >= job.MaxAttempts || job.Exceptions >= job.MaxExceptions {
		q.exhaust(job, err.Error())
		return
	}

	if releaseErr := q.jobs.Release(context.Background(), job, err.Error()); releaseErr != nil {
		// The lease will expire and the job will be redelivered anyway; the
		// exception count for this attempt is lost, the attempt count is not.
		logger.CtxError(ctx, "Failed to release translation job for retry: %v", releaseErr)
	}
}

func (q *Queue) exhaust(job *domain.TranslationJob, message string) {
	ctx := context.Background()

	if err := q.jobs.MarkDead(ctx, job, message); err != nil {
		q.logger.WithField(logger.FieldJobID, job.ID).WithError(err).
			Error("Failed to mark translation job dead")
	}

	q.handler.Fail(ctx, job.TranslationID, message)
}
