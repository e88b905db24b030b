package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/events"
	"github.com/kaamsetu/kaamsetu/internal/profile"
	"github.com/kaamsetu/kaamsetu/internal/service/mappers"
	"github.com/kaamsetu/kaamsetu/internal/store"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"github.com/kaamsetu/kaamsetu/internal/validator"
	"github.com/kaamsetu/kaamsetu/pkg/metrics"
	"go.uber.org/zap"
)

const (
	ratingSynced    = "synced"
	ratingSyncError = "failed"
)

type CompletionService struct {
	store     store.Store
	notifier  ChangeNotifier
	producer  *events.EventProducer
	profile   profile.Client
	validator *validator.Validator
}

func NewCompletionService(store store.Store, notifier ChangeNotifier, producer *events.EventProducer, profileClient profile.Client) *CompletionService {
	return &CompletionService{
		store:     store,
		notifier:  notifierOrNoop(notifier),
		producer:  producer,
		profile:   profileClient,
		validator: validator.NewValidator(),
	}
}

// Complete closes an assigned job and frees its worker.
// When the rating cannot be pushed to the worker profile the job stays completed and
// the returned error is *ErrRatingSync, together with the completed job.
func (s *CompletionService) Complete(ctx context.Context, employer auth.User, jobID uuid.UUID, form mappers.CompletionForm) (*model.Job, error) {
	if err := s.validator.Struct(form); err != nil {
		return nil, NewErrValidation(err)
	}

	job, err := getOwnedJob(ctx, s.store, employer, jobID, "complete")
	if err != nil {
		return nil, err
	}
	if !job.Status.CanTransitionTo(model.JobStatusCompleted) {
		return nil, NewErrInvalidTransition(jobID, job.Status, model.JobStatusCompleted)
	}

	completed, outbox, err := s.commit(ctx, jobID, form)
	if err != nil {
		return nil, err
	}

	zap.S().Named("completion_service").Infow("job completed", "job_id", jobID, "worker_id", completed.AssignedWorkerID)
	metrics.IncreaseJobTransitionsMetric(string(model.JobStatusCompleted))

	event := events.JobEvent{
		JobID:      completed.ID.String(),
		Status:     string(completed.Status),
		EmployerID: completed.EmployerID,
		Rating:     completed.Rating,
		ChangedAt:  time.Now(),
	}
	if completed.AssignedWorkerID != nil {
		event.WorkerID = *completed.AssignedWorkerID
	}
	writeEvent(ctx, s.producer, events.CompletedMessageKind, event)

	if outbox == nil {
		return completed, nil
	}

	if err := s.sync(ctx, *outbox); err != nil {
		return completed, NewErrRatingSync(jobID, err)
	}

	return completed, nil
}

// RetryRatingSync pushes a pending rating again. Only the employer of the job may retry.
func (s *CompletionService) RetryRatingSync(ctx context.Context, employer auth.User, jobID uuid.UUID) error {
	if _, err := getOwnedJob(ctx, s.store, employer, jobID, "sync the rating of"); err != nil {
		return err
	}

	entry, err := s.store.RatingSync().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrRatingSyncNotFound(jobID)
		}
		return err
	}

	if err := s.sync(ctx, *entry); err != nil {
		return NewErrRatingSync(jobID, err)
	}
	return nil
}

// SyncPending drains up to limit outbox entries, least recently tried first. It returns the number of synced ratings.
func (s *CompletionService) SyncPending(ctx context.Context, limit int) (int, error) {
	entries, err := s.store.RatingSync().ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if err := s.sync(ctx, entry); err != nil {
			continue
		}
		synced++
	}

	metrics.UpdateRatingSyncPendingMetric(len(entries) - synced)
	return synced, nil
}

func (s *CompletionService) commit(ctx context.Context, jobID uuid.UUID, form mappers.CompletionForm) (*model.Job, *model.RatingSync, error) {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, nil, NewErrTransactionFailure(err)
	}

	job, outbox, err := s.completeInTx(ctx, jobID, form)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, nil, NewErrTransactionFailure(err)
	}

	return job, outbox, nil
}

func (s *CompletionService) completeInTx(ctx context.Context, jobID uuid.UUID, form mappers.CompletionForm) (*model.Job, *model.RatingSync, error) {
	now := time.Now()
	job, err := s.store.Job().Transition(ctx, jobID, store.JobTransition{
		Target:      model.JobStatusCompleted,
		CompletedAt: &now,
		Rating:      form.Rating,
		Review:      form.Review,
	})
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			current, gerr := s.store.Job().Get(ctx, jobID)
			if gerr != nil {
				return nil, nil, NewErrTransactionFailure(gerr)
			}
			return nil, nil, NewErrInvalidTransition(jobID, current.Status, model.JobStatusCompleted)
		}
		return nil, nil, NewErrTransactionFailure(err)
	}

	if err := s.store.WorkerAssignment().ReleaseByJob(ctx, jobID); err != nil {
		return nil, nil, NewErrTransactionFailure(err)
	}
	store.AfterCommit(ctx, func() { s.notifier.Notify(ctx, store.CollectionJobs) })

	if form.Rating == nil || job.AssignedWorkerID == nil {
		return job, nil, nil
	}

	outbox := model.RatingSync{
		JobID:    jobID,
		WorkerID: *job.AssignedWorkerID,
		Rating:   *form.Rating,
	}
	if err := s.store.RatingSync().Create(ctx, outbox); err != nil {
		return nil, nil, NewErrTransactionFailure(err)
	}

	return job, &outbox, nil
}

func (s *CompletionService) sync(ctx context.Context, entry model.RatingSync) error {
	logger := zap.S().Named("completion_service")

	err := s.profile.SyncRating(ctx, profile.RatingUpdate{
		WorkerID: entry.WorkerID,
		JobID:    entry.JobID,
		Rating:   entry.Rating,
	})
	if err != nil {
		logger.Warnw("failed to sync rating", "job_id", entry.JobID, "worker_id", entry.WorkerID, "error", err)
		metrics.IncreaseRatingSyncMetric(ratingSyncError)
		if merr := s.store.RatingSync().MarkFailed(ctx, entry.JobID, err.Error()); merr != nil {
			logger.Errorw("failed to record rating sync failure", "job_id", entry.JobID, "error", merr)
		}
		return err
	}

	metrics.IncreaseRatingSyncMetric(ratingSynced)
	if err := s.store.RatingSync().Delete(ctx, entry.JobID); err != nil {
		// the profile keeps one rating per job so a later resync is harmless
		logger.Errorw("failed to remove synced rating", "job_id", entry.JobID, "error", err)
	}
	s.notifier.Notify(ctx, store.CollectionProfiles)

	return nil
}
