package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/config"
	"github.com/kaamsetu/kaamsetu/internal/events"
	"github.com/kaamsetu/kaamsetu/internal/store"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"github.com/kaamsetu/kaamsetu/pkg/metrics"
	"github.com/kaamsetu/kaamsetu/pkg/requestid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	assignmentSucceeded      = "assigned"
	assignmentWorkerConflict = "worker_conflict"
	assignmentJobConflict    = "job_conflict"
	assignmentRetried        = "retried"
	assignmentFailed         = "failed"

	minRetryBackoff = 10 * time.Millisecond
)

// AssignmentService binds exactly one worker to a job.
//
// The worker_assignments row written in the assignment transaction is keyed by worker id,
// so two concurrent assignments of one worker to different jobs cannot both commit.
type AssignmentService struct {
	store    store.Store
	notifier ChangeNotifier
	producer *events.EventProducer
	cfg      config.Assignment
}

func NewAssignmentService(store store.Store, notifier ChangeNotifier, producer *events.EventProducer, cfg config.Assignment) *AssignmentService {
	return &AssignmentService{
		store:    store,
		notifier: notifierOrNoop(notifier),
		producer: producer,
		cfg:      cfg,
	}
}

func (s *AssignmentService) Assign(ctx context.Context, employer auth.User, jobID uuid.UUID, workerID string) (*model.Job, error) {
	logger := requestid.Logger(ctx, zap.S().Named("assignment_service"))

	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return nil, NewErrValidation(errors.New("workerId is required"))
	}

	if _, err := getOwnedJob(ctx, s.store, employer, jobID, "assign"); err != nil {
		return nil, err
	}

	// early rejection, the lock row settles races
	busy, err := s.store.Job().Count(ctx, store.NewJobQueryFilter().
		ByAssignedWorkerID(workerID).
		ByStatus(model.JobStatusAssigned).
		ExcludeID(jobID))
	if err != nil {
		return nil, err
	}
	if busy > 0 {
		metrics.IncreaseAssignmentAttemptsMetric(assignmentWorkerConflict)
		return nil, NewErrWorkerAlreadyAssigned(workerID)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.commitTimeout())
	defer cancel()

	var assigned *model.Job
	err = retry.Do(attemptCtx, s.backoff(), func(ctx context.Context) error {
		job, err := s.commit(ctx, jobID, workerID)
		if err != nil {
			var txErr *ErrTransactionFailure
			if errors.As(err, &txErr) {
				logger.Warnw("assignment transaction failed, retrying", "job_id", jobID, "worker_id", workerID, "error", err)
				metrics.IncreaseAssignmentAttemptsMetric(assignmentRetried)
				return retry.RetryableError(err)
			}
			return err
		}
		assigned = job
		return nil
	})
	if err != nil {
		return nil, s.assignmentError(err)
	}

	logger.Infow("job assigned", "job_id", jobID, "worker_id", workerID)
	metrics.IncreaseAssignmentAttemptsMetric(assignmentSucceeded)
	metrics.IncreaseJobTransitionsMetric(string(model.JobStatusAssigned))

	writeEvent(ctx, s.producer, events.AssignedMessageKind, events.JobEvent{
		JobID:      assigned.ID.String(),
		Status:     string(assigned.Status),
		EmployerID: assigned.EmployerID,
		WorkerID:   workerID,
		ChangedAt:  time.Now(),
	})

	return assigned, nil
}

// commit runs one all-or-nothing attempt. Only *ErrTransactionFailure is worth retrying.
func (s *AssignmentService) commit(ctx context.Context, jobID uuid.UUID, workerID string) (*model.Job, error) {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, NewErrTransactionFailure(err)
	}

	job, err := s.assignInTx(ctx, jobID, workerID)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, NewErrTransactionFailure(err)
	}

	return job, nil
}

func (s *AssignmentService) assignInTx(ctx context.Context, jobID uuid.UUID, workerID string) (*model.Job, error) {
	app, appErr := s.store.Application().Get(ctx, jobID, workerID)
	if appErr != nil && !errors.Is(appErr, store.ErrRecordNotFound) {
		return nil, NewErrTransactionFailure(appErr)
	}

	now := time.Now()
	t := store.JobTransition{
		Target:           model.JobStatusAssigned,
		AssignedWorkerID: &workerID,
		AssignedAt:       &now,
	}
	if app != nil {
		t.AssignedWorkerName = &app.WorkerName
	}

	job, err := s.store.Job().Transition(ctx, jobID, t)
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return nil, s.jobConflict(ctx, jobID)
		}
		return nil, NewErrTransactionFailure(err)
	}

	if appErr != nil {
		return nil, NewErrApplicationNotFound(jobID, workerID)
	}
	if app.Status != model.ApplicationStatusPending {
		return nil, NewErrApplicationNotPending(jobID, workerID, app.Status)
	}

	if err := s.store.WorkerAssignment().Acquire(ctx, workerID, jobID); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrWorkerAlreadyAssigned(workerID)
		}
		return nil, NewErrTransactionFailure(err)
	}

	if err := s.store.Application().Accept(ctx, jobID, workerID); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return nil, NewErrApplicationNotPending(jobID, workerID, app.Status)
		}
		return nil, NewErrTransactionFailure(err)
	}

	rejected, err := s.store.Application().RejectOthers(ctx, jobID, workerID)
	if err != nil {
		return nil, NewErrTransactionFailure(err)
	}
	zap.S().Named("assignment_service").Debugw("other applications rejected", "job_id", jobID, "count", rejected)

	store.AfterCommit(ctx, func() {
		s.notifier.Notify(ctx, store.CollectionJobs)
		s.notifier.Notify(ctx, store.CollectionApplications)
	})

	return job, nil
}

func (s *AssignmentService) jobConflict(ctx context.Context, jobID uuid.UUID) error {
	current, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		return NewErrTransactionFailure(err)
	}
	if current.Status == model.JobStatusAssigned {
		return NewErrAlreadyAssigned(jobID)
	}
	return NewErrInvalidTransition(jobID, current.Status, model.JobStatusAssigned)
}

func (s *AssignmentService) assignmentError(err error) error {
	var (
		workerErr *ErrWorkerAlreadyAssigned
		jobErr    *ErrAlreadyAssigned
		txErr     *ErrTransactionFailure
	)
	switch {
	case errors.As(err, &workerErr):
		metrics.IncreaseAssignmentAttemptsMetric(assignmentWorkerConflict)
		return workerErr
	case errors.As(err, &jobErr):
		metrics.IncreaseAssignmentAttemptsMetric(assignmentJobConflict)
		return jobErr
	case errors.As(err, &txErr):
		metrics.IncreaseAssignmentAttemptsMetric(assignmentFailed)
		return txErr
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		metrics.IncreaseAssignmentAttemptsMetric(assignmentFailed)
		return NewErrTransactionFailure(err)
	}
	return err
}

func (s *AssignmentService) commitTimeout() time.Duration {
	if s.cfg.CommitTimeout <= 0 {
		return 10 * time.Second
	}
	return s.cfg.CommitTimeout
}

func (s *AssignmentService) backoff() retry.Backoff {
	base := s.cfg.RetryBackoff
	if base < minRetryBackoff {
		base = minRetryBackoff
	}
	return retry.WithMaxRetries(s.cfg.MaxRetries, retry.NewExponential(base))
}
