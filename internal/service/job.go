package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/service/mappers"
	"github.com/kaamsetu/kaamsetu/internal/store"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"github.com/kaamsetu/kaamsetu/internal/validator"
	"github.com/kaamsetu/kaamsetu/pkg/metrics"
	"go.uber.org/zap"
)

const DefaultDisputeReason = "No show"

type JobFilter struct {
	Statuses         []model.JobStatus
	EmployerID       string
	AssignedWorkerID string
	Limit            int
}

type JobService struct {
	store     store.Store
	notifier  ChangeNotifier
	validator *validator.Validator
}

func NewJobService(store store.Store, notifier ChangeNotifier) *JobService {
	v := validator.NewValidator()
	v.Register(validator.NewJobValidationRules()...)

	return &JobService{
		store:     store,
		notifier:  notifierOrNoop(notifier),
		validator: v,
	}
}

func (s *JobService) CreateJob(ctx context.Context, employer auth.User, form mappers.JobCreateForm) (*model.Job, error) {
	if employer.ID == "" || !employer.IsEmployer() {
		return nil, NewErrValidation(errors.New("jobs are posted by an employer"))
	}

	if err := s.validator.Struct(form); err != nil {
		return nil, NewErrValidation(err)
	}

	job, err := s.store.Job().Create(ctx, form.ToJob(employer))
	if err != nil {
		return nil, err
	}

	zap.S().Named("job_service").Infow("job created", "job_id", job.ID, "employer_id", job.EmployerID)
	metrics.IncreaseJobTransitionsMetric(string(model.JobStatusOpen))
	s.notifier.Notify(ctx, store.CollectionJobs)

	return job, nil
}

func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}
	return job, nil
}

// ListJobs returns the matching jobs, newest first.
func (s *JobService) ListJobs(ctx context.Context, filter JobFilter) (model.JobList, error) {
	storeFilter := store.NewJobQueryFilter().ByStatus(filter.Statuses...)
	if filter.EmployerID != "" {
		storeFilter = storeFilter.ByEmployerID(filter.EmployerID)
	}
	if filter.AssignedWorkerID != "" {
		storeFilter = storeFilter.ByAssignedWorkerID(filter.AssignedWorkerID)
	}

	opts := store.NewJobQueryOptions().WithSortOrder(store.SortByCreatedTimeDesc)
	if filter.Limit > 0 {
		opts = opts.WithLimit(filter.Limit)
	}

	return s.store.Job().List(ctx, storeFilter, opts)
}

// LockFee books an open job.
func (s *JobService) LockFee(ctx context.Context, employer auth.User, id uuid.UUID) (*model.Job, error) {
	now := time.Now()
	return s.transition(ctx, employer, id, "lock the fee of", store.JobTransition{
		Target:      model.JobStatusBooked,
		FeeLockedAt: &now,
	})
}

// DisputeJob flags an open or booked job. An empty reason means the worker did not show up.
func (s *JobService) DisputeJob(ctx context.Context, employer auth.User, id uuid.UUID, reason string) (*model.Job, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultDisputeReason
	}

	now := time.Now()
	return s.transition(ctx, employer, id, "dispute", store.JobTransition{
		Target:        model.JobStatusDispute,
		DisputeReason: &reason,
		DisputedAt:    &now,
	})
}

// ActiveAssignment returns the job the worker is currently assigned to.
func (s *JobService) ActiveAssignment(ctx context.Context, workerID string) (*model.Job, error) {
	jobs, err := s.store.Job().List(ctx,
		store.NewJobQueryFilter().ByAssignedWorkerID(workerID).ByStatus(model.JobStatusAssigned),
		store.NewJobQueryOptions().WithSortOrder(store.SortByUpdatedTime).WithLimit(1),
	)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, NewErrAssignmentNotFound(workerID)
	}
	return &jobs[0], nil
}

func (s *JobService) transition(ctx context.Context, employer auth.User, id uuid.UUID, action string, t store.JobTransition) (*model.Job, error) {
	job, err := getOwnedJob(ctx, s.store, employer, id, action)
	if err != nil {
		return nil, err
	}

	if !job.Status.CanTransitionTo(t.Target) {
		return nil, NewErrInvalidTransition(id, job.Status, t.Target)
	}

	updated, err := s.store.Job().Transition(ctx, id, t)
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			// someone else moved the job in between
			return nil, s.transitionConflict(ctx, id, t.Target)
		}
		return nil, err
	}

	zap.S().Named("job_service").Infow("job transitioned", "job_id", id, "from", job.Status, "to", t.Target)
	metrics.IncreaseJobTransitionsMetric(string(t.Target))
	s.notifier.Notify(ctx, store.CollectionJobs)

	return updated, nil
}

func (s *JobService) transitionConflict(ctx context.Context, id uuid.UUID, target model.JobStatus) error {
	current, err := s.store.Job().Get(ctx, id)
	if err != nil {
		return err
	}
	return NewErrInvalidTransition(id, current.Status, target)
}
