package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/events"
	"github.com/kaamsetu/kaamsetu/internal/service/mappers"
	"github.com/kaamsetu/kaamsetu/internal/store"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"github.com/kaamsetu/kaamsetu/internal/validator"
	"github.com/kaamsetu/kaamsetu/pkg/metrics"
	"go.uber.org/zap"
)

const (
	applicationCreated        = "created"
	applicationAlreadyApplied = "already_applied"
	applicationRefused        = "refused"
)

// SubmitResult is the outcome of an application. AlreadyApplied is a success: nothing was written.
type SubmitResult struct {
	Application    model.Application
	AlreadyApplied bool
}

type ApplicationService struct {
	store     store.Store
	notifier  ChangeNotifier
	producer  *events.EventProducer
	validator *validator.Validator
}

func NewApplicationService(store store.Store, notifier ChangeNotifier, producer *events.EventProducer) *ApplicationService {
	v := validator.NewValidator()
	v.Register(validator.NewApplicationValidationRules()...)

	return &ApplicationService{
		store:     store,
		notifier:  notifierOrNoop(notifier),
		producer:  producer,
		validator: v,
	}
}

func (s *ApplicationService) Submit(ctx context.Context, worker auth.User, jobID uuid.UUID, form mappers.ApplicationForm) (*SubmitResult, error) {
	if worker.ID == "" || !worker.IsWorker() {
		return nil, NewErrRoleForbidden(worker.ID, "apply to jobs")
	}

	if err := s.validator.Struct(form); err != nil {
		return nil, NewErrValidation(err)
	}

	job, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}

	existing, err := s.store.Application().Get(ctx, jobID, worker.ID)
	switch {
	case err == nil:
		metrics.IncreaseApplicationsMetric(applicationAlreadyApplied)
		return &SubmitResult{Application: *existing, AlreadyApplied: true}, nil
	case !errors.Is(err, store.ErrRecordNotFound):
		return nil, err
	}

	if !job.Status.AcceptsApplications() {
		metrics.IncreaseApplicationsMetric(applicationRefused)
		return nil, NewErrJobNotAccepting(jobID, job.Status)
	}

	app, err := s.store.Application().Create(ctx, model.NewApplication(jobID, worker.ID, form.WorkerName, form.WorkerPhone))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateKey):
			// a concurrent submission of the same worker won
			return s.alreadyApplied(ctx, jobID, worker.ID)
		case errors.Is(err, store.ErrConditionFailed):
			// assigned or closed since the job was read
			return s.notAccepting(ctx, jobID)
		case errors.Is(err, store.ErrRecordNotFound):
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}

	zap.S().Named("application_service").Infow("application submitted", "job_id", jobID, "worker_id", worker.ID)
	metrics.IncreaseApplicationsMetric(applicationCreated)
	s.notifier.Notify(ctx, store.CollectionApplications)

	writeEvent(ctx, s.producer, events.ContactMessageKind, events.ContactEvent{
		JobID:         job.ID.String(),
		JobTitle:      job.Title,
		EmployerID:    job.EmployerID,
		EmployerPhone: job.EmployerPhone,
		WorkerID:      app.WorkerID,
		WorkerName:    app.WorkerName,
		WorkerPhone:   app.WorkerPhone,
		ContactLink:   events.WhatsAppLink(job.EmployerPhone),
		AppliedAt:     app.CreatedAt,
	})

	return &SubmitResult{Application: *app}, nil
}

// List returns the applications of a job ordered by submission time.
func (s *ApplicationService) List(ctx context.Context, jobID uuid.UUID) (model.ApplicationList, error) {
	if _, err := s.store.Job().Get(ctx, jobID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}

	return s.store.Application().List(ctx, store.NewApplicationQueryFilter().ByJobID(jobID))
}

func (s *ApplicationService) alreadyApplied(ctx context.Context, jobID uuid.UUID, workerID string) (*SubmitResult, error) {
	app, err := s.store.Application().Get(ctx, jobID, workerID)
	if err != nil {
		return nil, err
	}
	metrics.IncreaseApplicationsMetric(applicationAlreadyApplied)
	return &SubmitResult{Application: *app, AlreadyApplied: true}, nil
}

func (s *ApplicationService) notAccepting(ctx context.Context, jobID uuid.UUID) (*SubmitResult, error) {
	job, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	metrics.IncreaseApplicationsMetric(applicationRefused)
	return nil, NewErrJobNotAccepting(jobID, job.Status)
}
