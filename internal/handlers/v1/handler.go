package v1

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/kaamsetu/kaamsetu/internal/profile"
	"github.com/kaamsetu/kaamsetu/internal/service"
	"github.com/kaamsetu/kaamsetu/internal/subscription"
	"github.com/kaamsetu/kaamsetu/pkg/requestid"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X ...".
var version = "unknown"

type ServiceHandler struct {
	jobSrv         *service.JobService
	applicationSrv *service.ApplicationService
	assignmentSrv  *service.AssignmentService
	completionSrv  *service.CompletionService
	profileSrv     *profile.Service
	registry       *subscription.Registry
}

func NewServiceHandler(
	jobService *service.JobService,
	applicationService *service.ApplicationService,
	assignmentService *service.AssignmentService,
	completionService *service.CompletionService,
	profileService *profile.Service,
	registry *subscription.Registry,
) *ServiceHandler {
	return &ServiceHandler{
		jobSrv:         jobService,
		applicationSrv: applicationService,
		assignmentSrv:  assignmentService,
		completionSrv:  completionService,
		profileSrv:     profileService,
		registry:       registry,
	}
}

// RegisterRoutes mounts the api under /api/v1.
func (h *ServiceHandler) RegisterRoutes(router chi.Router) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/info", h.GetInfo)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Post("/", h.CreateJob)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetJob)
				r.Post("/lock-fee", h.LockFee)
				r.Post("/dispute", h.DisputeJob)
				r.Post("/assign", h.AssignJob)
				r.Post("/complete", h.CompleteJob)
				r.Post("/rating-sync", h.RetryRatingSync)
				r.Get("/applications", h.ListApplications)
				r.Post("/applications", h.SubmitApplication)
			})
		})

		r.Get("/workers/{id}/assignment", h.GetActiveAssignment)
		r.Get("/profiles/{id}", h.GetProfile)

		r.Get("/subscriptions/*", h.Subscribe)
		r.Delete("/subscriptions/*", h.Unsubscribe)
		r.Delete("/session", h.ReleaseSession)
	})
}

// (GET /api/v1/info)
func (h *ServiceHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Info{Version: version})
}

func jobIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, service.NewErrValidation(errors.New("job id must be a uuid"))
	}
	return id, nil
}

// decode reads an optional json body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return service.NewErrValidation(err)
	}
	return nil
}

func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch err.(type) {
	case *service.ErrValidation:
		status = http.StatusBadRequest
	case *service.ErrResourceNotFound:
		status = http.StatusNotFound
	case *service.ErrWorkerAlreadyAssigned, *service.ErrAlreadyAssigned, *service.ErrInvalidTransition, *service.ErrJobNotAccepting:
		status = http.StatusConflict
	case *service.ErrForbidden:
		status = http.StatusForbidden
	case *service.ErrTransactionFailure:
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		requestid.Logger(r.Context(), zap.S().Named("handler")).Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respond(w, r, status, api.Status{Message: "internal error"})
		return
	}
	respond(w, r, status, api.Status{Message: err.Error()})
}
