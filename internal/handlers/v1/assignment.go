package v1

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/service"
	"github.com/kaamsetu/kaamsetu/internal/service/mappers"
)

// (POST /api/v1/jobs/{id}/assign)
func (h *ServiceHandler) AssignJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body api.Assign
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	job, err := h.assignmentSrv.Assign(r.Context(), auth.MustHaveUser(r.Context()), jobID, body.WorkerId)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.JobToApi(*job))
}

// (POST /api/v1/jobs/{id}/complete)
// When the rating did not reach the worker profile the job is still completed and
// the answer is 202 with a warning. The rating is pushed again later.
func (h *ServiceHandler) CompleteJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body api.Complete
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	job, err := h.completionSrv.Complete(r.Context(), auth.MustHaveUser(r.Context()), jobID, mappers.CompletionFormFromApi(body))
	if err != nil {
		var syncErr *service.ErrRatingSync
		if errors.As(err, &syncErr) && job != nil {
			warning := syncErr.Error()
			respond(w, r, http.StatusAccepted, api.CompletionResult{Job: mappers.JobToApi(*job), Warning: &warning})
			return
		}
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, api.CompletionResult{Job: mappers.JobToApi(*job)})
}

// (POST /api/v1/jobs/{id}/rating-sync)
func (h *ServiceHandler) RetryRatingSync(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.completionSrv.RetryRatingSync(r.Context(), auth.MustHaveUser(r.Context()), jobID); err != nil {
		var syncErr *service.ErrRatingSync
		if errors.As(err, &syncErr) {
			respond(w, r, http.StatusAccepted, api.Status{Message: syncErr.Error()})
			return
		}
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, api.Status{Message: "rating synced"})
}

// (GET /api/v1/profiles/{id})
func (h *ServiceHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "id")
	if workerID == "" {
		writeError(w, r, service.NewErrValidation(errors.New("worker id is required")))
		return
	}

	p, err := h.profileSrv.GetProfile(r.Context(), workerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.ProfileToApi(*p))
}
