package v1

import (
	"net/http"

	"github.com/go-chi/render"
	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/service/mappers"
)

// (POST /api/v1/jobs/{id}/applications)
// A repeated application answers 200 with alreadyApplied set, a new one 201.
func (h *ServiceHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body api.ApplicationCreate
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	worker := auth.MustHaveUser(r.Context())
	result, err := h.applicationSrv.Submit(r.Context(), worker, jobID, mappers.ApplicationFormFromApi(worker, &body))
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyApplied {
		status = http.StatusOK
	}
	respond(w, r, status, api.ApplicationResult{
		Application:    mappers.ApplicationToApi(result.Application),
		AlreadyApplied: result.AlreadyApplied,
	})
}

// (GET /api/v1/jobs/{id}/applications)
func (h *ServiceHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	apps, err := h.applicationSrv.List(r.Context(), jobID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.ApplicationListToApi(apps))
}
