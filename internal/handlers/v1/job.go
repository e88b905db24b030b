package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/service"
	"github.com/kaamsetu/kaamsetu/internal/service/mappers"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"github.com/thoas/go-funk"
)

// (GET /api/v1/jobs?status=open,booked&employer=<id>&worker=<id>&limit=<n>)
func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter, err := jobFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jobs, err := h.jobSrv.ListJobs(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.JobListToApi(jobs))
}

// (POST /api/v1/jobs)
func (h *ServiceHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var body api.JobCreate
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	job, err := h.jobSrv.CreateJob(r.Context(), auth.MustHaveUser(r.Context()), mappers.JobCreateFormFromApi(body))
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, mappers.JobToApi(*job))
}

// (GET /api/v1/jobs/{id})
func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	job, err := h.jobSrv.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.JobToApi(*job))
}

// (POST /api/v1/jobs/{id}/lock-fee)
func (h *ServiceHandler) LockFee(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	job, err := h.jobSrv.LockFee(r.Context(), auth.MustHaveUser(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.JobToApi(*job))
}

// (POST /api/v1/jobs/{id}/dispute)
func (h *ServiceHandler) DisputeJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body api.Dispute
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	job, err := h.jobSrv.DisputeJob(r.Context(), auth.MustHaveUser(r.Context()), id, body.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.JobToApi(*job))
}

// (GET /api/v1/workers/{id}/assignment)
func (h *ServiceHandler) GetActiveAssignment(w http.ResponseWriter, r *http.Request) {
	workerID := strings.TrimSpace(chi.URLParam(r, "id"))
	if workerID == "" {
		writeError(w, r, service.NewErrValidation(errors.New("worker id is required")))
		return
	}

	job, err := h.jobSrv.ActiveAssignment(r.Context(), workerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.JobToApi(*job))
}

func jobFilterFromQuery(r *http.Request) (service.JobFilter, error) {
	query := r.URL.Query()
	filter := service.JobFilter{
		EmployerID:       query.Get("employer"),
		AssignedWorkerID: query.Get("worker"),
	}

	if raw := query.Get("status"); raw != "" {
		parts := funk.UniqString(funk.Map(strings.Split(raw, ","), strings.TrimSpace).([]string))
		for _, p := range funk.FilterString(parts, func(s string) bool { return s != "" }) {
			status, ok := api.StringToJobStatus(p)
			if !ok {
				return filter, service.NewErrValidation(errors.New("unknown job status " + p))
			}
			filter.Statuses = append(filter.Statuses, model.JobStatus(status))
		}
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, service.NewErrValidation(errors.New("limit must be a positive number"))
		}
		filter.Limit = limit
	}

	return filter, nil
}
