package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/okian/applyflow/internal/domain/model"
)

// JobsDependencies lists scored jobs and triggers ingestion.
type JobsDependencies interface {
	ListJobs(ctx context.Context, filter JobFilter) ([]ApplicationView, error)
	TriggerIngest(ctx context.Context) (Summary, error)
}

// JobsHandler handles /jobs requests.
type JobsHandler struct {
	deps JobsDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobsDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

type jobsResponse struct {
	Jobs  []ApplicationView `json:"jobs"`
	Total int               `json:"total"`
}

// HandleListJobs handles GET /jobs?company=&status=&min_score= requests.
func (h *JobsHandler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseJobFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	jobs, err := h.deps.ListJobs(r.Context(), filter)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobsResponse{Jobs: jobs, Total: len(jobs)})
}

// HandleIngest handles POST /jobs/ingest. Concurrent requests share one run.
func (h *JobsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.TriggerIngest(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func parseJobFilter(r *http.Request) (JobFilter, error) {
	q := r.URL.Query()
	filter := JobFilter{Company: q.Get("company")}

	if raw := q.Get("status"); raw != "" {
		st, err := model.ParseStatus(raw)
		if err != nil {
			return JobFilter{}, err
		}
		filter.Status = st
	}
	if raw := q.Get("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return JobFilter{}, fmt.Errorf("%w: min_score must be a number", ErrBadRequest)
		}
		filter.MinScore = v
	}
	return filter, nil
}
