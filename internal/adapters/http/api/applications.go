package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/applyflow/internal/domain/model"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// ApplicationsDependencies reads and mutates applications.
type ApplicationsDependencies interface {
	ListApplications(ctx context.Context) ([]ApplicationView, error)
	UpdateStatus(ctx context.Context, jobID string, status model.Status, notes *string) error
}

// ApplicationsHandler handles /applications requests.
type ApplicationsHandler struct {
	deps     ApplicationsDependencies
	validate *validator.Validate
}

// NewApplicationsHandler creates a new applications handler.
func NewApplicationsHandler(deps ApplicationsDependencies, v *validator.Validate) *ApplicationsHandler {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	return &ApplicationsHandler{deps: deps, validate: v}
}

// statusUpdateRequest mirrors the OpenAPI schema for PATCH /applications/{job_id}.
type statusUpdateRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes" validate:"omitempty,max=4000"`
}

type statusUpdateResponse struct {
	JobID   string       `json:"job_id"`
	Status  model.Status `json:"status"`
	Updated bool         `json:"updated"`
}

type applicationsResponse struct {
	Applications []ApplicationView `json:"applications"`
}

// HandleList handles GET /applications.
func (h *ApplicationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	apps, err := h.deps.ListApplications(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applicationsResponse{Applications: apps})
}

// HandleUpdateStatus handles PATCH /applications/{job_id}.
func (h *ApplicationsHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing job_id", ErrBadRequest))
		return
	}

	var req statusUpdateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid JSON body", ErrBadRequest))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	status, err := model.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", err)
		return
	}
	if err := h.deps.UpdateStatus(r.Context(), jobID, status, req.Notes); err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusUpdateResponse{JobID: jobID, Status: status, Updated: true})
}
