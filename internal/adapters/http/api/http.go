// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/applyflow/internal/adapters/repository"
	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/types"
	"github.com/okian/applyflow/internal/ingest"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	HealthDependencies
	JobsDependencies
	ApplicationsDependencies
	AnalyticsDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	jobsHandler         *JobsHandler
	applicationsHandler *ApplicationsHandler
	analyticsHandler    *AnalyticsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &Server{
		healthHandler:       NewHealthHandler(deps),
		statsHandler:        NewStatsHandler(deps),
		jobsHandler:         NewJobsHandler(deps),
		applicationsHandler: NewApplicationsHandler(deps, v),
		analyticsHandler:    NewAnalyticsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("GET /health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /jobs", MetricsMiddleware(s.jobsHandler.HandleListJobs, "jobs"))
	mux.HandleFunc("POST /jobs/ingest", MetricsMiddleware(s.jobsHandler.HandleIngest, "jobs_ingest"))
	mux.HandleFunc("GET /applications", MetricsMiddleware(s.applicationsHandler.HandleList, "applications"))
	mux.HandleFunc("PATCH /applications/{job_id}", MetricsMiddleware(s.applicationsHandler.HandleUpdateStatus, "applications_update"))
	mux.HandleFunc("GET /analytics/conversion", MetricsMiddleware(s.analyticsHandler.HandleConversion, "analytics_conversion"))
	mux.HandleFunc("GET /analytics/skills-gap", MetricsMiddleware(s.analyticsHandler.HandleSkillsGap, "analytics_skills_gap"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeUpstreamError maps service errors onto status codes.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// Shapes re-exported for handler signatures.
type (
	Summary         = ingest.Summary
	ApplicationView = model.ApplicationView
	JobFilter       = types.JobFilter
)
