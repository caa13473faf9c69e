package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/applyflow/internal/domain/types"
	"github.com/okian/applyflow/pkg/metrics"
)

// HealthDependencies reports liveness of the backing services.
type HealthDependencies interface {
	Health(ctx context.Context) types.Health
}

// HealthHandler serves liveness and Prometheus metrics.
type HealthHandler struct {
	deps    HealthDependencies
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{
		deps:    deps,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleMetrics handles GET /healthz with the custom metrics registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// HandleHealth handles GET /health. A degraded store still answers 200 so
// the body can be inspected.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Health(r.Context()))
}
