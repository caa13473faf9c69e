package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/applyflow/internal/domain/types"
)

const maxSkillsGapLimit = 100

// AnalyticsDependencies computes funnel and skills reports.
type AnalyticsDependencies interface {
	Conversion(ctx context.Context) (types.Conversion, error)
	SkillsGap(ctx context.Context, limit int) ([]types.SkillCount, error)
}

// AnalyticsHandler handles /analytics requests.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

type skillsGapResponse struct {
	TopMissingSkills []types.SkillCount `json:"top_missing_skills"`
}

// HandleConversion handles GET /analytics/conversion. With no applications
// the body is just {"total":0}.
func (h *AnalyticsHandler) HandleConversion(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Conversion(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if c.Total == 0 {
		writeJSON(w, http.StatusOK, map[string]int{"total": 0})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleSkillsGap handles GET /analytics/skills-gap?limit=N.
func (h *AnalyticsHandler) HandleSkillsGap(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSkillsGapLimit {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("%w: limit must be between 1 and %d", ErrBadRequest, maxSkillsGapLimit))
			return
		}
		limit = n
	}
	gap, err := h.deps.SkillsGap(r.Context(), limit)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, skillsGapResponse{TopMissingSkills: gap})
}
