// Package smoke is a black-box checker run against a live applyflow server.
package smoke

import (
	"time"

	"github.com/okian/applyflow/pkg/logger"
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Timeout    time.Duration // HTTP request timeout
	TopN       int           // Number of top matches to print
	SkipIngest bool          // Check existing data without triggering a run
	Logger     logger.Logger // Defaults to the global "smoke" logger
}

// health mirrors the /health body.
type health struct {
	Status            string `json:"status"`
	DB                string `json:"db"`
	TotalJobs         int    `json:"total_jobs"`
	TotalApplications int    `json:"total_applications"`
}

// summary mirrors the POST /jobs/ingest body.
type summary struct {
	RunID      string `json:"run_id"`
	DurationMS int64  `json:"duration_ms"`
	Saved      int    `json:"saved"`
	SkippedDup int    `json:"skipped_dup"`
	Failed     int    `json:"failed"`
	TotalInDB  int    `json:"total_in_db"`
}

// application mirrors one entry of GET /applications.
type application struct {
	JobID         string   `json:"job_id"`
	Status        string   `json:"status"`
	MatchScore    float64  `json:"match_score"`
	MissingSkills []string `json:"missing_skills"`
	Title         string   `json:"title"`
	Company       string   `json:"company"`
}

type applicationsResponse struct {
	Applications []application `json:"applications"`
}

// Stats holds run statistics.
type Stats struct {
	Saved        int
	SkippedDup   int
	Failed       int
	Applications int
	StartTime    time.Time
	Duration     time.Duration
}
