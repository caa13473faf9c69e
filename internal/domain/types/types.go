// Package types contains read shapes shared by the service and the HTTP API.
package types

import (
	"time"

	"github.com/okian/applyflow/internal/domain/model"
)

// JobFilter narrows the scored job listing. Zero fields match everything.
type JobFilter struct {
	Company  string
	Status   model.Status
	MinScore float64
}

// Match reports whether v passes every set criterion. Company matches exactly.
func (f JobFilter) Match(v *model.ApplicationView) bool {
	if f.Company != "" && v.Company != f.Company {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	return v.MatchScore >= f.MinScore
}

// Conversion summarises how applications progressed. Rates are percentages
// of applications in the applied state, rounded to one decimal.
type Conversion struct {
	Total         int                  `json:"total"`
	Applied       int                  `json:"applied"`
	Interviewed   int                  `json:"interviewed"`
	Offers        int                  `json:"offers"`
	InterviewRate float64              `json:"interview_rate"`
	OfferRate     float64              `json:"offer_rate"`
	ByStatus      map[model.Status]int `json:"by_status"`
}

// SkillCount is one row of the skills gap report.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// Health is the liveness report served on /health.
type Health struct {
	Status            string    `json:"status"`
	DB                string    `json:"db"`
	Timestamp         time.Time `json:"timestamp"`
	TotalJobs         int       `json:"total_jobs"`
	TotalApplications int       `json:"total_applications"`
}

// Health status values.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	DBConnected    = "connected"
	dbErrorPrefix  = "error: "
)

// DBError formats a storage failure for Health.DB.
func DBError(err error) string {
	return dbErrorPrefix + err.Error()
}
