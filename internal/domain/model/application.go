package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidStatus is returned for status values outside the known set.
var ErrInvalidStatus = errors.New("invalid application status")

// Status is the lifecycle stage of an Application.
//
//	new ──► applied ──► phone_screen ──► technical ──► final_round ──► offer
//	            │                              │              │
//	            └──────────────────────────────┴──────────────┴──► rejected
//
// offer and rejected are terminal.
type Status string

const (
	StatusNew         Status = "new"
	StatusApplied     Status = "applied"
	StatusPhoneScreen Status = "phone_screen"
	StatusTechnical   Status = "technical"
	StatusFinalRound  Status = "final_round"
	StatusRejected    Status = "rejected"
	StatusOffer       Status = "offer"
)

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusNew, StatusApplied, StatusPhoneScreen, StatusTechnical,
		StatusFinalRound, StatusRejected, StatusOffer,
	}
}

var transitions = map[Status][]Status{
	StatusNew:         {StatusApplied},
	StatusApplied:     {StatusPhoneScreen, StatusRejected},
	StatusPhoneScreen: {StatusTechnical},
	StatusTechnical:   {StatusFinalRound, StatusRejected},
	StatusFinalRound:  {StatusOffer, StatusRejected},
}

// ParseStatus converts a raw string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusNew, StatusApplied, StatusPhoneScreen, StatusTechnical,
		StatusFinalRound, StatusRejected, StatusOffer:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusOffer || s == StatusRejected
}

// CanTransition reports whether from → to is an edge of the lifecycle graph.
// Updates are not rejected on this basis; callers use it for display hints.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsInterviewing reports whether s is one of the interview stages.
func IsInterviewing(s Status) bool {
	return s == StatusPhoneScreen || s == StatusTechnical || s == StatusFinalRound
}

// Application tracks the pursuit of one Posting.
type Application struct {
	JobID         string     `json:"job_id"`
	Status        Status     `json:"status"`
	MatchScore    float64    `json:"match_score"`
	MatchedSkills []string   `json:"matched_skills"`
	MissingSkills []string   `json:"missing_skills"`
	ExperienceGap int        `json:"experience_gap"`
	Notes         string     `json:"notes"`
	AppliedAt     *time.Time `json:"applied_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ApplicationView is an Application joined with its Posting.
type ApplicationView struct {
	Application
	Title     string `json:"title"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	SourceURL string `json:"source_url"`
	Remote    bool   `json:"remote"`
}
