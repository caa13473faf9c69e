// Package model contains domain models passed between layers.
package model

import (
	"crypto/md5" //nolint:gosec // identity hash, not a security boundary
	"encoding/hex"
	"strings"
	"time"
)

// Posting is one job listing as observed at a source.
type Posting struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Location       string    `json:"location"`
	Description    string    `json:"description"`
	RequiredSkills []string  `json:"required_skills"`
	RequiredYears  int       `json:"required_years"`
	Source         string    `json:"source"`
	SourceURL      string    `json:"source_url"`
	Remote         bool      `json:"remote"`
	CreatedAt      time.Time `json:"created_at"`
}

// PostingID derives the stable identity of a posting. Re-fetching the same
// title at the same company from the same source always yields the same id.
func PostingID(source, company, title string) string {
	sum := md5.Sum([]byte(source + "-" + company + "-" + title)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}

// IsRemote reports whether a free-text location advertises remote work.
func IsRemote(location string) bool {
	return strings.Contains(strings.ToLower(location), "remote")
}

// NewPosting builds a Posting with derived id and remote flag. Extraction
// fields are left empty for the pipeline to fill.
func NewPosting(source, company, title, location, description, sourceURL string) Posting {
	return Posting{
		ID:             PostingID(source, company, title),
		Title:          title,
		Company:        company,
		Location:       location,
		Description:    description,
		RequiredSkills: []string{},
		Source:         source,
		SourceURL:      sourceURL,
		Remote:         IsRemote(location),
	}
}
