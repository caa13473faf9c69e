package model

// CandidateProfile describes the person postings are scored against.
// It is treated as immutable for the duration of a run.
type CandidateProfile struct {
	Skills          []string `json:"skills" koanf:"skills"`
	ExperienceYears int      `json:"experience_years" koanf:"experience_years" validate:"gte=0"`
	Domains         []string `json:"domains" koanf:"domains"`
	Certifications  []string `json:"certifications" koanf:"certifications"`
}
