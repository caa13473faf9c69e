// Package scoring rates a posting's requirements against a candidate profile.
package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/applyflow/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultSkillWeight = 0.75
	defaultYOEWeight   = 0.25
	// yoeDecayYears is the gap at which the experience component reaches zero.
	yoeDecayYears = 5.0
	// HardMismatchGap is the largest experience gap still considered attainable.
	HardMismatchGap = 3
	maxScoreValue   = 100
)

// Weights sets the contribution of skill coverage and experience fit to the
// final score. They are expected to sum to 1.0; that is left to the caller.
type Weights struct {
	Skill float64 `koanf:"skill" json:"skill" validate:"gte=0,lte=1"`
	YOE   float64 `koanf:"yoe" json:"yoe" validate:"gte=0,lte=1"`
}

// DefaultWeights returns the 0.75 / 0.25 split.
func DefaultWeights() Weights {
	return Weights{Skill: defaultSkillWeight, YOE: defaultYOEWeight}
}

// Result is the score breakdown for one posting.
type Result struct {
	FinalScore      float64  `json:"final_score"`
	KeywordCoverage float64  `json:"keyword_coverage"`
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
	ExperienceGap   int      `json:"experience_gap"`
	HardMismatch    bool     `json:"hard_mismatch"`
}

// Scorer computes a Result for a posting and profile. Implementations must be
// deterministic and free of side effects.
type Scorer interface {
	Score(p model.Posting, profile model.CandidateProfile) Result
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights overrides the default weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// Engine is the weighted coverage-plus-experience Scorer.
type Engine struct {
	weights Weights
}

// New creates an Engine with default weights unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the configured weights.
func (e *Engine) Weights() Weights { return e.weights }

// Score computes the score breakdown for p against profile.
func (e *Engine) Score(p model.Posting, profile model.CandidateProfile) Result {
	required := lowerSet(p.RequiredSkills)
	have := lowerSet(profile.Skills)

	matched := make([]string, 0, len(required))
	missing := make([]string, 0, len(required))
	for skill := range required {
		if _, ok := have[skill]; ok {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)

	coverage := 1.0
	if len(required) > 0 {
		coverage = float64(len(matched)) / float64(len(required))
	}

	gap := p.RequiredYears - profile.ExperienceYears
	if gap < 0 {
		gap = 0
	}
	yoe := math.Max(0, 1-float64(gap)/yoeDecayYears)

	final := (coverage*e.weights.Skill + yoe*e.weights.YOE) * maxScoreValue
	final = math.Max(0, math.Min(maxScoreValue, final))

	return Result{
		FinalScore:      round1(final),
		KeywordCoverage: round1(coverage * maxScoreValue),
		MatchedSkills:   matched,
		MissingSkills:   missing,
		ExperienceGap:   gap,
		HardMismatch:    gap > HardMismatchGap,
	}
}

func lowerSet(skills []string) map[string]struct{} {
	out := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
