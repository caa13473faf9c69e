package service

import (
	"math"
	"sort"

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/types"
)

// DefaultSkillsGapLimit caps the skills gap report when no limit is given.
const DefaultSkillsGapLimit = 10

// Conversion computes funnel statistics over apps.
func Conversion(apps []model.ApplicationView) types.Conversion {
	c := types.Conversion{
		Total:    len(apps),
		ByStatus: make(map[model.Status]int),
	}
	for i := range apps {
		c.ByStatus[apps[i].Status]++
	}

	c.Applied = c.ByStatus[model.StatusApplied]
	for st, n := range c.ByStatus {
		if model.IsInterviewing(st) {
			c.Interviewed += n
		}
	}
	c.Offers = c.ByStatus[model.StatusOffer]

	if c.Applied > 0 {
		c.InterviewRate = percent(c.Interviewed, c.Applied)
		c.OfferRate = percent(c.Offers, c.Applied)
	}
	return c
}

// SkillsGap counts missing skills across apps and returns the limit most
// frequent, ties broken by skill name. limit <= 0 uses DefaultSkillsGapLimit.
func SkillsGap(apps []model.ApplicationView, limit int) []types.SkillCount {
	if limit <= 0 {
		limit = DefaultSkillsGapLimit
	}
	counts := make(map[string]int)
	for i := range apps {
		for _, skill := range apps[i].MissingSkills {
			counts[skill]++
		}
	}

	out := make([]types.SkillCount, 0, len(counts))
	for skill, n := range counts {
		out = append(out, types.SkillCount{Skill: skill, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Skill < out[j].Skill
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func percent(part, whole int) float64 {
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
