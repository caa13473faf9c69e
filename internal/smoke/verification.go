package smoke

import (
	"fmt"
)

// verifyOrdering checks that applications are sorted by score, highest first,
// and that every score lies in [0, 100].
func verifyOrdering(apps []application) error {
	for i, a := range apps {
		if a.MatchScore < 0 || a.MatchScore > 100 {
			return fmt.Errorf("%w: %s has score %.1f outside [0, 100]", ErrVerification, a.JobID, a.MatchScore)
		}
		if i > 0 && apps[i-1].MatchScore < a.MatchScore {
			return fmt.Errorf("%w: %s (%.1f) ranked below %s (%.1f)",
				ErrVerification, a.JobID, a.MatchScore, apps[i-1].JobID, apps[i-1].MatchScore)
		}
	}
	return nil
}

// verifySummary checks the run counters against what the store reports.
func verifySummary(sum summary, h health, apps []application) error {
	if sum.Saved < 0 || sum.SkippedDup < 0 || sum.Failed < 0 {
		return fmt.Errorf("%w: negative counters in run %s", ErrVerification, sum.RunID)
	}
	if sum.TotalInDB > h.TotalJobs {
		return fmt.Errorf("%w: run reported %d jobs but health reports %d", ErrVerification, sum.TotalInDB, h.TotalJobs)
	}
	if len(apps) != h.TotalApplications {
		return fmt.Errorf("%w: listed %d applications but health reports %d", ErrVerification, len(apps), h.TotalApplications)
	}
	return nil
}
