package detector

import (
	"fmt"
	"sort"

	"github.com/ppiankov/pipecost/internal/models"
)

// DetectZombies flags terminal models whose cost share meets the
// configured threshold: compute spent on an output nothing downstream
// consumes. Terminal models below the threshold are not actionable
// waste and stay unflagged.
func DetectZombies(in Input) []models.Issue {
	thresholdPct := in.Config.ZombieThresholdPct * 100

	issues := []models.Issue{}
	for i := range in.Attributions {
		attr := &in.Attributions[i]
		model := in.Graph.Model(attr.ModelName)
		if model == nil || !model.Terminal() {
			continue
		}
		if attr.DollarCost <= 0 || attr.SharePct < thresholdPct {
			continue
		}

		level := models.LevelWarning
		if attr.SharePct >= 5 {
			level = models.LevelCritical
		}
		issue := models.Issue{
			Kind:           models.IssueZombieModel,
			Models:         []string{attr.ModelName},
			Severity:       clamp(attr.SharePct/100, 0, 1),
			Level:          level,
			Rationale:      fmt.Sprintf("costs %.1f%% of total spend (%.1f credits) with zero downstream consumers", attr.SharePct, attr.Credits),
			Recommendation: fmt.Sprintf("Archive or drop '%s' to recover ~%.1f%% of spend", attr.ModelName, attr.SharePct),
			SavingsPctLow:  attr.SharePct / 2,
			SavingsPctHigh: attr.SharePct,
			SavingsUSDLow:  attr.DollarCost / 2,
			SavingsUSDHigh: attr.DollarCost,
		}
		issues = append(issues, issue)
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].Models[0] < issues[j].Models[0]
	})
	return issues
}
