package detector

import (
	"fmt"
	"sort"

	"github.com/ppiankov/pipecost/internal/models"
	"github.com/ppiankov/pipecost/pkg/config"
)

// maxOverScheduleSavings caps the estimated savings fraction so an
// implausible 100% estimate never appears.
const maxOverScheduleSavings = 0.9

// DetectOverScheduled flags models whose declared refresh cadence is
// strictly finer-grained than their declared source-freshness
// requirement. Models missing either declaration are skipped.
func DetectOverScheduled(in Input) []models.Issue {
	costs := costIndex(in.Attributions)

	issues := []models.Issue{}
	for i := range in.Graph.Models {
		model := &in.Graph.Models[i]
		cadence := model.RefreshCadence
		freshness := model.FreshnessRequirement
		if cadence <= 0 || freshness <= 0 {
			continue
		}
		if cadence >= freshness {
			continue
		}

		fraction := clamp(1-cadence.Seconds()/freshness.Seconds(), 0, maxOverScheduleSavings)

		var cost, share float64
		if attr, ok := costs[model.Name]; ok {
			cost = attr.DollarCost
			share = attr.SharePct
		}

		level := models.LevelWarning
		if fraction >= 0.75 {
			level = models.LevelCritical
		}
		issue := models.Issue{
			Kind:     models.IssueOverScheduled,
			Models:   []string{model.Name},
			Severity: fraction,
			Level:    level,
			Rationale: fmt.Sprintf("refreshes every %s against a source that only changes every %s",
				config.FormatDuration(cadence), config.FormatDuration(freshness)),
			Recommendation: fmt.Sprintf("Relax '%s' refresh from %s to %s to match source freshness",
				model.Name, config.FormatDuration(cadence), config.FormatDuration(freshness)),
			SavingsPctLow:  fraction * share / 2,
			SavingsPctHigh: fraction * share,
			SavingsUSDLow:  fraction * cost / 2,
			SavingsUSDHigh: fraction * cost,
		}
		issues = append(issues, issue)
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].Models[0] < issues[j].Models[0]
	})
	return issues
}
