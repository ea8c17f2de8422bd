package detector

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/pipecost/internal/models"
	"github.com/ppiankov/pipecost/pkg/config"
)

// DetectRedundant groups models by exact structural-fingerprint
// equality and flags every group of two or more. Estimated savings sum
// the costs of all members except the one kept; which member is kept
// follows cfg.KeepPolicy and is a modeling assumption, stated as such
// in the rationale.
func DetectRedundant(in Input) []models.Issue {
	costs := costIndex(in.Attributions)

	groups := map[string][]string{} // fingerprint -> member names, manifest order
	for i := range in.Graph.Models {
		model := &in.Graph.Models[i]
		if model.Fingerprint == "" {
			continue
		}
		groups[model.Fingerprint] = append(groups[model.Fingerprint], model.Name)
	}

	fingerprints := make([]string, 0, len(groups))
	for fp, members := range groups {
		if len(members) >= 2 {
			fingerprints = append(fingerprints, fp)
		}
	}
	sort.Strings(fingerprints)

	issues := []models.Issue{}
	for _, fp := range fingerprints {
		members := groups[fp]

		byCost := append([]string(nil), members...)
		sort.Slice(byCost, func(i, j int) bool {
			ci, cj := memberCost(costs, byCost[i]), memberCost(costs, byCost[j])
			if ci != cj {
				return ci > cj
			}
			return byCost[i] < byCost[j]
		})

		kept := byCost[0]
		if in.Config.KeepPolicy == config.KeepFirst {
			kept = members[0]
		}

		var savings float64
		ordered := []string{kept}
		for _, name := range byCost {
			if name == kept {
				continue
			}
			savings += memberCost(costs, name)
			ordered = append(ordered, name)
		}

		share := 0.0
		if in.Summary.TotalDollars > 0 {
			share = savings / in.Summary.TotalDollars * 100
		}
		level := models.LevelWarning
		if share > 5 {
			level = models.LevelCritical
		}

		assumption := "the costliest member is assumed the most complete computation"
		if in.Config.KeepPolicy == config.KeepFirst {
			assumption = "the first-declared member is kept by policy"
		}
		issue := models.Issue{
			Kind:     models.IssueRedundantComputeGroup,
			Models:   ordered,
			Severity: clamp(share/100, 0, 1),
			Level:    level,
			Rationale: fmt.Sprintf("%d models share an identical structural fingerprint (%.1f credits combined); keeping '%s': %s",
				len(members), groupCredits(costs, members), kept, assumption),
			Recommendation: fmt.Sprintf("Consolidate %s into '%s'", quoteList(ordered[1:]), kept),
			SavingsPctLow:  share,
			SavingsPctHigh: share,
			SavingsUSDLow:  savings,
			SavingsUSDHigh: savings,
		}
		issues = append(issues, issue)
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].Models[0] < issues[j].Models[0]
	})
	return issues
}

func memberCost(costs map[string]*models.CostAttribution, name string) float64 {
	if attr, ok := costs[name]; ok {
		return attr.DollarCost
	}
	return 0
}

func groupCredits(costs map[string]*models.CostAttribution, members []string) float64 {
	var total float64
	for _, name := range members {
		if attr, ok := costs[name]; ok {
			total += attr.Credits
		}
	}
	return total
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = "'" + name + "'"
	}
	return strings.Join(quoted, ", ")
}
