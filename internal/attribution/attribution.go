// Package attribution turns aggregated usage into priced per-model
// cost records and portfolio totals.
package attribution

import (
	"sort"

	"github.com/ppiankov/pipecost/internal/aggregator"
	"github.com/ppiankov/pipecost/internal/models"
	"github.com/ppiankov/pipecost/pkg/config"
)

// NoExecutionDataError is fatal: the execution log resolved to zero
// usable records, so there is nothing to attribute.
type NoExecutionDataError struct{}

func (e *NoExecutionDataError) Error() string {
	return "execution log contains no records resolving to a known model"
}

// Attribute prices each model's usage with the warehouse rate table and
// computes percentage shares over total spend. Shares of attributed
// models plus the unattributed share sum to 100%.
func Attribute(usage map[string]*aggregator.ModelUsage, unresolved aggregator.Unresolved, cfg *config.Config) ([]models.CostAttribution, models.Summary, error) {
	if len(usage) == 0 {
		return nil, models.Summary{}, &NoExecutionDataError{}
	}

	attributions := make([]models.CostAttribution, 0, len(usage))
	totalCredits := unresolved.Credits
	totalDollars := priceCredits(unresolved.WarehouseCredits, cfg)

	for name, mu := range usage {
		warehouses := make([]string, 0, len(mu.WarehouseCredits))
		for wh := range mu.WarehouseCredits {
			warehouses = append(warehouses, wh)
		}
		sort.Strings(warehouses)

		attr := models.CostAttribution{
			ModelName:      name,
			Credits:        mu.Credits,
			ExecutionCount: mu.Executions,
			DollarCost:     priceCredits(mu.WarehouseCredits, cfg),
			Warehouses:     warehouses,
		}
		totalCredits += mu.Credits
		totalDollars += attr.DollarCost
		attributions = append(attributions, attr)
	}

	unattributedDollars := priceCredits(unresolved.WarehouseCredits, cfg)
	summary := models.Summary{
		TotalCredits:        totalCredits,
		TotalDollars:        totalDollars,
		UnattributedCount:   unresolved.Count,
		UnattributedCredits: unresolved.Credits,
		EstimateCaveat:      models.EstimateCaveat,
	}
	if totalDollars > 0 {
		summary.UnattributedSharePct = unattributedDollars / totalDollars * 100
		for i := range attributions {
			attributions[i].SharePct = attributions[i].DollarCost / totalDollars * 100
		}
	}

	sort.Slice(attributions, func(i, j int) bool {
		if attributions[i].DollarCost != attributions[j].DollarCost {
			return attributions[i].DollarCost > attributions[j].DollarCost
		}
		return attributions[i].ModelName < attributions[j].ModelName
	})

	return attributions, summary, nil
}

// MonthlyBreakdown aggregates attributed credits by calendar month with
// the topN most expensive models ranked inside each month.
func MonthlyBreakdown(usage map[string]*aggregator.ModelUsage, topN int) []models.MonthlyBreakdown {
	months := map[string]map[string]float64{}
	for name, mu := range usage {
		for month, credits := range mu.MonthlyCredits {
			if months[month] == nil {
				months[month] = map[string]float64{}
			}
			months[month][name] += credits
		}
	}

	keys := make([]string, 0, len(months))
	for month := range months {
		keys = append(keys, month)
	}
	sort.Strings(keys)

	breakdown := make([]models.MonthlyBreakdown, 0, len(keys))
	for _, month := range keys {
		perModel := months[month]
		var monthTotal float64
		ranked := make([]models.MonthlyModelCredits, 0, len(perModel))
		for name, credits := range perModel {
			monthTotal += credits
			ranked = append(ranked, models.MonthlyModelCredits{ModelName: name, Credits: credits})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].Credits != ranked[j].Credits {
				return ranked[i].Credits > ranked[j].Credits
			}
			return ranked[i].ModelName < ranked[j].ModelName
		})
		if topN > 0 && len(ranked) > topN {
			ranked = ranked[:topN]
		}
		if monthTotal > 0 {
			for i := range ranked {
				ranked[i].SharePct = ranked[i].Credits / monthTotal * 100
			}
		}
		breakdown = append(breakdown, models.MonthlyBreakdown{
			Month:     month,
			Credits:   monthTotal,
			TopModels: ranked,
		})
	}
	return breakdown
}

func priceCredits(warehouseCredits map[string]float64, cfg *config.Config) float64 {
	var dollars float64
	for warehouse, credits := range warehouseCredits {
		dollars += credits * cfg.Rate(warehouse)
	}
	return dollars
}
