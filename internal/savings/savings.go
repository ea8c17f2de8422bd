// Package savings aggregates per-issue savings ranges into a
// portfolio-level estimate and ranks issues for presentation.
package savings

import (
	"sort"

	"github.com/ppiankov/pipecost/internal/models"
)

// Portfolio sums each issue's dollar range independently. Overlapping
// savings between issues touching the same model are not deduplicated;
// models.EstimateCaveat states this in every report.
func Portfolio(issues []models.Issue) (low, high float64) {
	for i := range issues {
		low += issues[i].SavingsUSDLow
		high += issues[i].SavingsUSDHigh
	}
	return low, high
}

// Rank orders issues by high-bound savings descending, ties broken by
// first implicated model name then by kind, so identical inputs always
// produce identical output ordering.
func Rank(issues []models.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].SavingsUSDHigh != issues[j].SavingsUSDHigh {
			return issues[i].SavingsUSDHigh > issues[j].SavingsUSDHigh
		}
		if issues[i].Models[0] != issues[j].Models[0] {
			return issues[i].Models[0] < issues[j].Models[0]
		}
		return issues[i].Kind < issues[j].Kind
	})
}
