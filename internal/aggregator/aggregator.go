// Package aggregator folds raw execution records into per-model usage:
// credit totals, run counts, ordered start times, and per-warehouse
// credit slices. Records naming unknown models land in the unresolved
// bucket so total-spend accounting stays exact.
package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/pipecost/internal/models"
)

// ModelUsage aggregates all executions of a single model. StartTimes is
// kept ordered so the over-schedule detector can inspect run spacing.
type ModelUsage struct {
	Credits          float64
	Executions       int
	StartTimes       []time.Time
	WarehouseCredits map[string]float64
	MonthlyCredits   map[string]float64 // "2006-01" or "unknown" -> credits
}

// Unresolved accumulates execution records that matched no model.
type Unresolved struct {
	Count            int
	Credits          float64
	WarehouseCredits map[string]float64
}

// Aggregate resolves each execution record against the graph's name set
// and sums usage per model. Record order is irrelevant: the result is
// identical for any permutation of the input.
func Aggregate(g *models.Graph, executions []models.QueryExecution) (map[string]*ModelUsage, Unresolved, []models.Warning) {
	known := make(map[string]bool, len(g.Models))
	for i := range g.Models {
		known[g.Models[i].Name] = true
	}

	usage := make(map[string]*ModelUsage)
	unresolved := Unresolved{WarehouseCredits: map[string]float64{}}
	warnings := []models.Warning{}

	for _, exec := range executions {
		if !known[exec.ModelName] {
			unresolved.Count++
			unresolved.Credits += exec.Credits
			unresolved.WarehouseCredits[exec.Warehouse] += exec.Credits
			detail := fmt.Sprintf("execution of unknown model %q (%.4f credits) counted as unattributed", exec.ModelName, exec.Credits)
			if exec.ModelName == "" {
				detail = fmt.Sprintf("execution matched no model (%.4f credits) counted as unattributed", exec.Credits)
			}
			warnings = append(warnings, models.Warning{
				Kind:   models.WarningUnresolvedExecution,
				Model:  exec.ModelName,
				Detail: detail,
			})
			continue
		}

		mu, ok := usage[exec.ModelName]
		if !ok {
			mu = &ModelUsage{
				WarehouseCredits: map[string]float64{},
				MonthlyCredits:   map[string]float64{},
			}
			usage[exec.ModelName] = mu
		}
		mu.Credits += exec.Credits
		mu.Executions++
		mu.StartTimes = append(mu.StartTimes, exec.StartTime)
		mu.WarehouseCredits[exec.Warehouse] += exec.Credits
		mu.MonthlyCredits[monthKey(exec.StartTime)] += exec.Credits
	}

	for _, mu := range usage {
		sort.Slice(mu.StartTimes, func(i, j int) bool {
			return mu.StartTimes[i].Before(mu.StartTimes[j])
		})
	}

	return usage, unresolved, warnings
}

func monthKey(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01")
}
