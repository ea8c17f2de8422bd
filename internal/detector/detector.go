// Package detector implements the three waste heuristics: zombie
// models, over-scheduled models, and redundant compute groups. Each
// detector is a pure function over the immutable graph and attribution
// list; Run evaluates them concurrently and merges the findings into a
// deterministic order.
package detector

import (
	"sync"

	"github.com/ppiankov/pipecost/internal/models"
	"github.com/ppiankov/pipecost/pkg/config"
)

// Input is the shared read-only state every detector consumes.
type Input struct {
	Graph        *models.Graph
	Attributions []models.CostAttribution
	Summary      models.Summary
	Config       *config.Config
}

// Run evaluates all detectors and returns the merged issue list. The
// result is identical regardless of scheduling: each detector writes to
// its own slot and the merge order is fixed.
func Run(in Input) []models.Issue {
	detectors := []func(Input) []models.Issue{
		DetectZombies,
		DetectOverScheduled,
		DetectRedundant,
	}

	results := make([][]models.Issue, len(detectors))
	var wg sync.WaitGroup
	for i, detect := range detectors {
		i, detect := i, detect
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = detect(in)
		}()
	}
	wg.Wait()

	issues := []models.Issue{}
	for _, r := range results {
		issues = append(issues, r...)
	}
	return issues
}

// costIndex maps model name to its attribution record.
func costIndex(attributions []models.CostAttribution) map[string]*models.CostAttribution {
	idx := make(map[string]*models.CostAttribution, len(attributions))
	for i := range attributions {
		idx[attributions[i].ModelName] = &attributions[i]
	}
	return idx
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
