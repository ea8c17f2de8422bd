// Package engine exposes the single synchronous analysis entrypoint.
// It wires graph construction, execution aggregation, cost attribution,
// the detector suite, and savings estimation into one in-memory pass.
// The engine performs no I/O: manifests and execution logs arrive as
// already-parsed structures.
package engine

import (
	"log/slog"

	"github.com/ppiankov/pipecost/internal/aggregator"
	"github.com/ppiankov/pipecost/internal/attribution"
	"github.com/ppiankov/pipecost/internal/detector"
	"github.com/ppiankov/pipecost/internal/graph"
	"github.com/ppiankov/pipecost/internal/models"
	"github.com/ppiankov/pipecost/internal/savings"
	"github.com/ppiankov/pipecost/pkg/config"
)

// monthlyTopN bounds the ranked model list inside each monthly bucket.
const monthlyTopN = 10

// Analyze runs the full attribution and waste-detection pipeline.
//
// Fatal errors (*graph.CyclicDependencyError,
// *attribution.NoExecutionDataError) abort before any partial result is
// produced. Recoverable problems accumulate as warnings and return
// alongside the complete result.
func Analyze(manifest []models.Model, executions []models.QueryExecution, cfg *config.Config) (*models.AnalysisResult, []models.Warning, error) {
	cfg.Normalize()

	kept := make([]models.Model, 0, len(manifest))
	for _, m := range manifest {
		if cfg.IsModelExcluded(m.Name, m.Tags) {
			slog.Debug("model excluded by pattern", slog.String("model", m.Name))
			continue
		}
		kept = append(kept, m)
	}

	// A model cap is honored deterministically: the first N models in
	// manifest order are processed, the rest reported as excluded.
	excluded := 0
	if cfg.MaxModels > 0 && len(kept) > cfg.MaxModels {
		excluded = len(kept) - cfg.MaxModels
		kept = kept[:cfg.MaxModels]
	}

	g, warnings, err := graph.Build(kept)
	if err != nil {
		return nil, nil, err
	}

	usage, unresolved, aggWarnings := aggregator.Aggregate(g, executions)
	warnings = append(warnings, aggWarnings...)

	attributions, summary, err := attribution.Attribute(usage, unresolved, cfg)
	if err != nil {
		return nil, nil, err
	}
	summary.ModelsAnalyzed = len(g.Models)
	summary.ModelsExcluded = excluded

	issues := detector.Run(detector.Input{
		Graph:        g,
		Attributions: attributions,
		Summary:      summary,
		Config:       cfg,
	})
	savings.Rank(issues)
	summary.RecoverableUSDLow, summary.RecoverableUSDHigh = savings.Portfolio(issues)

	if !cfg.RecommendationsEnabled {
		summary.RecommendationsOmitted = true
		for i := range issues {
			issues[i].Recommendation = ""
		}
	}

	result := &models.AnalysisResult{
		Graph:        *g,
		Attributions: attributions,
		Issues:       issues,
		Monthly:      attribution.MonthlyBreakdown(usage, monthlyTopN),
		Summary:      summary,
	}

	slog.Debug("analysis complete",
		slog.Int("models", len(g.Models)),
		slog.Int("issues", len(issues)),
		slog.Int("warnings", len(warnings)),
	)

	return result, warnings, nil
}
