package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/pipecost/internal/baseline"
	"github.com/ppiankov/pipecost/internal/engine"
	"github.com/ppiankov/pipecost/internal/manifest"
	"github.com/ppiankov/pipecost/internal/models"
	"github.com/ppiankov/pipecost/internal/reporter"
	"github.com/ppiankov/pipecost/pkg/config"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command
func NewScanCmd() *cobra.Command {
	cfg := config.DefaultConfig()
	var ratePairs []string

	cmd := &cobra.Command{
		Use:   "scan <manifest.json> <queries.json>",
		Short: "Analyze a dbt manifest and query history for cost savings",
		Long: `Scan builds the model dependency graph from a dbt manifest, attributes
the credits in an exported query history to each model, and reports
zombie models, over-scheduled refreshes, and redundant compute groups
with estimated recoverable savings.`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, path, err := config.AutoLoadFile()
			if err != nil {
				return err
			}
			if fileCfg != nil {
				slog.Debug("config file loaded", slog.String("path", path))
				fileCfg.Apply(cfg)
				// Explicit flags beat file values for output settings.
				if fileCfg.Format != "" && !cmd.Flags().Changed("format") {
					cfg.Format = fileCfg.Format
				}
				if fileCfg.OutputDir != "" && !cmd.Flags().Changed("output") {
					cfg.OutputDir = fileCfg.OutputDir
				}
			}

			rates, err := config.ParseRateTable(ratePairs)
			if err != nil {
				return err
			}
			for warehouse, rate := range rates {
				cfg.RateTable[warehouse] = rate
			}

			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.ManifestPath = args[0]
			cfg.QueryLogPath = args[1]
			return runScan(cfg)
		},
	}

	// Analysis flags
	cmd.Flags().Float64Var(&cfg.ZombieThresholdPct, "zombie-threshold", 0.05, "Zombie cost-share threshold as a fraction of total spend")
	cmd.Flags().StringVar(&cfg.KeepPolicy, "keep-policy", config.KeepHighestCost, "Redundant-group member to keep (highest-cost, first)")
	cmd.Flags().IntVar(&cfg.MaxModels, "max-models", 0, "Process only the first N manifest models (0 = unbounded)")
	cmd.Flags().BoolVar(&cfg.RecommendationsEnabled, "recommendations", true, "Populate per-issue recommendation text")
	cmd.Flags().StringArrayVar(&ratePairs, "rate", nil, "Warehouse rate as warehouse=dollars-per-credit (repeatable)")
	cmd.Flags().StringArrayVar(&cfg.ExcludeModels, "exclude-model", nil, "Glob pattern of models to exclude (repeatable)")
	cmd.Flags().StringArrayVar(&cfg.ExcludeTags, "exclude-tag", nil, "Glob pattern of model tags to exclude (repeatable)")

	// Output flags
	cmd.Flags().StringVar(&cfg.OutputDir, "output", "./report", "Output directory")
	cmd.Flags().StringVar(&cfg.Format, "format", "table", "Output format (table, json, csv)")

	// Baseline flags
	cmd.Flags().StringVar(&cfg.BaselinePath, "baseline", "", "Baseline file of known issues to suppress")
	cmd.Flags().BoolVar(&cfg.UpdateBaseline, "update-baseline", false, "Record current issues into the baseline file")

	// Operational flags
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "Verbose logging")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Dry run mode (don't write output)")
	cmd.Flags().BoolVar(&cfg.FailOnFindings, "fail-on-findings", false, "Exit non-zero when issues are detected")

	return cmd
}

// runScan executes the analysis workflow
func runScan(cfg *config.Config) error {
	startTime := time.Now()

	manifestModels, err := manifest.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return err
	}

	executions, err := manifest.LoadQueryLog(cfg.QueryLogPath, manifest.NewMatcher(manifestModels))
	if err != nil {
		return err
	}

	result, warnings, err := engine.Analyze(manifestModels, executions, cfg)
	if err != nil {
		return err
	}

	if err := applyBaseline(cfg, result); err != nil {
		return err
	}

	report := buildReport(cfg, result, warnings, len(manifestModels), len(executions), startTime)

	if cfg.DryRun {
		slog.Debug("dry run, skipping output")
	} else if err := reporter.New(cfg).Generate(report); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if cfg.FailOnFindings && len(result.Issues) > 0 {
		return &FindingsError{Count: len(result.Issues)}
	}
	return nil
}

// applyBaseline suppresses known issues and optionally records the
// current issue set.
func applyBaseline(cfg *config.Config, result *models.AnalysisResult) error {
	path := cfg.BaselinePath
	if path == "" {
		if !cfg.UpdateBaseline {
			return nil
		}
		path = baseline.DefaultPath
	}

	known, err := baseline.Load(path)
	if err != nil {
		return err
	}

	if cfg.UpdateBaseline {
		set := baseline.Set{}
		for _, fingerprint := range baseline.CollectFingerprints(result) {
			set[fingerprint] = struct{}{}
		}
		if err := baseline.Save(path, set); err != nil {
			return err
		}
		slog.Debug("baseline updated", slog.String("path", path), slog.Int("fingerprints", len(set)))
	}

	suppressed, remaining := baseline.SuppressKnown(result, known)
	if suppressed > 0 {
		slog.Debug("baseline suppression",
			slog.Int("suppressed", suppressed),
			slog.Int("remaining", remaining),
		)
	}
	return nil
}

// buildReport constructs the final report envelope.
func buildReport(cfg *config.Config, result *models.AnalysisResult, warnings []models.Warning, modelCount, executionCount int, startTime time.Time) *models.Report {
	if warnings == nil {
		warnings = []models.Warning{}
	}
	now := time.Now()
	return &models.Report{
		Tool:      "pipecost",
		Version:   version,
		Timestamp: now.UTC().Format(time.RFC3339),
		Metadata: models.Metadata{
			GeneratedAt:      now,
			ManifestPath:     cfg.ManifestPath,
			QueryLogPath:     cfg.QueryLogPath,
			ModelsInManifest: modelCount,
			ExecutionsLoaded: executionCount,
			AnalysisDuration: time.Since(startTime).Round(time.Millisecond).String(),
			Version:          version,
		},
		Result:   *result,
		Warnings: warnings,
	}
}
