package reporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ppiankov/pipecost/internal/models"
	"github.com/ppiankov/pipecost/pkg/config"
)

// WriteCSV writes issues.csv and attributions.csv to the output
// directory for spreadsheet consumers.
func WriteCSV(report *models.Report, cfg *config.Config) error {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeCSVFile(
		filepath.Join(cfg.OutputDir, "issues.csv"),
		[]string{"kind", "level", "models", "rationale", "recommendation", "savings_pct_low", "savings_pct_high", "savings_usd_low", "savings_usd_high"},
		issueRows(report.Result.Issues),
	); err != nil {
		return err
	}

	return writeCSVFile(
		filepath.Join(cfg.OutputDir, "attributions.csv"),
		[]string{"model", "credits", "executions", "dollar_cost", "share_pct", "warehouses"},
		attributionRows(report.Result.Attributions),
	)
}

func issueRows(issues []models.Issue) [][]string {
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{
			string(issue.Kind),
			issue.Level,
			strings.Join(issue.Models, ";"),
			issue.Rationale,
			issue.Recommendation,
			formatFloat(issue.SavingsPctLow),
			formatFloat(issue.SavingsPctHigh),
			formatFloat(issue.SavingsUSDLow),
			formatFloat(issue.SavingsUSDHigh),
		})
	}
	return rows
}

func attributionRows(attributions []models.CostAttribution) [][]string {
	rows := make([][]string, 0, len(attributions))
	for _, attr := range attributions {
		rows = append(rows, []string{
			attr.ModelName,
			formatFloat(attr.Credits),
			strconv.Itoa(attr.ExecutionCount),
			formatFloat(attr.DollarCost),
			formatFloat(attr.SharePct),
			strings.Join(attr.Warehouses, ";"),
		})
	}
	return rows
}

func writeCSVFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
