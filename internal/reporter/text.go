package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ppiankov/pipecost/internal/models"
	"github.com/ppiankov/pipecost/pkg/config"
)

// WriteText renders the findings table to stdout.
func WriteText(report *models.Report, cfg *config.Config) error {
	return writeText(report, cfg, os.Stdout)
}

func writeText(report *models.Report, cfg *config.Config, out io.Writer) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if out == nil {
		return fmt.Errorf("writer is nil")
	}

	summary := report.Result.Summary
	fmt.Fprintf(out, "\nPipeCost Report (%s)\n", report.Timestamp)
	fmt.Fprintf(out, "Total spend: %.1f credits ($%.2f)\n", summary.TotalCredits, summary.TotalDollars)
	fmt.Fprintf(out, "Estimated recoverable: $%.2f - $%.2f\n", summary.RecoverableUSDLow, summary.RecoverableUSDHigh)
	fmt.Fprintf(out, "Models analyzed: %d", summary.ModelsAnalyzed)
	if summary.ModelsExcluded > 0 {
		fmt.Fprintf(out, " (%d excluded by model cap)", summary.ModelsExcluded)
	}
	fmt.Fprintln(out)
	if summary.UnattributedCount > 0 {
		fmt.Fprintf(out, "Unattributed: %d executions, %.1f credits (%.1f%% of spend)\n",
			summary.UnattributedCount, summary.UnattributedCredits, summary.UnattributedSharePct)
	}
	fmt.Fprintf(out, "Issues: %d zombie, %d over-scheduled, %d redundant\n\n",
		countKind(report.Result.Issues, models.IssueZombieModel),
		countKind(report.Result.Issues, models.IssueOverScheduled),
		countKind(report.Result.Issues, models.IssueRedundantComputeGroup),
	)

	if len(report.Result.Issues) == 0 {
		fmt.Fprintln(out, "No significant waste detected.")
	} else {
		fmt.Fprintln(out, renderIssueTable(report.Result.Issues))
		if !summary.RecommendationsOmitted {
			fmt.Fprintln(out, "\nRecommendations:")
			for _, issue := range report.Result.Issues {
				if issue.Recommendation != "" {
					fmt.Fprintf(out, "  -> %s\n", issue.Recommendation)
				}
			}
		}
		fmt.Fprintf(out, "\nNote: %s.\n", summary.EstimateCaveat)
	}

	for _, warning := range report.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning.Detail)
	}

	return nil
}

func renderIssueTable(issues []models.Issue) string {
	tw := table.Table{}
	tw.AppendHeader(table.Row{"Sev", "Type", "Models", "Detail", "Save%", "Save$"})

	for _, issue := range issues {
		sev := text.FgYellow.Sprint(issue.Level)
		if issue.Level == models.LevelCritical {
			sev = text.FgRed.Sprint(issue.Level)
		}
		tw.AppendRow(table.Row{
			sev,
			string(issue.Kind),
			strings.Join(issue.Models, ", "),
			issue.Rationale,
			fmt.Sprintf("%.1f-%.1f", issue.SavingsPctLow, issue.SavingsPctHigh),
			fmt.Sprintf("%.2f-%.2f", issue.SavingsUSDLow, issue.SavingsUSDHigh),
		})
	}

	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 32},
		{Number: 4, WidthMax: 56},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	return tw.Render()
}

func countKind(issues []models.Issue, kind models.IssueKind) int {
	count := 0
	for i := range issues {
		if issues[i].Kind == kind {
			count++
		}
	}
	return count
}
