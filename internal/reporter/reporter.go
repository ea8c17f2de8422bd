// Package reporter renders the analysis report for humans and
// machines. Every renderer serializes the same Report envelope; none of
// them reaches back into the engine.
package reporter

import (
	"fmt"

	"github.com/ppiankov/pipecost/internal/models"
	"github.com/ppiankov/pipecost/pkg/config"
)

// Reporter interface for generating reports
type Reporter interface {
	Generate(report *models.Report) error
}

type reporter struct {
	config *config.Config
}

// New creates a reporter for the configured format.
func New(cfg *config.Config) Reporter {
	return &reporter{config: cfg}
}

// Generate writes report.json plus the format-specific rendering.
func (r *reporter) Generate(report *models.Report) error {
	if err := WriteJSON(report, r.config); err != nil {
		return err
	}

	switch r.config.Format {
	case "json":
		return nil
	case "csv":
		return WriteCSV(report, r.config)
	case "table", "":
		return WriteText(report, r.config)
	default:
		return fmt.Errorf("unknown report format %q", r.config.Format)
	}
}
