package attribution

import (
	"errors"
	"math"
	"testing"

	"github.com/ppiankov/pipecost/internal/aggregator"
	"github.com/ppiankov/pipecost/pkg/config"
)

func usageOf(credits map[string]float64, warehouse string) map[string]*aggregator.ModelUsage {
	usage := map[string]*aggregator.ModelUsage{}
	for name, c := range credits {
		usage[name] = &aggregator.ModelUsage{
			Credits:          c,
			Executions:       1,
			WarehouseCredits: map[string]float64{warehouse: c},
			MonthlyCredits:   map[string]float64{"2024-01": c},
		}
	}
	return usage
}

func TestAttributeSharesSumToHundred(t *testing.T) {
	usage := usageOf(map[string]float64{
		"fct_orders": 6.0,
		"stg_orders": 3.0,
	}, "default")
	unresolved := aggregator.Unresolved{
		Count:            2,
		Credits:          1.0,
		WarehouseCredits: map[string]float64{"default": 1.0},
	}

	attributions, summary, err := Attribute(usage, unresolved, config.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := summary.UnattributedSharePct
	for _, attr := range attributions {
		total += attr.SharePct
	}
	if math.Abs(total-100.0) > 1e-9 {
		t.Fatalf("expected shares plus unattributed to sum to 100, got %g", total)
	}
	if math.Abs(summary.TotalCredits-10.0) > 1e-9 {
		t.Fatalf("expected total credits 10.0, got %g", summary.TotalCredits)
	}

	// Ordered by cost descending.
	if attributions[0].ModelName != "fct_orders" {
		t.Fatalf("expected fct_orders first, got %q", attributions[0].ModelName)
	}
}

func TestAttributeAppliesWarehouseRates(t *testing.T) {
	usage := map[string]*aggregator.ModelUsage{
		"fct_orders": {
			Credits:    4.0,
			Executions: 2,
			WarehouseCredits: map[string]float64{
				"xl_warehouse": 3.0,
				"xs_warehouse": 1.0,
			},
			MonthlyCredits: map[string]float64{"2024-01": 4.0},
		},
	}

	cfg := config.DefaultConfig()
	cfg.RateTable = map[string]float64{"xl_warehouse": 2.0} // xs falls back to 1.0

	attributions, _, err := Attribute(usage, aggregator.Unresolved{WarehouseCredits: map[string]float64{}}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(attributions[0].DollarCost-7.0) > 1e-9 {
		t.Fatalf("expected 3*2.0 + 1*1.0 = 7.0 dollars, got %g", attributions[0].DollarCost)
	}
}

func TestAttributeNoExecutionData(t *testing.T) {
	_, _, err := Attribute(map[string]*aggregator.ModelUsage{}, aggregator.Unresolved{WarehouseCredits: map[string]float64{}}, config.DefaultConfig())

	var noData *NoExecutionDataError
	if !errors.As(err, &noData) {
		t.Fatalf("expected NoExecutionDataError, got %v", err)
	}
}

func TestMonthlyBreakdownRanksTopModels(t *testing.T) {
	usage := map[string]*aggregator.ModelUsage{
		"fct_orders": {
			Credits:          5.0,
			WarehouseCredits: map[string]float64{"default": 5.0},
			MonthlyCredits:   map[string]float64{"2024-01": 2.0, "2024-02": 3.0},
		},
		"stg_orders": {
			Credits:          6.0,
			WarehouseCredits: map[string]float64{"default": 6.0},
			MonthlyCredits:   map[string]float64{"2024-01": 6.0},
		},
	}

	breakdown := MonthlyBreakdown(usage, 10)
	if len(breakdown) != 2 {
		t.Fatalf("expected 2 months, got %d", len(breakdown))
	}
	if breakdown[0].Month != "2024-01" || breakdown[1].Month != "2024-02" {
		t.Fatalf("expected chronological months, got %v", breakdown)
	}

	january := breakdown[0]
	if math.Abs(january.Credits-8.0) > 1e-9 {
		t.Fatalf("expected 8.0 credits in january, got %g", january.Credits)
	}
	if january.TopModels[0].ModelName != "stg_orders" {
		t.Fatalf("expected stg_orders ranked first in january, got %q", january.TopModels[0].ModelName)
	}
	if math.Abs(january.TopModels[0].SharePct-75.0) > 1e-9 {
		t.Fatalf("expected 75%% share, got %g", january.TopModels[0].SharePct)
	}
}
