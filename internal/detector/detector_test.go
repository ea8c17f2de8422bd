package detector

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/ppiankov/pipecost/internal/models"
	"github.com/ppiankov/pipecost/pkg/config"
)

// fixture returns an input exercising all three detectors at once:
// rpt_dead is an expensive terminal model, fct_hourly refreshes far
// more often than its source changes, and dup_a/dup_b share a
// fingerprint.
func fixture() Input {
	graph := &models.Graph{
		Models: []models.Model{
			{Name: "stg_orders", Downstream: []string{"fct_hourly"}},
			{Name: "fct_hourly", Upstream: []string{"stg_orders"}, Downstream: []string{"rpt_live"}, RefreshCadence: time.Hour, FreshnessRequirement: 24 * time.Hour},
			{Name: "rpt_live", Upstream: []string{"fct_hourly"}, Downstream: []string{}},
			{Name: "rpt_dead", Downstream: []string{}},
			{Name: "dup_a", Fingerprint: "fp-1", Downstream: []string{"rpt_live"}},
			{Name: "dup_b", Fingerprint: "fp-1", Downstream: []string{"rpt_live"}},
		},
	}
	attributions := []models.CostAttribution{
		{ModelName: "rpt_dead", Credits: 40, DollarCost: 40, SharePct: 40},
		{ModelName: "fct_hourly", Credits: 20, DollarCost: 20, SharePct: 20},
		{ModelName: "dup_a", Credits: 10, DollarCost: 10, SharePct: 10},
		{ModelName: "dup_b", Credits: 4, DollarCost: 4, SharePct: 4},
		{ModelName: "stg_orders", Credits: 16, DollarCost: 16, SharePct: 16},
		{ModelName: "rpt_live", Credits: 10, DollarCost: 10, SharePct: 10},
	}
	return Input{
		Graph:        graph,
		Attributions: attributions,
		Summary:      models.Summary{TotalCredits: 100, TotalDollars: 100},
		Config:       config.DefaultConfig(),
	}
}

func TestDetectZombies(t *testing.T) {
	issues := DetectZombies(fixture())

	// rpt_live (10%) and rpt_dead (40%) are terminal and above the 5%
	// default threshold; rpt_live is flagged too.
	if len(issues) != 2 {
		t.Fatalf("expected 2 zombies, got %d: %v", len(issues), issues)
	}
	for _, issue := range issues {
		if issue.Kind != models.IssueZombieModel {
			t.Fatalf("expected zombie kind, got %s", issue.Kind)
		}
	}
	byModel := map[string]models.Issue{}
	for _, issue := range issues {
		byModel[issue.Models[0]] = issue
	}
	dead, ok := byModel["rpt_dead"]
	if !ok {
		t.Fatalf("rpt_dead not flagged: %v", issues)
	}
	if dead.Level != models.LevelCritical {
		t.Fatalf("expected critical level at 40%% share, got %s", dead.Level)
	}
	if math.Abs(dead.SavingsUSDHigh-40.0) > 1e-9 {
		t.Fatalf("expected high bound 40.0, got %g", dead.SavingsUSDHigh)
	}
}

func TestDetectZombiesThresholdMonotonicity(t *testing.T) {
	in := fixture()
	in.Config.ZombieThresholdPct = 0.25
	strict := DetectZombies(in)

	in.Config.ZombieThresholdPct = 0.05
	relaxed := DetectZombies(in)

	// Lowering the threshold never removes an existing flag.
	flagged := map[string]bool{}
	for _, issue := range relaxed {
		flagged[issue.Models[0]] = true
	}
	for _, issue := range strict {
		if !flagged[issue.Models[0]] {
			t.Fatalf("model %s flagged at strict threshold but not at relaxed", issue.Models[0])
		}
	}
	if len(strict) != 1 || strict[0].Models[0] != "rpt_dead" {
		t.Fatalf("expected only rpt_dead above 25%%, got %v", strict)
	}
}

func TestDetectZombiesSkipsNonTerminalAndCheap(t *testing.T) {
	in := fixture()
	for _, issues := range [][]models.Issue{DetectZombies(in)} {
		for _, issue := range issues {
			if issue.Models[0] == "fct_hourly" || issue.Models[0] == "stg_orders" {
				t.Fatalf("non-terminal model %s must not be flagged as zombie", issue.Models[0])
			}
		}
	}

	in.Config.ZombieThresholdPct = 0.5
	if issues := DetectZombies(in); len(issues) != 0 {
		t.Fatalf("terminal models below threshold are not actionable, got %v", issues)
	}
}

func TestDetectOverScheduled(t *testing.T) {
	issues := DetectOverScheduled(fixture())
	if len(issues) != 1 {
		t.Fatalf("expected 1 over-scheduled issue, got %d", len(issues))
	}

	issue := issues[0]
	if issue.Kind != models.IssueOverScheduled || issue.Models[0] != "fct_hourly" {
		t.Fatalf("expected fct_hourly over-scheduled, got %v", issue)
	}
	// 1 - 1/24 = 0.9583, clipped to the 0.9 ceiling.
	if math.Abs(issue.Severity-0.9) > 1e-9 {
		t.Fatalf("expected savings fraction clipped to 0.9, got %g", issue.Severity)
	}
	if math.Abs(issue.SavingsUSDHigh-0.9*20.0) > 1e-9 {
		t.Fatalf("expected high bound 18.0, got %g", issue.SavingsUSDHigh)
	}
}

func TestDetectOverScheduledSkipsIncompleteDeclarations(t *testing.T) {
	in := fixture()
	in.Graph = &models.Graph{
		Models: []models.Model{
			{Name: "only_cadence", RefreshCadence: time.Hour},
			{Name: "only_freshness", FreshnessRequirement: 24 * time.Hour},
			{Name: "refresh_matches_source", RefreshCadence: 24 * time.Hour, FreshnessRequirement: 24 * time.Hour},
			{Name: "coarser_than_source", RefreshCadence: 48 * time.Hour, FreshnessRequirement: 24 * time.Hour},
		},
	}

	if issues := DetectOverScheduled(in); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestDetectRedundant(t *testing.T) {
	issues := DetectRedundant(fixture())
	if len(issues) != 1 {
		t.Fatalf("expected 1 redundant group, got %d", len(issues))
	}

	issue := issues[0]
	if issue.Kind != models.IssueRedundantComputeGroup {
		t.Fatalf("expected redundant kind, got %s", issue.Kind)
	}
	// The 10.0-cost member is kept; savings are exactly the 4.0 member.
	if !reflect.DeepEqual(issue.Models, []string{"dup_a", "dup_b"}) {
		t.Fatalf("expected kept member first, got %v", issue.Models)
	}
	if issue.SavingsUSDLow != 4.0 || issue.SavingsUSDHigh != 4.0 {
		t.Fatalf("expected savings exactly 4.0, got %g-%g", issue.SavingsUSDLow, issue.SavingsUSDHigh)
	}
}

func TestDetectRedundantKeepFirstPolicy(t *testing.T) {
	in := fixture()
	in.Config.KeepPolicy = config.KeepFirst
	// Manifest order puts dup_a first, which is also the costliest
	// here, so force the interesting case by swapping costs.
	for i := range in.Attributions {
		switch in.Attributions[i].ModelName {
		case "dup_a":
			in.Attributions[i].DollarCost = 4
		case "dup_b":
			in.Attributions[i].DollarCost = 10
		}
	}

	issues := DetectRedundant(in)
	if len(issues) != 1 {
		t.Fatalf("expected 1 redundant group, got %d", len(issues))
	}
	if issues[0].Models[0] != "dup_a" {
		t.Fatalf("keep-first policy must keep the manifest-order head, got %v", issues[0].Models)
	}
	if issues[0].SavingsUSDHigh != 10.0 {
		t.Fatalf("expected savings 10.0 when keeping the cheaper member, got %g", issues[0].SavingsUSDHigh)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	in := fixture()

	first := Run(in)
	for i := 0; i < 10; i++ {
		again := Run(in)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced a different issue list", i)
		}
	}

	if len(first) != 4 {
		t.Fatalf("expected 4 issues total, got %d", len(first))
	}
}
