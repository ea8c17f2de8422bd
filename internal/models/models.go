package models

import "time"

// Model is a named data-transformation unit and a node in the
// dependency graph. Upstream holds declared dependencies that resolved
// to known models; Downstream is the computed transpose.
type Model struct {
	Name                 string        `json:"name"`
	Alias                string        `json:"alias,omitempty"`
	Schema               string        `json:"schema,omitempty"`
	Materialization      string        `json:"materialization,omitempty"`
	Fingerprint          string        `json:"fingerprint,omitempty"`
	Tags                 []string      `json:"tags,omitempty"`
	Upstream             []string      `json:"upstream,omitempty"`
	Downstream           []string      `json:"downstream,omitempty"`
	RefreshCadence       time.Duration `json:"refresh_cadence,omitempty"`
	FreshnessRequirement time.Duration `json:"freshness_requirement,omitempty"`
}

// Terminal reports whether no downstream model consumes this one.
func (m *Model) Terminal() bool {
	return len(m.Downstream) == 0
}

// Edge is a resolved upstream→downstream dependency.
type Edge struct {
	Upstream   string `json:"upstream"`
	Downstream string `json:"downstream"`
}

// Graph is the validated dependency graph. Models keep the manifest
// order; Edges contain only references that resolved to known models.
type Graph struct {
	Models []Model `json:"models"`
	Edges  []Edge  `json:"edges"`
}

// Model returns the named model, or nil.
func (g *Graph) Model(name string) *Model {
	for i := range g.Models {
		if g.Models[i].Name == name {
			return &g.Models[i]
		}
	}
	return nil
}

// QueryExecution is a single run from the warehouse execution log.
// Immutable once ingested.
type QueryExecution struct {
	ModelName string    `json:"model_name"`
	Credits   float64   `json:"credits"`
	StartTime time.Time `json:"start_time"`
	Warehouse string    `json:"warehouse"`
}

// CostAttribution aggregates spend for a single model.
type CostAttribution struct {
	ModelName      string   `json:"model_name"`
	Credits        float64  `json:"credits"`
	ExecutionCount int      `json:"execution_count"`
	DollarCost     float64  `json:"dollar_cost"`
	SharePct       float64  `json:"share_pct"`
	Warehouses     []string `json:"warehouses,omitempty"`
}

// IssueKind enumerates the closed set of detector findings.
type IssueKind string

const (
	IssueZombieModel           IssueKind = "zombie_model"
	IssueOverScheduled         IssueKind = "over_scheduled"
	IssueRedundantComputeGroup IssueKind = "redundant_compute_group"
)

// Issue severity labels.
const (
	LevelCritical = "critical"
	LevelWarning  = "warning"
)

// Issue is a single detected waste pattern. For redundant-compute
// groups Models[0] is the member chosen to keep.
type Issue struct {
	Kind           IssueKind `json:"kind"`
	Models         []string  `json:"models"`
	Severity       float64   `json:"severity"`
	Level          string    `json:"level"`
	Rationale      string    `json:"rationale"`
	Recommendation string    `json:"recommendation,omitempty"`
	SavingsPctLow  float64   `json:"savings_pct_low"`
	SavingsPctHigh float64   `json:"savings_pct_high"`
	SavingsUSDLow  float64   `json:"savings_usd_low"`
	SavingsUSDHigh float64   `json:"savings_usd_high"`
}

// MonthlyModelCredits ranks one model inside a monthly breakdown.
type MonthlyModelCredits struct {
	ModelName string  `json:"model"`
	Credits   float64 `json:"credits"`
	SharePct  float64 `json:"pct"`
}

// MonthlyBreakdown aggregates attributed credits for one calendar month.
type MonthlyBreakdown struct {
	Month     string                `json:"month"` // "2006-01", or "unknown"
	Credits   float64               `json:"total_credits"`
	TopModels []MonthlyModelCredits `json:"top_models"`
}

// Summary holds portfolio-level totals.
type Summary struct {
	TotalCredits           float64 `json:"total_credits"`
	TotalDollars           float64 `json:"total_dollars"`
	RecoverableUSDLow      float64 `json:"recoverable_usd_low"`
	RecoverableUSDHigh     float64 `json:"recoverable_usd_high"`
	UnattributedCount      int     `json:"unattributed_count"`
	UnattributedCredits    float64 `json:"unattributed_credits"`
	UnattributedSharePct   float64 `json:"unattributed_share_pct"`
	ModelsAnalyzed         int     `json:"models_analyzed"`
	ModelsExcluded         int     `json:"models_excluded"`
	RecommendationsOmitted bool    `json:"recommendations_omitted,omitempty"`
	EstimateCaveat         string  `json:"estimate_caveat"`
}

// EstimateCaveat is attached to every summary: savings ranges are summed
// independently, so a model implicated by more than one issue can be
// double counted.
const EstimateCaveat = "savings ranges are summed per issue without overlap detection; a model implicated in multiple issues may be double counted"

// AnalysisResult is the complete outcome of one analysis run.
type AnalysisResult struct {
	Graph        Graph              `json:"graph"`
	Attributions []CostAttribution  `json:"attributions"`
	Issues       []Issue            `json:"issues"`
	Monthly      []MonthlyBreakdown `json:"monthly,omitempty"`
	Summary      Summary            `json:"summary"`
}

// WarningKind enumerates recoverable input problems.
type WarningKind string

const (
	WarningDanglingReference   WarningKind = "dangling_reference"
	WarningUnresolvedExecution WarningKind = "unresolved_execution"
	WarningDuplicateModel      WarningKind = "duplicate_model"
)

// Warning is a recoverable problem collected alongside the result.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Model  string      `json:"model,omitempty"`
	Detail string      `json:"detail"`
}
