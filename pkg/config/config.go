package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Keep policies for redundant-compute consolidation. Keeping the
// highest-cost member is a modeling assumption, not a measured fact, so
// it stays configurable.
const (
	KeepHighestCost = "highest-cost"
	KeepFirst       = "first"
)

// Config holds all runtime configuration
type Config struct {
	// Input settings
	ManifestPath string
	QueryLogPath string

	// Analysis settings
	ZombieThresholdPct     float64 // fraction of total spend, 0.05 = 5%
	KeepPolicy             string
	MaxModels              int // 0 = unbounded
	RecommendationsEnabled bool
	RateTable              map[string]float64 // dollars per credit, by warehouse

	// Exclusion patterns (glob), applied before the graph is built
	ExcludeModels []string
	ExcludeTags   []string

	// Output settings
	OutputDir string
	Format    string // "table", "json", "csv"

	// Baseline settings
	BaselinePath   string
	UpdateBaseline bool

	// Operational flags
	Verbose        bool
	DryRun         bool
	FailOnFindings bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ZombieThresholdPct:     0.05,
		KeepPolicy:             KeepHighestCost,
		MaxModels:              0,
		RecommendationsEnabled: true,
		RateTable:              map[string]float64{},
		OutputDir:              "./report",
		Format:                 "table",
	}
}

// Validate checks option values that flags cannot enforce on their own.
func (c *Config) Validate() error {
	if c.ZombieThresholdPct < 0 || c.ZombieThresholdPct > 1 {
		return fmt.Errorf("zombie threshold must be in [0, 1], got %g", c.ZombieThresholdPct)
	}
	if c.MaxModels < 0 {
		return fmt.Errorf("max models must be >= 0, got %d", c.MaxModels)
	}
	switch c.KeepPolicy {
	case KeepHighestCost, KeepFirst:
	default:
		return fmt.Errorf("unknown keep policy %q, expected %q or %q", c.KeepPolicy, KeepHighestCost, KeepFirst)
	}
	switch c.Format {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unknown format %q, expected table, json or csv", c.Format)
	}
	return nil
}

// Rate returns the dollar-per-credit rate for a warehouse, 1.0 when the
// warehouse is not in the rate table.
func (c *Config) Rate(warehouse string) float64 {
	if c == nil || len(c.RateTable) == 0 {
		return 1.0
	}
	if rate, ok := c.RateTable[strings.TrimSpace(warehouse)]; ok {
		return rate
	}
	return 1.0
}

// ParseRateTable parses "warehouse=rate" pairs into a rate table.
func ParseRateTable(pairs []string) (map[string]float64, error) {
	rates := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		trimmed := strings.TrimSpace(pair)
		if trimmed == "" {
			continue
		}
		name, value, found := strings.Cut(trimmed, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("invalid rate %q, expected warehouse=dollars-per-credit", pair)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rate value in %q: %w", pair, err)
		}
		if rate < 0 {
			return nil, fmt.Errorf("rate must be non-negative in %q", pair)
		}
		rates[name] = rate
	}
	return rates, nil
}
