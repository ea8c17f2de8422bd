package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFileYAML is the canonical config filename.
	DefaultConfigFileYAML = ".pipecost.yaml"
	// DefaultConfigFileYML is a compatible alternate config filename.
	DefaultConfigFileYML = ".pipecost.yml"
)

// FileConfig represents values loaded from a .pipecost.yaml file.
// Pointer fields distinguish "unset" from zero values so file settings
// never clobber flag defaults.
type FileConfig struct {
	ZombieThresholdPct *float64           `yaml:"zombie_threshold_pct"`
	KeepPolicy         string             `yaml:"keep_policy"`
	MaxModels          *int               `yaml:"max_models"`
	Recommendations    *bool              `yaml:"recommendations"`
	Rates              map[string]float64 `yaml:"rates"`
	ExcludeModels      []string           `yaml:"exclude_models"`
	ExcludeTags        []string           `yaml:"exclude_tags"`
	Format             string             `yaml:"format"`
	OutputDir          string             `yaml:"output"`
	Baseline           string             `yaml:"baseline"`
}

// Normalize trims and removes empty items from list fields.
func (fc *FileConfig) Normalize() {
	if fc == nil {
		return
	}
	fc.ExcludeModels = normalizeList(fc.ExcludeModels)
	fc.ExcludeTags = normalizeList(fc.ExcludeTags)
	fc.KeepPolicy = strings.TrimSpace(fc.KeepPolicy)
	fc.Format = strings.TrimSpace(fc.Format)
	fc.OutputDir = strings.TrimSpace(fc.OutputDir)
	fc.Baseline = strings.TrimSpace(fc.Baseline)
}

// Apply copies the file values that were set onto cfg. Rates already
// present in cfg's rate table win over file rates.
func (fc *FileConfig) Apply(cfg *Config) {
	if fc == nil || cfg == nil {
		return
	}
	if fc.ZombieThresholdPct != nil {
		cfg.ZombieThresholdPct = *fc.ZombieThresholdPct
	}
	if fc.KeepPolicy != "" {
		cfg.KeepPolicy = fc.KeepPolicy
	}
	if fc.MaxModels != nil {
		cfg.MaxModels = *fc.MaxModels
	}
	if fc.Recommendations != nil {
		cfg.RecommendationsEnabled = *fc.Recommendations
	}
	if cfg.RateTable == nil {
		cfg.RateTable = map[string]float64{}
	}
	for warehouse, rate := range fc.Rates {
		if _, set := cfg.RateTable[warehouse]; !set {
			cfg.RateTable[warehouse] = rate
		}
	}
	cfg.ExcludeModels = append(cfg.ExcludeModels, fc.ExcludeModels...)
	cfg.ExcludeTags = append(cfg.ExcludeTags, fc.ExcludeTags...)
	if fc.Baseline != "" && cfg.BaselinePath == "" {
		cfg.BaselinePath = fc.Baseline
	}
}

// AutoLoadFile discovers and loads the first available config file.
func AutoLoadFile() (*FileConfig, string, error) {
	candidates := []string{
		DefaultConfigFileYAML,
		DefaultConfigFileYML,
	}

	if homeDir, err := os.UserHomeDir(); err == nil && strings.TrimSpace(homeDir) != "" {
		candidates = append(candidates,
			filepath.Join(homeDir, DefaultConfigFileYAML),
			filepath.Join(homeDir, DefaultConfigFileYML),
		)
	}

	return LoadFirstExistingFile(candidates)
}

// LoadFirstExistingFile loads the first config file that exists in paths.
func LoadFirstExistingFile(paths []string) (*FileConfig, string, error) {
	for _, path := range paths {
		candidate := strings.TrimSpace(path)
		if candidate == "" {
			continue
		}

		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("failed to access config file %q: %w", candidate, err)
		}
		if info.IsDir() {
			return nil, "", fmt.Errorf("config path %q is a directory, expected a file", candidate)
		}

		cfg, err := LoadFile(candidate)
		if err != nil {
			return nil, "", err
		}
		return cfg, candidate, nil
	}

	return nil, "", nil
}

// LoadFile loads config values from a specific YAML file path.
func LoadFile(path string) (*FileConfig, error) {
	filename := strings.TrimSpace(path)
	if filename == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", filename, err)
	}

	cfg := &FileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", filename, err)
	}

	cfg.Normalize()
	return cfg, nil
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}

	normalized := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
