package config

import (
	"path"
	"strings"
)

// Normalize trims exclusion patterns and removes empty values.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.ExcludeModels = normalizePatterns(c.ExcludeModels)
	c.ExcludeTags = normalizePatterns(c.ExcludeTags)
}

// IsModelExcluded reports whether a model matches the exclusion
// patterns, either by name or by any of its tags.
func (c *Config) IsModelExcluded(name string, tags []string) bool {
	if c == nil {
		return false
	}

	normalized := normalizePattern(name)
	if normalized != "" {
		for _, pattern := range c.ExcludeModels {
			if patternMatches(pattern, normalized) {
				return true
			}
		}
	}

	if len(c.ExcludeTags) == 0 {
		return false
	}
	for _, tag := range tags {
		value := normalizePattern(tag)
		if value == "" {
			continue
		}
		for _, pattern := range c.ExcludeTags {
			if patternMatches(pattern, value) {
				return true
			}
		}
	}

	return false
}

func normalizePatterns(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}

	normalized := make([]string, 0, len(values))
	for _, pattern := range values {
		p := normalizePattern(pattern)
		if p == "" {
			continue
		}
		normalized = append(normalized, p)
	}
	return normalized
}

func normalizePattern(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func patternMatches(pattern, value string) bool {
	normalizedPattern := normalizePattern(pattern)
	normalizedValue := normalizePattern(value)
	if normalizedPattern == "" || normalizedValue == "" {
		return false
	}

	// Invalid glob patterns are treated as exact matches.
	matched, err := path.Match(normalizedPattern, normalizedValue)
	if err == nil {
		return matched
	}
	return normalizedPattern == normalizedValue
}
