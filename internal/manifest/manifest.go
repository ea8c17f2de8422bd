// Package manifest loads the two input documents from disk: the dbt
// manifest and the exported query-history log. Parsing happens here, on
// the CLI side; the engine only sees parsed structures.
package manifest

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/pipecost/internal/models"
	"github.com/ppiankov/pipecost/pkg/config"
)

type dbtManifest struct {
	Nodes map[string]dbtNode `json:"nodes"`
}

type dbtNode struct {
	Name         string        `json:"name"`
	Alias        string        `json:"alias"`
	Schema       string        `json:"schema"`
	ResourceType string        `json:"resource_type"`
	RawSQL       string        `json:"raw_sql"`
	RawCode      string        `json:"raw_code"`
	Tags         []string      `json:"tags"`
	Config       dbtNodeConfig `json:"config"`
	DependsOn    struct {
		Nodes []string `json:"nodes"`
	} `json:"depends_on"`
}

type dbtNodeConfig struct {
	Materialized string   `json:"materialized"`
	Tags         []string `json:"tags"`
	// Declared scheduling metadata, e.g. "1h" or "1d".
	Refresh   string `json:"pipecost_refresh"`
	Freshness string `json:"pipecost_freshness"`
}

// LoadManifest reads a dbt manifest.json and converts model nodes into
// engine input. Node iteration is key-sorted so repeated loads produce
// an identical model order.
func LoadManifest(path string) ([]models.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}

	var parsed dbtManifest
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %q: %w", path, err)
	}

	keys := make([]string, 0, len(parsed.Nodes))
	for key := range parsed.Nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]models.Model, 0, len(keys))
	for _, key := range keys {
		node := parsed.Nodes[key]
		if node.ResourceType != "model" {
			continue
		}

		model := models.Model{
			Name:            node.Name,
			Alias:           node.Alias,
			Schema:          node.Schema,
			Materialization: node.Config.Materialized,
			Fingerprint:     fingerprint(node),
			Tags:            mergeTags(node.Tags, node.Config.Tags),
			Upstream:        upstreamNames(node.DependsOn.Nodes),
		}
		if model.Materialization == "" {
			model.Materialization = "view"
		}

		if node.Config.Refresh != "" {
			d, err := config.ParseDuration(node.Config.Refresh)
			if err != nil {
				return nil, fmt.Errorf("model %q: invalid pipecost_refresh %q: %w", node.Name, node.Config.Refresh, err)
			}
			model.RefreshCadence = d
		}
		if node.Config.Freshness != "" {
			d, err := config.ParseDuration(node.Config.Freshness)
			if err != nil {
				return nil, fmt.Errorf("model %q: invalid pipecost_freshness %q: %w", node.Name, node.Config.Freshness, err)
			}
			model.FreshnessRequirement = d
		}

		result = append(result, model)
	}

	slog.Debug("manifest loaded",
		slog.String("path", path),
		slog.Int("models", len(result)),
	)
	return result, nil
}

// fingerprint summarizes the model's defining query as an opaque token.
// The SQL itself is never interpreted.
func fingerprint(node dbtNode) string {
	raw := node.RawSQL
	if raw == "" {
		raw = node.RawCode
	}
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// upstreamNames reduces dbt node identifiers like "model.proj.stg_x" to
// bare model names.
func upstreamNames(refs []string) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		parts := strings.Split(ref, ".")
		name := parts[len(parts)-1]
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func mergeTags(a, b []string) []string {
	seen := map[string]bool{}
	merged := make([]string, 0, len(a)+len(b))
	for _, tag := range append(append([]string{}, a...), b...) {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		merged = append(merged, trimmed)
	}
	sort.Strings(merged)
	return merged
}
