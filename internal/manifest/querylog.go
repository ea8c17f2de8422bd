package manifest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/pipecost/internal/models"
)

// Accepted start-time layouts, tried in order.
var startTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// LoadQueryLog reads an exported query-history JSON array. Snowflake
// exports column names in UPPERCASE while most third-party export tools
// lowercase them; both spellings are accepted per field.
//
// Records carrying an explicit model_name are taken as-is. Records
// without one are resolved by matching their query_text against the
// manifest: a query referencing several models splits its credits
// evenly across them, and a query matching nothing stays unattributed.
func LoadQueryLog(path string, matcher *Matcher) ([]models.QueryExecution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query log %q: %w", path, err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse query log %q: expected a JSON array of records: %w", path, err)
	}

	executions := make([]models.QueryExecution, 0, len(rows))
	for i, row := range rows {
		exec := models.QueryExecution{
			ModelName: stringField(row, "model_name", "MODEL_NAME"),
			Warehouse: stringField(row, "warehouse", "warehouse_name", "WAREHOUSE_NAME"),
		}
		if exec.Warehouse == "" {
			exec.Warehouse = "default"
		}

		credits, err := floatField(row, "credits_used", "CREDITS_USED", "credits")
		if err != nil {
			return nil, fmt.Errorf("query log %q record %d: %w", path, i, err)
		}
		if credits < 0 {
			return nil, fmt.Errorf("query log %q record %d: credits must be non-negative, got %g", path, i, credits)
		}
		exec.Credits = credits

		if raw := stringField(row, "start_time", "START_TIME"); raw != "" {
			ts, err := parseStartTime(raw)
			if err != nil {
				return nil, fmt.Errorf("query log %q record %d: %w", path, i, err)
			}
			exec.StartTime = ts
		}

		if exec.ModelName == "" {
			queryText := stringField(row, "query_text", "QUERY_TEXT")
			matched := matcher.Match(queryText)
			if len(matched) > 1 {
				share := exec.Credits / float64(len(matched))
				for _, name := range matched {
					split := exec
					split.ModelName = name
					split.Credits = share
					executions = append(executions, split)
				}
				continue
			}
			if len(matched) == 1 {
				exec.ModelName = matched[0]
			}
		}

		executions = append(executions, exec)
	}

	slog.Debug("query log loaded",
		slog.String("path", path),
		slog.Int("executions", len(executions)),
	)
	return executions, nil
}

func parseStartTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range startTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized start_time %q", raw)
}

func stringField(row map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := row[key]; ok {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func floatField(row map[string]any, keys ...string) (float64, error) {
	for _, key := range keys {
		v, ok := row[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid %s value %q", key, n)
			}
			return parsed, nil
		default:
			return 0, fmt.Errorf("invalid %s type %T", key, v)
		}
	}
	return 0, nil
}
