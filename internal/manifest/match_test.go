package manifest

import (
	"strings"
	"testing"

	"github.com/ppiankov/pipecost/internal/models"
)

func matcherFixture() *Matcher {
	return NewMatcher([]models.Model{
		{Name: "stg_orders", Schema: "analytics"},
		{Name: "dim_customers", Schema: "analytics"},
		{Name: "fct_orders", Alias: "orders_final", Schema: "analytics"},
	})
}

func TestMatchByNameAliasAndSchema(t *testing.T) {
	m := matcherFixture()

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"bare name", "SELECT * FROM stg_orders", []string{"stg_orders"}},
		{"schema qualified", "SELECT * FROM analytics.stg_orders", []string{"stg_orders"}},
		{"alias", "SELECT * FROM orders_final", []string{"fct_orders"}},
		{"schema qualified alias", "INSERT INTO analytics.orders_final SELECT 1", []string{"fct_orders"}},
		{"case insensitive", "SELECT * FROM ANALYTICS.DIM_CUSTOMERS", []string{"dim_customers"}},
		{"multiple models", "SELECT * FROM analytics.stg_orders JOIN analytics.dim_customers ON 1=1", []string{"dim_customers", "stg_orders"}},
		{"no reference", "SELECT 1 FROM completely_unknown_table", nil},
		{"empty text", "", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.Match(tc.query)
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Fatalf("Match(%q) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestMatchWordBoundary(t *testing.T) {
	m := matcherFixture()

	// stg_orders must not false-match stg_orders_v2.
	if got := m.Match("SELECT * FROM analytics.stg_orders_v2"); len(got) != 0 {
		t.Fatalf("expected no match for a versioned suffix, got %v", got)
	}
	if got := m.Match("SELECT * FROM my_stg_orders"); len(got) != 0 {
		t.Fatalf("expected no match for a prefixed name, got %v", got)
	}
}

func TestMatchDeduplicatesSpellings(t *testing.T) {
	m := matcherFixture()

	// Name, alias and qualified forms of one model collapse to one match.
	got := m.Match("SELECT * FROM analytics.fct_orders f JOIN orders_final o ON f.id = o.id")
	if len(got) != 1 || got[0] != "fct_orders" {
		t.Fatalf("expected a single canonical match, got %v", got)
	}
}

func TestLoadQueryLogResolvesQueryText(t *testing.T) {
	path := writeFile(t, "queries.json", `[
		{"QUERY_TEXT": "SELECT * FROM analytics.stg_orders JOIN analytics.dim_customers ON 1=1", "CREDITS_USED": 10.0, "WAREHOUSE_NAME": "TRANSFORM_WH", "START_TIME": "2024-01-20T00:00:00Z"},
		{"query_text": "SELECT * FROM orders_final", "credits_used": 3.0},
		{"query_text": "SELECT 1 FROM completely_unknown_table", "credits_used": 0.5},
		{"model_name": "dim_customers", "query_text": "SELECT * FROM analytics.stg_orders", "credits_used": 2.0}
	]`)

	executions, err := LoadQueryLog(path, matcherFixture())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The two-model query splits into two records.
	if len(executions) != 5 {
		t.Fatalf("expected 5 executions after splitting, got %d", len(executions))
	}

	byModel := map[string]float64{}
	for _, exec := range executions {
		byModel[exec.ModelName] += exec.Credits
	}
	if byModel["stg_orders"] != 5.0 || byModel["dim_customers"] != 5.0+2.0 {
		t.Fatalf("expected an even credit split, got %v", byModel)
	}
	if byModel["fct_orders"] != 3.0 {
		t.Fatalf("alias reference not resolved: %v", byModel)
	}
	// Unmatched queries stay unattributed.
	if byModel[""] != 0.5 {
		t.Fatalf("expected 0.5 unattributed credits, got %v", byModel)
	}

	// Both halves of the split keep the source record's metadata.
	for _, exec := range executions {
		if exec.ModelName == "stg_orders" && exec.Warehouse != "TRANSFORM_WH" {
			t.Fatalf("split record lost its warehouse: %+v", exec)
		}
	}

	// An explicit model_name wins over whatever the query text mentions.
	explicit := 0
	for _, exec := range executions {
		if exec.ModelName == "dim_customers" && exec.Credits == 2.0 {
			explicit++
		}
	}
	if explicit != 1 {
		t.Fatalf("explicit model_name record not preserved: %+v", executions)
	}
}

func TestLoadQueryLogNilMatcher(t *testing.T) {
	path := writeFile(t, "queries.json", `[
		{"query_text": "SELECT * FROM stg_orders", "credits_used": 1.0}
	]`)

	executions, err := LoadQueryLog(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(executions) != 1 || executions[0].ModelName != "" {
		t.Fatalf("nil matcher must leave records unattributed, got %+v", executions)
	}
}
