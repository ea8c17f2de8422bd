package manifest

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/pipecost/internal/models"
)

// matcherPattern is one lowercased reference spelling that resolves to
// a canonical model name.
type matcherPattern struct {
	text  string
	re    *regexp.Regexp
	model string
}

// Matcher resolves model names referenced inside raw query text. A
// model is recognized by its name, its alias, and the schema-qualified
// forms of both, so a Snowflake QUERY_HISTORY export that carries SQL
// instead of explicit model names can still be attributed.
type Matcher struct {
	patterns []matcherPattern
}

// NewMatcher builds the pattern set from manifest models. Longer
// patterns are tried first so schema.table wins over a bare table name.
func NewMatcher(manifest []models.Model) *Matcher {
	byPattern := map[string]string{}
	for i := range manifest {
		m := &manifest[i]
		name := strings.ToLower(m.Name)
		if name == "" {
			continue
		}
		byPattern[name] = m.Name

		alias := strings.ToLower(m.Alias)
		if alias != "" && alias != name {
			byPattern[alias] = m.Name
		}
		schema := strings.ToLower(m.Schema)
		if schema != "" {
			byPattern[schema+"."+name] = m.Name
			if alias != "" && alias != name {
				byPattern[schema+"."+alias] = m.Name
			}
		}
	}

	patterns := make([]matcherPattern, 0, len(byPattern))
	for text, model := range byPattern {
		patterns = append(patterns, matcherPattern{
			text:  text,
			re:    regexp.MustCompile(`\b` + regexp.QuoteMeta(text) + `\b`),
			model: model,
		})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i].text) != len(patterns[j].text) {
			return len(patterns[i].text) > len(patterns[j].text)
		}
		return patterns[i].text < patterns[j].text
	})

	return &Matcher{patterns: patterns}
}

// Match returns the sorted canonical names of all models the query text
// references. Matching is word-boundary-aware, so "stg_orders" does not
// match "stg_orders_v2".
func (m *Matcher) Match(queryText string) []string {
	if m == nil || queryText == "" {
		return nil
	}

	lower := strings.ToLower(queryText)
	seen := map[string]bool{}
	for i := range m.patterns {
		p := &m.patterns[i]
		if seen[p.model] {
			continue
		}
		if p.re.MatchString(lower) {
			seen[p.model] = true
		}
	}

	matched := make([]string, 0, len(seen))
	for name := range seen {
		matched = append(matched, name)
	}
	sort.Strings(matched)
	return matched
}
