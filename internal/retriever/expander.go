package retriever

import (
	"strings"

	"github.com/pratszszszzz/Courtify/internal/config"
)

// Expander widens queries with hint terms keyed on legal keywords, so
// short questions like "what is article 14" pick up the statutory
// vocabulary the corpus actually uses. It only ever appends terms; the
// original query text is preserved as the prefix.
type Expander struct {
	rules []config.ExpansionRule
}

func NewExpander(rules []config.ExpansionRule) *Expander {
	return &Expander{rules: rules}
}

// Expand returns the query with matching hint terms appended. Keyword
// matching is a case-insensitive substring test; hints already present
// in the query are skipped, and each hint is added at most once, in
// first-seen order.
func (e *Expander) Expand(query string) string {
	lower := strings.ToLower(query)
	seen := make(map[string]bool)
	for _, w := range strings.Fields(lower) {
		seen[w] = true
	}
	var extra []string
	for _, rule := range e.rules {
		if !strings.Contains(lower, strings.ToLower(rule.Keyword)) {
			continue
		}
		for _, hint := range rule.Hints {
			h := strings.ToLower(hint)
			if seen[h] {
				continue
			}
			seen[h] = true
			extra = append(extra, hint)
		}
	}
	if len(extra) == 0 {
		return query
	}
	return query + " " + strings.Join(extra, " ")
}
