package retriever

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pratszszszzz/Courtify/internal/config"
)

func TestExpandNoMatchReturnsQueryUnchanged(t *testing.T) {
	e := NewExpander(config.DefaultExpansion())
	q := "what is the punishment for murder"
	assert.Equal(t, q, e.Expand(q))
}

func TestExpandAppendsHints(t *testing.T) {
	e := NewExpander(config.DefaultExpansion())
	q := "explain article 14"
	got := e.Expand(q)
	assert.True(t, strings.HasPrefix(got, q), "original query must be preserved as prefix")
	for _, hint := range []string{"equality", "protection"} {
		assert.Contains(t, got, hint)
	}
}

func TestExpandCaseInsensitiveKeyword(t *testing.T) {
	e := NewExpander(config.DefaultExpansion())
	got := e.Expand("Tell me about ARTICLE 21")
	assert.Contains(t, got, "liberty")
}

func TestExpandSkipsHintsAlreadyPresent(t *testing.T) {
	e := NewExpander([]config.ExpansionRule{
		{Keyword: "theft", Hints: []string{"dishonestly", "property"}},
	})
	got := e.Expand("is taking property theft")
	assert.Equal(t, "is taking property theft dishonestly", got)
}

func TestExpandDeduplicatesAcrossRules(t *testing.T) {
	e := NewExpander([]config.ExpansionRule{
		{Keyword: "privacy", Hints: []string{"liberty", "personal"}},
		{Keyword: "article 21", Hints: []string{"liberty", "life"}},
	})
	got := e.Expand("privacy under article 21")
	assert.Equal(t, 1, strings.Count(got, "liberty"))
	assert.Contains(t, got, "life")
	assert.Contains(t, got, "personal")
}
