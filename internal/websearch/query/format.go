package query

import (
	"strings"

	"github.com/lk2023060901/property-research-backend/internal/websearch/types"
)

// FormatTerm renders a single term. Exact terms are phrase-quoted, anything
// else is returned as-is. The value must already be whitespace-normalized.
func FormatTerm(value string, matchType types.MatchType) string {
	if matchType == types.MatchExact {
		return `"` + value + `"`
	}
	return value
}

// formatKeywords normalizes whitespace in every keyword, drops blank ones and
// formats the rest in input order.
func formatKeywords(keywords []types.Keyword) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		v := normalizeSpaces(kw.Value)
		if v == "" {
			continue
		}
		out = append(out, FormatTerm(v, kw.MatchType))
	}
	return out
}

// normalizeSpaces collapses every whitespace run to one space and trims the ends.
// strings.Fields splits on unicode whitespace, so ideographic spaces (U+3000)
// in Japanese input are collapsed as well.
func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
