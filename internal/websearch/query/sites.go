package query

import (
	"strings"

	"github.com/lk2023060901/property-research-backend/internal/websearch/types"
)

// BuildSiteFilter renders the inline site clause appended to q.
//
//	specific: (site:a.com OR site:b.com)
//	exclude:  -site:a.com -site:b.com
//
// sites must be trimmed and non-empty. Any other mode yields "".
func BuildSiteFilter(sites []string, mode types.SiteSearchMode) string {
	if len(sites) == 0 {
		return ""
	}

	switch mode {
	case types.SiteSpecific:
		terms := make([]string, len(sites))
		for i, s := range sites {
			terms[i] = "site:" + s
		}
		return "(" + strings.Join(terms, " OR ") + ")"
	case types.SiteExclude:
		terms := make([]string, len(sites))
		for i, s := range sites {
			terms[i] = "-site:" + s
		}
		return strings.Join(terms, " ")
	default:
		return ""
	}
}

// cleanSites trims every entry and drops the blank ones
func cleanSites(sites []string) []string {
	out := make([]string, 0, len(sites))
	for _, s := range sites {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
