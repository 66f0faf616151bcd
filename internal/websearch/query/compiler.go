// Package query compiles a SearchPattern into the request parameters of a
// concrete search provider. Compilers are pure: they perform no I/O, never
// modify the pattern, and are safe for concurrent use.
package query

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lk2023060901/property-research-backend/internal/websearch/types"
)

// PageSize is the number of results requested per page
const PageSize = 10

// Request is a compiled, provider specific parameter set.
// Values never contains credentials; the transport adds them.
type Request interface {
	Provider() types.ProviderID
	Query() string
	Page() int
	Values() url.Values
}

// Compiler turns a validated pattern into a provider request
type Compiler interface {
	Provider() types.ProviderID
	Compile(p *types.SearchPattern) Request
}

// New creates the compiler matching cfg.ID
func New(cfg *types.ProviderConfig) (Compiler, error) {
	switch cfg.ID {
	case types.ProviderGoogle:
		return NewGoogleCompiler(cfg)
	case types.ProviderSerpAPI:
		return NewSerpAPICompiler(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrProviderNotFound, cfg.ID)
	}
}

// plan is the provider independent reading of a pattern
type plan struct {
	base     string               // formatted name and address
	keywords []string             // formatted keywords, empty unless advanced search is on
	sites    []string             // cleaned sites, empty unless a site filter applies
	siteMode types.SiteSearchMode // specific or exclude when sites is non-empty
	page     int
}

func newPlan(p *types.SearchPattern) plan {
	parts := []string{FormatTerm(normalizeSpaces(p.CustomerName), p.CustomerNameMatchType)}
	if addr := normalizeSpaces(p.Address); addr != "" {
		parts = append(parts, FormatTerm(addr, p.AddressMatchType))
	}

	pl := plan{
		base: strings.Join(parts, " "),
		page: p.Page,
	}

	if !p.AdvancedSearchEnabled {
		return pl
	}

	pl.keywords = formatKeywords(p.AdditionalKeywords)

	if p.SiteSearchMode == types.SiteSpecific || p.SiteSearchMode == types.SiteExclude {
		pl.sites = cleanSites(p.SearchSites)
		pl.siteMode = p.SiteSearchMode
	}

	return pl
}

// offset returns the zero-based index of the first result of the page,
// or 0 for the first page.
func (pl plan) offset() int {
	if pl.page <= 1 {
		return 0
	}
	return (pl.page - 1) * PageSize
}

// displayPage reports the page a request targets, defaulting to 1
func (pl plan) displayPage() int {
	if pl.page < 1 {
		return 1
	}
	return pl.page
}

// joinQuery assembles the final q string from its clauses
func joinQuery(clauses ...string) string {
	return normalizeSpaces(strings.Join(clauses, " "))
}
