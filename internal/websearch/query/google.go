package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/lk2023060901/property-research-backend/internal/websearch/types"
)

// Google Custom Search siteSearchFilter codes
const (
	SiteFilterInclude = "i"
	SiteFilterExclude = "e"
)

// GoogleRequest holds Custom Search JSON API parameters.
// Zero-valued optional fields are omitted from Values.
type GoogleRequest struct {
	Q                string `json:"q"`
	CX               string `json:"cx"`
	Num              int    `json:"num"`
	Start            int    `json:"start,omitempty"` // 1-based index of the first result
	DateRestrict     string `json:"dateRestrict,omitempty"`
	OrTerms          string `json:"orTerms,omitempty"`
	SiteSearch       string `json:"siteSearch,omitempty"`
	SiteSearchFilter string `json:"siteSearchFilter,omitempty"`

	page int
}

func (r *GoogleRequest) Provider() types.ProviderID { return types.ProviderGoogle }
func (r *GoogleRequest) Query() string              { return r.Q }
func (r *GoogleRequest) Page() int                  { return r.page }

// Values encodes the request as query-string parameters
func (r *GoogleRequest) Values() url.Values {
	v := url.Values{}
	v.Set("q", r.Q)
	v.Set("cx", r.CX)
	v.Set("num", strconv.Itoa(r.Num))
	if r.Start > 0 {
		v.Set("start", strconv.Itoa(r.Start))
	}
	if r.DateRestrict != "" {
		v.Set("dateRestrict", r.DateRestrict)
	}
	if r.OrTerms != "" {
		v.Set("orTerms", r.OrTerms)
	}
	if r.SiteSearch != "" {
		v.Set("siteSearch", r.SiteSearch)
		v.Set("siteSearchFilter", r.SiteSearchFilter)
	}
	return v
}

// GoogleCompiler compiles patterns for the Custom Search JSON API
type GoogleCompiler struct {
	engineID string
}

// NewGoogleCompiler requires the programmable search engine id (cx)
func NewGoogleCompiler(cfg *types.ProviderConfig) (*GoogleCompiler, error) {
	engineID := strings.TrimSpace(cfg.EngineID)
	if engineID == "" {
		return nil, &types.ConfigurationError{
			Provider: types.ProviderGoogle,
			Field:    "engine_id",
			Err:      types.ErrMissingEngineID,
		}
	}
	return &GoogleCompiler{engineID: engineID}, nil
}

func (c *GoogleCompiler) Provider() types.ProviderID {
	return types.ProviderGoogle
}

// Compile builds the request. A single site uses the native siteSearch
// parameter pair; two or more sites are appended to q as an inline clause.
func (c *GoogleCompiler) Compile(p *types.SearchPattern) Request {
	pl := newPlan(p)

	req := &GoogleRequest{
		CX:   c.engineID,
		Num:  PageSize,
		page: pl.displayPage(),
	}

	var siteClause string
	switch len(pl.sites) {
	case 0:
	case 1:
		req.SiteSearch = pl.sites[0]
		req.SiteSearchFilter = SiteFilterInclude
		if pl.siteMode == types.SiteExclude {
			req.SiteSearchFilter = SiteFilterExclude
		}
	default:
		siteClause = BuildSiteFilter(pl.sites, pl.siteMode)
	}

	req.Q = joinQuery(pl.base, siteClause)

	if p.DateRestrict != "" && p.DateRestrict != types.DateAll {
		req.DateRestrict = string(p.DateRestrict)
	}

	if len(pl.keywords) > 0 {
		req.OrTerms = strings.Join(pl.keywords, "|")
	}

	if off := pl.offset(); off > 0 {
		req.Start = off + 1
	}

	return req
}
