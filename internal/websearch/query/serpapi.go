package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/lk2023060901/property-research-backend/internal/websearch/types"
)

const defaultSerpAPIEngine = "google"

// serpAPIPeriods maps recency filters to Google tbs codes
var serpAPIPeriods = map[types.DateRestrict]string{
	types.DatePastMonth:   "qdr:m",
	types.DatePast6Months: "qdr:m6",
	types.DatePastYear:    "qdr:y",
	types.DatePast3Years:  "qdr:y3",
	types.DatePast5Years:  "qdr:y5",
	types.DatePast10Years: "qdr:y10",
}

// SerpAPIRequest holds SerpAPI search parameters.
// Zero-valued optional fields are omitted from Values.
type SerpAPIRequest struct {
	Engine string `json:"engine"`
	Q      string `json:"q"`
	TBS    string `json:"tbs,omitempty"`
	Start  int    `json:"start,omitempty"` // 0-based result offset

	page int
}

func (r *SerpAPIRequest) Provider() types.ProviderID { return types.ProviderSerpAPI }
func (r *SerpAPIRequest) Query() string              { return r.Q }
func (r *SerpAPIRequest) Page() int                  { return r.page }

// Values encodes the request as query-string parameters
func (r *SerpAPIRequest) Values() url.Values {
	v := url.Values{}
	v.Set("engine", r.Engine)
	v.Set("q", r.Q)
	if r.TBS != "" {
		v.Set("tbs", r.TBS)
	}
	if r.Start > 0 {
		v.Set("start", strconv.Itoa(r.Start))
	}
	return v
}

// SerpAPICompiler compiles patterns into a single operator query.
// SerpAPI has no structured site or OR fields, so both are inlined in q:
// keywords as a pipe-joined OR clause, then the site clause.
type SerpAPICompiler struct {
	engine string
}

// NewSerpAPICompiler uses cfg.EngineID as the SerpAPI engine, "google" by default
func NewSerpAPICompiler(cfg *types.ProviderConfig) (*SerpAPICompiler, error) {
	engine := strings.TrimSpace(cfg.EngineID)
	if engine == "" {
		engine = defaultSerpAPIEngine
	}
	return &SerpAPICompiler{engine: engine}, nil
}

func (c *SerpAPICompiler) Provider() types.ProviderID {
	return types.ProviderSerpAPI
}

func (c *SerpAPICompiler) Compile(p *types.SearchPattern) Request {
	pl := newPlan(p)

	req := &SerpAPIRequest{
		Engine: c.engine,
		TBS:    serpAPIPeriods[p.DateRestrict],
		Start:  pl.offset(),
		page:   pl.displayPage(),
	}

	req.Q = joinQuery(
		pl.base,
		strings.Join(pl.keywords, "|"),
		BuildSiteFilter(pl.sites, pl.siteMode),
	)

	return req
}
