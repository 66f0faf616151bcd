package types

// SearchResponse represents a search response
type SearchResponse struct {
	Query      string          `json:"query"`
	Results    []*SearchResult `json:"results"`
	TotalCount int64           `json:"total_count,omitempty"`
	Page       int             `json:"page"`
	Took       int64           `json:"took"` // milliseconds
	Provider   ProviderID      `json:"provider"`
	Cached     bool            `json:"cached,omitempty"`
}

// SearchResult represents a single search result
type SearchResult struct {
	Position    int    `json:"position"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	DisplayURL  string `json:"display_url,omitempty"`
	Snippet     string `json:"snippet"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Clone returns a deep copy, so cached and shared responses can be handed
// to callers that modify them.
func (r *SearchResponse) Clone() *SearchResponse {
	if r == nil {
		return nil
	}
	out := *r
	if r.Results != nil {
		out.Results = make([]*SearchResult, len(r.Results))
		for i, res := range r.Results {
			if res != nil {
				cp := *res
				out.Results[i] = &cp
			}
		}
	}
	return &out
}
