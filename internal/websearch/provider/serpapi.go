package provider

import (
	"context"
	"time"

	"github.com/lk2023060901/property-research-backend/internal/websearch/query"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"

	"github.com/tidwall/gjson"
)

// SerpAPIProvider implements the SerpAPI search API
type SerpAPIProvider struct {
	*BaseProvider
}

// NewSerpAPIProvider creates a new SerpAPI provider
func NewSerpAPIProvider(config *types.ProviderConfig) (Provider, error) {
	base := NewBaseProvider(config)
	return &SerpAPIProvider{BaseProvider: base}, nil
}

// Search executes a compiled request against /search.json
func (p *SerpAPIProvider) Search(ctx context.Context, req query.Request) (*types.SearchResponse, error) {
	if err := p.checkRequest(req); err != nil {
		return nil, err
	}
	startTime := time.Now()

	params := req.Values()
	params.Set("api_key", p.GetAPIKey())
	params.Set("output", "json")

	body, err := p.get(ctx, p.endpoint("/search.json")+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, &types.ProviderError{
			Provider: p.GetID(),
			Code:     "INVALID_JSON",
			Message:  "response is not valid JSON",
			Err:      types.ErrInvalidResponse,
		}
	}

	doc := gjson.ParseBytes(body)

	// SerpAPI reports some failures with a 200 and an error field
	if msg := doc.Get("error"); msg.Exists() {
		return nil, &types.ProviderError{
			Provider: p.GetID(),
			Code:     "API_ERROR",
			Message:  msg.String(),
		}
	}

	offset := (req.Page() - 1) * query.PageSize

	// Convert to standard response
	results := make([]*types.SearchResult, 0, query.PageSize)
	doc.Get("organic_results").ForEach(func(_, item gjson.Result) bool {
		position := int(item.Get("position").Int())
		if position == 0 {
			position = offset + len(results) + 1
		}
		results = append(results, &types.SearchResult{
			Position:    position,
			Title:       item.Get("title").String(),
			URL:         item.Get("link").String(),
			DisplayURL:  item.Get("displayed_link").String(),
			Snippet:     item.Get("snippet").String(),
			PublishedAt: item.Get("date").String(),
		})
		return true
	})

	return &types.SearchResponse{
		Query:      req.Query(),
		Results:    results,
		TotalCount: doc.Get("search_information.total_results").Int(),
		Page:       req.Page(),
		Took:       time.Since(startTime).Milliseconds(),
		Provider:   p.GetID(),
	}, nil
}
