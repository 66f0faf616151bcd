package provider

import (
	"context"
	"time"

	"github.com/lk2023060901/property-research-backend/internal/websearch/query"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"

	"github.com/tidwall/gjson"
)

// GoogleProvider implements the Google Custom Search JSON API
type GoogleProvider struct {
	*BaseProvider
}

// NewGoogleProvider creates a new Google Custom Search provider
func NewGoogleProvider(config *types.ProviderConfig) (Provider, error) {
	base := NewBaseProvider(config)
	return &GoogleProvider{BaseProvider: base}, nil
}

// Search executes a compiled request against /customsearch/v1
func (p *GoogleProvider) Search(ctx context.Context, req query.Request) (*types.SearchResponse, error) {
	if err := p.checkRequest(req); err != nil {
		return nil, err
	}
	startTime := time.Now()

	params := req.Values()
	params.Set("key", p.GetAPIKey())

	body, err := p.get(ctx, p.endpoint("/customsearch/v1")+"?"+params.Encode())
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
	offset := (req.Page() - 1) * query.PageSize

	// Convert to standard response
	results := make([]*types.SearchResult, 0, query.PageSize)
	doc.Get("items").ForEach(func(_, item gjson.Result) bool {
		results = append(results, &types.SearchResult{
			Position:    offset + len(results) + 1,
			Title:       item.Get("title").String(),
			URL:         item.Get("link").String(),
			DisplayURL:  item.Get("displayLink").String(),
			Snippet:     item.Get("snippet").String(),
			PublishedAt: item.Get("pagemap.metatags.0.article:published_time").String(),
		})
		return true
	})

	return &types.SearchResponse{
		Query:      req.Query(),
		Results:    results,
		TotalCount: doc.Get("searchInformation.totalResults").Int(),
		Page:       req.Page(),
		Took:       time.Since(startTime).Milliseconds(),
		Provider:   p.GetID(),
	}, nil
}
