package types

import "time"

// SavedPattern is a named SearchPattern stored under a research project
type SavedPattern struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id"`
	Name      string        `json:"name"`
	Pattern   SearchPattern `json:"pattern"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PatternFilter selects one page of a project's patterns
type PatternFilter struct {
	ProjectID string
	Page      int
	PageSize  int
}

// PatternRun is the outcome of running one saved pattern
type PatternRun struct {
	PatternID string          `json:"pattern_id"`
	Name      string          `json:"name"`
	Response  *SearchResponse `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
}
