package types

import (
	"github.com/lk2023060901/property-research-backend/internal/pkg/validator"
)

// MatchType controls whether a term is phrase-quoted
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
)

// DateRestrict is a recency filter. DateAll omits the filter.
type DateRestrict string

const (
	DateAll         DateRestrict = "all"
	DatePastMonth   DateRestrict = "m1"
	DatePast6Months DateRestrict = "m6"
	DatePastYear    DateRestrict = "y1"
	DatePast3Years  DateRestrict = "y3"
	DatePast5Years  DateRestrict = "y5"
	DatePast10Years DateRestrict = "y10"
)

// SiteSearchMode selects how SearchSites are applied
type SiteSearchMode string

const (
	SiteAny      SiteSearchMode = "any"
	SiteSpecific SiteSearchMode = "specific"
	SiteExclude  SiteSearchMode = "exclude"
)

// Keyword is one entry of the OR-combined keyword group
type Keyword struct {
	Value     string    `json:"value" validate:"max=256"`
	MatchType MatchType `json:"match_type" validate:"omitempty,oneof=exact partial"`
}

// SearchPattern describes one search intent. Empty enum fields fall back to
// partial matching, DateAll and SiteAny.
type SearchPattern struct {
	CustomerName          string         `json:"customer_name" validate:"required,notblank,max=256"`
	CustomerNameMatchType MatchType      `json:"customer_name_match_type" validate:"omitempty,oneof=exact partial"`
	Address               string         `json:"address,omitempty" validate:"max=256"`
	AddressMatchType      MatchType      `json:"address_match_type" validate:"omitempty,oneof=exact partial"`
	DateRestrict          DateRestrict   `json:"date_restrict" validate:"omitempty,oneof=all m1 m6 y1 y3 y5 y10"`
	AdvancedSearchEnabled bool           `json:"advanced_search_enabled"`
	AdditionalKeywords    []Keyword      `json:"additional_keywords,omitempty" validate:"dive"`
	SearchSites           []string       `json:"search_sites,omitempty" validate:"dive,max=253"`
	SiteSearchMode        SiteSearchMode `json:"site_search_mode" validate:"omitempty,oneof=any specific exclude"`
	Page                  int            `json:"page,omitempty" validate:"omitempty,min=1"`
}

// Validate checks the pattern before it is handed to a compiler.
// The returned error is a *ValidationError.
func (p *SearchPattern) Validate() error {
	violations := validator.Struct(p)
	if len(violations) == 0 {
		return nil
	}

	fields := make([]FieldError, len(violations))
	for i, v := range violations {
		fields[i] = FieldError{Field: v.Field, Rule: v.Rule, Detail: v.Param}
	}
	return &ValidationError{Fields: fields}
}

// WithPage returns a copy of the pattern pointing at page
func (p SearchPattern) WithPage(page int) SearchPattern {
	p.Page = page
	return p
}
