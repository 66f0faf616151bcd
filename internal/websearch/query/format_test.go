package query

import (
	"testing"

	"github.com/lk2023060901/property-research-backend/internal/websearch/types"

	"github.com/stretchr/testify/assert"
)

func TestFormatTerm(t *testing.T) {
	assert.Equal(t, `"代表取締役"`, FormatTerm("代表取締役", types.MatchExact))
	assert.Equal(t, "CEO", FormatTerm("CEO", types.MatchPartial))
	assert.Equal(t, "CEO", FormatTerm("CEO", ""))
	// the formatter does not trim
	assert.Equal(t, `" a "`, FormatTerm(" a ", types.MatchExact))
}

func TestBuildSiteFilter(t *testing.T) {
	tests := []struct {
		name  string
		sites []string
		mode  types.SiteSearchMode
		want  string
	}{
		{
			name:  "specific two sites",
			sites: []string{"linkedin.com", "facebook.com"},
			mode:  types.SiteSpecific,
			want:  "(site:linkedin.com OR site:facebook.com)",
		},
		{
			name:  "specific keeps input order",
			sites: []string{"c.jp", "a.jp", "b.jp"},
			mode:  types.SiteSpecific,
			want:  "(site:c.jp OR site:a.jp OR site:b.jp)",
		},
		{
			name:  "exclude single site",
			sites: []string{"example.com"},
			mode:  types.SiteExclude,
			want:  "-site:example.com",
		},
		{
			name:  "exclude many sites",
			sites: []string{"a.com", "b.com"},
			mode:  types.SiteExclude,
			want:  "-site:a.com -site:b.com",
		},
		{
			name:  "any mode renders nothing",
			sites: []string{"a.com"},
			mode:  types.SiteAny,
			want:  "",
		},
		{
			name:  "no sites",
			sites: nil,
			mode:  types.SiteSpecific,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSiteFilter(tt.sites, tt.mode))
		})
	}
}

func TestCleanSites(t *testing.T) {
	got := cleanSites([]string{" a.com ", "", "   ", "b.com"})
	assert.Equal(t, []string{"a.com", "b.com"}, got)
}

func TestFormatKeywords(t *testing.T) {
	got := formatKeywords([]types.Keyword{
		{Value: "", MatchType: types.MatchExact},
		{Value: "  ", MatchType: types.MatchPartial},
		{Value: " 代表取締役 ", MatchType: types.MatchExact},
		{Value: "CEO", MatchType: types.MatchPartial},
		{Value: " chief  executive ", MatchType: types.MatchPartial},
		{Value: "managing\t\tdirector", MatchType: types.MatchExact},
		{Value: "代表　　取締役", MatchType: types.MatchPartial},
	})
	assert.Equal(t, []string{`"代表取締役"`, "CEO", "chief executive", `"managing director"`, "代表 取締役"}, got)
}

func TestNormalizeSpaces(t *testing.T) {
	assert.Equal(t, "a b c", normalizeSpaces("  a \t b\n\nc  "))
	assert.Equal(t, "山田 太郎", normalizeSpaces("山田　　太郎"))
	assert.Equal(t, "", normalizeSpaces("   "))
}
