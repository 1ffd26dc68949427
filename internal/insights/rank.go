package insights

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MinQueryLength is the shortest trimmed query sent upstream.
	MinQueryLength = 2
	// MaxSearchResults caps the ranked search result list.
	MaxSearchResults = 10
)

// NormalizeQuery trims and lower-cases a free-text query.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// IsSearchable reports whether a query is long enough to be worth a call.
func IsSearchable(q string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(q)) >= MinQueryLength
}

// RankSummaries orders results so names starting with query come before
// names that merely contain it, then case-insensitively by name, and keeps
// at most MaxSearchResults. query must already be normalized.
func RankSummaries(query string, items []CountrySummary) []CountrySummary {
	ranked := make([]CountrySummary, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		al, bl := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)

		ap, bp := strings.HasPrefix(al, query), strings.HasPrefix(bl, query)
		if ap != bp {
			return ap
		}
		if al != bl {
			return al < bl
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.Code < b.Code
	})

	if len(ranked) > MaxSearchResults {
		ranked = ranked[:MaxSearchResults]
	}
	return ranked
}
