package entities

import (
	"fmt"
	"strings"
)

// SortKey selects the ordering applied by the search pipeline.
type SortKey string

const (
	SortByRating   SortKey = "rating"
	SortByName     SortKey = "name"
	SortByDistance SortKey = "distance"
)

// ParseSortKey parses a sort key; empty means rating.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByRating:
		return SortByRating, nil
	case SortByName:
		return SortByName, nil
	case SortByDistance:
		return SortByDistance, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Location is a resolved point with a human readable label.
type Location struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label,omitempty"`
}

// SearchFilters are the user controlled facets of a search.
type SearchFilters struct {
	Query       string    `json:"query"`
	Category    Category  `json:"category"`
	Reference   *Location `json:"reference,omitempty"`
	RadiusMiles float64   `json:"radius_miles"`
	SortBy      SortKey   `json:"sort_by"`
}

// DefaultFilters returns the filters a fresh search starts from.
func DefaultFilters() SearchFilters {
	return SearchFilters{
		Category:    CategoryAll,
		RadiusMiles: 25,
		SortBy:      SortByRating,
	}
}

// SearchResult is the ranked output of one pipeline run. Rank maps an
// entity id to its zero-based position in Entities.
type SearchResult struct {
	Entities []*Entity      `json:"entities"`
	Rank     map[string]int `json:"rank"`
}

// Len returns the number of ranked entities.
func (r *SearchResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Entities)
}
