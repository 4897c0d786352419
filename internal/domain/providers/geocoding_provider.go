package providers

import (
	"context"
)

// GeocodingProvider resolves free text to coordinates and back.
type GeocodingProvider interface {
	// Search returns matches for query restricted to the given comma
	// separated ISO country codes. A nil slice and nil error means the
	// provider answered with no matches.
	Search(ctx context.Context, query, countryCodes string) ([]GeocodeMatch, error)

	// Reverse returns the address components around a point.
	Reverse(ctx context.Context, lat, lng float64) (*ReverseAddress, error)
}

// GeocodeMatch is a single forward geocoding hit.
type GeocodeMatch struct {
	Lat         float64
	Lng         float64
	DisplayName string
}

// ReverseAddress holds the locality components of a reverse lookup.
type ReverseAddress struct {
	City    string
	Town    string
	Village string
	County  string
	State   string
}

// Locality returns the most specific populated place name.
func (a *ReverseAddress) Locality() string {
	if a == nil {
		return ""
	}
	for _, v := range []string{a.City, a.Town, a.Village, a.County} {
		if v != "" {
			return v
		}
	}
	return ""
}
