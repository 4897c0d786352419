package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Places API status values.
const (
	PlacesStatusOK          = "OK"
	PlacesStatusZeroResults = "ZERO_RESULTS"
)

// StatusError is a well-formed provider answer carrying a status other
// than OK or ZERO_RESULTS, such as REQUEST_DENIED or OVER_QUERY_LIMIT.
type StatusError struct {
	Op      string
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed: %s - %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Status)
}

// PlacesProvider is the third-party place discovery service.
type PlacesProvider interface {
	// Configured reports whether the provider has credentials.
	Configured() bool

	// NearbySearch finds places of a type around a point.
	NearbySearch(ctx context.Context, req NearbySearchRequest) (*PlacesResponse, error)

	// TextSearch runs a free text query, optionally biased to a point.
	TextSearch(ctx context.Context, req TextSearchRequest) (*PlacesResponse, error)

	// RawTextSearch runs TextSearch and returns the provider payload untouched.
	RawTextSearch(ctx context.Context, req TextSearchRequest) (json.RawMessage, error)

	// Details fetches a single place by id.
	Details(ctx context.Context, placeID string) (*PlaceDetails, error)

	// Photo fetches the image behind a photo reference.
	Photo(ctx context.Context, reference string, maxWidth int) (*PhotoContent, error)
}

// PhotoContent is a streamed provider image. The caller closes Body.
type PhotoContent struct {
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// LatLng is a provider point.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NearbySearchRequest scopes a category search.
type NearbySearchRequest struct {
	Location     LatLng
	RadiusMeters int
	Type         string
	Keyword      string
}

// TextSearchRequest scopes a keyword search. Location is optional.
type TextSearchRequest struct {
	Query        string
	Location     *LatLng
	RadiusMeters int
	Type         string
}

// PlacesResponse is the search response envelope.
type PlacesResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Results      []Place `json:"results"`
}

// Place is a raw search result.
type Place struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	FormattedAddress string        `json:"formatted_address,omitempty"`
	Vicinity         string        `json:"vicinity,omitempty"`
	Geometry         PlaceGeometry `json:"geometry"`
	Rating           float64       `json:"rating,omitempty"`
	UserRatingsTotal int           `json:"user_ratings_total,omitempty"`
	Types            []string      `json:"types,omitempty"`
	Photos           []PlacePhoto  `json:"photos,omitempty"`
	BusinessStatus   string        `json:"business_status,omitempty"`
}

// Address returns the formatted address, falling back to the vicinity
// string nearby search returns instead.
func (p *Place) Address() string {
	if p.FormattedAddress != "" {
		return p.FormattedAddress
	}
	return p.Vicinity
}

// PhotoReference returns the first photo reference, if any.
func (p *Place) PhotoReference() string {
	if len(p.Photos) == 0 {
		return ""
	}
	return p.Photos[0].PhotoReference
}

// PlaceGeometry wraps the place location.
type PlaceGeometry struct {
	Location LatLng `json:"location"`
}

// PlacePhoto references a provider hosted photo.
type PlacePhoto struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}

// PlaceDetails is the details-by-id payload.
type PlaceDetails struct {
	Place
	AddressComponents    []AddressComponent `json:"address_components,omitempty"`
	FormattedPhoneNumber string             `json:"formatted_phone_number,omitempty"`
	Website              string             `json:"website,omitempty"`
	OpeningHours         *OpeningHours      `json:"opening_hours,omitempty"`
}

// AddressComponent is one structured piece of an address.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// OpeningHours carries the human readable weekly schedule.
type OpeningHours struct {
	WeekdayText []string `json:"weekday_text,omitempty"`
}
