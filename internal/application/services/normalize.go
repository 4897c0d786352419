package services

import (
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
)

const (
	// photoMaxWidth is the width requested for listing photos.
	photoMaxWidth = 400
	// maxPhotoWidth is the provider's upper bound.
	maxPhotoWidth = 1600

	// DefaultPhotoBaseURL is the API route that serves provider photos.
	DefaultPhotoBaseURL = "/api/places/photo"
)

// PhotoLink builds a link to a provider photo served through base. The
// link carries only the reference, never provider credentials.
func PhotoLink(base, reference string, maxWidth int) string {
	if reference == "" {
		return ""
	}
	params := url.Values{}
	params.Set("ref", reference)
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	return base + "?" + params.Encode()
}

// chainBakeries are excluded from discovery; matching is a
// case-insensitive substring test on the place name.
var chainBakeries = []string{
	"Panera",
	"Au Bon Pain",
	"Corner Bakery",
	"La Boulange",
	"Cinnabon",
	"Auntie Anne's",
	"Great American Cookies",
	"Nothing Bundt Cakes",
	"Crumbl",
	"Insomnia Cookies",
	"Dunkin'",
	"Dunkin Donuts",
	"Krispy Kreme",
	"Starbucks",
}

var groceryTypes = []string{"grocery_or_supermarket", "supermarket", "convenience_store"}

var stateZipPattern = regexp.MustCompile(`([A-Z]{2})\s*(\d{5})?`)

type specialtyHint struct {
	label   string
	matches func(name string) bool
}

func containsAny(words ...string) func(string) bool {
	return func(name string) bool {
		for _, w := range words {
			if strings.Contains(name, w) {
				return true
			}
		}
		return false
	}
}

var specialtyHints = []specialtyHint{
	{"Sourdough", containsAny("sourdough", "artisan")},
	{"Baguettes", containsAny("french", "baguette")},
	{"Croissants", containsAny("croissant", "patisserie")},
	{"Gluten-Free", func(name string) bool {
		return strings.Contains(name, "gluten") && strings.Contains(name, "free")
	}},
	{"Vegan", containsAny("vegan")},
	{"Pastries", containsAny("pastry", "pastries")},
	{"Pizza", containsAny("pizza")},
	{"Bagels", containsAny("bagel")},
}

// ParsedAddress is a formatted address split into its parts.
type ParsedAddress struct {
	Street     string
	City       string
	State      string
	PostalCode string
}

// ParseAddress splits "123 Main St, City, ST 12345, USA". With fewer than
// three segments the whole string is the street.
func ParseAddress(formatted string) ParsedAddress {
	parts := strings.Split(formatted, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 {
		return ParsedAddress{Street: strings.TrimSpace(formatted)}
	}

	addr := ParsedAddress{Street: parts[0], City: parts[1]}
	if m := stateZipPattern.FindStringSubmatch(parts[2]); m != nil {
		addr.State = m[1]
		addr.PostalCode = m[2]
	}
	return addr
}

// InferSpecialties maps keyword hints in a place name to specialty labels,
// in hint order without duplicates. Types are accepted for future hints
// and currently unused.
func InferSpecialties(name string, _ []string) []string {
	lower := strings.ToLower(name)
	specialties := []string{}
	for _, hint := range specialtyHints {
		if hint.matches(lower) && !slices.Contains(specialties, hint.label) {
			specialties = append(specialties, hint.label)
		}
	}
	return specialties
}

// IsChainOrGrocery reports whether a place should be hidden from
// discovery results.
func IsChainOrGrocery(place providers.Place) bool {
	name := strings.ToLower(place.Name)
	for _, chain := range chainBakeries {
		if strings.Contains(name, strings.ToLower(chain)) {
			return true
		}
	}
	for _, t := range place.Types {
		if slices.Contains(groceryTypes, t) {
			return true
		}
	}
	return false
}

// DiscoveredID synthesizes the entity id for a provider place id.
func DiscoveredID(placeID string) string {
	return entities.DiscoveredIDPrefix + placeID
}

func placeToEntity(place providers.Place, photoURL func(string, int) string) *entities.Entity {
	addr := ParseAddress(place.Address())
	return &entities.Entity{
		ID:              DiscoveredID(place.PlaceID),
		Name:            place.Name,
		Category:        entities.CategoryStorefront,
		Specialties:     InferSpecialties(place.Name, place.Types),
		Rating:          place.Rating,
		ReviewCount:     place.UserRatingsTotal,
		Address:         addr.Street,
		City:            addr.City,
		State:           addr.State,
		PostalCode:      addr.PostalCode,
		Coordinates:     placeCoordinates(place),
		ImageURL:        placePhoto(place, photoURL),
		Provenance:      entities.ProvenanceDiscovered,
		ExternalPlaceID: place.PlaceID,
	}
}

func detailsToEntity(details *providers.PlaceDetails, photoURL func(string, int) string) *entities.Entity {
	entity := placeToEntity(details.Place, photoURL)
	entity.Address = buildStreet(details.AddressComponents)
	entity.City = component(details.AddressComponents, "locality")
	entity.State = shortComponent(details.AddressComponents, "administrative_area_level_1")
	entity.PostalCode = component(details.AddressComponents, "postal_code")
	entity.Phone = details.FormattedPhoneNumber
	entity.Website = details.Website
	if details.OpeningHours != nil {
		entity.Hours = strings.Join(details.OpeningHours.WeekdayText, "\n")
	}
	return entity
}

func placeCoordinates(place providers.Place) *entities.Coordinates {
	c := &entities.Coordinates{Lat: place.Geometry.Location.Lat, Lng: place.Geometry.Location.Lng}
	if !c.Valid() {
		return nil
	}
	return c
}

func placePhoto(place providers.Place, photoURL func(string, int) string) string {
	ref := place.PhotoReference()
	if ref == "" || photoURL == nil {
		return ""
	}
	return photoURL(ref, photoMaxWidth)
}

func component(components []providers.AddressComponent, kind string) string {
	for _, comp := range components {
		if slices.Contains(comp.Types, kind) {
			return comp.LongName
		}
	}
	return ""
}

func shortComponent(components []providers.AddressComponent, kind string) string {
	for _, comp := range components {
		if slices.Contains(comp.Types, kind) {
			return comp.ShortName
		}
	}
	return ""
}

func buildStreet(components []providers.AddressComponent) string {
	streetNumber := component(components, "street_number")
	route := component(components, "route")
	if streetNumber != "" && route != "" {
		return streetNumber + " " + route
	}
	if route != "" {
		return route
	}
	return streetNumber
}
