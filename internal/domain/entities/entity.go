package entities

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/zatekoja/breadfindr/backend/pkg/geo"
)

// DiscoveredIDPrefix prefixes the ids synthesized for discovered places so
// re-discovering the same place always yields the same id.
const DiscoveredIDPrefix = "google_"

// AlreadySavedMessage is the conflict message for a place saved twice.
const AlreadySavedMessage = "This bakery has already been saved"

// Category is the closed set of bread source kinds.
type Category string

const (
	CategoryStorefront Category = "storefront"
	CategoryMarket     Category = "market"
	CategoryHomeBaker  Category = "home_baker"

	// CategoryAll is only meaningful as a filter value.
	CategoryAll Category = "all"
)

// Valid reports whether c is one of the three entity categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryStorefront, CategoryMarket, CategoryHomeBaker:
		return true
	}
	return false
}

// ParseCategory maps user and store input onto a Category. The store's
// legacy "bakery" and "farmers_market" labels are accepted. An empty
// string means CategoryAll.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return CategoryAll, nil
	case "storefront", "bakery":
		return CategoryStorefront, nil
	case "market", "farmers_market":
		return CategoryMarket, nil
	case "home_baker":
		return CategoryHomeBaker, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// StoreLabel returns the label the bakeries table stores for c.
func (c Category) StoreLabel() string {
	switch c {
	case CategoryStorefront:
		return "bakery"
	case CategoryMarket:
		return "farmers_market"
	}
	return string(c)
}

// Provenance records where an entity came from.
type Provenance string

const (
	ProvenanceManual        Provenance = "manual"
	ProvenanceDiscovered    Provenance = "discovered"
	ProvenanceUserSubmitted Provenance = "user_submitted"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is finite and within range.
func (c *Coordinates) Valid() bool {
	return c != nil && geo.ValidCoordinates(c.Lat, c.Lng)
}

// Entity is a bakery, farmers market or home baker listing.
type Entity struct {
	ID              string       `json:"id" db:"id"`
	Name            string       `json:"name" db:"name"`
	Category        Category     `json:"category" db:"type"`
	Description     string       `json:"description" db:"description"`
	Specialties     []string     `json:"specialties" db:"specialties"`
	Rating          float64      `json:"rating" db:"rating"`
	ReviewCount     int          `json:"review_count" db:"review_count"`
	Address         string       `json:"address" db:"address"`
	City            string       `json:"city" db:"city"`
	State           string       `json:"state" db:"state"`
	PostalCode      string       `json:"postal_code" db:"zip"`
	Coordinates     *Coordinates `json:"coordinates,omitempty" db:"-"`
	Phone           string       `json:"phone,omitempty" db:"phone"`
	Website         string       `json:"website,omitempty" db:"website"`
	SocialHandle    string       `json:"social_handle,omitempty" db:"instagram"`
	Hours           string       `json:"hours,omitempty" db:"hours"`
	ImageURL        string       `json:"image_url,omitempty" db:"image_url"`
	Verified        bool         `json:"verified" db:"verified"`
	Featured        bool         `json:"featured" db:"featured"`
	Approved        bool         `json:"-" db:"approved"`
	Provenance      Provenance   `json:"provenance" db:"source"`
	ExternalPlaceID string       `json:"external_place_id,omitempty" db:"google_place_id"`
	Distance        *float64     `json:"distance,omitempty" db:"-"`
	CreatedAt       time.Time    `json:"created_at,omitzero" db:"created_at"`
}

// HasCoordinates reports whether the entity can be placed on a map.
func (e *Entity) HasCoordinates() bool {
	return e.Coordinates.Valid()
}

// Clone returns a deep copy so callers can annotate without touching the
// original.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	c := *e
	c.Specialties = slices.Clone(e.Specialties)
	if e.Coordinates != nil {
		coords := *e.Coordinates
		c.Coordinates = &coords
	}
	if e.Distance != nil {
		d := *e.Distance
		c.Distance = &d
	}
	return &c
}

// Validate checks the fields a submission must carry.
func (e *Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !e.Category.Valid() {
		return fmt.Errorf("category must be one of storefront, market, home_baker")
	}
	if strings.TrimSpace(e.City) == "" {
		return fmt.Errorf("city is required")
	}
	if strings.TrimSpace(e.State) == "" {
		return fmt.Errorf("state is required")
	}
	if e.Rating < 0 || e.ReviewCount < 0 {
		return fmt.Errorf("rating and review count must not be negative")
	}
	if e.Coordinates != nil && !e.Coordinates.Valid() {
		return fmt.Errorf("coordinates are out of range")
	}
	if e.Provenance == ProvenanceDiscovered && e.ExternalPlaceID == "" {
		return fmt.Errorf("discovered entities require an external place id")
	}
	return nil
}
