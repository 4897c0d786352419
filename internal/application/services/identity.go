package services

import (
	"slices"
	"strings"
	"unicode"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
)

// DefaultIdentityProximityMeters is how close two same-named listings must
// be to count as one place when their cities disagree.
const DefaultIdentityProximityMeters = 150.0

// IdentityResolver decides whether listings from different sources describe
// the same physical place.
type IdentityResolver struct {
	proximityMeters float64
}

// NewIdentityResolver creates a resolver. Non-positive proximity uses the
// default.
func NewIdentityResolver(proximityMeters float64) *IdentityResolver {
	if proximityMeters <= 0 {
		proximityMeters = DefaultIdentityProximityMeters
	}
	return &IdentityResolver{proximityMeters: proximityMeters}
}

// Key returns a canonical merge key: the external place id when known,
// otherwise the normalized name and city.
func (r *IdentityResolver) Key(e *entities.Entity) string {
	if e.ExternalPlaceID != "" {
		return "place:" + e.ExternalPlaceID
	}
	return "name:" + normalizeName(e.Name) + "|" + normalizeName(e.City)
}

// Match reports whether a and b are the same place.
func (r *IdentityResolver) Match(a, b *entities.Entity) bool {
	if a == nil || b == nil {
		return false
	}
	if a.ExternalPlaceID != "" && a.ExternalPlaceID == b.ExternalPlaceID {
		return true
	}
	name := normalizeName(a.Name)
	if name == "" || name != normalizeName(b.Name) {
		return false
	}
	if city := normalizeName(a.City); city != "" && city == normalizeName(b.City) {
		return true
	}
	if a.HasCoordinates() && b.HasCoordinates() {
		pa := orb.Point{a.Coordinates.Lng, a.Coordinates.Lat}
		pb := orb.Point{b.Coordinates.Lng, b.Coordinates.Lat}
		return geo.Distance(pa, pb) <= r.proximityMeters
	}
	return false
}

// ExcludeKnown drops discovered listings that match a persisted one.
func (r *IdentityResolver) ExcludeKnown(persisted, discovered []*entities.Entity) []*entities.Entity {
	known := make(map[string]struct{}, len(persisted))
	for _, p := range persisted {
		known[r.Key(p)] = struct{}{}
	}

	out := make([]*entities.Entity, 0, len(discovered))
	for _, d := range discovered {
		if _, ok := known[r.Key(d)]; ok {
			continue
		}
		if slices.ContainsFunc(persisted, func(p *entities.Entity) bool { return r.Match(p, d) }) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// normalizeName lower-cases, drops punctuation and collapses whitespace.
func normalizeName(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case r == '&' || unicode.IsSpace(r) || unicode.IsPunct(r):
			space = true
		}
	}
	return b.String()
}
