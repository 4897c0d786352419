package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
)

const (
	// DefaultDiscoveryRadiusMeters is roughly 25 miles.
	DefaultDiscoveryRadiusMeters = 40000
	// MaxDiscoveryRadiusMeters is the provider's nearby search ceiling.
	MaxDiscoveryRadiusMeters = 50000

	discoveryPlaceType = "bakery"
	discoveryKeywords  = "artisan bakery sourdough"
)

// DiscoveryService finds candidate bread sources near a point through the
// places provider.
type DiscoveryService struct {
	places        providers.PlacesProvider
	cache         *DiscoveryCache
	metrics       *observability.Metrics
	defaultRadius int
	maxRadius     int
	enrichWindow  int
	enrichDelay   time.Duration
	photoBase     string
}

// DiscoveryOption configures a DiscoveryService.
type DiscoveryOption func(*DiscoveryService)

// WithDiscoveryCache replaces the default 30 minute cache.
func WithDiscoveryCache(cache *DiscoveryCache) DiscoveryOption {
	return func(s *DiscoveryService) { s.cache = cache }
}

// WithDiscoveryRadius sets the default and maximum radius in meters.
func WithDiscoveryRadius(defaultMeters, maxMeters int) DiscoveryOption {
	return func(s *DiscoveryService) {
		if defaultMeters > 0 {
			s.defaultRadius = defaultMeters
		}
		if maxMeters > 0 {
			s.maxRadius = maxMeters
		}
	}
}

// WithEnrichmentPacing sets the batch window and the delay between windows.
func WithEnrichmentPacing(window int, delay time.Duration) DiscoveryOption {
	return func(s *DiscoveryService) {
		if window > 0 {
			s.enrichWindow = window
		}
		s.enrichDelay = delay
	}
}

// WithDiscoveryMetrics records cache and provider metrics.
func WithDiscoveryMetrics(m *observability.Metrics) DiscoveryOption {
	return func(s *DiscoveryService) { s.metrics = m }
}

// WithPhotoBaseURL sets the route photo links point at.
func WithPhotoBaseURL(base string) DiscoveryOption {
	return func(s *DiscoveryService) {
		if base != "" {
			s.photoBase = base
		}
	}
}

// NewDiscoveryService creates a discovery service.
func NewDiscoveryService(places providers.PlacesProvider, opts ...DiscoveryOption) *DiscoveryService {
	s := &DiscoveryService{
		places:        places,
		defaultRadius: DefaultDiscoveryRadiusMeters,
		maxRadius:     MaxDiscoveryRadiusMeters,
		enrichWindow:  3,
		enrichDelay:   200 * time.Millisecond,
		photoBase:     DefaultPhotoBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewDiscoveryCache(DefaultDiscoveryTTL, nil)
	}
	return s
}

// Configured reports whether discovery can reach a provider at all.
func (s *DiscoveryService) Configured() bool {
	return s.places != nil && s.places.Configured()
}

// Cache exposes the result cache so callers can run its sweeper.
func (s *DiscoveryService) Cache() *DiscoveryCache {
	return s.cache
}

// ClampRadius applies the default to non-positive values and caps the rest.
func (s *DiscoveryService) ClampRadius(radiusMeters int) int {
	if radiusMeters <= 0 {
		return s.defaultRadius
	}
	if radiusMeters > s.maxRadius {
		return s.maxRadius
	}
	return radiusMeters
}

// Discover returns independent bread sources near a point. Results,
// including an empty answer, are cached; failures are not.
func (s *DiscoveryService) Discover(ctx context.Context, lat, lng float64, radiusMeters int) entities.Lookup[[]*entities.Entity] {
	logger := observability.ComponentLogger(ctx, "discovery")
	if !s.Configured() {
		logger.Warn().Msg("places provider not configured")
		return entities.Failed[[]*entities.Entity](fmt.Errorf("places provider not configured"))
	}

	radius := s.ClampRadius(radiusMeters)
	key := DiscoveryKey(lat, lng, radius)
	if cached, ok := s.cache.Get(key); ok {
		observability.RecordCacheHit(ctx, s.metrics, "discovery")
		return cloneLookup(cached)
	}
	observability.RecordCacheMiss(ctx, s.metrics, "discovery")

	ctx, span := observability.StartSpan(ctx, "discovery.discover",
		attribute.String("discovery.key", key),
		attribute.Int("discovery.radius_meters", radius),
	)
	defer span.End()

	var nearby, text *providers.PlacesResponse
	point := providers.LatLng{Lat: lat, Lng: lng}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		resp, err := s.places.NearbySearch(gctx, providers.NearbySearchRequest{
			Location:     point,
			RadiusMeters: radius,
			Type:         discoveryPlaceType,
		})
		observability.RecordProviderCall(gctx, s.metrics, "google_places", "nearby_search", err, time.Since(start))
		if err != nil {
			return fmt.Errorf("nearby search: %w", err)
		}
		nearby = resp
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		resp, err := s.places.TextSearch(gctx, providers.TextSearchRequest{
			Query:        discoveryKeywords,
			Location:     &point,
			RadiusMeters: radius,
		})
		observability.RecordProviderCall(gctx, s.metrics, "google_places", "text_search", err, time.Since(start))
		if err != nil {
			return fmt.Errorf("text search: %w", err)
		}
		text = resp
		return nil
	})
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		logger.Warn().Err(err).Str("key", key).Msg("discovery failed")
		return entities.Failed[[]*entities.Entity](err)
	}

	found := s.normalize(mergePlaces(nearby, text))
	span.SetAttributes(attribute.Int("discovery.results", len(found)))

	var result entities.Lookup[[]*entities.Entity]
	if len(found) == 0 {
		logger.Debug().Str("key", key).Msg("discovery found nothing")
		result = entities.NotFound[[]*entities.Entity]()
	} else {
		result = entities.Found(found)
	}
	s.cache.Put(key, result)
	return cloneLookup(result)
}

// DiscoverNear is the best-effort form of Discover: anything other than a
// found result is an empty slice.
func (s *DiscoveryService) DiscoverNear(ctx context.Context, lat, lng float64, radiusMeters int) []*entities.Entity {
	found, ok := s.Discover(ctx, lat, lng, radiusMeters).Get()
	if !ok {
		return []*entities.Entity{}
	}
	return found
}

// PlaceDetails fetches one place and maps it onto an entity.
func (s *DiscoveryService) PlaceDetails(ctx context.Context, placeID string) entities.Lookup[*entities.Entity] {
	if !s.Configured() {
		return entities.Failed[*entities.Entity](fmt.Errorf("places provider not configured"))
	}
	ctx, span := observability.StartSpan(ctx, "discovery.place_details", attribute.String("place.id", placeID))
	defer span.End()

	start := time.Now()
	details, err := s.places.Details(ctx, placeID)
	observability.RecordProviderCall(ctx, s.metrics, "google_places", "details", err, time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		observability.ComponentLogger(ctx, "discovery").Warn().Err(err).Str("place_id", placeID).Msg("place details failed")
		return entities.Failed[*entities.Entity](err)
	}
	if details == nil {
		return entities.NotFound[*entities.Entity]()
	}
	return entities.Found(detailsToEntity(details, s.photoLink))
}

// Photo fetches the image behind a photo reference. Widths outside the
// provider's range fall back to the listing width.
func (s *DiscoveryService) Photo(ctx context.Context, reference string, maxWidth int) (*providers.PhotoContent, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("places provider not configured")
	}
	if maxWidth <= 0 || maxWidth > maxPhotoWidth {
		maxWidth = photoMaxWidth
	}
	ctx, span := observability.StartSpan(ctx, "discovery.photo")
	defer span.End()

	start := time.Now()
	photo, err := s.places.Photo(ctx, reference, maxWidth)
	observability.RecordProviderCall(ctx, s.metrics, "google_places", "photo", err, time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return photo, nil
}

func (s *DiscoveryService) photoLink(reference string, maxWidth int) string {
	return PhotoLink(s.photoBase, reference, maxWidth)
}

func (s *DiscoveryService) normalize(places []providers.Place) []*entities.Entity {
	out := make([]*entities.Entity, 0, len(places))
	for _, place := range places {
		if place.PlaceID == "" || IsChainOrGrocery(place) {
			continue
		}
		out = append(out, placeToEntity(place, s.photoLink))
	}
	return out
}

// mergePlaces concatenates responses in order, keeping the first
// occurrence of each place id.
func mergePlaces(responses ...*providers.PlacesResponse) []providers.Place {
	seen := make(map[string]struct{})
	var merged []providers.Place
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		for _, place := range resp.Results {
			if _, dup := seen[place.PlaceID]; dup {
				continue
			}
			seen[place.PlaceID] = struct{}{}
			merged = append(merged, place)
		}
	}
	return merged
}

// cloneLookup hands out copies so callers annotating results cannot touch
// what the cache holds.
func cloneLookup(l entities.Lookup[[]*entities.Entity]) entities.Lookup[[]*entities.Entity] {
	if !l.IsFound() {
		return l
	}
	out := make([]*entities.Entity, len(l.Value))
	for i, e := range l.Value {
		out[i] = e.Clone()
	}
	return entities.Found(out)
}
