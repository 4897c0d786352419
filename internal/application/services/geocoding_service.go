package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
)

const (
	// PositionTimeout bounds a device location request.
	PositionTimeout = 10 * time.Second
	// PositionMaxAge is how long a device fix may be reused.
	PositionMaxAge = 5 * time.Minute

	geocodeCachePrefix = "geo:v1:forward:"
)

// PositionErrorKind classifies device location failures.
type PositionErrorKind string

const (
	PositionPermissionDenied PositionErrorKind = "permission_denied"
	PositionUnavailable      PositionErrorKind = "position_unavailable"
	PositionTimedOut         PositionErrorKind = "timeout"
	PositionUnsupported      PositionErrorKind = "unsupported"
)

var positionMessages = map[PositionErrorKind]string{
	PositionPermissionDenied: "Location permission denied. Please enable location access in your settings.",
	PositionUnavailable:      "Location information is unavailable.",
	PositionTimedOut:         "Location request timed out.",
	PositionUnsupported:      "Location is not supported on this device.",
}

// PositionError is returned by CurrentPosition.
type PositionError struct {
	Kind PositionErrorKind
	Err  error
}

func (e *PositionError) Error() string {
	return e.Message()
}

// Message returns the user facing text for the failure kind.
func (e *PositionError) Message() string {
	if msg, ok := positionMessages[e.Kind]; ok {
		return msg
	}
	return "Unable to get your location."
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

// GeocodingService shapes requests to the geocoding provider and reports
// tagged results, so callers can tell "no such place" from "could not ask".
type GeocodingService struct {
	provider     providers.GeocodingProvider
	position     providers.PositionSource
	cache        providers.CacheProvider
	cacheTTL     time.Duration
	countryCodes string
	metrics      *observability.Metrics
	now          func() time.Time

	mu        sync.Mutex
	lastFix   *entities.Location
	lastFixAt time.Time
}

// GeocodingOption configures a GeocodingService.
type GeocodingOption func(*GeocodingService)

// WithGeocodeCache caches successful forward lookups.
func WithGeocodeCache(cache providers.CacheProvider, ttl time.Duration) GeocodingOption {
	return func(s *GeocodingService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithPositionSource sets the device location capability.
func WithPositionSource(src providers.PositionSource) GeocodingOption {
	return func(s *GeocodingService) { s.position = src }
}

// WithCountryCodes restricts forward lookups, "us" by default.
func WithCountryCodes(codes string) GeocodingOption {
	return func(s *GeocodingService) { s.countryCodes = codes }
}

// WithGeocodingMetrics records provider calls.
func WithGeocodingMetrics(m *observability.Metrics) GeocodingOption {
	return func(s *GeocodingService) { s.metrics = m }
}

// WithGeocodingClock replaces time.Now.
func WithGeocodingClock(now func() time.Time) GeocodingOption {
	return func(s *GeocodingService) { s.now = now }
}

// NewGeocodingService creates a geocoding service.
func NewGeocodingService(provider providers.GeocodingProvider, opts ...GeocodingOption) *GeocodingService {
	s := &GeocodingService{
		provider:     provider,
		countryCodes: "us",
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForwardGeocode resolves free text to the first matching location.
func (s *GeocodingService) ForwardGeocode(ctx context.Context, text string) entities.Lookup[entities.Location] {
	query := strings.TrimSpace(text)
	if query == "" {
		return entities.NotFound[entities.Location]()
	}
	logger := observability.ComponentLogger(ctx, "geocoding")

	cacheKey := geocodeCachePrefix + hashKey(strings.ToLower(query)+"|"+s.countryCodes)
	if loc, ok := s.cachedLocation(ctx, cacheKey); ok {
		observability.RecordCacheHit(ctx, s.metrics, "geocode")
		return entities.Found(loc)
	}
	observability.RecordCacheMiss(ctx, s.metrics, "geocode")

	ctx, span := observability.StartSpan(ctx, "geocoding.forward")
	defer span.End()

	start := time.Now()
	matches, err := s.provider.Search(ctx, query, s.countryCodes)
	observability.RecordProviderCall(ctx, s.metrics, "nominatim", "search", err, time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		logger.Warn().Err(err).Str("query", query).Msg("forward geocode failed")
		return entities.Failed[entities.Location](err)
	}
	if len(matches) == 0 {
		logger.Debug().Str("query", query).Msg("forward geocode found nothing")
		return entities.NotFound[entities.Location]()
	}

	first := matches[0]
	loc := entities.Location{Lat: first.Lat, Lng: first.Lng, Label: first.DisplayName}
	s.storeLocation(ctx, cacheKey, loc)
	return entities.Found(loc)
}

// ReverseGeocode builds a "City, State" label for a point. Both parts
// must be present.
func (s *GeocodingService) ReverseGeocode(ctx context.Context, lat, lng float64) entities.Lookup[string] {
	ctx, span := observability.StartSpan(ctx, "geocoding.reverse")
	defer span.End()

	start := time.Now()
	addr, err := s.provider.Reverse(ctx, lat, lng)
	observability.RecordProviderCall(ctx, s.metrics, "nominatim", "reverse", err, time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		observability.ComponentLogger(ctx, "geocoding").Warn().Err(err).
			Float64("lat", lat).Float64("lng", lng).Msg("reverse geocode failed")
		return entities.Failed[string](err)
	}

	locality := addr.Locality()
	if locality == "" || addr.State == "" {
		return entities.NotFound[string]()
	}
	return entities.Found(fmt.Sprintf("%s, %s", locality, addr.State))
}

// CurrentPosition asks the position source for a fix, reusing one younger
// than PositionMaxAge. Failures are always *PositionError.
func (s *GeocodingService) CurrentPosition(ctx context.Context) (entities.Location, error) {
	if s.position == nil {
		return entities.Location{}, &PositionError{Kind: PositionUnsupported}
	}

	s.mu.Lock()
	if s.lastFix != nil && s.now().Sub(s.lastFixAt) < PositionMaxAge {
		loc := *s.lastFix
		s.mu.Unlock()
		return loc, nil
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, PositionTimeout)
	defer cancel()

	pos, err := s.position.CurrentPosition(ctx, providers.PositionOptions{
		HighAccuracy: true,
		Timeout:      PositionTimeout,
		MaximumAge:   PositionMaxAge,
	})
	if err != nil {
		return entities.Location{}, classifyPositionError(err)
	}
	if pos == nil {
		return entities.Location{}, &PositionError{Kind: PositionUnavailable}
	}

	loc := entities.Location{Lat: pos.Lat, Lng: pos.Lng}
	s.mu.Lock()
	s.lastFix = &loc
	s.lastFixAt = s.now()
	s.mu.Unlock()
	return loc, nil
}

func classifyPositionError(err error) *PositionError {
	var posErr *PositionError
	switch {
	case errors.As(err, &posErr):
		return posErr
	case errors.Is(err, providers.ErrPermissionDenied):
		return &PositionError{Kind: PositionPermissionDenied, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &PositionError{Kind: PositionTimedOut, Err: err}
	}
	return &PositionError{Kind: PositionUnavailable, Err: err}
}

func (s *GeocodingService) cachedLocation(ctx context.Context, key string) (entities.Location, bool) {
	if s.cache == nil {
		return entities.Location{}, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return entities.Location{}, false
	}
	var loc entities.Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return entities.Location{}, false
	}
	return loc, true
}

func (s *GeocodingService) storeLocation(ctx context.Context, key string, loc entities.Location) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, int(s.cacheTTL.Seconds())); err != nil {
		observability.ComponentLogger(ctx, "geocoding").Debug().Err(err).Msg("failed to cache geocode result")
	}
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
