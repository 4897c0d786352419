package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/breadfindr/backend/pkg/errors"
)

// EntityService is the persisted directory as the handlers use it.
type EntityService interface {
	ListApproved(ctx context.Context) []*entities.Entity
	SearchByLocation(ctx context.Context, city, state string) ([]*entities.Entity, error)
	Submit(ctx context.Context, entity *entities.Entity) (*entities.Entity, error)
	SaveDiscovered(ctx context.Context, entity *entities.Entity) (*entities.Entity, error)
	ListReviews(ctx context.Context, entityID string) ([]*entities.Review, error)
	SubmitReview(ctx context.Context, review *entities.Review) (*entities.Review, error)
}

// DiscoveryService finds and enriches places through the places provider.
type DiscoveryService interface {
	Configured() bool
	Discover(ctx context.Context, lat, lng float64, radiusMeters int) entities.Lookup[[]*entities.Entity]
	PlaceDetails(ctx context.Context, placeID string) entities.Lookup[*entities.Entity]
	Enrich(ctx context.Context, req services.EnrichRequest) (services.EnrichmentResult, error)
	Photo(ctx context.Context, reference string, maxWidth int) (*providers.PhotoContent, error)
}

// GeocodingService resolves locations.
type GeocodingService interface {
	ForwardGeocode(ctx context.Context, text string) entities.Lookup[entities.Location]
	ReverseGeocode(ctx context.Context, lat, lng float64) entities.Lookup[string]
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an AppError type onto a status code. Internal
// details are logged, not returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	message := "internal server error"
	status := http.StatusInternalServerError

	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		status = http.StatusConflict
	case apperrors.ErrorTypeExternal:
		status = http.StatusBadGateway
		message = "upstream service unavailable"
	}
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	respondWithError(w, status, message)
}

// floatParam parses a required float query parameter.
func floatParam(r *http.Request, name string) (float64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// pointParam parses a lat/lng pair. present is false when neither is set.
func pointParam(r *http.Request) (lat, lng float64, present, valid bool) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("lat")) == "" && strings.TrimSpace(q.Get("lng")) == "" {
		return 0, 0, false, false
	}
	lat, okLat := floatParam(r, "lat")
	lng, okLng := floatParam(r, "lng")
	c := entities.Coordinates{Lat: lat, Lng: lng}
	return lat, lng, true, okLat && okLng && c.Valid()
}
