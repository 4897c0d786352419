package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
)

const defaultProxyRadiusMeters = 40000

// PlacesHandler proxies place lookups so browsers never see the provider key.
type PlacesHandler struct {
	places    providers.PlacesProvider
	discovery DiscoveryService
}

// NewPlacesHandler creates a new places proxy handler.
func NewPlacesHandler(places providers.PlacesProvider, discovery DiscoveryService) *PlacesHandler {
	return &PlacesHandler{places: places, discovery: discovery}
}

// Search handles GET /api/places/search?lat=&lng=&query=&radius=
func (h *PlacesHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	lat, okLat := floatParam(r, "lat")
	lng, okLng := floatParam(r, "lng")
	if query == "" || !okLat || !okLng {
		respondWithError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	if h.places == nil || !h.places.Configured() {
		respondWithError(w, http.StatusInternalServerError, "Google Places API key not configured")
		return
	}

	radius := defaultProxyRadiusMeters
	if raw := q.Get("radius"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			radius = v
		}
	}

	raw, err := h.places.RawTextSearch(r.Context(), providers.TextSearchRequest{
		Query:        query,
		Location:     &providers.LatLng{Lat: lat, Lng: lng},
		RadiusMeters: radius,
	})
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("places proxy search failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch from Google Places")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// Find handles GET /api/places/find?name=&address=&lat=&lng=
func (h *PlacesHandler) Find(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Missing bakery name")
		return
	}
	if h.discovery == nil || !h.discovery.Configured() {
		respondWithError(w, http.StatusInternalServerError, "Google Places API key not configured")
		return
	}

	req := services.EnrichRequest{Name: name, Address: strings.TrimSpace(r.URL.Query().Get("address"))}
	if lat, lng, present, valid := pointParam(r); present && valid {
		req.Coordinates = &entities.Coordinates{Lat: lat, Lng: lng}
	}

	result, err := h.discovery.Enrich(r.Context(), req)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("name", name).Msg("places find failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to search Google Places")
		return
	}
	if !result.Found {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"found":   false,
			"message": "No matching place found",
		})
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Photo handles GET /api/places/photo?ref=&maxwidth=
// The provider key is added upstream; only image bytes reach the client.
func (h *PlacesHandler) Photo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := strings.TrimSpace(q.Get("ref"))
	if ref == "" {
		respondWithError(w, http.StatusBadRequest, "Missing photo reference")
		return
	}
	if h.discovery == nil || !h.discovery.Configured() {
		respondWithError(w, http.StatusInternalServerError, "Google Places API key not configured")
		return
	}

	width, _ := strconv.Atoi(q.Get("maxwidth"))
	photo, err := h.discovery.Photo(r.Context(), ref, width)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("places photo fetch failed")
		respondWithError(w, http.StatusBadGateway, "Failed to fetch photo")
		return
	}
	defer photo.Body.Close()

	contentType := photo.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if photo.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(photo.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, photo.Body); err != nil {
		observability.LoggerFromContext(r.Context()).Debug().Err(err).Msg("photo stream interrupted")
	}
}
