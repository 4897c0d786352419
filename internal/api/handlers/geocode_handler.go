package handlers

import (
	"net/http"
	"strings"
)

// GeocodeHandler handles geocoding endpoints.
type GeocodeHandler struct {
	geocoder GeocodingService
}

// NewGeocodeHandler creates a new geocode handler.
func NewGeocodeHandler(geocoder GeocodingService) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// Geocode handles GET /api/geocode?q=...
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("q"))
	if text == "" {
		respondWithError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	res := h.geocoder.ForwardGeocode(r.Context(), text)
	switch {
	case res.IsFound():
		respondWithJSON(w, http.StatusOK, res.Value)
	case res.IsFailed():
		respondWithError(w, http.StatusBadGateway, "failed to geocode location")
	default:
		respondWithError(w, http.StatusNotFound, "location not found")
	}
}

// ReverseGeocode handles GET /api/geocode/reverse?lat=...&lng=...
func (h *GeocodeHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, lng, present, valid := pointParam(r)
	if !present {
		respondWithError(w, http.StatusBadRequest, "lat and lng parameters are required")
		return
	}
	if !valid {
		respondWithError(w, http.StatusBadRequest, "invalid lat or lng parameter")
		return
	}

	res := h.geocoder.ReverseGeocode(r.Context(), lat, lng)
	switch {
	case res.IsFound():
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"lat":   lat,
			"lng":   lng,
			"label": res.Value,
		})
	case res.IsFailed():
		respondWithError(w, http.StatusBadGateway, "failed to reverse geocode")
	default:
		respondWithError(w, http.StatusNotFound, "no locality found for coordinates")
	}
}
