package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
)

// DiscoverHandler exposes place discovery directly.
type DiscoverHandler struct {
	discovery DiscoveryService
}

// NewDiscoverHandler creates a new discover handler.
func NewDiscoverHandler(discovery DiscoveryService) *DiscoverHandler {
	return &DiscoverHandler{discovery: discovery}
}

type discoverResponse struct {
	Status   entities.LookupStatus `json:"status"`
	Bakeries []*entities.Entity    `json:"bakeries"`
	Error    string                `json:"error,omitempty"`
}

// Discover handles GET /api/discover?lat=&lng=&radius=
func (h *DiscoverHandler) Discover(w http.ResponseWriter, r *http.Request) {
	lat, lng, present, valid := pointParam(r)
	if !present || !valid {
		respondWithError(w, http.StatusBadRequest, "valid lat and lng parameters are required")
		return
	}
	radius := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("radius")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid radius parameter")
			return
		}
		radius = v
	}

	res := h.discovery.Discover(r.Context(), lat, lng, radius)
	switch {
	case res.IsFound():
		respondWithJSON(w, http.StatusOK, discoverResponse{Status: res.Status, Bakeries: res.Value})
	case res.IsFailed():
		respondWithJSON(w, http.StatusBadGateway, discoverResponse{
			Status:   res.Status,
			Bakeries: []*entities.Entity{},
			Error:    "discovery is unavailable",
		})
	default:
		respondWithJSON(w, http.StatusOK, discoverResponse{Status: res.Status, Bakeries: []*entities.Entity{}})
	}
}

// PlaceDetails handles GET /api/discover/{placeId}
func (h *DiscoverHandler) PlaceDetails(w http.ResponseWriter, r *http.Request) {
	placeID := strings.TrimPrefix(r.PathValue("placeId"), entities.DiscoveredIDPrefix)
	if placeID == "" {
		respondWithError(w, http.StatusBadRequest, "place ID is required")
		return
	}

	res := h.discovery.PlaceDetails(r.Context(), placeID)
	switch {
	case res.IsFound():
		respondWithJSON(w, http.StatusOK, res.Value)
	case res.IsFailed():
		respondWithError(w, http.StatusBadGateway, "failed to fetch place details")
	default:
		respondWithError(w, http.StatusNotFound, "place not found")
	}
}
