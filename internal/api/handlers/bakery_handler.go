package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/pkg/geo"
)

const maxBodyBytes = 1 << 20

// BakeryHandler handles the directory endpoints.
type BakeryHandler struct {
	entities  EntityService
	discovery DiscoveryService
	geocoder  GeocodingService
	identity  *services.IdentityResolver
}

// NewBakeryHandler creates a new bakery handler. discovery and geocoder
// may be nil.
func NewBakeryHandler(entitySvc EntityService, discovery DiscoveryService, geocoder GeocodingService) *BakeryHandler {
	return &BakeryHandler{
		entities:  entitySvc,
		discovery: discovery,
		geocoder:  geocoder,
		identity:  services.NewIdentityResolver(0),
	}
}

type listResponse struct {
	Bakeries        []*entities.Entity     `json:"bakeries"`
	Rank            map[string]int         `json:"rank"`
	Total           int                    `json:"total"`
	Filters         entities.SearchFilters `json:"filters"`
	LocationError   string                 `json:"location_error,omitempty"`
	DiscoveredCount int                    `json:"discovered_count"`
}

// List handles GET /api/bakeries. It runs the ranking pipeline over the
// directory and, with discover=true and a reference point, nearby
// discovered places.
func (h *BakeryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filters := entities.DefaultFilters()
	filters.Query = q.Get("q")

	category, err := entities.ParseCategory(q.Get("category"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	filters.Category = category

	sortGiven := strings.TrimSpace(q.Get("sort")) != ""
	sortBy, err := entities.ParseSortKey(q.Get("sort"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	filters.SortBy = sortBy

	if raw := strings.TrimSpace(q.Get("radius")); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			respondWithError(w, http.StatusBadRequest, "radius must be a positive number of miles")
			return
		}
		filters.RadiusMiles = radius
	}

	var locationError string
	lat, lng, present, valid := pointParam(r)
	switch {
	case present && !valid:
		respondWithError(w, http.StatusBadRequest, "invalid lat or lng parameter")
		return
	case present:
		filters.Reference = &entities.Location{Lat: lat, Lng: lng}
	case strings.TrimSpace(q.Get("location")) != "" && h.geocoder != nil:
		res := h.geocoder.ForwardGeocode(ctx, q.Get("location"))
		switch {
		case res.IsFound():
			loc := res.Value
			filters.Reference = &loc
		case res.IsFailed():
			locationError = services.LocationLookupFailedMessage
		default:
			locationError = services.LocationNotFoundMessage
		}
	}
	if filters.Reference != nil && !sortGiven {
		filters.SortBy = entities.SortByDistance
	}

	persisted := h.entities.ListApproved(ctx)

	var discovered []*entities.Entity
	wantDiscover, _ := strconv.ParseBool(q.Get("discover"))
	if wantDiscover && filters.Reference != nil && h.discovery != nil && h.discovery.Configured() {
		meters := int(geo.MilesToMeters(filters.RadiusMiles))
		if found, ok := h.discovery.Discover(ctx, filters.Reference.Lat, filters.Reference.Lng, meters).Get(); ok {
			discovered = h.identity.ExcludeKnown(persisted, found)
		}
	}

	result := services.RunPipeline(services.PipelineInput{
		Persisted:  persisted,
		Discovered: discovered,
		Filters:    filters,
	})

	respondWithJSON(w, http.StatusOK, listResponse{
		Bakeries:        result.Entities,
		Rank:            result.Rank,
		Total:           result.Len(),
		Filters:         filters,
		LocationError:   locationError,
		DiscoveredCount: len(discovered),
	})
}

// SearchByLocation handles GET /api/bakeries/search?city=&state=
func (h *BakeryHandler) SearchByLocation(w http.ResponseWriter, r *http.Request) {
	list, err := h.entities.SearchByLocation(r.Context(), r.URL.Query().Get("city"), r.URL.Query().Get("state"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bakeries": list,
		"total":    len(list),
	})
}

// Submit handles POST /api/bakeries
func (h *BakeryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	entity, ok := decodeEntity(w, r)
	if !ok {
		return
	}

	saved, err := h.entities.Submit(r.Context(), entity)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"bakery":  saved,
		"message": "Thanks! Your submission is pending review.",
	})
}

// SaveDiscovered handles POST /api/bakeries/discovered
func (h *BakeryHandler) SaveDiscovered(w http.ResponseWriter, r *http.Request) {
	entity, ok := decodeEntity(w, r)
	if !ok {
		return
	}
	entity.Provenance = entities.ProvenanceDiscovered
	if entity.ExternalPlaceID == "" && strings.HasPrefix(entity.ID, entities.DiscoveredIDPrefix) {
		entity.ExternalPlaceID = strings.TrimPrefix(entity.ID, entities.DiscoveredIDPrefix)
	}

	saved, err := h.entities.SaveDiscovered(r.Context(), entity)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"bakery":  saved,
		"message": "Saved to the directory. It will appear once approved.",
	})
}

// ListReviews handles GET /api/bakeries/{id}/reviews
func (h *BakeryHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.entities.ListReviews(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"total":   len(reviews),
	})
}

// SubmitReview handles POST /api/bakeries/{id}/reviews
func (h *BakeryHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var review entities.Review
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	review.EntityID = r.PathValue("id")

	saved, err := h.entities.SubmitReview(r.Context(), &review)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, saved)
}

// decodeEntity reads an entity body, accepting the store's category labels.
func decodeEntity(w http.ResponseWriter, r *http.Request) (*entities.Entity, bool) {
	var entity entities.Entity
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	category, err := entities.ParseCategory(string(entity.Category))
	if err != nil || category == entities.CategoryAll {
		respondWithError(w, http.StatusBadRequest, "category must be one of storefront, market, home_baker")
		return nil, false
	}
	entity.Category = category
	return &entity, true
}
