package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/breadfindr/backend/internal/api/handlers"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
)

func discovered(id, name string) *entities.Entity {
	return &entities.Entity{
		ID:              entities.DiscoveredIDPrefix + id,
		Name:            name,
		Category:        entities.CategoryStorefront,
		City:            "Portland",
		State:           "OR",
		Provenance:      entities.ProvenanceDiscovered,
		ExternalPlaceID: id,
	}
}

func TestDiscoverHandler_Discover(t *testing.T) {
	tests := []struct {
		name   string
		result entities.Lookup[[]*entities.Entity]
		status int
		count  int
	}{
		{"found", entities.Found([]*entities.Entity{discovered("a", "Crust"), discovered("b", "Crumb")}), http.StatusOK, 2},
		{"not found", entities.NotFound[[]*entities.Entity](), http.StatusOK, 0},
		{"failed", entities.Failed[[]*entities.Entity](errors.New("quota")), http.StatusBadGateway, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discovery := new(MockDiscoveryService)
			discovery.On("Discover", mock.Anything, 45.5, -122.6, 8000).Return(tt.result)
			handler := handlers.NewDiscoverHandler(discovery)

			req := httptest.NewRequest(http.MethodGet, "/api/discover?lat=45.5&lng=-122.6&radius=8000", nil)
			w := httptest.NewRecorder()
			handler.Discover(w, req)

			assert.Equal(t, tt.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, string(tt.result.Status), body["status"])
			assert.Len(t, body["bakeries"], tt.count)
		})
	}
}

func TestDiscoverHandler_Discover_RequiresPoint(t *testing.T) {
	handler := handlers.NewDiscoverHandler(new(MockDiscoveryService))

	for _, target := range []string{"/api/discover", "/api/discover?lat=45", "/api/discover?lat=45&lng=-122&radius=far"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		handler.Discover(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestDiscoverHandler_PlaceDetails_StripsPrefix(t *testing.T) {
	discovery := new(MockDiscoveryService)
	discovery.On("PlaceDetails", mock.Anything, "abc").Return(entities.Found(discovered("abc", "Crust")))
	handler := handlers.NewDiscoverHandler(discovery)

	req := httptest.NewRequest(http.MethodGet, "/api/discover/google_abc", nil)
	req.SetPathValue("placeId", "google_abc")
	w := httptest.NewRecorder()
	handler.PlaceDetails(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Crust", decodeBody(t, w)["name"])
	discovery.AssertExpectations(t)
}

func TestDiscoverHandler_PlaceDetails_NotFound(t *testing.T) {
	discovery := new(MockDiscoveryService)
	discovery.On("PlaceDetails", mock.Anything, "gone").Return(entities.NotFound[*entities.Entity]())
	handler := handlers.NewDiscoverHandler(discovery)

	req := httptest.NewRequest(http.MethodGet, "/api/discover/gone", nil)
	req.SetPathValue("placeId", "gone")
	w := httptest.NewRecorder()
	handler.PlaceDetails(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
