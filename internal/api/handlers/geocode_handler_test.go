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

func TestGeocodeHandler_Geocode(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		result entities.Lookup[entities.Location]
		status int
	}{
		{"found", "portland", entities.Found(entities.Location{Lat: 45.52, Lng: -122.68, Label: "Portland, OR"}), http.StatusOK},
		{"not found", "nowhere", entities.NotFound[entities.Location](), http.StatusNotFound},
		{"failed", "portland", entities.Failed[entities.Location](errors.New("timeout")), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geocoder := new(MockGeocodingService)
			geocoder.On("ForwardGeocode", mock.Anything, tt.query).Return(tt.result)
			handler := handlers.NewGeocodeHandler(geocoder)

			req := httptest.NewRequest(http.MethodGet, "/api/geocode?q="+tt.query, nil)
			w := httptest.NewRecorder()
			handler.Geocode(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				body := decodeBody(t, w)
				assert.Equal(t, "Portland, OR", body["label"])
				assert.InDelta(t, 45.52, body["lat"], 1e-9)
			}
		})
	}
}

func TestGeocodeHandler_Geocode_MissingQuery(t *testing.T) {
	handler := handlers.NewGeocodeHandler(new(MockGeocodingService))

	req := httptest.NewRequest(http.MethodGet, "/api/geocode?q=%20", nil)
	w := httptest.NewRecorder()
	handler.Geocode(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeocodeHandler_ReverseGeocode(t *testing.T) {
	geocoder := new(MockGeocodingService)
	geocoder.On("ReverseGeocode", mock.Anything, 45.5, -122.6).Return(entities.Found("Portland, OR"))
	handler := handlers.NewGeocodeHandler(geocoder)

	req := httptest.NewRequest(http.MethodGet, "/api/geocode/reverse?lat=45.5&lng=-122.6", nil)
	w := httptest.NewRecorder()
	handler.ReverseGeocode(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Portland, OR", decodeBody(t, w)["label"])
}

func TestGeocodeHandler_ReverseGeocode_BadInput(t *testing.T) {
	handler := handlers.NewGeocodeHandler(new(MockGeocodingService))

	for _, target := range []string{
		"/api/geocode/reverse",
		"/api/geocode/reverse?lat=95&lng=0",
		"/api/geocode/reverse?lat=abc&lng=0",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		handler.ReverseGeocode(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}
