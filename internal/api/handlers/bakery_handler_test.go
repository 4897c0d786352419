package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/breadfindr/backend/internal/api/handlers"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/breadfindr/backend/pkg/errors"
)

type listBody struct {
	Bakeries        []*entities.Entity     `json:"bakeries"`
	Rank            map[string]int         `json:"rank"`
	Total           int                    `json:"total"`
	Filters         entities.SearchFilters `json:"filters"`
	LocationError   string                 `json:"location_error"`
	DiscoveredCount int                    `json:"discovered_count"`
}

func directory() []*entities.Entity {
	return []*entities.Entity{
		{
			ID: "db-1", Name: "Crust & Crumb", Category: entities.CategoryStorefront,
			City: "Portland", State: "OR", Rating: 4.9, Verified: true,
			Coordinates: &entities.Coordinates{Lat: 45.60, Lng: -122.60},
		},
		{
			ID: "db-2", Name: "Saturday Market Rye", Category: entities.CategoryMarket,
			City: "Portland", State: "OR", Rating: 4.5,
			Coordinates: &entities.Coordinates{Lat: 45.51, Lng: -122.60},
		},
		{
			ID: "db-3", Name: "Kitchen Table Loaves", Category: entities.CategoryHomeBaker,
			City: "Bend", State: "OR", Rating: 5,
		},
	}
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) listBody {
	t.Helper()
	var body listBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func listIDs(list []*entities.Entity) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.ID)
	}
	return out
}

func TestBakeryHandler_List_DefaultRanking(t *testing.T) {
	svc := new(MockEntityService)
	svc.On("ListApproved", mock.Anything).Return(directory())
	handler := handlers.NewBakeryHandler(svc, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bakeries", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeList(t, w)
	assert.Equal(t, []string{"db-1", "db-3", "db-2"}, listIDs(body.Bakeries))
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 0, body.Rank["db-1"])
	assert.Equal(t, entities.SortByRating, body.Filters.SortBy)
}

func TestBakeryHandler_List_QueryAndCategory(t *testing.T) {
	svc := new(MockEntityService)
	svc.On("ListApproved", mock.Anything).Return(directory())
	handler := handlers.NewBakeryHandler(svc, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bakeries?q=portland&category=market", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"db-2"}, listIDs(decodeList(t, w).Bakeries))
}

func TestBakeryHandler_List_RejectsBadFacets(t *testing.T) {
	handler := handlers.NewBakeryHandler(new(MockEntityService), nil, nil)

	for _, target := range []string{
		"/api/bakeries?category=cafe",
		"/api/bakeries?sort=price",
		"/api/bakeries?radius=-4",
		"/api/bakeries?lat=91&lng=0",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		handler.List(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestBakeryHandler_List_ReferenceSortsByDistance(t *testing.T) {
	svc := new(MockEntityService)
	svc.On("ListApproved", mock.Anything).Return(directory())
	handler := handlers.NewBakeryHandler(svc, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bakeries?lat=45.50&lng=-122.60", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeList(t, w)
	assert.Equal(t, entities.SortByDistance, body.Filters.SortBy)
	// db-3 has no coordinates: kept by the radius filter, ranked last.
	assert.Equal(t, []string{"db-2", "db-1", "db-3"}, listIDs(body.Bakeries))
	require.NotNil(t, body.Bakeries[0].Distance)
	assert.Nil(t, body.Bakeries[2].Distance)
}

func TestBakeryHandler_List_ExplicitSortWins(t *testing.T) {
	svc := new(MockEntityService)
	svc.On("ListApproved", mock.Anything).Return(directory())
	handler := handlers.NewBakeryHandler(svc, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bakeries?lat=45.50&lng=-122.60&sort=name", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"db-1", "db-3", "db-2"}, listIDs(decodeList(t, w).Bakeries))
}

func TestBakeryHandler_List_LocationErrors(t *testing.T) {
	tests := []struct {
		name    string
		result  entities.Lookup[entities.Location]
		message string
	}{
		{"not found", entities.NotFound[entities.Location](), services.LocationNotFoundMessage},
		{"failed", entities.Failed[entities.Location](errors.New("timeout")), services.LocationLookupFailedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockEntityService)
			svc.On("ListApproved", mock.Anything).Return(directory())
			geocoder := new(MockGeocodingService)
			geocoder.On("ForwardGeocode", mock.Anything, "atlantis").Return(tt.result)
			handler := handlers.NewBakeryHandler(svc, nil, geocoder)

			req := httptest.NewRequest(http.MethodGet, "/api/bakeries?location=atlantis", nil)
			w := httptest.NewRecorder()
			handler.List(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			body := decodeList(t, w)
			assert.Equal(t, tt.message, body.LocationError)
			assert.Nil(t, body.Filters.Reference)
			assert.Len(t, body.Bakeries, 3)
		})
	}
}

func TestBakeryHandler_List_DiscoverMergesUnknownPlaces(t *testing.T) {
	svc := new(MockEntityService)
	svc.On("ListApproved", mock.Anything).Return(directory())

	known := discovered("p1", "Crust & Crumb")
	known.Coordinates = &entities.Coordinates{Lat: 45.6001, Lng: -122.6001}
	fresh := discovered("p2", "Oven Door")
	fresh.Coordinates = &entities.Coordinates{Lat: 45.505, Lng: -122.60}

	geocoder := new(MockGeocodingService)
	geocoder.On("ForwardGeocode", mock.Anything, "portland").
		Return(entities.Found(entities.Location{Lat: 45.50, Lng: -122.60, Label: "Portland, OR"}))
	discovery := new(MockDiscoveryService)
	discovery.On("Configured").Return(true)
	discovery.On("Discover", mock.Anything, 45.50, -122.60, 16093).
		Return(entities.Found([]*entities.Entity{known, fresh}))
	handler := handlers.NewBakeryHandler(svc, discovery, geocoder)

	req := httptest.NewRequest(http.MethodGet, "/api/bakeries?location=portland&radius=10&discover=true", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeList(t, w)
	assert.Equal(t, 1, body.DiscoveredCount)
	assert.Equal(t, []string{"google_p2", "db-2", "db-1", "db-3"}, listIDs(body.Bakeries))
	assert.Equal(t, entities.ProvenanceDiscovered, body.Bakeries[0].Provenance)
	discovery.AssertExpectations(t)
}

func TestBakeryHandler_Submit(t *testing.T) {
	svc := new(MockEntityService)
	svc.On("Submit", mock.Anything, mock.MatchedBy(func(e *entities.Entity) bool {
		return e.Name == "Rise Up" && e.Category == entities.CategoryHomeBaker
	})).Return(&entities.Entity{ID: "new-1", Name: "Rise Up", Provenance: entities.ProvenanceUserSubmitted}, nil)
	handler := handlers.NewBakeryHandler(svc, nil, nil)

	body := `{"name":"Rise Up","category":"home_baker","city":"Eugene","state":"OR"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bakeries", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.Submit(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, "Thanks! Your submission is pending review.", resp["message"])
	svc.AssertExpectations(t)
}

func TestBakeryHandler_Submit_Invalid(t *testing.T) {
	svc := new(MockEntityService)
	svc.On("Submit", mock.Anything, mock.Anything).Return(nil, apperrors.NewValidationError("city is required"))
	handler := handlers.NewBakeryHandler(svc, nil, nil)

	tests := []struct {
		body    string
		message string
	}{
		{`{"name":`, "invalid request body"},
		{`{"name":"x","category":"all"}`, "category must be one of storefront, market, home_baker"},
		{`{"name":"x","category":"storefront","state":"OR"}`, "city is required"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/bakeries", strings.NewReader(tt.body))
		w := httptest.NewRecorder()
		handler.Submit(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, tt.body)
		assert.Equal(t, tt.message, decodeBody(t, w)["error"], tt.body)
	}
}

func TestBakeryHandler_SaveDiscovered_Conflict(t *testing.T) {
	svc := new(MockEntityService)
	svc.On("SaveDiscovered", mock.Anything, mock.MatchedBy(func(e *entities.Entity) bool {
		return e.ExternalPlaceID == "p1" && e.Provenance == entities.ProvenanceDiscovered
	})).Return(nil, apperrors.NewConflictError(entities.AlreadySavedMessage))
	handler := handlers.NewBakeryHandler(svc, nil, nil)

	body := `{"id":"google_p1","name":"Crust","category":"storefront","city":"Portland","state":"OR"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bakeries/discovered", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.SaveDiscovered(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, entities.AlreadySavedMessage, decodeBody(t, w)["error"])
	svc.AssertExpectations(t)
}

func TestBakeryHandler_SaveDiscovered_Created(t *testing.T) {
	svc := new(MockEntityService)
	svc.On("SaveDiscovered", mock.Anything, mock.Anything).
		Return(&entities.Entity{ID: "uuid-1", Name: "Crust", ExternalPlaceID: "p1"}, nil)
	handler := handlers.NewBakeryHandler(svc, nil, nil)

	body := `{"id":"google_p1","name":"Crust","category":"storefront","city":"Portland","state":"OR","external_place_id":"p1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bakeries/discovered", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.SaveDiscovered(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Saved to the directory. It will appear once approved.", decodeBody(t, w)["message"])
}

func TestBakeryHandler_Reviews(t *testing.T) {
	svc := new(MockEntityService)
	svc.On("ListReviews", mock.Anything, "db-1").Return([]*entities.Review{
		{ID: "r1", EntityID: "db-1", ReviewerName: "Ana", Rating: 5},
	}, nil)
	svc.On("SubmitReview", mock.Anything, mock.MatchedBy(func(r *entities.Review) bool {
		return r.EntityID == "db-1" && r.Rating == 4
	})).Return(&entities.Review{ID: "r2", EntityID: "db-1", ReviewerName: "Bo", Rating: 4}, nil)
	handler := handlers.NewBakeryHandler(svc, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bakeries/db-1/reviews", nil)
	req.SetPathValue("id", "db-1")
	w := httptest.NewRecorder()
	handler.ListReviews(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["total"])

	req = httptest.NewRequest(http.MethodPost, "/api/bakeries/db-1/reviews", strings.NewReader(`{"reviewer_name":"Bo","rating":4}`))
	req.SetPathValue("id", "db-1")
	w = httptest.NewRecorder()
	handler.SubmitReview(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "r2", decodeBody(t, w)["id"])
	svc.AssertExpectations(t)
}

func TestBakeryHandler_SearchByLocation_Validation(t *testing.T) {
	svc := new(MockEntityService)
	svc.On("SearchByLocation", mock.Anything, "", "").
		Return(nil, apperrors.NewValidationError("city or state is required"))
	handler := handlers.NewBakeryHandler(svc, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bakeries/search", nil)
	w := httptest.NewRecorder()
	handler.SearchByLocation(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
