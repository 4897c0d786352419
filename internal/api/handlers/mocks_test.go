package handlers_test

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
)

type MockEntityService struct {
	mock.Mock
}

func (m *MockEntityService) ListApproved(ctx context.Context) []*entities.Entity {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*entities.Entity)
	return list
}

func (m *MockEntityService) SearchByLocation(ctx context.Context, city, state string) ([]*entities.Entity, error) {
	args := m.Called(ctx, city, state)
	list, _ := args.Get(0).([]*entities.Entity)
	return list, args.Error(1)
}

func (m *MockEntityService) Submit(ctx context.Context, entity *entities.Entity) (*entities.Entity, error) {
	args := m.Called(ctx, entity)
	out, _ := args.Get(0).(*entities.Entity)
	return out, args.Error(1)
}

func (m *MockEntityService) SaveDiscovered(ctx context.Context, entity *entities.Entity) (*entities.Entity, error) {
	args := m.Called(ctx, entity)
	out, _ := args.Get(0).(*entities.Entity)
	return out, args.Error(1)
}

func (m *MockEntityService) ListReviews(ctx context.Context, entityID string) ([]*entities.Review, error) {
	args := m.Called(ctx, entityID)
	list, _ := args.Get(0).([]*entities.Review)
	return list, args.Error(1)
}

func (m *MockEntityService) SubmitReview(ctx context.Context, review *entities.Review) (*entities.Review, error) {
	args := m.Called(ctx, review)
	out, _ := args.Get(0).(*entities.Review)
	return out, args.Error(1)
}

type MockDiscoveryService struct {
	mock.Mock
}

func (m *MockDiscoveryService) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockDiscoveryService) Discover(ctx context.Context, lat, lng float64, radiusMeters int) entities.Lookup[[]*entities.Entity] {
	return m.Called(ctx, lat, lng, radiusMeters).Get(0).(entities.Lookup[[]*entities.Entity])
}

func (m *MockDiscoveryService) PlaceDetails(ctx context.Context, placeID string) entities.Lookup[*entities.Entity] {
	return m.Called(ctx, placeID).Get(0).(entities.Lookup[*entities.Entity])
}

func (m *MockDiscoveryService) Enrich(ctx context.Context, req services.EnrichRequest) (services.EnrichmentResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(services.EnrichmentResult), args.Error(1)
}

func (m *MockDiscoveryService) Photo(ctx context.Context, reference string, maxWidth int) (*providers.PhotoContent, error) {
	args := m.Called(ctx, reference, maxWidth)
	photo, _ := args.Get(0).(*providers.PhotoContent)
	return photo, args.Error(1)
}

type MockGeocodingService struct {
	mock.Mock
}

func (m *MockGeocodingService) ForwardGeocode(ctx context.Context, text string) entities.Lookup[entities.Location] {
	return m.Called(ctx, text).Get(0).(entities.Lookup[entities.Location])
}

func (m *MockGeocodingService) ReverseGeocode(ctx context.Context, lat, lng float64) entities.Lookup[string] {
	return m.Called(ctx, lat, lng).Get(0).(entities.Lookup[string])
}

type MockPlacesProvider struct {
	mock.Mock
}

func (m *MockPlacesProvider) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockPlacesProvider) NearbySearch(ctx context.Context, req providers.NearbySearchRequest) (*providers.PlacesResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*providers.PlacesResponse)
	return resp, args.Error(1)
}

func (m *MockPlacesProvider) TextSearch(ctx context.Context, req providers.TextSearchRequest) (*providers.PlacesResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*providers.PlacesResponse)
	return resp, args.Error(1)
}

func (m *MockPlacesProvider) RawTextSearch(ctx context.Context, req providers.TextSearchRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *MockPlacesProvider) Details(ctx context.Context, placeID string) (*providers.PlaceDetails, error) {
	args := m.Called(ctx, placeID)
	details, _ := args.Get(0).(*providers.PlaceDetails)
	return details, args.Error(1)
}

func (m *MockPlacesProvider) Photo(ctx context.Context, reference string, maxWidth int) (*providers.PhotoContent, error) {
	args := m.Called(ctx, reference, maxWidth)
	photo, _ := args.Get(0).(*providers.PhotoContent)
	return photo, args.Error(1)
}
