package services_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
)

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Search(ctx context.Context, query, countryCodes string) ([]providers.GeocodeMatch, error) {
	args := m.Called(ctx, query, countryCodes)
	matches, _ := args.Get(0).([]providers.GeocodeMatch)
	return matches, args.Error(1)
}

func (m *mockGeocoder) Reverse(ctx context.Context, lat, lng float64) (*providers.ReverseAddress, error) {
	args := m.Called(ctx, lat, lng)
	addr, _ := args.Get(0).(*providers.ReverseAddress)
	return addr, args.Error(1)
}

type mockPlaces struct {
	mock.Mock
}

func (m *mockPlaces) Configured() bool {
	return m.Called().Bool(0)
}

func (m *mockPlaces) NearbySearch(ctx context.Context, req providers.NearbySearchRequest) (*providers.PlacesResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*providers.PlacesResponse)
	return resp, args.Error(1)
}

func (m *mockPlaces) TextSearch(ctx context.Context, req providers.TextSearchRequest) (*providers.PlacesResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*providers.PlacesResponse)
	return resp, args.Error(1)
}

func (m *mockPlaces) RawTextSearch(ctx context.Context, req providers.TextSearchRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *mockPlaces) Details(ctx context.Context, placeID string) (*providers.PlaceDetails, error) {
	args := m.Called(ctx, placeID)
	details, _ := args.Get(0).(*providers.PlaceDetails)
	return details, args.Error(1)
}

func (m *mockPlaces) Photo(ctx context.Context, reference string, maxWidth int) (*providers.PhotoContent, error) {
	args := m.Called(ctx, reference, maxWidth)
	photo, _ := args.Get(0).(*providers.PhotoContent)
	return photo, args.Error(1)
}

type mockEntityRepo struct {
	mock.Mock
}

func (m *mockEntityRepo) ListApproved(ctx context.Context) ([]*entities.Entity, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*entities.Entity)
	return list, args.Error(1)
}

func (m *mockEntityRepo) SearchByLocation(ctx context.Context, city, state string) ([]*entities.Entity, error) {
	args := m.Called(ctx, city, state)
	list, _ := args.Get(0).([]*entities.Entity)
	return list, args.Error(1)
}

func (m *mockEntityRepo) Submit(ctx context.Context, entity *entities.Entity) error {
	return m.Called(ctx, entity).Error(0)
}

func (m *mockEntityRepo) SaveDiscovered(ctx context.Context, entity *entities.Entity) error {
	return m.Called(ctx, entity).Error(0)
}

func (m *mockEntityRepo) ExistsByExternalPlaceID(ctx context.Context, placeID string) (bool, error) {
	args := m.Called(ctx, placeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockEntityRepo) ListMissingImages(ctx context.Context, limit int) ([]*entities.Entity, error) {
	args := m.Called(ctx, limit)
	list, _ := args.Get(0).([]*entities.Entity)
	return list, args.Error(1)
}

func (m *mockEntityRepo) UpdateImageURL(ctx context.Context, id, imageURL string) error {
	return m.Called(ctx, id, imageURL).Error(0)
}

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) ListByEntity(ctx context.Context, entityID string) ([]*entities.Review, error) {
	args := m.Called(ctx, entityID)
	list, _ := args.Get(0).([]*entities.Review)
	return list, args.Error(1)
}

func (m *mockReviewRepo) Create(ctx context.Context, review *entities.Review) error {
	return m.Called(ctx, review).Error(0)
}

type mockPosition struct {
	mock.Mock
}

func (m *mockPosition) CurrentPosition(ctx context.Context, opts providers.PositionOptions) (*providers.Position, error) {
	args := m.Called(ctx, opts)
	pos, _ := args.Get(0).(*providers.Position)
	return pos, args.Error(1)
}

// memoryCache is a map backed CacheProvider.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
