package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
)

type listerFunc func(ctx context.Context) []*entities.Entity

func (f listerFunc) ListApproved(ctx context.Context) []*entities.Entity { return f(ctx) }

type fakeLocations struct {
	mu       sync.Mutex
	forward  map[string]entities.Lookup[entities.Location]
	gates    map[string]chan struct{}
	calls    []string
	reverse  entities.Lookup[string]
	position entities.Location
	posErr   error
}

func newFakeLocations() *fakeLocations {
	return &fakeLocations{
		forward: map[string]entities.Lookup[entities.Location]{},
		gates:   map[string]chan struct{}{},
		reverse: entities.NotFound[string](),
	}
}

func (f *fakeLocations) ForwardGeocode(_ context.Context, text string) entities.Lookup[entities.Location] {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	gate := f.gates[text]
	res, ok := f.forward[text]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if !ok {
		return entities.NotFound[entities.Location]()
	}
	return res
}

func (f *fakeLocations) ReverseGeocode(context.Context, float64, float64) entities.Lookup[string] {
	return f.reverse
}

func (f *fakeLocations) CurrentPosition(context.Context) (entities.Location, error) {
	return f.position, f.posErr
}

func (f *fakeLocations) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeDiscovery struct {
	configured bool
	result     entities.Lookup[[]*entities.Entity]
	gate       chan struct{}
	calls      atomic.Int32
}

func (f *fakeDiscovery) Configured() bool { return f.configured }

func (f *fakeDiscovery) Discover(context.Context, float64, float64, int) entities.Lookup[[]*entities.Entity] {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.result
}

var portland = entities.Location{Lat: 45.5152, Lng: -122.6784, Label: "Portland, Oregon"}

func persistedSet() listerFunc {
	return func(context.Context) []*entities.Entity {
		return []*entities.Entity{
			{ID: "db-1", Name: "Ken's Artisan Bakery", City: "Portland", Category: entities.CategoryStorefront, Rating: 4.8, Verified: true,
				Coordinates: &entities.Coordinates{Lat: 45.5260, Lng: -122.6980}},
			{ID: "db-2", Name: "Seattle Sourdough", City: "Seattle", Category: entities.CategoryStorefront, Rating: 4.9, Verified: true,
				Coordinates: &entities.Coordinates{Lat: 47.6062, Lng: -122.3321}},
			{ID: "db-3", Name: "Cottage Loaves", City: "Portland", Category: entities.CategoryHomeBaker, Rating: 4.2},
		}
	}
}

func settle(t *testing.T, c *services.FilterController) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Settle(ctx))
}

func TestFilterController_SynchronousFilters(t *testing.T) {
	c := services.NewFilterController(persistedSet(), newFakeLocations(), nil)
	defer c.Close()
	c.Load(context.Background())

	assert.Equal(t, []string{"db-2", "db-1", "db-3"}, ids(c.Snapshot().Result.Entities))

	c.SetQuery("portland")
	assert.Equal(t, []string{"db-1", "db-3"}, ids(c.Snapshot().Result.Entities))

	c.SetCategory(entities.CategoryHomeBaker)
	assert.Equal(t, []string{"db-3"}, ids(c.Snapshot().Result.Entities))

	c.SetCategory(entities.CategoryAll)
	c.SetSortBy(entities.SortByName)
	assert.Equal(t, []string{"db-3", "db-1"}, ids(c.Snapshot().Result.Entities))
}

func TestFilterController_LocationTextDebouncedAndLatestWins(t *testing.T) {
	locs := newFakeLocations()
	locs.forward["Portland"] = entities.Found(portland)

	disc := &fakeDiscovery{configured: true, result: entities.Found([]*entities.Entity{
		{ID: "google_dup", Name: "Ken's Artisan Bakery", City: "Portland", Provenance: entities.ProvenanceDiscovered, ExternalPlaceID: "dup",
			Coordinates: &entities.Coordinates{Lat: 45.5261, Lng: -122.6981}},
		{ID: "google_new", Name: "Little T Baker", City: "Portland", Provenance: entities.ProvenanceDiscovered, ExternalPlaceID: "new",
			Coordinates: &entities.Coordinates{Lat: 45.5050, Lng: -122.6530}},
	})}

	c := services.NewFilterController(persistedSet(), locs, disc, services.WithDebounce(20*time.Millisecond))
	defer c.Close()
	c.Load(context.Background())

	c.SetLocationText("P")
	c.SetLocationText("Port")
	c.SetLocationText("Portland")
	settle(t, c)

	assert.Equal(t, []string{"Portland"}, locs.Calls())

	state := c.Snapshot()
	require.NotNil(t, state.Filters.Reference)
	assert.Equal(t, "Portland, Oregon", state.Filters.Reference.Label)
	assert.Equal(t, entities.SortByDistance, state.Filters.SortBy)
	assert.Empty(t, state.LocationError)
	assert.False(t, state.Discovering)
	assert.Equal(t, 1, state.DiscoveredCount)

	// Seattle is beyond 25 miles; the unplaced home baker stays.
	assert.Equal(t, []string{"db-1", "google_new", "db-3"}, ids(state.Result.Entities))
	for _, e := range state.Result.Entities[:2] {
		assert.NotNil(t, e.Distance)
	}
}

func TestFilterController_StaleGeocodeIsDiscarded(t *testing.T) {
	locs := newFakeLocations()
	gate := make(chan struct{})
	locs.gates["Seattle"] = gate
	locs.forward["Seattle"] = entities.Found(entities.Location{Lat: 47.6062, Lng: -122.3321, Label: "Seattle"})
	locs.forward["Portland"] = entities.Found(portland)

	c := services.NewFilterController(persistedSet(), locs, nil, services.WithDebounce(time.Millisecond))
	defer c.Close()
	c.Load(context.Background())

	c.SetLocationText("Seattle")
	require.Eventually(t, func() bool { return len(locs.Calls()) == 1 }, time.Second, time.Millisecond)

	c.SetLocationText("Portland")
	require.Eventually(t, func() bool { return len(locs.Calls()) == 2 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		ref := c.Snapshot().Filters.Reference
		return ref != nil && ref.Label == "Portland, Oregon"
	}, time.Second, time.Millisecond)

	close(gate)
	settle(t, c)

	assert.Equal(t, "Portland, Oregon", c.Snapshot().Filters.Reference.Label)
}

func TestFilterController_GeocodeFailureSurfacesError(t *testing.T) {
	locs := newFakeLocations()
	locs.forward["Portland"] = entities.Found(portland)
	locs.forward["down"] = entities.Failed[entities.Location](errors.New("502"))

	c := services.NewFilterController(persistedSet(), locs, nil, services.WithDebounce(time.Millisecond))
	defer c.Close()
	c.Load(context.Background())

	c.SetLocationText("Portland")
	settle(t, c)
	require.NotNil(t, c.Snapshot().Filters.Reference)

	c.SetLocationText("zzzz-not-a-place")
	settle(t, c)
	state := c.Snapshot()
	assert.Equal(t, services.LocationNotFoundMessage, state.LocationError)
	assert.Nil(t, state.Filters.Reference)
	assert.Len(t, state.Result.Entities, 3)
	for _, e := range state.Result.Entities {
		assert.Nil(t, e.Distance)
	}

	c.SetLocationText("down")
	settle(t, c)
	assert.Equal(t, services.LocationLookupFailedMessage, c.Snapshot().LocationError)
}

func TestFilterController_EmptyLocationClearsImmediately(t *testing.T) {
	locs := newFakeLocations()
	locs.forward["Portland"] = entities.Found(portland)

	c := services.NewFilterController(persistedSet(), locs, nil, services.WithDebounce(time.Millisecond))
	defer c.Close()
	c.Load(context.Background())

	c.SetLocationText("Portland")
	settle(t, c)
	c.SetLocationText("   ")

	state := c.Snapshot()
	assert.Nil(t, state.Filters.Reference)
	assert.Empty(t, state.LocationError)
	assert.Len(t, locs.Calls(), 1)
}

func TestFilterController_DiscoveringFlag(t *testing.T) {
	locs := newFakeLocations()
	locs.forward["Portland"] = entities.Found(portland)
	disc := &fakeDiscovery{configured: true, gate: make(chan struct{}), result: entities.NotFound[[]*entities.Entity]()}

	c := services.NewFilterController(persistedSet(), locs, disc, services.WithDebounce(time.Millisecond))
	defer c.Close()
	c.Load(context.Background())

	c.SetLocationText("Portland")
	require.Eventually(t, func() bool { return c.Snapshot().Discovering }, time.Second, time.Millisecond)

	close(disc.gate)
	settle(t, c)
	assert.False(t, c.Snapshot().Discovering)
	assert.Zero(t, c.Snapshot().DiscoveredCount)
}

func TestFilterController_DiscoverySkippedWhenNotConfigured(t *testing.T) {
	locs := newFakeLocations()
	locs.forward["Portland"] = entities.Found(portland)
	disc := &fakeDiscovery{configured: false}

	c := services.NewFilterController(persistedSet(), locs, disc, services.WithDebounce(time.Millisecond))
	defer c.Close()

	c.SetLocationText("Portland")
	settle(t, c)
	assert.Zero(t, disc.calls.Load())
	assert.False(t, c.Snapshot().Discovering)
}

func TestFilterController_UseCurrentLocation(t *testing.T) {
	t.Run("success with reverse label", func(t *testing.T) {
		locs := newFakeLocations()
		locs.position = entities.Location{Lat: portland.Lat, Lng: portland.Lng}
		locs.reverse = entities.Found("Portland, Oregon")

		c := services.NewFilterController(persistedSet(), locs, nil)
		defer c.Close()
		c.Load(context.Background())
		c.SetSortBy(entities.SortByName)

		require.NoError(t, c.UseCurrentLocation(context.Background()))
		state := c.Snapshot()
		assert.Equal(t, "Portland, Oregon", state.Filters.Reference.Label)
		assert.Equal(t, "Portland, Oregon", state.LocationText)
		assert.Equal(t, entities.SortByDistance, state.Filters.SortBy)
	})

	t.Run("reverse miss falls back to generic label", func(t *testing.T) {
		locs := newFakeLocations()
		locs.position = entities.Location{Lat: 1, Lng: 1}

		c := services.NewFilterController(persistedSet(), locs, nil)
		defer c.Close()
		require.NoError(t, c.UseCurrentLocation(context.Background()))
		assert.Equal(t, services.CurrentLocationLabel, c.Snapshot().Filters.Reference.Label)
	})

	t.Run("denied surfaces classified message", func(t *testing.T) {
		locs := newFakeLocations()
		posErr := &services.PositionError{Kind: services.PositionPermissionDenied}
		locs.posErr = posErr

		c := services.NewFilterController(persistedSet(), locs, nil)
		defer c.Close()
		err := c.UseCurrentLocation(context.Background())

		assert.ErrorIs(t, err, posErr)
		assert.Equal(t, posErr.Message(), c.Snapshot().LocationError)
		assert.Nil(t, c.Snapshot().Filters.Reference)
	})
}

func TestFilterController_SubscribeAndClose(t *testing.T) {
	c := services.NewFilterController(persistedSet(), newFakeLocations(), nil, services.WithDebounce(time.Hour))

	var seen []uint64
	unsubscribe := c.Subscribe(func(s services.FilterState) { seen = append(seen, s.Version) })
	c.Load(context.Background())
	c.SetQuery("bread")
	unsubscribe()
	c.SetQuery("loaf")

	require.Len(t, seen, 2)
	assert.Less(t, seen[0], seen[1])

	c.SetLocationText("Somewhere")
	c.Close()
	settle(t, c)
}
