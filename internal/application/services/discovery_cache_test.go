package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestDiscoveryKey_RoundsToThreeDecimals(t *testing.T) {
	assert.Equal(t, "37.775,-122.419,40000", services.DiscoveryKey(37.77491, -122.41941, 40000))
	assert.Equal(t, services.DiscoveryKey(37.77449, -122.4194, 5000), services.DiscoveryKey(37.7741, -122.41939, 5000))
	assert.NotEqual(t, services.DiscoveryKey(37.7749, -122.4194, 5000), services.DiscoveryKey(37.7749, -122.4194, 8000))
}

func TestDiscoveryCache_TTL(t *testing.T) {
	clock := newFakeClock()
	cache := services.NewDiscoveryCache(30*time.Minute, clock.Now)
	key := services.DiscoveryKey(45.5, -122.6, 40000)
	cache.Put(key, entities.Found([]*entities.Entity{{ID: "google_a", Name: "A"}}))

	clock.Advance(29 * time.Minute)
	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Len(t, got.Value, 1)

	clock.Advance(time.Minute)
	_, ok = cache.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())
}

func TestDiscoveryCache_StaleReadKeepsLaterPut(t *testing.T) {
	clock := newFakeClock()
	cache := services.NewDiscoveryCache(10*time.Minute, clock.Now)
	key := services.DiscoveryKey(45.5, -122.6, 40000)

	cache.Put(key, entities.NotFound[[]*entities.Entity]())
	clock.Advance(10 * time.Minute)

	_, ok := cache.Get(key)
	require.False(t, ok)
	cache.Put(key, entities.Found([]*entities.Entity{{ID: "google_b", Name: "B"}}))
	_, _ = cache.Get(key)

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Len(t, got.Value, 1)
	assert.Zero(t, cache.Sweep())
}

func TestDiscoveryCache_Sweep(t *testing.T) {
	clock := newFakeClock()
	cache := services.NewDiscoveryCache(10*time.Minute, clock.Now)

	cache.Put("old-1", entities.NotFound[[]*entities.Entity]())
	cache.Put("old-2", entities.NotFound[[]*entities.Entity]())
	clock.Advance(6 * time.Minute)
	cache.Put("fresh", entities.NotFound[[]*entities.Entity]())
	clock.Advance(5 * time.Minute)

	assert.Equal(t, 2, cache.Sweep())
	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("fresh")
	assert.True(t, ok)
}

func TestDiscoveryCache_StartSweeperStopsWithContext(t *testing.T) {
	clock := newFakeClock()
	cache := services.NewDiscoveryCache(time.Minute, clock.Now)
	cache.Put("stale", entities.NotFound[[]*entities.Entity]())
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache.StartSweeper(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return cache.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDiscoveryCache_ConcurrentAccess(t *testing.T) {
	cache := services.NewDiscoveryCache(time.Minute, nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := services.DiscoveryKey(float64(i%4), 0, 1000)
			cache.Put(key, entities.NotFound[[]*entities.Entity]())
			cache.Get(key)
			cache.Sweep()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, cache.Len())
}
