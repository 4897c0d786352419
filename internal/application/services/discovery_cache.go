package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
)

// DefaultDiscoveryTTL is how long a discovery result stays fresh.
const DefaultDiscoveryTTL = 30 * time.Minute

type discoveryEntry struct {
	result   entities.Lookup[[]*entities.Entity]
	storedAt time.Time
}

// DiscoveryCache memoizes discovery results by rounded coordinates and
// radius. Expiry is judged against the injected clock, so the underlying
// go-cache store never expires items on its own. Reads never delete;
// stale entries are only evicted by Sweep.
type DiscoveryCache struct {
	items *gocache.Cache
	ttl   time.Duration
	now   func() time.Time

	// mu serializes writers so a sweep cannot evict an entry a concurrent
	// Put just refreshed.
	mu sync.Mutex
}

// NewDiscoveryCache creates a cache. A nil clock means time.Now.
func NewDiscoveryCache(ttl time.Duration, now func() time.Time) *DiscoveryCache {
	if ttl <= 0 {
		ttl = DefaultDiscoveryTTL
	}
	if now == nil {
		now = time.Now
	}
	return &DiscoveryCache{
		items: gocache.New(gocache.NoExpiration, 0),
		ttl:   ttl,
		now:   now,
	}
}

// DiscoveryKey rounds the point to 3 decimals (about 110 m) and appends
// the radius.
func DiscoveryKey(lat, lng float64, radiusMeters int) string {
	return fmt.Sprintf("%.3f,%.3f,%d", lat, lng, radiusMeters)
}

// Get returns a fresh entry for key. A stale entry reads as a miss.
func (c *DiscoveryCache) Get(key string) (entities.Lookup[[]*entities.Entity], bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return entities.Lookup[[]*entities.Entity]{}, false
	}
	entry, ok := v.(discoveryEntry)
	if !ok || c.expired(entry) {
		return entities.Lookup[[]*entities.Entity]{}, false
	}
	return entry.result, true
}

// Put stores result under key stamped with the current time.
func (c *DiscoveryCache) Put(key string, result entities.Lookup[[]*entities.Entity]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Set(key, discoveryEntry{result: result, storedAt: c.now()}, gocache.NoExpiration)
}

// Sweep removes every stale entry and returns how many were removed.
func (c *DiscoveryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, item := range c.items.Items() {
		entry, ok := item.Object.(discoveryEntry)
		if !ok || c.expired(entry) {
			c.items.Delete(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, stale or not.
func (c *DiscoveryCache) Len() int {
	return c.items.ItemCount()
}

// StartSweeper sweeps on every tick until ctx is cancelled.
func (c *DiscoveryCache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	logger := observability.ComponentLogger(ctx, "discovery")
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					logger.Debug().Int("removed", n).Int("remaining", c.Len()).Msg("discovery cache swept")
				}
			}
		}
	}()
}

func (c *DiscoveryCache) expired(entry discoveryEntry) bool {
	return c.now().Sub(entry.storedAt) >= c.ttl
}
