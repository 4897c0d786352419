package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocachelib "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	gocachestore "github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"

	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
)

// MemoryAdapter implements CacheProvider in process. It backs the geocode
// cache when Redis is not configured and in the CLI.
type MemoryAdapter struct {
	manager *gocachelib.Cache[[]byte]
}

// NewMemoryAdapter creates an in-process cache. Entries stored with a
// non-positive expiration use defaultTTL.
func NewMemoryAdapter(defaultTTL, cleanupInterval time.Duration) providers.CacheProvider {
	client := gocache.New(defaultTTL, cleanupInterval)
	return &MemoryAdapter{
		manager: gocachelib.New[[]byte](gocachestore.NewGoCache(client)),
	}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	// The go-cache store only fails on absent or expired keys.
	value, err := a.manager.Get(ctx, key)
	if err != nil || value == nil {
		return nil, providers.ErrCacheMiss
	}
	return value, nil
}

// Set stores a value in cache with expiration
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	var opts []store.Option
	if expirationSeconds > 0 {
		opts = append(opts, store.WithExpiration(time.Duration(expirationSeconds)*time.Second))
	}
	if err := a.manager.Set(ctx, key, value, opts...); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	if err := a.manager.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.Get(ctx, key)
	if errors.Is(err, providers.ErrCacheMiss) {
		return false, nil
	}
	return err == nil, err
}
