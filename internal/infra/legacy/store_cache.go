package legacy

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/legacybooks/internal/core/domain"
)

// StoreFetcher fetches a normalized store by id.
type StoreFetcher func(ctx context.Context, id string) (domain.Store, error)

// StoreCache caches normalized stores so that books sharing a store do not
// refetch it on every sync. Failures are never cached.
type StoreCache struct {
	fetch StoreFetcher
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]cachedStore
}

type cachedStore struct {
	store    domain.Store
	cachedAt time.Time
}

// NewStoreCache creates a new store cache with the given TTL.
func NewStoreCache(fetch StoreFetcher, ttl time.Duration) *StoreCache {
	return &StoreCache{
		fetch:   fetch,
		ttl:     ttl,
		entries: make(map[string]cachedStore),
	}
}

// Get returns the cached store if within TTL, otherwise fetches fresh.
func (c *StoreCache) Get(ctx context.Context, id string) (domain.Store, error) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if ok && time.Since(e.cachedAt) < c.ttl {
		return e.store, nil
	}

	s, err := c.fetch(ctx, id)
	if err != nil {
		return domain.Store{}, err
	}

	c.mu.Lock()
	c.entries[id] = cachedStore{store: s, cachedAt: time.Now()}
	c.mu.Unlock()

	return s, nil
}

// Invalidate drops one store, or every store when id is empty.
func (c *StoreCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == "" {
		c.entries = make(map[string]cachedStore)
		return
	}
	delete(c.entries, id)
}

// Len returns the number of cached stores, expired ones included.
func (c *StoreCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
