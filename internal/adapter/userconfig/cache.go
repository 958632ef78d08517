package userconfig

import (
	"context"
	"sync"

	"github.com/couchcryptid/diary-location-service/internal/domain"
	"github.com/couchcryptid/diary-location-service/internal/observability"
)

// CachedStore wraps a UserConfigStore with an in-memory LRU cache and
// lookup metrics. Writes go through to the inner store before the cache is
// updated. A maxEntries of 0 disables caching but keeps the metrics.
type CachedStore struct {
	inner   domain.UserConfigStore
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedStore creates a cache decorator around a store.
func NewCachedStore(inner domain.UserConfigStore, maxEntries int, metrics *observability.Metrics) *CachedStore {
	var cache *lruCache
	if maxEntries > 0 {
		cache = newLRUCache(maxEntries)
	}
	return &CachedStore{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}
}

func (c *CachedStore) Get(ctx context.Context, userID string) (string, bool, error) {
	var version uint64
	if c.cache != nil {
		if loc, ok := c.cache.get(userID); ok {
			c.metrics.UserConfigCache.WithLabelValues("hit").Inc()
			c.metrics.UserConfigLookup.WithLabelValues("found").Inc()
			return loc, true, nil
		}
		c.metrics.UserConfigCache.WithLabelValues("miss").Inc()
		version = c.cache.currentVersion()
	}

	loc, ok, err := c.inner.Get(ctx, userID)
	if err != nil {
		c.metrics.UserConfigLookup.WithLabelValues("error").Inc()
		return "", false, err
	}
	if !ok {
		// Absences are not cached so a later Set elsewhere is seen.
		c.metrics.UserConfigLookup.WithLabelValues("absent").Inc()
		return "", false, nil
	}
	c.metrics.UserConfigLookup.WithLabelValues("found").Inc()
	if c.cache != nil {
		c.cache.putIfUnchanged(userID, loc, version)
	}
	return loc, true, nil
}

func (c *CachedStore) Set(ctx context.Context, userID, location string) error {
	if err := c.inner.Set(ctx, userID, location); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.put(userID, location)
	}
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, userID string) error {
	if err := c.inner.Delete(ctx, userID); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.delete(userID)
	}
	return nil
}

// lruCache is a simple thread-safe LRU cache of user locations.
// version increases on every write so a slow read from the inner store
// cannot overwrite a newer value.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
	version    uint64
}

type entry struct {
	key   string
	value string
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) currentVersion() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

func (c *lruCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.store(key, value)
}

// putIfUnchanged stores value only if no write happened since version was read.
func (c *lruCache) putIfUnchanged(key, value string, version uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version != version {
		return
	}
	c.store(key, value)
}

func (c *lruCache) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	if e, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.remove(e)
	}
}

func (c *lruCache) store(key, value string) {
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
