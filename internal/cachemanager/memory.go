package cachemanager

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/datachannel/internal/log"
)

// DefaultCleanupInterval is how often expired entries are purged.
const DefaultCleanupInterval = 5 * time.Minute

// Memory is a Cache backed by go-cache.
type Memory[K ~string, V any] struct {
	name   string
	cache  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory creates an in-memory cache. name only appears in logs.
func NewMemory[K ~string, V any](name string, defaultTTL, cleanupInterval time.Duration) *Memory[K, V] {
	c := gocache.New(defaultTTL, cleanupInterval)
	c.OnEvicted(func(key string, _ any) {
		log.Debug(log.CatCache, "evicted", "cache", name, "key", key)
	})
	return &Memory[K, V]{name: name, cache: c}
}

// Get returns the cached value for key.
func (m *Memory[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V

	raw, found := m.cache.Get(string(key))
	if !found {
		m.misses.Add(1)
		return zero, false
	}

	v, ok := raw.(V)
	if !ok {
		log.Error(log.CatCache, "cached value has unexpected type", "cache", m.name, "key", key)
		m.misses.Add(1)
		return zero, false
	}

	m.hits.Add(1)
	return v, true
}

// Set stores value under key for ttl (see UseDefaultTTL and NeverExpire).
func (m *Memory[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	m.cache.Set(string(key), value, ttl)
}

// Delete removes keys. Missing keys are ignored.
func (m *Memory[K, V]) Delete(_ context.Context, keys ...K) {
	for _, key := range keys {
		m.cache.Delete(string(key))
	}
}

// Flush removes everything.
func (m *Memory[K, V]) Flush(context.Context) {
	m.cache.Flush()
}

// Stats reports lookup counters and the current item count.
func (m *Memory[K, V]) Stats() Stats {
	return Stats{
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
		Items:  m.cache.ItemCount(),
	}
}
