package cachemanager

import (
	"context"
	"time"
)

// LoadFunc fetches the authoritative value for key.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// ReadThrough serves reads from a Cache and falls back to a loader on miss.
type ReadThrough[K comparable, V any] struct {
	cache  Cache[K, V]
	load   LoadFunc[K, V]
	ttl    time.Duration
	bypass bool
}

// NewReadThrough wraps cache with load. When bypass is true every read goes
// to load and nothing is stored.
func NewReadThrough[K comparable, V any](cache Cache[K, V], load LoadFunc[K, V], ttl time.Duration, bypass bool) *ReadThrough[K, V] {
	return &ReadThrough[K, V]{cache: cache, load: load, ttl: ttl, bypass: bypass}
}

// Get returns the cached value, loading and storing it on miss. Load errors
// are returned as is and nothing is cached.
func (r *ReadThrough[K, V]) Get(ctx context.Context, key K) (V, error) {
	if !r.bypass {
		if v, ok := r.cache.Get(ctx, key); ok {
			return v, nil
		}
	}
	return r.Refresh(ctx, key)
}

// Refresh loads key regardless of the cache and stores the result.
func (r *ReadThrough[K, V]) Refresh(ctx context.Context, key K) (V, error) {
	v, err := r.load(ctx, key)
	if err != nil {
		return v, err
	}
	if !r.bypass {
		r.cache.Set(ctx, key, v, r.ttl)
	}
	return v, nil
}

// Peek returns the cached value without loading.
func (r *ReadThrough[K, V]) Peek(ctx context.Context, key K) (V, bool) {
	if r.bypass {
		var zero V
		return zero, false
	}
	return r.cache.Get(ctx, key)
}

// Invalidate drops keys from the cache.
func (r *ReadThrough[K, V]) Invalidate(ctx context.Context, keys ...K) {
	r.cache.Delete(ctx, keys...)
}
