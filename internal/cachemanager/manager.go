// Package cachemanager provides typed caches for repository reads.
package cachemanager

import (
	"context"
	"time"
)

// TTL sentinels understood by every Cache.
const (
	// UseDefaultTTL stores an entry with the cache's configured lifetime.
	UseDefaultTTL time.Duration = 0
	// NeverExpire stores an entry until it is deleted or flushed.
	NeverExpire time.Duration = -1
)

// Cache stores values of type V by key.
type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K)
	Flush(ctx context.Context)
}

// Stats counts cache lookups.
type Stats struct {
	Hits   int64
	Misses int64
	Items  int
}
