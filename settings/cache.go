// Package settings reads shipping, VAT and promotion configuration through a
// short-lived process-wide cache.
package settings

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const DefaultTTL = 5 * time.Minute

type entry struct {
	value   any
	expires time.Time
}

// ConfigCache is safe for concurrent use. Entries expire after the TTL passed
// to Get, bounded by the cache-wide maxTTL.
type ConfigCache struct {
	lru *expirable.LRU[string, entry]
	now func() time.Time

	// OnHit and OnMiss are optional observers.
	OnHit  func(key string)
	OnMiss func(key string)
}

func NewConfigCache(size int, maxTTL time.Duration) *ConfigCache {
	if size <= 0 {
		size = 1024
	}
	if maxTTL <= 0 {
		maxTTL = DefaultTTL
	}
	return &ConfigCache{
		lru: expirable.NewLRU[string, entry](size, nil, maxTTL),
		now: time.Now,
	}
}

// Get returns the cached value for key, calling load on a miss. Load errors
// are returned and never cached.
func (c *ConfigCache) Get(ctx context.Context, key string, ttl time.Duration, load func(context.Context) (any, error)) (any, error) {
	if e, ok := c.lru.Get(key); ok && c.now().Before(e.expires) {
		if c.OnHit != nil {
			c.OnHit(key)
		}
		return e.value, nil
	}
	if c.OnMiss != nil {
		c.OnMiss(key)
	}
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, entry{value: v, expires: c.now().Add(ttl)})
	return v, nil
}

// Invalidate drops the given keys, or everything when called without keys.
func (c *ConfigCache) Invalidate(keys ...string) {
	if len(keys) == 0 {
		c.lru.Purge()
		return
	}
	for _, k := range keys {
		c.lru.Remove(k)
	}
}

// Fetch is a typed wrapper around Get.
func Fetch[T any](ctx context.Context, c *ConfigCache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	v, err := c.Get(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
