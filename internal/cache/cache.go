// Package cache holds small in-process lookup caches.
package cache

import (
	"sync"
	"time"
)

// TTL maps keys to values that expire after a fixed lifetime. Expired entries
// are dropped lazily on read.
type TTL[K comparable, V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time
	m   map[K]item[V]
}

type item[V any] struct {
	val V
	exp time.Time
}

func NewTTL[K comparable, V any](ttl time.Duration) *TTL[K, V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &TTL[K, V]{
		ttl: ttl,
		now: time.Now,
		m:   make(map[K]item[V]),
	}
}

func (c *TTL[K, V]) Get(key K) (V, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		// re-check: a concurrent Set may have refreshed it
		if cur, ok := c.m[key]; ok && now.After(cur.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.val, true
}

func (c *TTL[K, V]) Set(key K, val V) {
	c.mu.Lock()
	c.m[key] = item[V]{val: val, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
