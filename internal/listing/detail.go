package listing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DetailCache lazily loads the detail of an expandable row the first time it
// is opened and keeps it for ttl. Concurrent first opens of the same key share
// one fetch; failed fetches are not cached.
type DetailCache[K comparable, V any] struct {
	fetch func(ctx context.Context, key K) (V, error)
	ttl   time.Duration
	now   func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	entries map[K]detailEntry[V]
}

type detailEntry[V any] struct {
	value   V
	expires time.Time
}

func NewDetailCache[K comparable, V any](ttl time.Duration, fetch func(ctx context.Context, key K) (V, error)) *DetailCache[K, V] {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &DetailCache[K, V]{
		fetch:   fetch,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[K]detailEntry[V]),
	}
}

// Get returns the cached detail for key, fetching it on first use. The shared
// fetch is detached from ctx so one caller going away does not fail the
// others; ctx only bounds how long this caller waits.
func (c *DetailCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprint(key), func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := c.fetch(fetchCtx, key)
		if err != nil {
			return v, err
		}
		c.store(key, v)
		return v, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// store inserts v and drops every expired entry.
func (c *DetailCache[K, V]) store(key K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = detailEntry[V]{value: v, expires: now.Add(c.ttl)}
}

// Len reports how many entries are held, expired or not.
func (c *DetailCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cached reports whether key holds an unexpired detail.
func (c *DetailCache[K, V]) Cached(key K) bool {
	_, ok := c.lookup(key)
	return ok
}

// Forget drops one key.
func (c *DetailCache[K, V]) Forget(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *DetailCache[K, V]) lookup(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}
