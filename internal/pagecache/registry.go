package pagecache

import (
	"sync"
	"time"
)

// Registry holds one Cache per rendered person view, keyed by the view token
// embedded in the page. Views idle for longer than the TTL are dropped on the
// next access.
type Registry struct {
	fetch    DonationFetcher
	pageSize int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	views map[string]*entry
}

type entry struct {
	cache    *Cache
	personID int64
	lastUsed time.Time
}

func NewRegistry(fetch DonationFetcher, pageSize int, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{
		fetch:    fetch,
		pageSize: pageSize,
		ttl:      ttl,
		now:      time.Now,
		views:    make(map[string]*entry),
	}
}

// Open registers a fresh cache for a newly mounted view.
func (r *Registry) Open(viewID string, personID int64) *Cache {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	c := New(r.fetch, r.pageSize)
	r.views[viewID] = &entry{cache: c, personID: personID, lastUsed: r.now()}
	return c
}

// Get returns the cache for a view, or false when it is unknown, expired, or
// belongs to another person.
func (r *Registry) Get(viewID string, personID int64) (*Cache, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	e, ok := r.views[viewID]
	if !ok || e.personID != personID {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.cache, true
}

// Close discards a view's cache.
func (r *Registry) Close(viewID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.views, viewID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *Registry) sweepLocked() {
	cutoff := r.now().Add(-r.ttl)
	for id, e := range r.views {
		if e.lastUsed.Before(cutoff) {
			delete(r.views, id)
		}
	}
}
