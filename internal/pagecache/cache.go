// Package pagecache presents donations from several per-entity paged sources
// as one date-sorted stream, fetching upstream only as far as the requested
// page needs.
package pagecache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"explorer/internal/domain"
)

const (
	// MaxPerEntityFetch caps the limit sent to any single entity source.
	MaxPerEntityFetch = 200
	// readAheadPages is fetched beyond the shortfall on every miss.
	readAheadPages = 2
)

var (
	// ErrLoading is returned when a page request is already in flight.
	ErrLoading = errors.New("pagecache: page request already in flight")
	// ErrPageRange is returned for a negative page or one past MaxPage.
	ErrPageRange = errors.New("pagecache: page out of range")
)

// DonationFetcher is one paged upstream source per entity.
type DonationFetcher interface {
	EntityDonations(ctx context.Context, entityID int64, limit, offset int) ([]domain.Donation, error)
}

// Page is the result of a page request.
type Page struct {
	Index   int
	Records []domain.Donation
	HasMore bool
}

// Cache accumulates merged donation records for a fixed entity list.
//
// Every entity is fetched at the same cumulative offset; entities that run out
// early simply return fewer rows on later fetches.
type Cache struct {
	fetch    DonationFetcher
	pageSize int

	mu           sync.Mutex
	entities     []domain.EntityRef
	records      []domain.Donation
	offset       int
	upstreamMore bool
	hasMore      bool
	loading      bool
	generation   uint64
}

// New creates an empty cache. pageSize must be positive.
func New(fetch DonationFetcher, pageSize int) *Cache {
	if pageSize <= 0 {
		pageSize = 25
	}
	return &Cache{fetch: fetch, pageSize: pageSize}
}

// SetEntities replaces the entity list. A changed list discards every cached
// record; an identical list keeps the cache.
func (c *Cache) SetEntities(refs []domain.EntityRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sameEntities(c.entities, refs) {
		return false
	}
	c.entities = slices.Clone(refs)
	c.resetLocked()
	c.generation++
	return true
}

// Entities returns a copy of the current entity list.
func (c *Cache) Entities() []domain.EntityRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.entities)
}

func (c *Cache) PageSize() int { return c.pageSize }

// Records returns a copy of every merged record, newest first.
func (c *Cache) Records() []domain.Donation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

func (c *Cache) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// RequestPage returns records [page*size, (page+1)*size) of the merged stream,
// fetching from every entity concurrently when the cache is short.
//
// A failed fetch for page 0 empties the cache; a failed fetch for a later page
// leaves it untouched.
func (c *Cache) RequestPage(ctx context.Context, page int) (Page, error) {
	if page < 0 || page > c.MaxPage() {
		return Page{}, fmt.Errorf("%w: %d", ErrPageRange, page)
	}

	p, req, err := c.plan(page)
	if req == nil {
		return p, err
	}
	fetched, more, err := c.fetchAll(ctx, req.entities, req.perEntity, req.offset)
	return c.apply(page, req, fetched, more, err)
}

// MaxPage is the largest page index whose bounds fit in an int.
func (c *Cache) MaxPage() int {
	return math.MaxInt/c.pageSize - 1 - readAheadPages
}

type fetchPlan struct {
	entities   []domain.EntityRef
	perEntity  int
	offset     int
	required   int
	generation uint64
}

// plan answers from the cache when it can. Otherwise it marks the cache as
// loading and returns the fetch to run.
func (c *Cache) plan(page int) (Page, *fetchPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return Page{}, nil, ErrLoading
	}
	if len(c.entities) == 0 {
		c.resetLocked()
		return Page{Index: page}, nil, nil
	}
	required := (page + 1) * c.pageSize
	if len(c.records) >= required {
		c.hasMore = c.upstreamMore || len(c.records) > required
		return c.pageLocked(page), nil, nil
	}
	if c.offset > 0 && !c.upstreamMore {
		// Every source ran dry on an earlier fetch.
		c.hasMore = false
		return c.pageLocked(page), nil, nil
	}

	volume := required - len(c.records) + readAheadPages*c.pageSize
	c.loading = true
	return Page{}, &fetchPlan{
		entities:   slices.Clone(c.entities),
		perEntity:  min(ceilDiv(volume, len(c.entities)), MaxPerEntityFetch),
		offset:     c.offset,
		required:   required,
		generation: c.generation,
	}, nil
}

func (c *Cache) apply(page int, req *fetchPlan, fetched []domain.Donation, more bool, err error) (Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if req.generation != c.generation {
		// Entity list changed while fetching; these rows belong to the old list.
		return Page{Index: page, HasMore: c.hasMore}, nil
	}
	if err != nil {
		if page == 0 {
			c.resetLocked()
		}
		return Page{}, err
	}

	c.records = append(c.records, fetched...)
	slices.SortStableFunc(c.records, func(a, b domain.Donation) int {
		return b.Date.Compare(a.Date)
	})
	c.offset += req.perEntity
	c.upstreamMore = more
	c.hasMore = more || len(c.records) > req.required
	return c.pageLocked(page), nil
}

// fetchAll issues one request per entity and waits for all of them. Any single
// failure fails the whole batch.
func (c *Cache) fetchAll(ctx context.Context, entities []domain.EntityRef, limit, offset int) ([]domain.Donation, bool, error) {
	results := make([][]domain.Donation, len(entities))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range entities {
		g.Go(func() error {
			rows, err := c.fetch.EntityDonations(gctx, ref.ID, limit, offset)
			if err != nil {
				return fmt.Errorf("entity %d donations: %w", ref.ID, err)
			}
			for j := range rows {
				if rows[j].EntityName == "" {
					rows[j].EntityName = ref.Name
				}
				if rows[j].EntityID == 0 {
					rows[j].EntityID = ref.ID
				}
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	var merged []domain.Donation
	more := false
	for _, rows := range results {
		if len(rows) == limit {
			more = true
		}
		merged = append(merged, rows...)
	}
	return merged, more, nil
}

func (c *Cache) pageLocked(page int) Page {
	start := min(page*c.pageSize, len(c.records))
	end := min(start+c.pageSize, len(c.records))
	return Page{
		Index:   page,
		Records: slices.Clone(c.records[start:end]),
		HasMore: c.hasMore,
	}
}

func (c *Cache) resetLocked() {
	c.records = nil
	c.offset = 0
	c.upstreamMore = false
	c.hasMore = false
}

func sameEntities(a, b []domain.EntityRef) bool {
	return slices.EqualFunc(a, b, func(x, y domain.EntityRef) bool { return x.ID == y.ID })
}

func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}
