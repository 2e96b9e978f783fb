// Package catalog accumulates paginated catalog fetches into one growing
// collection per query identity.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/gallery/internal/domain"
	"github.com/mmcdole/gallery/internal/persist"
	"golang.org/x/sync/singleflight"
)

// lookupTimeout bounds a shared id lookup once its callers detach
const lookupTimeout = 30 * time.Second

// ListIdentity is the query identity of the forward-paginated list at a
// given page size. It never includes the page number, so successive pages
// accumulate into the same entry.
func ListIdentity(pageSize int) string {
	return fmt.Sprintf("list:limit=%d", pageSize)
}

// PageResult describes one completed page fetch.
type PageResult struct {
	Query   domain.PageQuery
	Items   []domain.Item // Items appended by this fetch
	Total   int           // Entry size after the merge
	HasMore bool
	Stale   bool // Entry was reset while the fetch was in flight; nothing merged
}

// EntryState is a point-in-time copy of one cache entry.
type EntryState struct {
	Items    []domain.Item
	Pages    int
	Loading  bool
	Err      *domain.FetchError
	HasMore  bool
	Restored bool // Populated from an offline snapshot, not yet refetched
}

type entry struct {
	items       []domain.Item
	seen        map[string]struct{} // Only maintained when deduping
	pageSize    int
	pages       int // Pages merged
	lastIndex   int // Index of the last merged page
	lastPageLen int // Raw length of the last merged page
	fetched     bool
	loading     int
	err         *domain.FetchError
	restored    bool
}

// Cache is the paginated catalog cache.
type Cache struct {
	client domain.CatalogClient
	logger *slog.Logger
	dedupe bool

	kv         domain.KVStore // nil disables snapshots
	writerOpts []persist.Option

	mu      sync.RWMutex
	entries map[string]*entry
	writers map[string]*persist.Writer

	lookups singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithDedupe drops items whose id is already present in the entry.
func WithDedupe() Option {
	return func(c *Cache) { c.dedupe = true }
}

// WithLogger sets the cache logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSnapshots mirrors every merged entry to kv so it can be restored
// while offline.
func WithSnapshots(kv domain.KVStore, opts ...persist.Option) Option {
	return func(c *Cache) {
		c.kv = kv
		c.writerOpts = opts
	}
}

// NewCache creates a cache over client.
func NewCache(client domain.CatalogClient, opts ...Option) *Cache {
	c := &Cache{
		client:  client,
		logger:  slog.Default(),
		entries: make(map[string]*entry),
		writers: make(map[string]*persist.Writer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage fetches q and appends the result to identity's entry as one
// atomic merge. On failure the entry is left untouched and the returned
// error is a *domain.FetchError. The first successful fetch into a restored
// entry replaces the snapshot contents instead of appending to them. A page
// size differing from the entry's fails with ErrInvalidPage.
func (c *Cache) FetchPage(ctx context.Context, identity string, q domain.PageQuery) (PageResult, error) {
	if err := q.Validate(); err != nil {
		return PageResult{Query: q}, err
	}

	c.mu.Lock()
	e := c.entryLocked(identity, q.PageSize)
	if e.pageSize != q.PageSize {
		if e.fetched || e.loading > 0 {
			size := e.pageSize
			c.mu.Unlock()
			return PageResult{Query: q}, fmt.Errorf("%w: page size %d does not match %d for %q", domain.ErrInvalidPage, q.PageSize, size, identity)
		}
		e.pageSize = q.PageSize
	}
	e.loading++
	c.mu.Unlock()

	c.logger.Debug("fetching page", "identity", identity, "page", q.PageIndex, "offset", q.Offset())
	items, err := c.client.ListPage(ctx, q.PageSize, q.Offset())

	c.mu.Lock()
	defer c.mu.Unlock()

	e.loading--
	if c.entries[identity] != e {
		c.logger.Debug("discarding page for reset entry", "identity", identity, "page", q.PageIndex)
		return PageResult{Query: q, Items: items, Stale: true}, nil
	}

	if err != nil {
		fe := domain.AsFetchError(err)
		e.err = fe
		c.logger.Error("failed to fetch page", "identity", identity, "page", q.PageIndex, "kind", fe.Kind, "error", err)
		return PageResult{Query: q, HasMore: e.hasMore()}, fe
	}

	if e.restored {
		// The first live page replaces the offline snapshot
		c.logger.Info("replacing restored entry", "identity", identity, "items", len(e.items))
		e.items = nil
		e.pages = 0
		if e.seen != nil {
			e.seen = make(map[string]struct{})
		}
	}
	added := c.mergeLocked(e, items)
	e.pages++
	e.lastIndex = q.PageIndex
	e.lastPageLen = len(items)
	e.fetched = true
	e.restored = false
	e.err = nil
	c.snapshotLocked(identity, e)

	c.logger.Debug("merged page", "identity", identity, "page", q.PageIndex, "added", len(added), "total", len(e.items))
	return PageResult{Query: q, Items: added, Total: len(e.items), HasMore: e.hasMore()}, nil
}

// mergeLocked appends items to e and returns what was actually appended.
func (c *Cache) mergeLocked(e *entry, items []domain.Item) []domain.Item {
	if !c.dedupe {
		e.items = append(e.items, items...)
		return append([]domain.Item(nil), items...)
	}

	var added []domain.Item
	for _, it := range items {
		if _, dup := e.seen[it.ID]; dup {
			continue
		}
		e.seen[it.ID] = struct{}{}
		added = append(added, it)
	}
	e.items = append(e.items, added...)
	return added
}

func (c *Cache) entryLocked(identity string, pageSize int) *entry {
	e, ok := c.entries[identity]
	if !ok {
		e = &entry{pageSize: pageSize}
		if c.dedupe {
			e.seen = make(map[string]struct{})
		}
		c.entries[identity] = e
	}
	return e
}

// Reset discards identity's entry and its snapshot. A fetch in flight for
// the old entry is discarded when it completes.
func (c *Cache) Reset(identity string) {
	c.mu.Lock()
	_, existed := c.entries[identity]
	delete(c.entries, identity)
	w := c.writers[identity]
	c.mu.Unlock()

	if w != nil {
		w.SubmitRemove()
	}
	if existed {
		c.logger.Info("reset cache entry", "identity", identity)
	}
}

// HasMore reports whether another page should be requested. An identity
// that has never been fetched reports true.
func (c *Cache) HasMore(identity string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[identity]
	if !ok {
		return true
	}
	return e.hasMore()
}

func (e *entry) hasMore() bool {
	if !e.fetched {
		return true
	}
	return e.lastPageLen >= e.pageSize
}

// Items returns a copy of identity's accumulated items.
func (c *Cache) Items(identity string) []domain.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[identity]
	if !ok {
		return nil
	}
	return append([]domain.Item(nil), e.items...)
}

// State returns a snapshot of identity's entry.
func (c *Cache) State(identity string) EntryState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[identity]
	if !ok {
		return EntryState{HasMore: true}
	}
	return EntryState{
		Items:    append([]domain.Item(nil), e.items...),
		Pages:    e.pages,
		Loading:  e.loading > 0,
		Err:      e.err,
		HasMore:  e.hasMore(),
		Restored: e.restored,
	}
}

// NextPage returns the query following the last merged page, or page 1
// when nothing has been merged.
func (c *Cache) NextPage(identity string, pageSize int) domain.PageQuery {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[identity]
	if !ok || e.lastIndex == 0 {
		return domain.FirstPage(pageSize)
	}
	return domain.PageQuery{PageSize: e.pageSize, PageIndex: e.lastIndex}.Next()
}

// Find looks id up across every entry.
func (c *Cache) Find(id string) (domain.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		for _, it := range e.items {
			if it.ID == id {
				return it, true
			}
		}
	}
	return domain.Item{}, false
}

// FetchItem returns id from the cache, falling back to the remote catalog.
// Concurrent remote lookups of the same id share one request.
func (c *Cache) FetchItem(ctx context.Context, id string) (domain.Item, error) {
	if it, ok := c.Find(id); ok {
		return it, nil
	}

	// The shared lookup outlives any single caller's cancellation
	ch := c.lookups.DoChan(id, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return c.client.GetByID(lctx, id)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return domain.Item{}, domain.AsFetchError(ctx.Err())
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		fe := domain.AsFetchError(err)
		c.logger.Error("failed to fetch item", "id", id, "kind", fe.Kind, "error", err)
		return domain.Item{}, fe
	}
	item := v.(*domain.Item)
	if item == nil {
		return domain.Item{}, domain.NewFetchError(domain.FailureNotFound, 0, "item "+id+" not found")
	}
	c.logger.Debug("fetched item", "id", id, "shared", shared)
	return *item, nil
}

// Close flushes and stops every snapshot writer.
func (c *Cache) Close(ctx context.Context) error {
	c.mu.Lock()
	writers := make([]*persist.Writer, 0, len(c.writers))
	for _, w := range c.writers {
		writers = append(writers, w)
	}
	c.mu.Unlock()

	for _, w := range writers {
		if err := w.Close(ctx); err != nil {
			return fmt.Errorf("failed to close snapshot writer %q: %w", w.Key(), err)
		}
	}
	return nil
}
