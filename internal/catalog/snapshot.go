package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mmcdole/gallery/internal/domain"
	"github.com/mmcdole/gallery/internal/persist"
)

const snapshotPrefix = "catalog:"

// SnapshotKey is the KV key holding identity's offline snapshot.
func SnapshotKey(identity string) string {
	return snapshotPrefix + identity
}

type snapshot struct {
	Items       []domain.Item `json:"items"`
	Pages       int           `json:"pages"`
	LastIndex   int           `json:"last_index"`
	LastPageLen int           `json:"last_page_len"`
	PageSize    int           `json:"page_size"`
}

// snapshotLocked schedules a write of e. Caller holds c.mu.
func (c *Cache) snapshotLocked(identity string, e *entry) {
	if c.kv == nil {
		return
	}

	data, err := json.Marshal(snapshot{
		Items:       e.items,
		Pages:       e.pages,
		LastIndex:   e.lastIndex,
		LastPageLen: e.lastPageLen,
		PageSize:    e.pageSize,
	})
	if err != nil {
		c.logger.Error("failed to encode snapshot", "identity", identity, "error", err)
		return
	}

	w, ok := c.writers[identity]
	if !ok {
		opts := append([]persist.Option{persist.WithLogger(c.logger)}, c.writerOpts...)
		w = persist.NewWriter(c.kv, SnapshotKey(identity), opts...)
		c.writers[identity] = w
	}
	w.Submit(string(data))
}

// Restore loads identity's offline snapshot when no page has been merged
// for it yet. It reports whether an entry was restored. A corrupt snapshot
// is ignored. A recorded fetch error is kept so callers can tell the
// restored data is offline.
func (c *Cache) Restore(ctx context.Context, identity string) (bool, error) {
	if c.kv == nil {
		return false, nil
	}

	c.mu.RLock()
	busy := c.populatedLocked(identity)
	c.mu.RUnlock()
	if busy {
		return false, nil
	}

	raw, found, err := c.kv.Get(ctx, SnapshotKey(identity))
	if err != nil {
		return false, fmt.Errorf("%w: failed to read snapshot %q: %w", domain.ErrPersistence, identity, err)
	}
	if !found || raw == "" {
		return false, nil
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		c.logger.Warn("ignoring corrupt snapshot", "identity", identity, "error", err)
		return false, nil
	}
	if snap.PageSize <= 0 {
		c.logger.Warn("ignoring snapshot without page size", "identity", identity)
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.populatedLocked(identity) {
		// A fetch raced ahead of the read
		return false, nil
	}

	e := c.entryLocked(identity, snap.PageSize)
	e.pageSize = snap.PageSize
	e.pages = snap.Pages
	e.lastIndex = snap.LastIndex
	e.lastPageLen = snap.LastPageLen
	e.fetched = true
	e.restored = true
	c.mergeLocked(e, snap.Items)

	c.logger.Info("restored snapshot", "identity", identity, "items", len(e.items), "pages", e.pages)
	return true, nil
}

// populatedLocked reports whether identity has merged pages or a fetch in
// flight.
func (c *Cache) populatedLocked(identity string) bool {
	e, ok := c.entries[identity]
	return ok && (e.pages > 0 || e.loading > 0)
}
