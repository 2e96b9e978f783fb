// Package favorites holds the set of favorited item identifiers.
//
// The in-memory set is the source of truth for the running process. Every
// mutation after hydration mirrors the full set, as a JSON array, to one
// fixed key through a latest-wins writer; storage failures are logged and
// never surface to callers.
package favorites

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mmcdole/gallery/internal/domain"
	"github.com/mmcdole/gallery/internal/persist"
)

// State is the hydration state of a Store.
type State int

const (
	Uninitialized State = iota
	Hydrating
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Hydrating:
		return "hydrating"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// ChangeKind identifies what happened to the set.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Cleared
	Hydrated
)

// Change is delivered to subscribers after each applied mutation.
type Change struct {
	Kind  ChangeKind
	ID    string // Empty for Cleared and Hydrated
	Count int    // Set size after the change
}

// Store owns the favorites set.
type Store struct {
	kv     domain.KVStore
	writer *persist.Writer
	key    string
	logger *slog.Logger

	mu    sync.RWMutex
	ids   []string
	index map[string]struct{}
	state State

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// Option configures a Store.
type Option func(*config)

type config struct {
	key     string
	logger  *slog.Logger
	writers []persist.Option
}

// WithKey overrides the storage key (default "favorites").
func WithKey(key string) Option {
	return func(c *config) { c.key = key }
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithWriterOptions passes options to the underlying persist.Writer.
func WithWriterOptions(opts ...persist.Option) Option {
	return func(c *config) { c.writers = append(c.writers, opts...) }
}

// NewStore creates an uninitialized store backed by kv. Call Hydrate once
// at startup and Close at shutdown.
func NewStore(kv domain.KVStore, opts ...Option) *Store {
	cfg := config{key: StorageKey}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	writerOpts := append([]persist.Option{persist.WithLogger(cfg.logger)}, cfg.writers...)
	return &Store{
		kv:     kv,
		writer: persist.NewWriter(kv, cfg.key, writerOpts...),
		key:    cfg.key,
		logger: cfg.logger,
		index:  make(map[string]struct{}),
		subs:   make(map[int]func(Change)),
	}
}

// StorageKey is the fixed key the set is persisted under.
const StorageKey = "favorites"

// Hydrate loads the persisted snapshot, replacing the in-memory set. It runs
// once per store; later calls are no-ops. A missing, corrupt or unreadable
// snapshot yields an empty set. The store is Ready when Hydrate returns.
func (s *Store) Hydrate(ctx context.Context) {
	s.mu.Lock()
	if s.state != Uninitialized {
		s.mu.Unlock()
		s.logger.Debug("favorites already hydrated", "state", s.State())
		return
	}
	s.state = Hydrating
	s.mu.Unlock()

	ids := s.load(ctx)

	s.mu.Lock()
	s.ids = ids
	s.index = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.index[id] = struct{}{}
	}
	s.state = Ready
	count := len(s.ids)
	s.mu.Unlock()

	s.logger.Info("hydrated favorites", "count", count)
	s.notify(Change{Kind: Hydrated, Count: count})
}

func (s *Store) load(ctx context.Context) []string {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("failed to load favorites, starting empty", "key", s.key, "error", err)
		return nil
	}
	if !found || raw == "" {
		return nil
	}

	var stored []string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("corrupt favorites snapshot, starting empty", "key", s.key, "error", err)
		return nil
	}

	// Collapse duplicates, first occurrence wins
	seen := make(map[string]struct{}, len(stored))
	ids := make([]string, 0, len(stored))
	for _, id := range stored {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// State returns the hydration state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsFavorite reports whether id is in the set.
func (s *Store) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Count returns the set size.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// List returns the ids in insertion order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.ids...)
}

// Add appends id; adding a present id is a no-op.
func (s *Store) Add(id string) {
	s.mu.Lock()
	if _, ok := s.index[id]; ok {
		s.mu.Unlock()
		return
	}
	s.ids = append(s.ids, id)
	s.index[id] = struct{}{}
	s.persistLocked()
	count := len(s.ids)
	s.mu.Unlock()

	s.notify(Change{Kind: Added, ID: id, Count: count})
}

// Remove deletes id; removing an absent id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.index, id)
	kept := make([]string, 0, len(s.ids)-1)
	for _, existing := range s.ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	s.ids = kept
	s.persistLocked()
	count := len(s.ids)
	s.mu.Unlock()

	s.notify(Change{Kind: Removed, ID: id, Count: count})
}

// Toggle flips id and returns whether it is now a favorite.
func (s *Store) Toggle(id string) bool {
	if s.IsFavorite(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Clear empties the set.
func (s *Store) Clear() {
	s.mu.Lock()
	s.ids = nil
	s.index = make(map[string]struct{})
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: Cleared})
}

// persistLocked schedules a write of the full current set. Must hold s.mu,
// so snapshots are submitted in the same order mutations were applied.
func (s *Store) persistLocked() {
	if s.state != Ready {
		return
	}
	ids := s.ids
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		s.logger.Error("failed to encode favorites", "error", err)
		return
	}
	s.writer.Submit(string(data))
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn runs synchronously on the mutating goroutine.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Flush waits for every scheduled write to be attempted.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Close flushes pending writes and stops the writer. It does not close kv.
func (s *Store) Close(ctx context.Context) error {
	return s.writer.Close(ctx)
}
