package store

import (
	"context"
	"sync"
	"testing"

	"github.com/mmcdole/gallery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKVStoreTests runs the standard suite against any domain.KVStore implementation.
func RunKVStoreTests(t *testing.T, newStore func() (domain.KVStore, func())) {
	t.Run("missing key", func(t *testing.T) {
		s, cleanup := newStore()
		defer cleanup()

		v, found, err := s.Get(context.Background(), "nope")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, v)
	})

	t.Run("overwrite", func(t *testing.T) {
		s, cleanup := newStore()
		defer cleanup()

		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "favorites", `["a"]`))
		require.NoError(t, s.Set(ctx, "favorites", `[]`))

		v, found, err := s.Get(ctx, "favorites")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `[]`, v)
	})

	t.Run("remove then clear", func(t *testing.T) {
		s, cleanup := newStore()
		defer cleanup()

		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "a", "1"))
		require.NoError(t, s.Set(ctx, "b", "2"))
		require.NoError(t, s.Remove(ctx, "a"))

		_, found, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, s.Clear(ctx))
		_, found, err = s.Get(ctx, "b")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("empty value is stored", func(t *testing.T) {
		s, cleanup := newStore()
		defer cleanup()

		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", ""))
		_, found, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
	})
}

// ScriptedKV is an in-memory domain.KVStore for tests. Writes can be made
// to fail or to block until released, which lets tests force overlapping
// and out-of-order completions.
type ScriptedKV struct {
	mu      sync.Mutex
	data    map[string]string
	writes  []string // Values passed to Set, in call order
	getErr  error
	setErr  error
	gate    chan struct{}
	started chan string
}

// NewScriptedKV returns an empty scripted store.
func NewScriptedKV() *ScriptedKV {
	return &ScriptedKV{data: make(map[string]string)}
}

// Seed stores a value without recording a write.
func (s *ScriptedKV) Seed(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// FailGets makes every Get return err (nil restores normal behavior).
func (s *ScriptedKV) FailGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

// FailSets makes every Set return err (nil restores normal behavior).
func (s *ScriptedKV) FailSets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErr = err
}

// Hold makes the next writes block until Release. Each blocked write
// reports its value on the returned channel when it starts.
func (s *ScriptedKV) Hold() <-chan string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	s.started = make(chan string, 16)
	return s.started
}

// Release unblocks held writes.
func (s *ScriptedKV) Release() {
	s.mu.Lock()
	gate := s.gate
	s.gate = nil
	s.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

// Writes returns the values passed to Set so far.
func (s *ScriptedKV) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

// Value returns the stored value for key.
func (s *ScriptedKV) Value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *ScriptedKV) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *ScriptedKV) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	gate, started := s.gate, s.started
	s.writes = append(s.writes, value)
	s.mu.Unlock()

	if gate != nil {
		started <- value
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *ScriptedKV) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	delete(s.data, key)
	return nil
}

func (s *ScriptedKV) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]string)
	return nil
}

func (s *ScriptedKV) Close() error { return nil }
