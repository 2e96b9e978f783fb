package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mmcdole/gallery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStore_Suite(t *testing.T) {
	RunKVStoreTests(t, func() (domain.KVStore, func()) {
		s, err := Open(filepath.Join(t.TempDir(), "gallery.db"))
		require.NoError(t, err)
		return s, func() { s.Close() }
	})
}

func TestKVStore_MemorySuite(t *testing.T) {
	RunKVStoreTests(t, func() (domain.KVStore, func()) {
		s := NewMemory()
		return s, func() { s.Close() }
	})
}

func TestScriptedKV_Suite(t *testing.T) {
	RunKVStoreTests(t, func() (domain.KVStore, func()) {
		return NewScriptedKV(), func() {}
	})
}

func TestKVStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "gallery.db")

	s, err := Open(path)
	require.NoError(t, err)

	_, found, err := s.Get(ctx, "favorites")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "favorites", `["a","b"]`))
	v, found, err := s.Get(ctx, "favorites")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `["a","b"]`, v)
	require.NoError(t, s.Close())

	// Reopen: value survives the restart
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, found, err = s.Get(ctx, "favorites")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `["a","b"]`, v)
}

func TestKVStore_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "b", "2"))

	require.NoError(t, s.Remove(ctx, "a"))
	_, found, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)

	// Removing a missing key is not an error
	require.NoError(t, s.Remove(ctx, "missing"))

	require.NoError(t, s.Clear(ctx))
	_, found, err = s.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, found)

	// Bucket is usable after clear
	require.NoError(t, s.Set(ctx, "c", "3"))
	v, _, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestKVStore_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Clear(ctx))
	_, found, _ = s.Get(ctx, "k")
	assert.False(t, found)
}

func TestKVStore_Closed(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	assert.ErrorIs(t, s.Set(ctx, "k", "v"), domain.ErrStoreClosed)
	assert.ErrorIs(t, s.Remove(ctx, "k"), domain.ErrStoreClosed)
	assert.ErrorIs(t, s.Clear(ctx), domain.ErrStoreClosed)
}

func TestKVStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemory()
	defer s.Close()
	assert.ErrorIs(t, s.Set(ctx, "k", "v"), context.Canceled)
}

func TestKVStore_ReadDoesNotPromoteOverWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gallery.db")

	seed, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, seed.Set(ctx, "favorites", "old"))
	require.NoError(t, seed.Close())

	tests := []struct {
		name      string
		write     func(s *KVStore) error
		wantValue string
		wantFound bool
	}{
		{"set", func(s *KVStore) error { return s.Set(ctx, "favorites", "new") }, "new", true},
		{"remove", func(s *KVStore) error { return s.Remove(ctx, "favorites") }, "", false},
		{"clear", func(s *KVStore) error { return s.Clear(ctx) }, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(path)
			require.NoError(t, err)
			defer s.Close()
			require.NoError(t, s.Set(ctx, "favorites", "old"))
			s.cache = make(map[string]string) // Force the next read to hit disk

			// A write commits between the disk read and the promotion
			s.afterRead = func(string) {
				s.afterRead = nil
				require.NoError(t, tt.write(s))
			}

			v, found, err := s.Get(ctx, "favorites")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "old", v)

			v, found, err = s.Get(ctx, "favorites")
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantValue, v)
		})
	}
}
