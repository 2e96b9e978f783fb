package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mmcdole/gallery/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var bucketKV = []byte("kv")

// KVStore implements domain.KVStore using BoltDB.
type KVStore struct {
	db     *bolt.DB
	mu     sync.RWMutex // Protects memory cache and closed
	closed bool

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string]string
	gen   uint64 // Bumped by every committed write; guards promotion

	afterRead func(key string) // Test hook between the disk read and promotion
}

// Open opens (or creates) a BoltDB file at path. An empty path selects
// memory-only mode.
func Open(path string) (*KVStore, error) {
	if path == "" {
		return NewMemory(), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketKV)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &KVStore{db: db, cache: make(map[string]string)}, nil
}

// NewMemory returns a store with no persistence.
func NewMemory() *KVStore {
	return &KVStore{cache: make(map[string]string)}
}

func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	// Check memory cache first
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return "", false, domain.ErrStoreClosed
	}
	if v, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return v, true, nil
	}
	gen := s.gen
	s.mu.RUnlock()

	if s.db == nil {
		return "", false, nil
	}

	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketKV)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			value = string(v) // copies out of the mmap
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, s.wrapClosed(fmt.Errorf("failed to read %q: %w", key, err))
	}
	if s.afterRead != nil {
		s.afterRead(key)
	}
	if !found {
		return "", false, nil
	}

	// Promote only if no write committed since the read began
	s.mu.Lock()
	if _, ok := s.cache[key]; !ok && s.gen == gen && !s.closed {
		s.cache[key] = value
	}
	s.mu.Unlock()

	return value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrStoreClosed
	}
	s.mu.Unlock()

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketKV).Put([]byte(key), []byte(value))
		})
		if err != nil {
			return s.wrapClosed(fmt.Errorf("failed to write %q: %w", key, err))
		}
	}

	// Memory cache is updated only after the durable write succeeded
	s.mu.Lock()
	s.cache[key] = value
	s.gen++
	s.mu.Unlock()
	return nil
}

func (s *KVStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrStoreClosed
	}
	s.mu.Unlock()

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketKV).Delete([]byte(key))
		})
		if err != nil {
			return s.wrapClosed(fmt.Errorf("failed to remove %q: %w", key, err))
		}
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.gen++
	s.mu.Unlock()
	return nil
}

func (s *KVStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrStoreClosed
	}
	s.mu.Unlock()

	if s.db != nil {
		// Recreate the bucket rather than deleting key by key
		err := s.db.Update(func(tx *bolt.Tx) error {
			if err := tx.DeleteBucket(bucketKV); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			_, err := tx.CreateBucket(bucketKV)
			return err
		})
		if err != nil {
			return s.wrapClosed(fmt.Errorf("failed to clear store: %w", err))
		}
	}

	s.mu.Lock()
	s.cache = make(map[string]string)
	s.gen++
	s.mu.Unlock()
	return nil
}

func (s *KVStore) wrapClosed(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return fmt.Errorf("%w: %w", domain.ErrStoreClosed, err)
	}
	return err
}
