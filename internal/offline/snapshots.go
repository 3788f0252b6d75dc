// Package offline persists denormalized content snapshots for offline boot.
// The relational store remains the source of truth; these blobs exist so a
// detail screen can render its subtree with one read before the cache has
// been rehydrated.
package offline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/razeware/emitron/internal/domain"
)

var bucketSnapshots = []byte("snapshots")

// SnapshotStore keeps JSON-encoded ContentPersistableState blobs in BoltDB
// with an in-memory byte cache for hot-path reads (promoted on access).
type SnapshotStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	cache map[int][]byte
}

// NewSnapshotStore opens (or creates) the snapshot database under dir.
// An empty dir means memory-only mode with no persistence.
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if dir == "" {
		return &SnapshotStore{cache: make(map[int][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "snapshots.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SnapshotStore{db: db, cache: make(map[int][]byte)}, nil
}

// Close closes the underlying database
func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save writes the snapshot for its content id
func (s *SnapshotStore) Save(state domain.ContentPersistableState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[state.Content.ID] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		return b.Put(key(state.Content.ID), data)
	})
}

// Get returns the stored snapshot for a content id
func (s *SnapshotStore) Get(contentID int) (domain.ContentPersistableState, bool) {
	var state domain.ContentPersistableState

	s.mu.RLock()
	if data, ok := s.cache[contentID]; ok {
		s.mu.RUnlock()
		return state, json.Unmarshal(data, &state) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return state, false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if b == nil {
			return nil
		}
		if v := b.Get(key(contentID)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if data == nil {
		return state, false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[contentID] = data
	s.mu.Unlock()

	return state, json.Unmarshal(data, &state) == nil
}

// ContentIDs lists every content id with a stored snapshot
func (s *SnapshotStore) ContentIDs() ([]int, error) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		ids := make([]int, 0, len(s.cache))
		for id := range s.cache {
			ids = append(ids, id)
		}
		return ids, nil
	}

	var ids []int
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			id, err := strconv.Atoi(string(k))
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
	})
	return ids, err
}

// Delete removes the snapshot for a content id
func (s *SnapshotStore) Delete(contentID int) {
	s.mu.Lock()
	delete(s.cache, contentID)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if b != nil {
			b.Delete(key(contentID))
		}
		return nil
	})
}

// Clear removes every stored snapshot
func (s *SnapshotStore) Clear() {
	s.mu.Lock()
	s.cache = make(map[int][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// BootUpdate flattens stored snapshots into one cache update batch for
// rehydration, skipping content ids for which skip returns true (typically
// those the relational store already supplied).
func (s *SnapshotStore) BootUpdate(skip func(contentID int) bool) (domain.CacheUpdate, error) {
	ids, err := s.ContentIDs()
	if err != nil {
		return domain.CacheUpdate{}, err
	}

	var update domain.CacheUpdate
	for _, id := range ids {
		if skip != nil && skip(id) {
			continue
		}
		state, ok := s.Get(id)
		if !ok {
			continue
		}
		update.Merge(snapshotUpdate(state))
	}
	return update, nil
}

// snapshotUpdate converts one snapshot back into batch form
func snapshotUpdate(state domain.ContentPersistableState) domain.CacheUpdate {
	update := domain.CacheUpdate{
		Contents:          append([]domain.Content{state.Content}, state.ChildContents...),
		Groups:            state.Groups,
		ContentDomains:    state.Domains,
		ContentCategories: state.Categories,
	}
	if state.ParentContent != nil {
		update.Contents = append(update.Contents, *state.ParentContent)
	}
	if state.Bookmark != nil {
		update.Bookmarks = []domain.Bookmark{*state.Bookmark}
	}
	if state.Progression != nil {
		update.Progressions = []domain.Progression{*state.Progression}
	}
	return update
}

func key(contentID int) []byte {
	return []byte(strconv.Itoa(contentID))
}
