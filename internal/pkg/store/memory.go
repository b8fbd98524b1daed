package store

import (
	"context"
	"sync"
	"time"

	"foodpics/internal/pkg/models"
)

type memoryItem struct {
	entry     models.StoredEntry
	expiresAt time.Time
}

// Map-backed store for local runs and tests. Expiry is applied lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]memoryItem
	now     func() time.Time
}

// Creates a new, empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]map[string]memoryItem),
		now:     time.Now,
	}
}

func (s *MemoryStore) ExistsExact(ctx context.Context, author, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, found := s.entries[author][id]
	return found && s.live(item), nil
}

func (s *MemoryStore) EntriesFor(ctx context.Context, author string) ([]models.StoredEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]models.StoredEntry, 0, len(s.entries[author]))
	for _, item := range s.entries[author] {
		if s.live(item) {
			entries = append(entries, item.entry)
		}
	}
	return entries, nil
}

func (s *MemoryStore) Put(ctx context.Context, author, id string, entry models.StoredEntry, ttl time.Duration) error {
	if _, err := (KeyParser{}).Key(author, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.entries[author]
	if !ok {
		byID = make(map[string]memoryItem)
		s.entries[author] = byID
	}
	item := memoryItem{entry: entry}
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}
	byID[id] = item
	return nil
}

// Drops expired entries.
func (s *MemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for author, byID := range s.entries {
		for id, item := range byID {
			if !s.live(item) {
				delete(byID, id)
				removed++
			}
		}
		if len(byID) == 0 {
			delete(s.entries, author)
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) live(item memoryItem) bool {
	return item.expiresAt.IsZero() || s.now().Before(item.expiresAt)
}
