package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-wide Store. Expired entries are never returned;
// DeleteExpired reclaims their memory.
type MemoryStore struct {
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
	mutex   sync.RWMutex
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mutex.RLock()
	entry, exists := s.entries[key]
	s.mutex.RUnlock()

	if !exists || !s.now().Before(entry.expiresAt) {
		return nil, false, nil
	}
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mutex.Lock()
	s.entries[key] = memoryEntry{
		value:     stored,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mutex.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mutex.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mutex.Unlock()
	return nil
}

// DeleteExpired removes stale entries and reports how many it dropped.
func (s *MemoryStore) DeleteExpired() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len is the number of entries held, fresh or not.
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}
