package memory

import (
	"sort"
	"sync"

	"github.com/nimburion/i18nloader/pkg/store"
)

// Storage is an in-process store. A positive quota caps the total size of
// keys and values in bytes.
type Storage struct {
	mu    sync.RWMutex
	items map[string]string
	size  int
	quota int
}

// New creates an in-memory storage. quota <= 0 means unlimited.
func New(quota int) *Storage {
	return &Storage{items: make(map[string]string), quota: quota}
}

// GetItem implements store.Storage.
func (s *Storage) GetItem(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

// SetItem implements store.Storage.
func (s *Storage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	size := s.size + len(key) + len(value)
	if old, ok := s.items[key]; ok {
		size -= len(key) + len(old)
	}
	if s.quota > 0 && size > s.quota {
		return store.ErrQuotaExceeded
	}
	s.items[key] = value
	s.size = size
	return nil
}

// RemoveItem implements store.Storage.
func (s *Storage) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.items[key]; ok {
		s.size -= len(key) + len(old)
		delete(s.items, key)
	}
	return nil
}

// Keys implements store.Storage. Keys are returned sorted.
func (s *Storage) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
