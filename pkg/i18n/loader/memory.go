package loader

import (
	"sync"

	"github.com/nimburion/i18nloader/pkg/i18n"
)

// MemoryCache holds the catalog last loaded for each gadget for the lifetime
// of the process. Catalogs stored in it are never mutated.
type MemoryCache struct {
	mu       sync.RWMutex
	catalogs map[string]*i18n.Catalog
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{catalogs: make(map[string]*i18n.Catalog)}
}

// Get returns the catalog cached for name.
func (m *MemoryCache) Get(name string) (*i18n.Catalog, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	catalog, ok := m.catalogs[name]
	return catalog, ok
}

// Set replaces the catalog cached for name.
func (m *MemoryCache) Set(name string, catalog *i18n.Catalog) {
	m.mu.Lock()
	m.catalogs[name] = catalog
	m.mu.Unlock()
}

// Delete drops name from the cache.
func (m *MemoryCache) Delete(name string) {
	m.mu.Lock()
	delete(m.catalogs, name)
	m.mu.Unlock()
}

// Len returns the number of cached catalogs.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.catalogs)
}

// Clear empties the cache.
func (m *MemoryCache) Clear() {
	m.mu.Lock()
	m.catalogs = make(map[string]*i18n.Catalog)
	m.mu.Unlock()
}
