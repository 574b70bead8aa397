package memcached

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/store"
)

// Config configures a memcached storage backend.
type Config struct {
	Addresses []string
	Timeout   time.Duration
	// Prefix namespaces every key as "<prefix>:<escaped key>".
	Prefix string
}

// Storage is a store.Storage kept in memcached.
//
// The key index is read-modify-written without CAS, so concurrent writers in
// different processes may drop each other's index entries. Dropped entries
// are only invisible to Keys, and therefore to the expiry sweep.
type Storage struct {
	client *client
	prefix string
	logger logger.Logger
	mu     sync.Mutex
}

// NewStorage creates a memcached-backed storage.
func NewStorage(cfg Config, log logger.Logger) (*Storage, error) {
	c, err := newClient(cfg.Addresses, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "i18nloader"
	}
	return &Storage{client: c, prefix: prefix, logger: logger.OrNop(log)}, nil
}

// GetItem implements store.Storage.
func (s *Storage) GetItem(key string) (string, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	raw, err := s.client.get(ctx, s.key(key))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// SetItem implements store.Storage.
func (s *Storage) SetItem(key, value string) error {
	ctx, cancel := s.opContext()
	defer cancel()
	if err := s.client.set(ctx, s.key(key), []byte(value)); err != nil {
		return err
	}
	return s.updateIndex(ctx, func(keys map[string]struct{}) bool {
		if _, ok := keys[key]; ok {
			return false
		}
		keys[key] = struct{}{}
		return true
	})
}

// RemoveItem implements store.Storage.
func (s *Storage) RemoveItem(key string) error {
	ctx, cancel := s.opContext()
	defer cancel()
	if err := s.client.delete(ctx, s.key(key)); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return s.updateIndex(ctx, func(keys map[string]struct{}) bool {
		if _, ok := keys[key]; !ok {
			return false
		}
		delete(keys, key)
		return true
	})
}

// Keys implements store.Storage.
func (s *Storage) Keys() ([]string, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	index, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// HealthCheck asks one server for its version.
func (s *Storage) HealthCheck(ctx context.Context) error {
	if _, err := s.client.version(ctx); err != nil {
		s.logger.Error("memcached health check failed", "error", err)
		return fmt.Errorf("memcached health check failed: %w", err)
	}
	return nil
}

// Close is a no-op; connections are per operation.
func (s *Storage) Close() error { return nil }

func (s *Storage) updateIndex(ctx context.Context, mutate func(map[string]struct{}) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex(ctx)
	if err != nil {
		return err
	}
	if !mutate(index) {
		return nil
	}
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	raw, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode memcached key index: %w", err)
	}
	return s.client.set(ctx, s.indexKey(), raw)
}

func (s *Storage) readIndex(ctx context.Context) (map[string]struct{}, error) {
	index := map[string]struct{}{}
	raw, err := s.client.get(ctx, s.indexKey())
	if errors.Is(err, store.ErrNotFound) {
		return index, nil
	}
	if err != nil {
		return nil, err
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		s.logger.Warn("discarding malformed memcached key index", "error", err)
		return index, nil
	}
	for _, key := range keys {
		index[key] = struct{}{}
	}
	return index, nil
}

func (s *Storage) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.client.timeout)
}

// key escapes spaces and control characters, which memcached keys cannot hold.
func (s *Storage) key(key string) string {
	return s.prefix + ":" + url.QueryEscape(key)
}

// indexKey holds the JSON list of stored keys, since memcached cannot
// enumerate them. Escaped item keys never contain ':', so no item can
// collide with it.
func (s *Storage) indexKey() string {
	return s.prefix + "::keys"
}
