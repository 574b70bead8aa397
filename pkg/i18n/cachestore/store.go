// Package cachestore persists optimized catalogs across page loads in a
// namespaced, versioned and time-expiring layout over a store.Storage.
//
// Each record is split into three string entries:
//
//	<namespace><name>-content    JSON catalog
//	<namespace><name>-timestamp  write time, Unix milliseconds
//	<namespace><name>-version    cache version requested by the writer
//
// No operation returns an error: storage failures are logged and leave the
// store unchanged, and unreadable records are reported as absent.
package cachestore

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nimburion/i18nloader/pkg/i18n"
	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/observability/metrics"
	"github.com/nimburion/i18nloader/pkg/store"
)

const (
	// DefaultNamespace prefixes every cache entry.
	DefaultNamespace = "i18n-cache-"
	// DefaultMaxAge is how long a record survives SweepExpired.
	DefaultMaxAge = 48 * time.Hour

	contentSuffix   = "-content"
	timestampSuffix = "-timestamp"
	versionSuffix   = "-version"
)

// Record is one cached catalog.
type Record struct {
	Content   *i18n.Catalog
	Timestamp time.Time
	// Version is -1 when the stored version could not be parsed.
	Version int
}

// Usable reports whether the record satisfies a request for minVersion.
func (r Record) Usable(minVersion int) bool {
	return r.Content != nil && r.Version >= 0 && r.Version >= minVersion
}

// Config configures a Store.
type Config struct {
	Namespace string
	MaxAge    time.Duration
	// Now replaces time.Now.
	Now func() time.Time
}

// Store is the persistent catalog cache.
type Store struct {
	storage   store.Storage
	namespace string
	maxAge    time.Duration
	now       func() time.Time
	log       logger.Logger
	recordKey *regexp.Regexp
	failed    atomic.Bool
}

// New creates a store over storage. A nil storage behaves like store.Disabled.
func New(storage store.Storage, cfg Config, log logger.Logger) *Store {
	if storage == nil {
		storage = store.Disabled{}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		storage:   storage,
		namespace: cfg.Namespace,
		maxAge:    cfg.MaxAge,
		now:       cfg.Now,
		log:       logger.OrNop(log),
		recordKey: regexp.MustCompile("^(" + regexp.QuoteMeta(cfg.Namespace) + ".+)" + contentSuffix + "$"),
	}
}

// Namespace returns the key prefix of every entry.
func (s *Store) Namespace() string { return s.namespace }

// Read returns the record cached for name.
func (s *Store) Read(name string) (Record, bool) {
	prefix := s.namespace + name

	raw, err := s.storage.GetItem(prefix + contentSuffix)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.storageFailure("read", prefix, err)
		}
		return Record{}, false
	}
	if raw == "" {
		return Record{}, false
	}

	content, err := i18n.DecodeCatalog([]byte(raw))
	if err != nil {
		s.log.Warn("malformed catalog found in cache", "key", prefix, "error", err)
		return Record{}, false
	}

	record := Record{Content: content, Version: 0}
	if value, err := s.storage.GetItem(prefix + versionSuffix); err == nil {
		record.Version = parseVersion(value)
	} else if !errors.Is(err, store.ErrNotFound) {
		s.storageFailure("read", prefix, err)
	}
	if value, err := s.storage.GetItem(prefix + timestampSuffix); err == nil {
		if ms, ok := parseMillis(value); ok {
			record.Timestamp = time.UnixMilli(ms)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		s.storageFailure("read", prefix, err)
	}
	return record, true
}

// Write stores content for name with the given version, stamped with the
// current time. Empty catalogs are not stored. A write that exceeds the
// storage quota removes whatever part of the record it managed to store.
func (s *Store) Write(name string, content *i18n.Catalog, version int) {
	if content.IsEmpty() {
		return
	}
	if version < 0 {
		version = 0
	}
	prefix := s.namespace + name

	payload, err := json.Marshal(content)
	if err != nil {
		s.log.Error("failed to encode catalog for cache", "key", prefix, "error", err)
		return
	}

	entries := [][2]string{
		{prefix + contentSuffix, string(payload)},
		{prefix + timestampSuffix, strconv.FormatInt(s.now().UnixMilli(), 10)},
		{prefix + versionSuffix, strconv.Itoa(version)},
	}
	for _, entry := range entries {
		if err := s.storage.SetItem(entry[0], entry[1]); err != nil {
			s.storageFailure("write", prefix, err)
			if errors.Is(err, store.ErrQuotaExceeded) {
				s.remove(prefix)
			}
			return
		}
	}
	s.log.Debug("catalog cached", "key", prefix, "version", version, "bytes", len(payload))
}

// SweepExpired removes every record under the namespace written at least
// MaxAge before now, and records whose timestamp is missing or unreadable.
// It returns the number of records removed.
func (s *Store) SweepExpired(now time.Time) int {
	keys, err := s.storage.Keys()
	if err != nil {
		s.storageFailure("sweep", s.namespace, err)
		return 0
	}

	removed := 0
	for _, key := range keys {
		match := s.recordKey.FindStringSubmatch(key)
		if match == nil {
			continue
		}
		prefix := match[1]

		value, err := s.storage.GetItem(prefix + timestampSuffix)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			s.storageFailure("sweep", prefix, err)
			continue
		}
		if ms, ok := parseMillis(value); ok && now.Sub(time.UnixMilli(ms)) < s.maxAge {
			continue
		}
		s.remove(prefix)
		removed++
	}

	metrics.RecordSweep(removed)
	s.log.Debug("cache sweep finished", "namespace", s.namespace, "scanned", len(keys), "removed", removed)
	return removed
}

func (s *Store) remove(prefix string) {
	for _, suffix := range []string{contentSuffix, timestampSuffix, versionSuffix} {
		if err := s.storage.RemoveItem(prefix + suffix); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.storageFailure("remove", prefix, err)
		}
	}
}

// storageFailure logs the first failure at warn and the rest at debug, so a
// browser-like environment with storage disabled does not flood the log.
func (s *Store) storageFailure(op, key string, err error) {
	metrics.RecordStorageFailure(op)
	if s.failed.CompareAndSwap(false, true) {
		s.log.Warn("persistent cache storage failed", "operation", op, "key", key, "error", err)
		return
	}
	s.log.Debug("persistent cache storage failed", "operation", op, "key", key, "error", err)
}

func parseVersion(value string) int {
	if value == "" {
		return 0
	}
	version, err := strconv.Atoi(value)
	if err != nil || version < 0 {
		return -1
	}
	return version
}

func parseMillis(value string) (int64, bool) {
	if value == "" {
		return 0, false
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}
