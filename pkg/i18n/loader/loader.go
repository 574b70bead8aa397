// Package loader serves gadget message catalogs through an in-memory cache,
// the persistent cache and a catalog source, in that order.
//
// LoadMessages never fails: when every layer is unavailable it still returns
// a usable, possibly empty, Session.
package loader

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nimburion/i18nloader/pkg/i18n"
	"github.com/nimburion/i18nloader/pkg/i18n/cachestore"
	"github.com/nimburion/i18nloader/pkg/i18n/fetch"
	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/observability/metrics"
	"github.com/nimburion/i18nloader/pkg/observability/tracing"
)

// ErrNoSource is reported when a loader has no fetcher configured.
var ErrNoSource = errors.New("no catalog source configured")

// Config wires a Loader. Every field is optional.
type Config struct {
	// Fetcher retrieves catalogs missing from both caches.
	Fetcher fetch.Fetcher
	// Store is the persistent cache; nil disables persistence.
	Store *cachestore.Store
	// Memory is shared by loaders serving the same page; nil creates one.
	Memory    *MemoryCache
	Resolver  *i18n.Resolver
	Overrides *i18n.Overrides
	Ambient   Ambient
	// Entrypoint is the default catalog location passed to the fetcher.
	Entrypoint string
	// Now replaces time.Now for the startup sweep.
	Now func() time.Time
	// MaxMissingReports bounds how many missing messages are remembered as
	// already logged. Once full the record starts over. Defaults to
	// DefaultMaxMissingReports.
	MaxMissingReports int
}

// DefaultMaxMissingReports is the default Config.MaxMissingReports.
const DefaultMaxMissingReports = 4096

// Loader loads gadget catalogs and hands them out as Sessions.
type Loader struct {
	fetcher    fetch.Fetcher
	store      *cachestore.Store
	memory     *MemoryCache
	resolver   *i18n.Resolver
	optimizer  *i18n.Optimizer
	overrides  *i18n.Overrides
	ambient    Ambient
	entrypoint string
	log        logger.Logger

	inflight loadGroup
	reported *reportSet
}

// New creates a loader and sweeps expired records from the persistent cache.
func New(cfg Config, log logger.Logger) *Loader {
	log = logger.OrNop(log)
	if cfg.Fetcher == nil {
		cfg.Fetcher = fetch.FetcherFunc(func(context.Context, fetch.Request) (*i18n.Catalog, error) {
			return nil, ErrNoSource
		})
	}
	if cfg.Store == nil {
		cfg.Store = cachestore.New(nil, cachestore.Config{}, log)
	}
	if cfg.Memory == nil {
		cfg.Memory = NewMemoryCache()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = i18n.NewResolver(i18n.DefaultFallbacks(), log)
	}
	if cfg.Overrides == nil {
		cfg.Overrides = i18n.NewOverrides()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxMissingReports <= 0 {
		cfg.MaxMissingReports = DefaultMaxMissingReports
	}

	l := &Loader{
		fetcher:    cfg.Fetcher,
		store:      cfg.Store,
		memory:     cfg.Memory,
		resolver:   cfg.Resolver,
		optimizer:  i18n.NewOptimizer(cfg.Resolver, log),
		overrides:  cfg.Overrides,
		ambient:    cfg.Ambient.normalized(),
		entrypoint: cfg.Entrypoint,
		log:        log,
		reported:   newReportSet(cfg.MaxMissingReports),
	}
	_, span := tracing.StartCacheSpan(context.Background(), tracing.SpanOperationCacheSweep)
	removed := l.store.SweepExpired(cfg.Now())
	span.SetAttributes(attribute.Int("cache.removed", removed))
	span.End()
	if removed > 0 {
		log.Debug("removed expired catalogs from cache", "count", removed)
	}
	return l
}

// Ambient returns the page context the loader serves, normalized.
func (l *Loader) Ambient() Ambient { return l.ambient }

// Reset drops every in-memory catalog and forgets which missing messages
// were already logged.
func (l *Loader) Reset() {
	l.memory.Clear()
	l.reported.clear()
}

// Overrides returns the override registry consulted by every Session.
func (l *Loader) Overrides() *i18n.Overrides { return l.overrides }

// LoadMessages returns a Session over the catalog of the gadget name.
//
// A suitable catalog in memory or in the persistent cache is used as is.
// Otherwise the catalog is fetched, optimized for the requested and content
// languages and cached. Concurrent calls for the same name share one fetch.
// Fetch failures are logged and produce a degraded Session over whatever
// catalog is already in memory, or over an empty one.
func (l *Loader) LoadMessages(ctx context.Context, name string, opts Options) *Session {
	eff := l.effective(opts)
	log := l.log.WithContext(logger.WithGadget(ctx, name))

	var result loadResult
	if catalog, ok := l.memory.Get(name); ok && eff.useCache && eff.suitable(catalog) {
		result = loadResult{catalog: catalog, source: metrics.LoadSourceMemory}
	} else {
		var shared bool
		result, shared = l.inflight.Do(name, func() loadResult { return l.load(ctx, log, name, eff) })
		if shared && !l.accepts(result, eff) {
			result, _ = l.inflight.Do(name, func() loadResult { return l.load(ctx, log, name, eff) })
		}
	}
	if result.catalog == nil {
		result = loadResult{catalog: i18n.NewCatalog(), source: metrics.LoadSourceDegraded}
	}

	metrics.RecordLoad(result.source)
	log.Debug("catalog loaded", "name", name, "source", result.source, "lang", eff.Language)
	return newSession(l, name, result.catalog.Clone(), eff, result.source == metrics.LoadSourceDegraded)
}

// accepts reports whether a load made for another caller also serves eff.
func (l *Loader) accepts(result loadResult, eff effectiveOptions) bool {
	if result.source == metrics.LoadSourceDegraded {
		return true
	}
	if !eff.useCache {
		return result.source == metrics.LoadSourceNetwork
	}
	return eff.suitable(result.catalog)
}

func (l *Loader) load(ctx context.Context, log logger.Logger, name string, eff effectiveOptions) loadResult {
	if eff.useCache {
		if catalog, ok := l.memory.Get(name); ok && eff.suitable(catalog) {
			return loadResult{catalog: catalog, source: metrics.LoadSourceMemory}
		}
		if record, ok := l.readCache(ctx, name); ok && record.Usable(eff.CacheVersion) {
			l.memory.Set(name, record.Content)
			if eff.suitable(record.Content) {
				return loadResult{catalog: record.Content, source: metrics.LoadSourceStorage}
			}
			log.Debug("cached catalog lacks requested languages", "name", name, "lang", eff.Language)
		}
	}

	fetched, err := l.fetcher.Fetch(ctx, fetch.Request{Name: name, Entrypoint: eff.Entrypoint})
	if err != nil || fetched == nil {
		if err == nil {
			err = fetch.ErrNotFound
		}
		log.Error("failed to fetch catalog", "name", name, "entrypoint", eff.Entrypoint, "error", err)
		if resident, ok := l.memory.Get(name); ok {
			return loadResult{catalog: resident, source: metrics.LoadSourceDegraded}
		}
		return loadResult{catalog: i18n.NewCatalog(), source: metrics.LoadSourceDegraded}
	}

	catalog := fetched
	if eff.useCache && !eff.CacheAll.All {
		var previous []string
		if resident, ok := l.memory.Get(name); ok {
			previous, _ = resident.Optimized()
		}
		catalog = l.optimizer.Optimize(name, fetched, i18n.OptimizeOptions{
			Language:        eff.Language,
			ContentLanguage: eff.contentLanguage,
			Previous:        previous,
			CacheAllKeys:    eff.CacheAll.Keys,
		})
	}

	l.memory.Set(name, catalog)
	if eff.useCache {
		l.writeCache(ctx, name, catalog, eff.CacheVersion)
	}
	return loadResult{catalog: catalog, source: metrics.LoadSourceNetwork}
}

func (l *Loader) readCache(ctx context.Context, name string) (cachestore.Record, bool) {
	_, span := tracing.StartCacheSpan(ctx, tracing.SpanOperationCacheRead, tracing.WithCacheKey(l.store.Namespace()+name))
	defer span.End()
	record, ok := l.store.Read(name)
	span.SetAttributes(attribute.Bool("cache.hit", ok), attribute.Int("cache.version", record.Version))
	return record, ok
}

func (l *Loader) writeCache(ctx context.Context, name string, catalog *i18n.Catalog, version int) {
	_, span := tracing.StartCacheSpan(ctx, tracing.SpanOperationCacheWrite, tracing.WithCacheKey(l.store.Namespace()+name))
	defer span.End()
	l.store.Write(name, catalog, version)
}

// reportMissing logs a missing message once per gadget, language and key.
func (l *Loader) reportMissing(name, lang, key string) {
	if !l.reported.add(name + "\x00" + lang + "\x00" + key) {
		return
	}
	l.log.Error("message not found", "name", name, "lang", lang, "key", key)
}

// reportSet remembers up to limit entries and starts over when full.
type reportSet struct {
	mu    sync.Mutex
	limit int
	seen  map[string]struct{}
}

func newReportSet(limit int) *reportSet {
	return &reportSet{limit: limit, seen: make(map[string]struct{})}
}

// add records entry and reports whether it was new.
func (r *reportSet) add(entry string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[entry]; ok {
		return false
	}
	if len(r.seen) >= r.limit {
		r.seen = make(map[string]struct{}, r.limit)
	}
	r.seen[entry] = struct{}{}
	return true
}

func (r *reportSet) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func (r *reportSet) clear() {
	r.mu.Lock()
	r.seen = make(map[string]struct{}, r.limit)
	r.mu.Unlock()
}
