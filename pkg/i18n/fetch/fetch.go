// Package fetch downloads gadget catalogs from their published location.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/nimburion/i18nloader/pkg/i18n"
	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/observability/metrics"
	"github.com/nimburion/i18nloader/pkg/observability/tracing"
	"github.com/nimburion/i18nloader/pkg/resilience"
)

// CatalogFile is the file name of a published catalog under its gadget directory.
const CatalogFile = "i18n.json"

// ErrStatus is wrapped by errors for non-2xx catalog responses.
var ErrStatus = errors.New("unexpected catalog response status")

// ErrNotFound is wrapped when the source has no catalog for the gadget.
var ErrNotFound = errors.New("catalog not found")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d from %s", ErrStatus, e.Code, e.URL)
}

// Is reports ErrStatus, and ErrNotFound for 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus || (target == ErrNotFound && e.Code == 404)
}

// Request identifies the catalog to fetch.
type Request struct {
	Name string
	// Entrypoint overrides the fetcher's base location, when it has one.
	Entrypoint string
}

// Fetcher retrieves the full catalog of one gadget.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*i18n.Catalog, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req Request) (*i18n.Catalog, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*i18n.Catalog, error) {
	return f(ctx, req)
}

// GuardConfig configures Guard.
type GuardConfig struct {
	// Kind labels metrics and spans (http, s3, dir).
	Kind string
	// Timeout bounds each fetch; 0 leaves it to the underlying fetcher.
	Timeout      time.Duration
	MaxFailures  int
	ResetTimeout time.Duration
	// RateLimit is fetches per second; 0 disables limiting.
	RateLimit float64
	Burst     int
}

// Guarded wraps a Fetcher with rate limiting, a circuit breaker, an optional
// timeout, tracing and metrics.
type Guarded struct {
	next    Fetcher
	kind    string
	timeout time.Duration
	breaker *resilience.CircuitBreaker
	limiter *rate.Limiter
	log     logger.Logger
}

// Guard wraps next according to cfg.
func Guard(next Fetcher, cfg GuardConfig, log logger.Logger) *Guarded {
	log = logger.OrNop(log)
	g := &Guarded{next: next, kind: cfg.Kind, timeout: cfg.Timeout, log: log}
	if g.kind == "" {
		g.kind = "custom"
	}
	if cfg.MaxFailures > 0 {
		kind := g.kind
		g.breaker = resilience.NewCircuitBreaker(cfg.MaxFailures, cfg.ResetTimeout,
			resilience.OnStateChange(func(from, to resilience.State) {
				log.Warn("catalog source circuit breaker changed state", "fetcher", kind, "from", from.String(), "to", to.String())
			}))
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return g
}

// Fetch implements Fetcher.
func (g *Guarded) Fetch(ctx context.Context, req Request) (*i18n.Catalog, error) {
	spanOpts := []tracing.FetchSpanOption{tracing.WithFetcher(g.kind)}
	if g.kind == "http" && req.Entrypoint != "" {
		spanOpts = append(spanOpts, tracing.WithSourceURL(CatalogURL(req.Entrypoint, req.Name)))
	}
	ctx, span := tracing.StartFetchSpan(ctx, req.Name, spanOpts...)
	defer span.End()

	start := time.Now()
	catalog, err := g.fetch(ctx, req)
	metrics.ObserveFetch(g.kind, time.Since(start), err)

	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	tracing.RecordLanguages(span, catalog.Len())
	tracing.RecordSuccess(span)
	g.log.Debug("catalog fetched", "name", req.Name, "fetcher", g.kind, "languages", catalog.Len(), "duration", time.Since(start))
	return catalog, nil
}

// Breaker exposes the circuit breaker, nil when disabled.
func (g *Guarded) Breaker() *resilience.CircuitBreaker { return g.breaker }

func (g *Guarded) fetch(ctx context.Context, req Request) (*i18n.Catalog, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	var (
		catalog  *i18n.Catalog
		notFound error
	)
	err := g.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		err := resilience.WithTimeout(ctx, g.kind+" catalog fetch", g.timeout, func(ctx context.Context) error {
			fetched, err := g.next.Fetch(ctx, req)
			if err != nil {
				return err
			}
			catalog = fetched
			return nil
		})
		// a missing catalog says nothing about the health of the source
		if errors.Is(err, ErrNotFound) {
			notFound = err
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if notFound != nil {
		return nil, notFound
	}
	return catalog, nil
}
