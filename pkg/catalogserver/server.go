// Package catalogserver serves published gadget catalogs the way the CDN
// does, at GET /{name}/i18n.json, together with health, metrics and version
// endpoints. It backs local development and the integration tests of the
// HTTP fetcher.
package catalogserver

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nimburion/i18nloader/pkg/health"
	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/observability/metrics"
)

// Config configures the catalog routes.
type Config struct {
	// Root is the directory holding <name>/i18n.json or <name>/i18n/<lang>.json.
	Root string
	// CacheMaxAge is advertised in Cache-Control; 0 sends no-cache.
	CacheMaxAge time.Duration
	// ServiceName is reported by /version.
	ServiceName string
	// CompressMinSize is the smallest catalog body sent compressed; 0 uses 512 bytes.
	CompressMinSize int
	// DisableCompression serves catalogs uncompressed.
	DisableCompression bool
}

// Option customizes a Server.
type Option func(*Server)

// WithHealthRegistry replaces the readiness checks.
func WithHealthRegistry(registry *health.Registry) Option {
	return func(s *Server) { s.health = registry }
}

// WithMetricsRegistry replaces the registry exposed at /metrics.
func WithMetricsRegistry(registry *metrics.Registry) Option {
	return func(s *Server) { s.metrics = registry }
}

// Server is the catalog HTTP handler.
type Server struct {
	cfg     Config
	router  *mux.Router
	health  *health.Registry
	metrics *metrics.Registry
	log     logger.Logger
}

// New creates the handler. Unless replaced, readiness checks that the
// catalog root exists.
func New(cfg Config, log logger.Logger, opts ...Option) *Server {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "i18nloader"
	}
	s := &Server{cfg: cfg, router: mux.NewRouter(), log: logger.OrNop(log)}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = health.NewRegistry()
		s.health.Register(health.NewDirChecker("catalogs", cfg.Root))
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}
	s.routes()
	return s
}

// Health returns the readiness registry so callers can add checks.
func (s *Server) Health() *health.Registry { return s.health }

func (s *Server) routes() {
	s.router.Use(requestID, recoverer(s.log), instrument(s.log))

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)
	var catalog http.Handler = http.HandlerFunc(s.handleCatalog)
	if !s.cfg.DisableCompression {
		catalog = compress(s.cfg.CompressMinSize)(catalog)
	}
	s.router.Handle("/{name}/i18n.json", catalog).Methods(http.MethodGet, http.MethodHead)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
