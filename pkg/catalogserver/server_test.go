package catalogserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nimburion/i18nloader/pkg/health"
	"github.com/nimburion/i18nloader/pkg/i18n/fetch"
	"github.com/nimburion/i18nloader/pkg/i18n/loader"
	"github.com/nimburion/i18nloader/pkg/testutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func catalogRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Foo", "i18n.json"), `{"en":{"title":"Title","save":"Save"},"fr":{"title":"Titre"}}`)
	writeFile(t, filepath.Join(root, "Split", "i18n", "en.json"), `{"title":"Title"}`)
	writeFile(t, filepath.Join(root, "Split", "i18n", "de.yaml"), "title: Titel\n")
	writeFile(t, filepath.Join(root, "Broken", "i18n.json"), `{"en":`)
	return root
}

func serve(s http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_Catalog(t *testing.T) {
	log := &testutil.MockLogger{}
	s := New(Config{Root: catalogRoot(t), CacheMaxAge: 5 * time.Minute}, log)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "single file", method: http.MethodGet, path: "/Foo/i18n.json", wantStatus: http.StatusOK, wantBody: `"Titre"`},
		{name: "per-language files", method: http.MethodGet, path: "/Split/i18n.json", wantStatus: http.StatusOK, wantBody: `"Titel"`},
		{name: "head", method: http.MethodHead, path: "/Foo/i18n.json", wantStatus: http.StatusOK},
		{name: "missing", method: http.MethodGet, path: "/Missing/i18n.json", wantStatus: http.StatusNotFound, wantBody: "not_found"},
		{name: "invalid name", method: http.MethodGet, path: "/a%00b/i18n.json", wantStatus: http.StatusBadRequest, wantBody: "invalid_name"},
		{name: "unreadable", method: http.MethodGet, path: "/Broken/i18n.json", wantStatus: http.StatusInternalServerError, wantBody: "catalog_unreadable"},
		{name: "method not allowed", method: http.MethodPost, path: "/Foo/i18n.json", wantStatus: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %q, got %s", tt.wantBody, rec.Body.String())
			}
			if tt.method == http.MethodHead && rec.Body.Len() != 0 {
				t.Fatal("expected no body for HEAD")
			}
		})
	}
	if log.Count("error", "failed to load catalog") != 1 {
		t.Fatalf("expected unreadable catalog to be logged, got %v", log.Entries())
	}
}

func TestServer_CatalogCaching(t *testing.T) {
	s := New(Config{Root: catalogRoot(t), CacheMaxAge: 5 * time.Minute}, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/Foo/i18n.json", nil))
	etag := rec.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Fatalf("unexpected etag %q", etag)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=300" {
		t.Fatalf("unexpected cache control %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected catalogs to be readable cross-origin")
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/Foo/i18n.json", nil)
	req.Header.Set("If-None-Match", `W/"other", `+etag)
	req.Header.Set(RequestIDHeader, "req-1")
	rec = serve(s, req)
	if rec.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) != "req-1" {
		t.Fatal("expected the incoming request id to be kept")
	}

	noCache := New(Config{Root: catalogRoot(t)}, nil)
	rec = serve(noCache, httptest.NewRequest(http.MethodGet, "/Foo/i18n.json", nil))
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("expected no-cache, got %q", got)
	}
}

func TestServer_OperationalEndpoints(t *testing.T) {
	root := catalogRoot(t)
	s := New(Config{Root: root, ServiceName: "catalogs"}, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/version", nil))
	var info map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("version body: %v", err)
	}
	if info["service"] != "catalogs" {
		t.Fatalf("unexpected version info %v", info)
	}

	serve(s, httptest.NewRequest(http.MethodGet, "/Foo/i18n.json", nil))
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `route="/{name}/i18n.json"`) {
		t.Fatal("expected catalog requests to be recorded by route template")
	}
}

func TestServer_NotReady(t *testing.T) {
	s := New(Config{Root: filepath.Join(t.TempDir(), "missing")}, nil)
	s.Health().Register(health.CheckerFunc("storage", func(context.Context) health.CheckResult {
		return health.CheckResult{Status: health.StatusHealthy}
	}))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var result health.AggregatedResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Checks) != 2 || result.Status != health.StatusUnhealthy {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestServer_RecoversFromPanics(t *testing.T) {
	log := &testutil.MockLogger{}
	s := New(Config{Root: t.TempDir()}, log)
	s.router.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if log.Count("error", "panic recovered") != 1 {
		t.Fatal("expected the panic to be logged")
	}
}

func TestServer_ServesTheLoader(t *testing.T) {
	srv := httptest.NewServer(New(Config{Root: catalogRoot(t)}, nil))
	defer srv.Close()

	l := loader.New(loader.Config{
		Fetcher:    fetch.NewHTTPFetcher(srv.URL, srv.Client()),
		Ambient:    loader.Ambient{ContentLanguage: "en", UserLanguage: "fr"},
		Entrypoint: srv.URL,
	}, nil)

	s := l.LoadMessages(context.Background(), "Foo", loader.Options{})
	if s.Degraded() {
		t.Fatal("expected the catalog to load")
	}
	if got := s.Msg("title"); got != "Titre" {
		t.Fatalf("expected Titre, got %q", got)
	}
	if got := s.Msg("save"); got != "Save" {
		t.Fatalf("expected fallback to en, got %q", got)
	}
	if langs, _ := s.Catalog().Optimized(); len(langs) != 2 {
		t.Fatalf("expected catalog optimized for fr and en, got %v", langs)
	}

	missing := l.LoadMessages(context.Background(), "Nope", loader.Options{})
	if !missing.Degraded() || missing.Msg("title") != "title" {
		t.Fatal("expected a degraded session for a missing catalog")
	}
}
