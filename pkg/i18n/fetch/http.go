package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nimburion/i18nloader/pkg/i18n"
	"github.com/nimburion/i18nloader/pkg/version"
)

// maxCatalogBytes caps the size of a downloaded catalog.
const maxCatalogBytes = 16 << 20

// HTTPFetcher issues one GET {entrypoint}/{name}/i18n.json per fetch.
type HTTPFetcher struct {
	entrypoint string
	client     *http.Client
	userAgent  string
}

// NewHTTPFetcher creates a fetcher for catalogs published under entrypoint.
// A nil client uses http.DefaultClient.
func NewHTTPFetcher(entrypoint string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		entrypoint: entrypoint,
		client:     client,
		userAgent:  version.UserAgent(),
	}
}

// CatalogURL returns the location of the catalog of name under entrypoint.
func CatalogURL(entrypoint, name string) string {
	return strings.TrimRight(entrypoint, "/") + "/" + url.PathEscape(name) + "/" + CatalogFile
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*i18n.Catalog, error) {
	entrypoint := req.Entrypoint
	if entrypoint == "" {
		entrypoint = f.entrypoint
	}
	if entrypoint == "" {
		return nil, fmt.Errorf("no entrypoint configured for catalog %q", req.Name)
	}
	target := CatalogURL(entrypoint, req.Name)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: target, Code: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	if len(raw) > maxCatalogBytes {
		return nil, fmt.Errorf("catalog %s exceeds %d bytes", target, maxCatalogBytes)
	}
	catalog, err := i18n.DecodeCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}
	return catalog, nil
}
