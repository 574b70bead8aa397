package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nimburion/i18nloader/pkg/i18n"
	"github.com/nimburion/i18nloader/pkg/security"
)

// DirFetcher reads catalogs from a local directory laid out like the CDN:
// <root>/<name>/i18n.json, or per-language files under <root>/<name>/i18n/.
type DirFetcher struct {
	root string
}

// NewDirFetcher creates a fetcher reading under root.
func NewDirFetcher(root string) *DirFetcher {
	return &DirFetcher{root: root}
}

// Fetch implements Fetcher. req.Entrypoint is ignored.
func (f *DirFetcher) Fetch(_ context.Context, req Request) (*i18n.Catalog, error) {
	return LoadFromDir(f.root, req.Name)
}

// LoadFromDir loads the catalog of name from a CDN-shaped directory.
func LoadFromDir(root, name string) (*i18n.Catalog, error) {
	if err := security.ValidateName(name); err != nil {
		return nil, fmt.Errorf("catalog %q: %w", name, err)
	}

	file, err := security.JoinUnder(root, name, CatalogFile)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(file); err == nil {
		return i18n.LoadCatalogFile(file)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", file, err)
	}

	dir, err := security.JoinUnder(root, name, "i18n")
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	catalog, err := i18n.LoadCatalogDir(dir)
	if err != nil {
		return nil, err
	}
	if catalog.IsEmpty() {
		return nil, fmt.Errorf("%w: %s has no language files", ErrNotFound, name)
	}
	return catalog, nil
}
