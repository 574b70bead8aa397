package fetch

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/nimburion/i18nloader/pkg/i18n"
	"github.com/nimburion/i18nloader/pkg/security"
	"github.com/nimburion/i18nloader/pkg/store"
	"github.com/nimburion/i18nloader/pkg/store/s3"
)

// ObjectSource is the read side of the S3 adapter.
type ObjectSource interface {
	Download(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]s3.ObjectInfo, error)
}

// S3Fetcher reads catalogs published to an S3 bucket, either as a single
// <name>/i18n.json object or as per-language objects under <name>/i18n/.
type S3Fetcher struct {
	objects ObjectSource
}

// NewS3Fetcher creates a fetcher reading from objects.
func NewS3Fetcher(objects ObjectSource) *S3Fetcher {
	return &S3Fetcher{objects: objects}
}

// Fetch implements Fetcher. req.Entrypoint is ignored.
func (f *S3Fetcher) Fetch(ctx context.Context, req Request) (*i18n.Catalog, error) {
	if err := security.ValidateName(req.Name); err != nil {
		return nil, fmt.Errorf("catalog %q: %w", req.Name, err)
	}

	key := path.Join(req.Name, CatalogFile)
	raw, err := f.objects.Download(ctx, key)
	if err == nil {
		catalog, err := i18n.DecodeCatalog(raw)
		if err != nil {
			return nil, fmt.Errorf("s3 object %s: %w", key, err)
		}
		return catalog, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	return f.fetchLanguages(ctx, req.Name)
}

func (f *S3Fetcher) fetchLanguages(ctx context.Context, name string) (*i18n.Catalog, error) {
	prefix := path.Join(name, "i18n") + "/"
	objects, err := f.objects.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	catalog := i18n.NewCatalog()
	for _, object := range objects {
		file := strings.TrimPrefix(object.Key, prefix)
		ext := path.Ext(file)
		lang := strings.TrimSuffix(file, ext)
		if lang == "" || strings.Contains(lang, "/") {
			continue
		}
		switch strings.ToLower(ext) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		raw, err := f.objects.Download(ctx, object.Key)
		if err != nil {
			return nil, err
		}
		messages, err := i18n.DecodeLanguage(ext, raw)
		if err != nil {
			return nil, fmt.Errorf("s3 object %s: %w", object.Key, err)
		}
		catalog.Add(lang, messages)
	}
	if catalog.IsEmpty() {
		return nil, fmt.Errorf("%w: no objects for %q in bucket", ErrNotFound, name)
	}
	return catalog, nil
}
