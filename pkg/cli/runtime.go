package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimburion/i18nloader/pkg/config"
	"github.com/nimburion/i18nloader/pkg/i18n"
	"github.com/nimburion/i18nloader/pkg/i18n/cachestore"
	"github.com/nimburion/i18nloader/pkg/i18n/fetch"
	"github.com/nimburion/i18nloader/pkg/i18n/loader"
	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/observability/tracing"
	"github.com/nimburion/i18nloader/pkg/store"
	"github.com/nimburion/i18nloader/pkg/store/factory"
	"github.com/nimburion/i18nloader/pkg/store/s3"
)

// runtime holds the components built from configuration for one command.
type runtime struct {
	cfg     *config.Config
	log     logger.Logger
	storage store.Storage
	cache   *cachestore.Store
	fetcher *fetch.Guarded
	loader  *loader.Loader
	tracer  *tracing.Provider
}

// newCacheRuntime builds the persistent cache described by cfg.
func newCacheRuntime(cfg *config.Config, log logger.Logger) (*runtime, error) {
	storage, err := factory.NewStorage(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create storage: %w", err)
	}
	cache := cachestore.New(storage, cachestore.Config{
		Namespace: cfg.Loader.Namespace,
		MaxAge:    cfg.Loader.MaxAge,
	}, log)
	return &runtime{cfg: cfg, log: log, storage: storage, cache: cache}, nil
}

// newLoaderRuntime builds the full loader: storage, catalog source,
// overrides and tracing.
func newLoaderRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*runtime, error) {
	rt, err := newCacheRuntime(cfg, log)
	if err != nil {
		return nil, err
	}

	overrides, err := i18n.LoadOverridesFile(cfg.Loader.OverridesFile)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.fetcher, err = fetch.NewFromConfig(cfg, log)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("create catalog source: %w", err)
	}
	rt.tracer, err = newTracer(ctx, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	rt.loader = loader.New(loader.Config{
		Fetcher:    rt.fetcher,
		Store:      rt.cache,
		Overrides:  overrides,
		Ambient:    loader.AmbientFromConfig(cfg.Ambient, cfg.Loader.Debug),
		Entrypoint: cfg.Loader.Entrypoint,
	}, log)
	return rt, nil
}

func newTracer(ctx context.Context, cfg *config.Config) (*tracing.Provider, error) {
	tp, err := tracing.NewProvider(ctx, cfg.Observability.Tracing)
	if err != nil {
		return nil, fmt.Errorf("create tracer: %w", err)
	}
	return tp, nil
}

// Close releases the storage backend and flushes traces.
func (rt *runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.tracer != nil {
		errs = append(errs, rt.tracer.Shutdown(ctx))
	}
	if rt.storage != nil {
		errs = append(errs, factory.Close(rt.storage))
	}
	return errors.Join(errs...)
}

// newS3Adapter connects to the catalog bucket configured under source.s3.
func newS3Adapter(cfg *config.Config, log logger.Logger) (*s3.Adapter, error) {
	adapter, err := s3.NewAdapter(s3.Config{
		Bucket:          cfg.Source.S3.Bucket,
		Region:          cfg.Source.S3.Region,
		Endpoint:        cfg.Source.S3.Endpoint,
		AccessKeyID:     cfg.Source.S3.AccessKeyID,
		SecretAccessKey: cfg.Source.S3.SecretAccessKey,
		UsePathStyle:    cfg.Source.S3.UsePathStyle,
		Prefix:          cfg.Source.S3.Prefix,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create s3 adapter: %w", err)
	}
	return adapter, nil
}
