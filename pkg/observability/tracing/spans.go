package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanOperation represents a traced operation type.
type SpanOperation string

// Span operation constants
const (
	// SpanOperationCatalogFetch is a catalog download from its source
	SpanOperationCatalogFetch SpanOperation = "catalog.fetch"

	// SpanOperationCacheRead reads a record from the persistent cache
	SpanOperationCacheRead SpanOperation = "cache.read"
	// SpanOperationCacheWrite writes a record to the persistent cache
	SpanOperationCacheWrite SpanOperation = "cache.write"
	// SpanOperationCacheSweep removes expired records from the persistent cache
	SpanOperationCacheSweep SpanOperation = "cache.sweep"
)

// StartFetchSpan creates a client span for fetching the catalog of gadget name.
func StartFetchSpan(ctx context.Context, name string, opts ...FetchSpanOption) (context.Context, trace.Span) {
	tracer := otel.Tracer("i18nloader/fetch")

	spanOpts := &fetchSpanOptions{
		attributes: []attribute.KeyValue{
			attribute.String("catalog.operation", string(SpanOperationCatalogFetch)),
			attribute.String("catalog.name", name),
		},
	}
	for _, opt := range opts {
		opt(spanOpts)
	}

	ctx, span := tracer.Start(ctx, fmt.Sprintf("FETCH %s", name), trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(spanOpts.attributes...)
	return ctx, span
}

// FetchSpanOption configures a fetch span.
type FetchSpanOption func(*fetchSpanOptions)

type fetchSpanOptions struct {
	attributes []attribute.KeyValue
}

// WithFetcher sets the fetcher kind (http, s3, dir).
func WithFetcher(kind string) FetchSpanOption {
	return func(opts *fetchSpanOptions) {
		opts.attributes = append(opts.attributes, attribute.String("catalog.fetcher", kind))
	}
}

// WithSourceURL sets the location the catalog is read from.
func WithSourceURL(url string) FetchSpanOption {
	return func(opts *fetchSpanOptions) {
		opts.attributes = append(opts.attributes, attribute.String("catalog.source", url))
	}
}

// RecordLanguages annotates a fetch span with the number of languages fetched.
func RecordLanguages(span trace.Span, count int) {
	span.SetAttributes(attribute.Int("catalog.languages", count))
}

// StartCacheSpan creates a new span for a persistent cache operation.
func StartCacheSpan(ctx context.Context, operation SpanOperation, opts ...CacheSpanOption) (context.Context, trace.Span) {
	tracer := otel.Tracer("i18nloader/cache")

	spanOpts := &cacheSpanOptions{
		attributes: []attribute.KeyValue{
			attribute.String("cache.operation", string(operation)),
		},
	}
	for _, opt := range opts {
		opt(spanOpts)
	}

	spanName := fmt.Sprintf("CACHE %s", operation)
	if spanOpts.key != "" {
		spanName = fmt.Sprintf("CACHE %s %s", operation, spanOpts.key)
	}

	ctx, span := tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(spanOpts.attributes...)
	return ctx, span
}

// CacheSpanOption configures a cache span.
type CacheSpanOption func(*cacheSpanOptions)

type cacheSpanOptions struct {
	key        string
	attributes []attribute.KeyValue
}

// WithCacheKey sets the cache record key.
func WithCacheKey(key string) CacheSpanOption {
	return func(opts *cacheSpanOptions) {
		opts.key = key
		opts.attributes = append(opts.attributes, attribute.String("cache.key", key))
	}
}

// WithCacheHit sets whether the cache operation was a hit or miss.
func WithCacheHit(hit bool) CacheSpanOption {
	return func(opts *cacheSpanOptions) {
		opts.attributes = append(opts.attributes, attribute.Bool("cache.hit", hit))
	}
}

// RecordError records an error in the span and sets the span status to error.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// RecordSuccess sets the span status to OK.
func RecordSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
