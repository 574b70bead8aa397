package loader

import "github.com/nimburion/i18nloader/pkg/i18n"

// CacheAll controls which translations survive optimization.
//
// All keeps the fetched catalog verbatim. Keys lists messages whose
// translations are kept for every language.
type CacheAll struct {
	All  bool
	Keys []string
}

// Enabled reports whether any form of cacheAll is configured.
func (c CacheAll) Enabled() bool {
	return c.All || len(c.Keys) > 0
}

// Options are the per-call options of LoadMessages. The zero value is valid.
type Options struct {
	// Entrypoint overrides the base location catalogs are fetched from.
	Entrypoint string
	CacheAll   CacheAll
	// CacheVersion is the minimum version a persisted record must carry.
	// Negative values are treated as 0.
	CacheVersion int
	// Language is the session's default language. Empty means the ambient
	// user language.
	Language string
	// NoCache bypasses the persistent cache for this call.
	NoCache bool
}

// effectiveOptions are Options with every default applied.
type effectiveOptions struct {
	Options
	contentLanguage string
	useCache        bool
}

func (l *Loader) effective(opts Options) effectiveOptions {
	if opts.Entrypoint == "" {
		opts.Entrypoint = l.entrypoint
	}
	if opts.CacheVersion < 0 {
		opts.CacheVersion = 0
	}
	opts.Language = i18n.CatalogCode(opts.Language)
	if opts.Language == "" {
		opts.Language = l.ambient.UserLanguage
	}
	return effectiveOptions{
		Options:         opts,
		contentLanguage: l.ambient.ContentLanguage,
		useCache:        !(opts.NoCache || l.ambient.Debug),
	}
}

// suitable reports whether c can serve opts without a refetch: an optimized
// catalog must have been optimized for both the requested language and the
// content language.
func (o effectiveOptions) suitable(c *i18n.Catalog) bool {
	if c == nil {
		return false
	}
	if _, optimized := c.Optimized(); !optimized {
		return true
	}
	return c.HasOptimized(o.Language) && c.HasOptimized(o.contentLanguage)
}
