package i18n

import (
	"github.com/nimburion/i18nloader/pkg/observability/logger"
)

// OptimizeOptions describes the page context a catalog is optimized for.
type OptimizeOptions struct {
	// Language is the language the caller asked for.
	Language string
	// ContentLanguage is the site content language.
	ContentLanguage string
	// Previous lists the languages of an earlier optimized catalog for the
	// same gadget. They are kept so that wikis in different languages sharing
	// one cache accumulate languages instead of evicting each other.
	Previous []string
	// CacheAllKeys are resolved for every language of the source catalog.
	CacheAllKeys []string
}

// Optimizer reduces catalogs to the messages a page can actually display.
type Optimizer struct {
	resolver *Resolver
	log      logger.Logger
}

// NewOptimizer creates an optimizer resolving messages through resolver.
func NewOptimizer(resolver *Resolver, log logger.Logger) *Optimizer {
	return &Optimizer{resolver: resolver, log: logger.OrNop(log)}
}

// Optimize returns a new catalog holding, for every required language, each
// English key resolved through the fallback graph. Keys that resolve nowhere
// are left out. The required languages are recorded as the optimized marker.
//
// A catalog without English messages is returned unchanged.
func (o *Optimizer) Optimize(name string, source *Catalog, opts OptimizeOptions) *Catalog {
	keys := source.Keys(BaselineLanguage)
	if len(keys) == 0 {
		o.log.Debug("catalog has no en messages, skipping optimization", "name", name)
		return source
	}

	required := make([]string, 0, 2+len(opts.Previous))
	seen := map[string]struct{}{}
	require := func(lang string) {
		if lang == "" {
			return
		}
		if _, ok := seen[lang]; ok {
			return
		}
		seen[lang] = struct{}{}
		required = append(required, lang)
	}
	require(opts.Language)
	require(opts.ContentLanguage)
	for _, lang := range opts.Previous {
		require(lang)
	}

	optimized := NewCatalog()
	for _, lang := range required {
		o.resolveInto(optimized, source, lang, keys)
	}
	if len(opts.CacheAllKeys) > 0 {
		for _, lang := range source.Languages() {
			o.resolveInto(optimized, source, lang, opts.CacheAllKeys)
		}
	}
	optimized.optimized = required

	o.log.Debug("optimized catalog", "name", name, "languages", required, "source_languages", source.Len())
	return optimized
}

func (o *Optimizer) resolveInto(dst, source *Catalog, lang string, keys []string) {
	if dst.messages[lang] == nil {
		dst.messages[lang] = map[string]string{}
	}
	for _, key := range keys {
		if _, done := dst.messages[lang][key]; done {
			continue
		}
		if msg, ok := o.resolver.Resolve(source, key, lang, nil); ok {
			dst.messages[lang][key] = msg
		}
	}
}
