package i18n

import (
	"sort"
	"sync/atomic"

	"github.com/nimburion/i18nloader/pkg/observability/logger"
)

// Resolver looks messages up through a fallback graph.
//
// Resolve is safe for concurrent use. The only state a Resolver owns is
// whether it has already reported a fallback loop.
type Resolver struct {
	graph  FallbackGraph
	log    logger.Logger
	warned atomic.Bool
}

// NewResolver creates a resolver over graph. A nil graph means every language
// falls back straight to English.
func NewResolver(graph FallbackGraph, log logger.Logger) *Resolver {
	return &Resolver{graph: graph, log: logger.OrNop(log)}
}

// Graph returns the fallback graph the resolver walks.
func (r *Resolver) Graph() FallbackGraph { return r.graph }

// Resolve returns the best translation of key for lang.
//
// The message stored for lang wins, then the first hit in lang's fallback
// list, then English. Languages already in visited are skipped, and the first
// such loop is reported once per Resolver. visited may be nil; callers that
// pass their own set share loop detection across calls.
func (r *Resolver) Resolve(c *Catalog, key, lang string, visited map[string]struct{}) (string, bool) {
	if c == nil || key == "" || lang == "" {
		return "", false
	}

	lang = canonicalCode(lang)
	if msg, ok := c.Message(lang, key); ok {
		return msg, true
	}

	if visited == nil {
		visited = map[string]struct{}{}
	}
	if _, seen := visited[lang]; !seen {
		visited[lang] = struct{}{}
	}

	for _, fallback := range r.graph.Fallbacks(lang) {
		if msg, ok := c.Message(fallback, key); ok {
			return msg, true
		}
		if _, seen := visited[fallback]; seen {
			r.warnLoop(fallback, visited)
			continue
		}
		visited[fallback] = struct{}{}
	}

	return c.Message(BaselineLanguage, key)
}

// ResetLoopWarning re-arms the one-time fallback loop report.
func (r *Resolver) ResetLoopWarning() {
	r.warned.Store(false)
}

func (r *Resolver) warnLoop(lang string, visited map[string]struct{}) {
	if !r.warned.CompareAndSwap(false, true) {
		return
	}
	chain := make([]string, 0, len(visited))
	for seen := range visited {
		chain = append(chain, seen)
	}
	sort.Strings(chain)
	r.log.Warn("duplicated fallback language found", "lang", lang, "visited", chain)
}
