package loader

import (
	"sync"

	"github.com/nimburion/i18nloader/pkg/i18n"
)

// loadResult is the outcome of one catalog load.
type loadResult struct {
	catalog *i18n.Catalog
	source  string
}

// loadGroup collapses concurrent loads of the same gadget into one.
type loadGroup struct {
	mu sync.Mutex
	m  map[string]*loadCall
}

type loadCall struct {
	wg      sync.WaitGroup
	waiters int
	result  loadResult
}

// Do runs fn for key unless a call for key is already in flight, in which case
// it waits for that call and returns its result with shared set.
func (g *loadGroup) Do(key string, fn func() loadResult) (loadResult, bool) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[string]*loadCall)
	}
	if call, ok := g.m[key]; ok {
		call.waiters++
		g.mu.Unlock()
		call.wg.Wait()
		return call.result, true
	}

	call := &loadCall{}
	call.wg.Add(1)
	g.m[key] = call
	g.mu.Unlock()

	defer func() {
		call.wg.Done()
		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()
	}()
	call.result = fn()
	return call.result, false
}

// waiting returns how many callers are blocked on the in-flight call for key.
func (g *loadGroup) waiting(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if call, ok := g.m[key]; ok {
		return call.waiters
	}
	return 0
}
