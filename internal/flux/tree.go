package flux

import (
	"maps"
	"sync"
	"sync/atomic"
)

// rootTree is the mapping from store name to that store's current snapshot.
//
// The map behind snap is never mutated after it is published. Every write
// copies it, applies one change and publishes the copy, so readers holding
// an older map keep a consistent view without locking.
type rootTree struct {
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[map[string]any]
}

func newRootTree() *rootTree {
	t := &rootTree{}
	empty := map[string]any{}
	t.snap.Store(&empty)
	return t
}

func (t *rootTree) load() map[string]any {
	return *t.snap.Load()
}

func (t *rootTree) get(name string) (any, bool) {
	v, ok := t.load()[name]
	return v, ok
}

func (t *rootTree) has(name string) bool {
	_, ok := t.load()[name]
	return ok
}

// set replaces the whole tree with a copy holding state under name.
func (t *rootTree) set(name string, state any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := maps.Clone(t.load())
	next[name] = state
	t.snap.Store(&next)
}

func (t *rootTree) delete(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := maps.Clone(t.load())
	delete(next, name)
	t.snap.Store(&next)
}
