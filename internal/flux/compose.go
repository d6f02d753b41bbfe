package flux

import (
	"maps"
	"slices"
	"sync/atomic"

	"github.com/roach88/fluxury/internal/ir"
)

// Sources is the input shape of a derived store: an ordered list of stores
// or a mapping from key to store. The derived state mirrors it ([]any or
// map[string]any).
type Sources struct {
	list  []*Store
	keyed map[string]*Store
}

// List derives a []any state, one element per store, in order. The slice
// is copied; later changes by the caller do not reach the derived store.
func List(stores ...*Store) Sources {
	return Sources{list: slices.Clone(stores)}
}

// Map derives a map[string]any state with the same keys as stores. The map
// is copied; keys added or removed by the caller later are ignored.
func Map(stores map[string]*Store) Sources {
	return Sources{keyed: maps.Clone(stores)}
}

// IsMapped reports whether the derived state is a mapping.
func (src Sources) IsMapped() bool {
	return src.keyed != nil
}

// stores returns the source stores; keyed sources are returned in key order
// so waitFor runs them deterministically.
func (src Sources) stores() []*Store {
	if src.keyed == nil {
		return src.list
	}
	out := make([]*Store, 0, len(src.keyed))
	for _, k := range ir.SortedKeys(src.keyed) {
		out = append(out, src.keyed[k])
	}
	return out
}

// snapshot builds a fresh derived state from the sources' current states.
func (src Sources) snapshot() any {
	if src.keyed != nil {
		m := make(map[string]any, len(src.keyed))
		for k, s := range src.keyed {
			m[k] = s.GetState()
		}
		return m
	}
	l := make([]any, len(src.list))
	for i, s := range src.list {
		l[i] = s.GetState()
	}
	return l
}

// ComposeStore creates a store whose state is derived from other stores.
//
// Its reducer ignores the action payload. It waits for every source store's
// handler, then re-derives its state only if a source notified since the
// last derivation; otherwise it returns the previous state and nothing is
// committed. The source subscriptions that mark it dirty are removed when
// the derived store is disposed.
func (f *Flux) ComposeStore(name string, sources Sources, opts ...StoreOption) (*Store, error) {
	stores := sources.stores()
	if len(stores) == 0 {
		return nil, invalidArgument(name, "composed store needs at least one source")
	}
	for _, s := range stores {
		if s == nil {
			return nil, invalidArgument(name, "composed store source is nil")
		}
		if s.flux != f {
			return nil, invalidArgument(name, "source store %q belongs to a different flux", s.name)
		}
		if s.Disposed() {
			return nil, invalidArgument(name, "source store %q is disposed", s.name)
		}
	}

	var dirty atomic.Bool

	reducer := func(state any, action ir.Action, waitFor WaitFunc) (any, error) {
		tokens := make([]Token, 0, len(stores))
		for _, s := range stores {
			if !s.Disposed() {
				tokens = append(tokens, s.token)
			}
		}
		if err := waitFor(tokens...); err != nil {
			return nil, err
		}

		if dirty.CompareAndSwap(true, false) {
			return sources.snapshot(), nil
		}
		return state, nil
	}

	opts = append([]StoreOption{WithInitialState(sources.snapshot())}, opts...)
	derived, err := f.CreateStore(name, reducer, opts...)
	if err != nil {
		return nil, err
	}

	for _, s := range stores {
		unsubscribe, err := s.Subscribe(func(ir.Action) { dirty.Store(true) })
		if err != nil {
			return nil, err
		}
		derived.addDisposeHook(unsubscribe)
	}
	return derived, nil
}
