package flux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fluxury/internal/ir"
)

func TestComposeStore_ListShape(t *testing.T) {
	f := newTestFlux(t)
	a := mustCreateStore(t, f, "A", countReducer, WithInitialState(0))
	b := mustCreateStore(t, f, "B", countReducer, WithInitialState(10))

	derived, err := f.ComposeStore("Both", List(a, b))
	require.NoError(t, err)
	assert.Equal(t, []any{0, 10}, derived.GetState())

	mustDispatch(t, f, ir.Named("INC"))
	assert.Equal(t, []any{1, 11}, derived.GetState())
}

func TestComposeStore_NoCommitWithoutSourceChange(t *testing.T) {
	f := newTestFlux(t)
	count := mustCreateStore(t, f, "CountStore", countReducer, WithInitialState(0))
	derived, err := f.ComposeStore("Derived", Map(map[string]*Store{"count": count}))
	require.NoError(t, err)

	calls := 0
	_, err = derived.Subscribe(func(ir.Action) { calls++ })
	require.NoError(t, err)

	before := derived.GetState()
	mustDispatch(t, f, ir.Named("NOOP"))
	assert.Equal(t, 0, calls)
	assert.True(t, SameState(before, derived.GetState()))

	mustDispatch(t, f, ir.Named("INC"))
	assert.Equal(t, 1, calls)
}

func TestComposeStore_MapSourcesCopied(t *testing.T) {
	f := newTestFlux(t)
	a := mustCreateStore(t, f, "A", countReducer, WithInitialState(0))
	b := mustCreateStore(t, f, "B", countReducer, WithInitialState(2))

	sources := map[string]*Store{"a": a}
	derived, err := f.ComposeStore("Derived", Map(sources))
	require.NoError(t, err)

	sources["b"] = b
	delete(sources, "a")

	mustDispatch(t, f, ir.Named("INC"))
	assert.Equal(t, map[string]any{"a": 1}, derived.GetState())
}

func TestComposeStore_ListSourcesCopied(t *testing.T) {
	f := newTestFlux(t)
	a := mustCreateStore(t, f, "A", countReducer, WithInitialState(0))
	b := mustCreateStore(t, f, "B", countReducer, WithInitialState(10))

	sources := []*Store{a}
	derived, err := f.ComposeStore("Derived", List(sources...))
	require.NoError(t, err)

	sources[0] = b

	mustDispatch(t, f, ir.Named("INC"))
	assert.Equal(t, []any{1}, derived.GetState())
}

func TestComposeStore_OfComposedStore(t *testing.T) {
	f := newTestFlux(t)
	count := mustCreateStore(t, f, "CountStore", countReducer, WithInitialState(0))
	inner, err := f.ComposeStore("Inner", Map(map[string]*Store{"count": count}))
	require.NoError(t, err)
	outer, err := f.ComposeStore("Outer", List(inner))
	require.NoError(t, err)

	mustDispatch(t, f, ir.Named("INC"))
	assert.Equal(t, []any{map[string]any{"count": 1}}, outer.GetState())
}

func TestComposeStore_InvalidSources(t *testing.T) {
	f := newTestFlux(t)
	other := newTestFlux(t)
	foreign := mustCreateStore(t, other, "Foreign", countReducer, WithInitialState(0))
	gone := mustCreateStore(t, f, "Gone", countReducer, WithInitialState(0))
	require.NoError(t, gone.Dispose())

	tests := []struct {
		name    string
		sources Sources
	}{
		{"empty list", List()},
		{"empty map", Map(map[string]*Store{})},
		{"nil source", List(nil)},
		{"foreign source", List(foreign)},
		{"disposed source", List(gone)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ComposeStore("Derived", tt.sources)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestComposeStore_DisposeRemovesSourceSubscriptions(t *testing.T) {
	f := newTestFlux(t)
	count := mustCreateStore(t, f, "CountStore", countReducer, WithInitialState(0))
	derived, err := f.ComposeStore("Derived", List(count))
	require.NoError(t, err)
	assert.Equal(t, 1, count.Subscribers())

	require.NoError(t, derived.Dispose())
	assert.Equal(t, 0, count.Subscribers())
}

func TestComposeStore_SourceDisposedLater(t *testing.T) {
	f := newTestFlux(t)
	a := mustCreateStore(t, f, "A", countReducer, WithInitialState(0))
	b := mustCreateStore(t, f, "B", countReducer, WithInitialState(0))
	derived, err := f.ComposeStore("Derived", Map(map[string]*Store{"a": a, "b": b}))
	require.NoError(t, err)

	require.NoError(t, b.Dispose())
	mustDispatch(t, f, ir.Named("INC"))
	assert.Equal(t, map[string]any{"a": 1, "b": nil}, derived.GetState())
}

func TestSources_IsMapped(t *testing.T) {
	assert.True(t, Map(map[string]*Store{}).IsMapped())
	assert.False(t, List().IsMapped())
}
