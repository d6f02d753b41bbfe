package flux

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fluxury/internal/ir"
)

// newTestFlux creates a Flux with logging suppressed.
func newTestFlux(t *testing.T, opts ...Option) *Flux {
	t.Helper()
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return New(append(base, opts...)...)
}

// countReducer implements INC / DEC over an int state.
func countReducer(state any, action ir.Action, _ WaitFunc) (any, error) {
	n, _ := state.(int)
	switch action.Type {
	case "INC":
		return n + 1, nil
	case "DEC":
		return n - 1, nil
	default:
		return state, nil
	}
}

// mergeReducer shallow-merges map payloads of SET actions into a new map.
func mergeReducer(state any, action ir.Action, _ WaitFunc) (any, error) {
	m, _ := state.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	if action.Type != "SET" {
		if state == nil {
			return m, nil
		}
		return state, nil
	}
	next := make(map[string]any, len(m))
	for k, v := range m {
		next[k] = v
	}
	if data, ok := action.Data.(map[string]any); ok {
		for k, v := range data {
			next[k] = v
		}
	}
	return next, nil
}

func mustCreateStore(t *testing.T, f *Flux, name string, reducer Reducer, opts ...StoreOption) *Store {
	t.Helper()
	s, err := f.CreateStore(name, reducer, opts...)
	require.NoError(t, err)
	return s
}

// mustDispatch dispatches and requires the future to be fulfilled.
func mustDispatch(t *testing.T, f *Flux, in ir.Input, args ...any) ir.Action {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	action, err := f.Dispatch(ctx, in, args...).Await(ctx)
	require.NoError(t, err)
	return action
}

// dispatchErr dispatches and returns the rejection error, if any.
func dispatchErr(t *testing.T, f *Flux, in ir.Input, args ...any) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := f.Dispatch(ctx, in, args...).Await(ctx)
	return err
}

func slicesClone(s []any) []any {
	out := make([]any, len(s), len(s)+1)
	copy(out, s)
	return out
}
