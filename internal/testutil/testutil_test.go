package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fluxury/internal/flux"
	"github.com/roach88/fluxury/internal/ir"
	"github.com/roach88/fluxury/internal/observe"
)

func TestSequentialIDGenerator_Sequence(t *testing.T) {
	gen := NewSequentialIDGenerator("run")
	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())

	gen.Reset()
	assert.Equal(t, "run-1", gen.Generate())
}

func TestSequentialIDGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "b-1", NewSequentialIDGenerator("").Generate())
}

func TestSequentialIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequentialIDGenerator("t")
	const workers, calls = 20, 50

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*calls)
}

func TestNewFlux_DeterministicIDs(t *testing.T) {
	var ids []string
	f := NewFlux(t, flux.WithObserver(observe.ObserverFunc(func(_ context.Context, e observe.Event) {
		if e.Type == observe.BroadcastStart {
			ids = append(ids, e.BroadcastID)
		}
	})))
	_, err := f.CreateStore("S", func(state any, _ ir.Action, _ flux.WaitFunc) (any, error) {
		return state, nil
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, f.Dispatch(context.Background(), ir.Named("PING")).Err())
	}
	assert.Equal(t, []string{"b-1", "b-2"}, ids)
}
