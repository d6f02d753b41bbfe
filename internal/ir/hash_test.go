package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateHash_Deterministic(t *testing.T) {
	a := map[string]any{"foo": 1, "bar": []any{"x", "y"}}
	b := map[string]any{"bar": []any{"x", "y"}, "foo": 1}

	ha, err := StateHash(a)
	require.NoError(t, err)
	hb, err := StateHash(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb, "key order must not affect the hash")
	assert.Len(t, ha, 64)
}

func TestStateHash_DifferentValues(t *testing.T) {
	assert.NotEqual(t, MustStateHash(1), MustStateHash(2))
	assert.NotEqual(t, MustStateHash("1"), MustStateHash(1))
}

func TestStateHash_DomainSeparation(t *testing.T) {
	a := Action{Type: "INC"}
	ah, err := ActionHash(a)
	require.NoError(t, err)

	// Same canonical bytes hashed under a different domain must differ.
	sh := MustStateHash(map[string]any{"type": "INC"})
	assert.NotEqual(t, ah, sh)
}

func TestMustStateHash_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustStateHash(make(chan int))
	})
}
