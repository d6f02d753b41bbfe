package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationNames(t *testing.T) {
	assert.Equal(t, []string{"add", "append", "count", "fail", "merge", "reset", "set", "subtract"}, OperationNames())
}

func TestOpAdd(t *testing.T) {
	tests := []struct {
		name        string
		state, data any
		want        any
	}{
		{"default step", 1, nil, 2},
		{"nil state", nil, nil, 1},
		{"int payload", 1, 5, 6},
		{"float payload", 1, 0.5, 1.5},
		{"float state", 1.5, 1, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := opAdd(tt.state, nil, tt.data, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpSubtract(t *testing.T) {
	got, err := opSubtract(1, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	_, err = opSubtract("x", nil, nil, nil)
	assert.Error(t, err)

	_, err = opSubtract(1, nil, "x", nil)
	assert.Error(t, err)
}

func TestOpMerge(t *testing.T) {
	state := map[string]any{"foo": 1, "bar": 2}
	got, err := opMerge(state, nil, map[string]any{"foo": 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": 3, "bar": 2}, got)
	assert.Equal(t, 1, state["foo"], "the previous snapshot is not modified")

	got, err = opMerge(nil, nil, map[string]any{"a": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, got)

	_, err = opMerge(state, nil, 1, nil)
	assert.Error(t, err)
	_, err = opMerge([]any{}, nil, map[string]any{}, nil)
	assert.Error(t, err)
}

func TestOpAppend(t *testing.T) {
	state := []any{"a"}
	got, err := opAppend(state, nil, "b", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got)
	assert.Equal(t, []any{"a"}, state)

	got, err = opAppend(nil, nil, "x", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, got)

	_, err = opAppend(1, nil, "x", nil)
	assert.Error(t, err)
}

func TestOpCount(t *testing.T) {
	got, err := opCount(nil, nil, nil, []any{[]any{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = opCount(nil, nil, nil, []any{map[string]any{"a": 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = opCount(nil, nil, nil, []any{nil})
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	_, err = opCount(nil, nil, nil, nil)
	assert.Error(t, err)

	_, err = opCount(nil, nil, nil, []any{42})
	assert.Error(t, err)
}

func TestOpResetSetFail(t *testing.T) {
	got, err := opReset(5, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = opSet(5, 0, "new", nil)
	require.NoError(t, err)
	assert.Equal(t, "new", got)

	_, err = opFail(nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrForcedFailure)
}
