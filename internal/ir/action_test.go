package ir

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	deferred := Deferred(func(ctx context.Context, args ...any) (Action, error) {
		return Action{Type: "LOADED"}, nil
	})

	tests := []struct {
		name string
		in   Input
		want Kind
	}{
		{"named", Named("INC"), KindNamed},
		{"empty named", Named(""), KindInvalid},
		{"record", Action{Type: "SET"}, KindAction},
		{"record without type", Action{Data: 1}, KindInvalid},
		{"deferred", deferred, KindDeferred},
		{"nil deferred", Deferred(nil), KindInvalid},
		{"nil", nil, KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.in))
		})
	}
}

func TestNormalize_Named(t *testing.T) {
	a, err := Normalize(Named("SET"), map[string]any{"foo": 1}, "ignored")
	require.NoError(t, err)
	assert.Equal(t, Action{Type: "SET", Data: map[string]any{"foo": 1}}, a)

	a, err = Normalize(Named("INC"))
	require.NoError(t, err)
	assert.Equal(t, Action{Type: "INC"}, a)
}

func TestNormalize_RecordIsUnchanged(t *testing.T) {
	in := Action{Type: "SET", Data: 3}
	a, err := Normalize(in, "extra")
	require.NoError(t, err)
	assert.Equal(t, in, a)
}

func TestNormalize_Rejects(t *testing.T) {
	_, err := Normalize(nil)
	assert.Error(t, err)

	_, err = Normalize(Deferred(func(ctx context.Context, args ...any) (Action, error) {
		return Action{}, nil
	}))
	assert.Error(t, err)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "<init>", Action{}.String())
	assert.Equal(t, "INC", Action{Type: "INC"}.String())
	assert.True(t, Action{}.IsEmpty())
	assert.False(t, Action{Type: "INC"}.IsEmpty())
}
