package flux

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fluxury/internal/ir"
)

func TestFuture_Resolved(t *testing.T) {
	fut := Resolved(ir.Action{Type: "A"})
	assert.True(t, fut.Settled())
	assert.NoError(t, fut.Err())
	assert.Equal(t, "A", fut.Action().Type)

	action, err := fut.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", action.Type)
}

func TestFuture_Rejected(t *testing.T) {
	boom := errors.New("boom")
	fut := Rejected(boom)
	assert.True(t, fut.Settled())
	assert.ErrorIs(t, fut.Err(), boom)
	assert.True(t, fut.Action().IsEmpty())
}

func TestFuture_SettlesOnce(t *testing.T) {
	fut := newFuture()
	assert.False(t, fut.Settled())
	assert.NoError(t, fut.Err())

	fut.settle(ir.Action{Type: "first"}, nil)
	fut.settle(ir.Action{}, errors.New("late"))

	<-fut.Done()
	assert.NoError(t, fut.Err())
	assert.Equal(t, "first", fut.Action().Type)
}

func TestFuture_AwaitHonorsContext(t *testing.T) {
	fut := newFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := fut.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, fut.Settled())
}
