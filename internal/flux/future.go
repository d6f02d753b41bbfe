package flux

import (
	"context"
	"sync"

	"github.com/roach88/fluxury/internal/ir"
)

// Future is the outcome of a dispatch. Synchronous inputs return a future
// that is already settled; Deferred inputs settle once their broadcast has
// finished.
//
// A rejected future carries the error that stopped the dispatch. Callers
// branch on Err rather than expecting a panic or an error return from
// Dispatch itself.
type Future struct {
	once   sync.Once
	done   chan struct{}
	action ir.Action
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future fulfilled with action.
func Resolved(action ir.Action) *Future {
	f := newFuture()
	f.settle(action, nil)
	return f
}

// Rejected returns a future rejected with err.
func Rejected(err error) *Future {
	f := newFuture()
	f.settle(ir.Action{}, err)
	return f
}

func (f *Future) settle(action ir.Action, err error) {
	f.once.Do(func() {
		f.action = action
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has settled.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future settles or ctx is done.
// It returns the dispatched action on fulfillment.
func (f *Future) Await(ctx context.Context) (ir.Action, error) {
	select {
	case <-f.done:
		return f.action, f.err
	case <-ctx.Done():
		return ir.Action{}, ctx.Err()
	}
}

// Err returns the rejection error, or nil if the future is pending or
// fulfilled.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Action returns the fulfilled action, or the zero Action if the future is
// pending or rejected.
func (f *Future) Action() ir.Action {
	select {
	case <-f.done:
		return f.action
	default:
		return ir.Action{}
	}
}
