package flux

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/roach88/fluxury/internal/dispatcher"
	"github.com/roach88/fluxury/internal/ir"
	"github.com/roach88/fluxury/internal/observe"
)

// RootStoreName is reserved: a store with this name holds state in the root
// tree but is never listed by GetStores or returned by GetStore.
const RootStoreName = "__root__"

// Token identifies a store's handler in the dispatcher.
type Token = dispatcher.Token

// WaitFunc makes the handlers for the given tokens run before the caller
// continues. Reducers receive one per call.
type WaitFunc func(tokens ...Token) error

// Reducer derives the next state from the current state and an action.
// Returning state unchanged means "nothing to commit".
type Reducer func(state any, action ir.Action, waitFor WaitFunc) (any, error)

// Flux owns a dispatcher, a root state tree and a store registry.
type Flux struct {
	dispatcher *dispatcher.Dispatcher
	tree       *rootTree
	clock      *dispatcher.Clock
	ids        BroadcastIDGenerator
	logger     *slog.Logger
	observer   observe.Observer
	debug      bool

	// broadcastMu is held for the whole of a broadcast.
	broadcastMu sync.Mutex
	current     broadcastInfo

	mu     sync.RWMutex
	stores map[string]*Store
}

// broadcastInfo describes the broadcast in progress. Only read and written
// by the goroutine holding broadcastMu.
type broadcastInfo struct {
	ctx    context.Context
	id     string
	seq    int64
	action ir.Action
}

// Option configures a Flux.
type Option func(*Flux)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flux) {
		f.logger = logger
	}
}

// WithObserver attaches an observer for broadcast and commit events.
func WithObserver(obs observe.Observer) Option {
	return func(f *Flux) {
		f.observer = obs
	}
}

// WithDebug enables extra validation: committed snapshots are fingerprinted
// and checked for in-place mutation before each reducer call.
func WithDebug(enabled bool) Option {
	return func(f *Flux) {
		f.debug = enabled
	}
}

// WithBroadcastIDs sets the broadcast ID generator (default UUIDv7).
func WithBroadcastIDs(gen BroadcastIDGenerator) Option {
	return func(f *Flux) {
		f.ids = gen
	}
}

// WithClock sets the logical clock used for broadcast and commit sequence
// numbers.
func WithClock(c *dispatcher.Clock) Option {
	return func(f *Flux) {
		f.clock = c
	}
}

// New creates an empty Flux.
func New(opts ...Option) *Flux {
	f := &Flux{
		tree:     newRootTree(),
		clock:    dispatcher.NewClock(),
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
		observer: observe.NoOpObserver{},
		stores:   make(map[string]*Store),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.dispatcher = dispatcher.New(dispatcher.WithLogger(f.logger))
	return f
}

// GetStores returns the public store registry. The returned map is a copy.
func (f *Flux) GetStores() map[string]*Store {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return maps.Clone(f.stores)
}

// GetStore returns the store registered under name.
func (f *Flux) GetStore(name string) (*Store, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.stores[name]
	return s, ok
}

// RootState returns a copy of the root state tree.
func (f *Flux) RootState() map[string]any {
	return maps.Clone(f.tree.load())
}

// IsDispatching reports whether a broadcast is in progress.
func (f *Flux) IsDispatching() bool {
	return f.dispatcher.IsDispatching()
}

// Dispatch broadcasts an action to every store.
//
//   - ir.Named: broadcasts {Type, Data: args[0]}; returns a settled future
//   - ir.Action: broadcasts it as-is; returns a settled future
//   - ir.Deferred: runs the computation with args on its own goroutine,
//     broadcasts the action it yields, and settles afterwards
//
// Anything else settles the future with INVALID_ACTION without touching the
// dispatcher. Errors never escape as panics; they reject the future. A nil
// ctx is treated as context.Background().
func (f *Flux) Dispatch(ctx context.Context, in ir.Input, args ...any) *Future {
	if ctx == nil {
		ctx = context.Background()
	}
	switch ir.KindOf(in) {
	case ir.KindNamed, ir.KindAction:
		action, err := ir.Normalize(in, args...)
		if err != nil {
			return Rejected(invalidAction("%v", err))
		}
		if !f.broadcastMu.TryLock() {
			return Rejected(ErrAlreadyDispatching)
		}
		defer f.broadcastMu.Unlock()

		if err := f.broadcast(ctx, action); err != nil {
			return Rejected(err)
		}
		return Resolved(action)

	case ir.KindDeferred:
		fut := newFuture()
		go f.runDeferred(ctx, in.(ir.Deferred), args, fut)
		return fut

	default:
		return Rejected(invalidAction("cannot dispatch %s", describeInput(in)))
	}
}

// runDeferred awaits a deferred computation, then broadcasts its result.
// Unlike the synchronous path it waits for the broadcast slot.
func (f *Flux) runDeferred(ctx context.Context, compute ir.Deferred, args []any, fut *Future) {
	action, err := f.compute(ctx, compute, args)
	if err != nil {
		fut.settle(ir.Action{}, err)
		return
	}
	if action.Type == "" {
		fut.settle(ir.Action{}, invalidAction("deferred computation yielded an action without a type"))
		return
	}
	if err := ctx.Err(); err != nil {
		fut.settle(ir.Action{}, err)
		return
	}

	f.broadcastMu.Lock()
	defer f.broadcastMu.Unlock()

	if err := f.broadcast(ctx, action); err != nil {
		fut.settle(ir.Action{}, err)
		return
	}
	fut.settle(action, nil)
}

func (f *Flux) compute(ctx context.Context, compute ir.Deferred, args []any) (action ir.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Code: ErrCodeReducerPanic, Message: fmt.Sprintf("deferred computation panicked: %v", r)}
		}
	}()
	return compute(ctx, args...)
}

// broadcast runs one dispatcher pass. Caller holds broadcastMu.
func (f *Flux) broadcast(ctx context.Context, action ir.Action) error {
	f.current = broadcastInfo{
		ctx:    ctx,
		id:     f.ids.Generate(),
		seq:    f.clock.Next(),
		action: action,
	}
	defer func() { f.current = broadcastInfo{} }()

	info := f.current
	f.emit(ctx, observe.Event{
		Type:        observe.BroadcastStart,
		BroadcastID: info.id,
		Seq:         info.seq,
		ActionType:  action.Type,
		Data:        map[string]any{"payload": action.Data},
	})

	if err := f.safeDispatch(action); err != nil {
		f.logger.Error("broadcast failed",
			"broadcast_id", info.id,
			"action", action.Type,
			"error", err,
		)
		f.emit(ctx, observe.Event{
			Type:        observe.BroadcastError,
			BroadcastID: info.id,
			Seq:         info.seq,
			ActionType:  action.Type,
			Data:        map[string]any{"error": err.Error()},
		})
		return err
	}

	f.emit(ctx, observe.Event{
		Type:        observe.BroadcastEnd,
		BroadcastID: info.id,
		Seq:         info.seq,
		ActionType:  action.Type,
	})
	return nil
}

// safeDispatch converts a panic anywhere in the broadcast into an error.
func (f *Flux) safeDispatch(action ir.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = &Error{Code: ErrCodeReducerPanic, Message: "panic during broadcast", Err: e}
				return
			}
			err = &Error{Code: ErrCodeReducerPanic, Message: fmt.Sprintf("panic during broadcast: %v", r)}
		}
	}()
	return f.dispatcher.Dispatch(action)
}

func (f *Flux) waitFor(tokens ...Token) error {
	return f.dispatcher.WaitFor(tokens...)
}

func (f *Flux) emit(ctx context.Context, event observe.Event) {
	f.observer.OnEvent(ctx, event)
}

func describeInput(in ir.Input) string {
	switch v := in.(type) {
	case nil:
		return "nil input"
	case ir.Named:
		return fmt.Sprintf("named input %q", string(v))
	case ir.Action:
		return "action without a type"
	case ir.Deferred:
		return "nil deferred computation"
	default:
		return fmt.Sprintf("%T", in)
	}
}
