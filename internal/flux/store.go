package flux

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/fluxury/internal/ir"
	"github.com/roach88/fluxury/internal/observe"
)

// Selector computes a value from a store's state. Bound to a store through
// WithSelectors and invoked with Store.Select.
type Selector func(state any, args ...any) any

// StoreOption configures CreateStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	initial   any
	selectors map[string]Selector
}

// WithInitialState sets the state the reducer sees on its init call.
// Without it the reducer is initialized from nil.
func WithInitialState(state any) StoreOption {
	return func(c *storeConfig) {
		c.initial = state
	}
}

// WithSelectors binds named selectors to the store.
func WithSelectors(selectors map[string]Selector) StoreOption {
	return func(c *storeConfig) {
		if c.selectors == nil {
			c.selectors = make(map[string]Selector, len(selectors))
		}
		for name, sel := range selectors {
			c.selectors[name] = sel
		}
	}
}

// Store is a named slice of the root state tree plus its subscribers.
type Store struct {
	flux  *Flux
	name  string
	token Token

	mu          sync.Mutex
	reducer     Reducer
	selectors   map[string]Selector
	fingerprint string // debug mode only
	onDispose   []func()

	subs     subscribers
	disposed atomic.Bool
}

// CreateStore creates a store, computes its initial state and registers
// its handler with the dispatcher.
//
// The reducer is called once, before registration, with the initial state
// (nil unless WithInitialState is given), the empty action, and a waitFor
// that does nothing. Its result becomes the store's first snapshot.
//
// Fails with INVALID_ARGUMENT when name is empty or already in use, reducer
// is nil, or a selector is nil.
func (f *Flux) CreateStore(name string, reducer Reducer, opts ...StoreOption) (*Store, error) {
	if name == "" {
		return nil, invalidArgument("", "store name must be a non-empty string")
	}
	if reducer == nil {
		return nil, invalidArgument(name, "reducer must be a non-nil function")
	}

	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	for selName, sel := range cfg.selectors {
		if sel == nil {
			return nil, invalidArgument(name, "selector %q must be a non-nil function", selName)
		}
	}
	if f.tree.has(name) {
		return nil, invalidArgument(name, "store name already in use")
	}

	initial, err := initialState(reducer, cfg.initial)
	if err != nil {
		return nil, fmt.Errorf("create store %q: %w", name, err)
	}

	s := &Store{
		flux:      f,
		name:      name,
		reducer:   reducer,
		selectors: cfg.selectors,
	}

	f.mu.Lock()
	if f.tree.has(name) {
		f.mu.Unlock()
		return nil, invalidArgument(name, "store name already in use")
	}
	f.tree.set(name, initial)
	s.remember(initial)
	token, err := f.dispatcher.Register(s.handle)
	if err != nil {
		f.tree.delete(name)
		f.mu.Unlock()
		return nil, fmt.Errorf("create store %q: %w", name, err)
	}
	s.token = token
	if name != RootStoreName {
		f.stores[name] = s
	}
	f.mu.Unlock()

	f.logger.Debug("store created", "store", name, "token", token)
	f.emit(context.Background(), observe.Event{
		Type:  observe.StoreCreate,
		Store: name,
		Data:  map[string]any{"token": string(token), "state": initial},
	})
	return s, nil
}

// initialState runs the reducer's init call, converting a panic into an
// error since construction failures are reported synchronously.
func initialState(reducer Reducer, initial any) (state any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Code: ErrCodeReducerPanic, Message: fmt.Sprintf("reducer panicked during init: %v", r)}
		}
	}()
	noWait := func(...Token) error { return nil }
	return reducer(initial, ir.Action{}, noWait)
}

// handle is the store's dispatcher handler.
func (s *Store) handle(action ir.Action) error {
	s.mu.Lock()
	reducer := s.reducer
	s.mu.Unlock()
	if reducer == nil {
		return &Error{Code: ErrCodeInvalidArgument, Message: "reducer is nil", Store: s.name}
	}

	current := s.GetState()
	if s.flux.debug {
		s.checkMutation(current)
	}

	next, err := reducer(current, action, s.flux.waitFor)
	if err != nil {
		return fmt.Errorf("store %q: %w", s.name, err)
	}

	if SameState(current, next) {
		s.flux.logger.Debug("state unchanged", "store", s.name, "action", action.Type)
		return nil
	}

	s.commit(next, action)
	s.notify(action)
	return nil
}

// commit replaces this store's slice of the root tree.
func (s *Store) commit(next any, action ir.Action) {
	s.flux.tree.set(s.name, next)
	s.remember(next)

	info := s.flux.current
	ctx := info.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	seq := s.flux.clock.Next()

	s.flux.logger.Debug("state committed",
		"store", s.name,
		"action", action.Type,
		"broadcast_id", info.id,
		"seq", seq,
	)
	s.flux.emit(ctx, observe.Event{
		Type:        observe.StoreCommit,
		BroadcastID: info.id,
		Seq:         seq,
		Store:       s.name,
		ActionType:  action.Type,
		Data:        map[string]any{"state": next},
	})
}

// notify calls every current subscriber with action, in subscription order.
func (s *Store) notify(action ir.Action) {
	subs := s.subs.snapshot()
	for _, sub := range subs {
		sub.fn(action)
	}

	info := s.flux.current
	ctx := info.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	s.flux.emit(ctx, observe.Event{
		Type:        observe.StoreNotify,
		BroadcastID: info.id,
		Store:       s.name,
		ActionType:  action.Type,
		Data:        map[string]any{"listeners": len(subs)},
	})
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// DispatchToken returns the token other reducers pass to waitFor.
func (s *Store) DispatchToken() Token {
	return s.token
}

// GetState returns the store's current snapshot.
func (s *Store) GetState() any {
	v, _ := s.flux.tree.get(s.name)
	return v
}

// SetState replaces the store's snapshot directly, bypassing the reducer.
// Subscribers are not notified.
func (s *Store) SetState(state any) {
	s.flux.tree.set(s.name, state)
	s.remember(state)
	s.flux.emit(context.Background(), observe.Event{
		Type:  observe.StoreCommit,
		Seq:   s.flux.clock.Next(),
		Store: s.name,
		Data:  map[string]any{"state": state, "via": "set_state"},
	})
}

// Subscribe adds a listener called after every commit of this store.
// The returned function removes it and is safe to call more than once.
func (s *Store) Subscribe(listener Listener) (func(), error) {
	if listener == nil {
		return nil, invalidArgument(s.name, "listener must be a non-nil function")
	}
	return s.subs.add(listener), nil
}

// Subscribers returns the number of subscribed listeners.
func (s *Store) Subscribers() int {
	return s.subs.len()
}

// Dispatch forwards to the owning Flux's Dispatch.
func (s *Store) Dispatch(ctx context.Context, in ir.Input, args ...any) *Future {
	return s.flux.Dispatch(ctx, in, args...)
}

// ReplaceReducer swaps the reducer used by subsequent broadcasts.
func (s *Store) ReplaceReducer(reducer Reducer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reducer = reducer
}

// Select runs the named selector against the current state.
func (s *Store) Select(name string, args ...any) (any, error) {
	s.mu.Lock()
	sel, ok := s.selectors[name]
	s.mu.Unlock()
	if !ok {
		return nil, invalidArgument(s.name, "unknown selector %q", name)
	}
	return sel(s.GetState(), args...), nil
}

// Selectors returns the bound selector names in sorted order.
func (s *Store) Selectors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.selectors))
	for name := range s.selectors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Disposed reports whether Dispose has been called.
func (s *Store) Disposed() bool {
	return s.disposed.Load()
}

// Dispose unregisters the store's handler and removes it from the registry
// and the root tree. Calling it again is a no-op.
func (s *Store) Dispose() error {
	if !s.disposed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.flux.dispatcher.Unregister(s.token); err != nil {
		return fmt.Errorf("dispose store %q: %w", s.name, err)
	}

	f := s.flux
	f.mu.Lock()
	if f.stores[s.name] == s {
		delete(f.stores, s.name)
	}
	f.tree.delete(s.name)
	f.mu.Unlock()

	s.mu.Lock()
	hooks := s.onDispose
	s.onDispose = nil
	s.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}

	f.logger.Debug("store disposed", "store", s.name, "token", s.token)
	f.emit(context.Background(), observe.Event{
		Type:  observe.StoreDispose,
		Store: s.name,
		Data:  map[string]any{"token": string(s.token)},
	})
	return nil
}

func (s *Store) addDisposeHook(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDispose = append(s.onDispose, hook)
}

// StateOf returns the store's state as S.
func StateOf[S any](s *Store) (S, bool) {
	v, ok := s.GetState().(S)
	return v, ok
}

// remember fingerprints a committed snapshot in debug mode. Only reference
// kinds can be mutated in place, so scalars are skipped.
func (s *Store) remember(state any) {
	if !s.flux.debug {
		return
	}
	fp := ""
	if mutable(state) {
		if h, err := ir.StateHash(state); err == nil {
			fp = h
		}
	}
	s.mu.Lock()
	s.fingerprint = fp
	s.mu.Unlock()
}

// checkMutation warns when the committed snapshot no longer matches its
// fingerprint, meaning something changed it in place.
func (s *Store) checkMutation(current any) {
	s.mu.Lock()
	want := s.fingerprint
	s.mu.Unlock()
	if want == "" {
		return
	}

	got, err := ir.StateHash(current)
	if err != nil || got == want {
		return
	}

	s.flux.logger.Warn("committed state was mutated in place",
		"store", s.name,
		"want_hash", want,
		"got_hash", got,
	)
	info := s.flux.current
	ctx := info.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	s.flux.emit(ctx, observe.Event{
		Type:        observe.StateMutated,
		BroadcastID: info.id,
		Store:       s.name,
		Data:        map[string]any{"want_hash": want, "got_hash": got},
	})
	s.remember(current)
}

func mutable(state any) bool {
	if state == nil {
		return false
	}
	switch reflect.ValueOf(state).Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer:
		return true
	default:
		return false
	}
}
