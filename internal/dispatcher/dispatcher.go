package dispatcher

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/fluxury/internal/ir"
)

// Token identifies a registered handler. Tokens are unique for the lifetime
// of the Dispatcher that issued them.
type Token string

// Handler receives every broadcast action. A returned error aborts the
// broadcast; handlers that already ran keep their effects.
type Handler func(action ir.Action) error

// DefaultTokenPrefix is prepended to the clock value to form a Token.
const DefaultTokenPrefix = "ID_"

// Dispatcher broadcasts actions to registered handlers.
//
// Thread-safety model:
//   - Register / Unregister / IsDispatching: safe from any goroutine
//   - Dispatch / WaitFor: one broadcast at a time; WaitFor only from inside
//     a handler of the running broadcast
type Dispatcher struct {
	mu     sync.Mutex
	clock  *Clock
	prefix string
	logger *slog.Logger

	handlers map[Token]Handler
	order    []Token // registration order, never reordered

	// Per-broadcast bookkeeping, reset by stopDispatching.
	dispatching bool
	pending     map[Token]bool
	handled     map[Token]bool
	action      ir.Action
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock sets the clock used to issue tokens.
func WithClock(c *Clock) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// WithTokenPrefix sets the token prefix (default "ID_").
func WithTokenPrefix(prefix string) Option {
	return func(d *Dispatcher) {
		d.prefix = prefix
	}
}

// WithLogger sets the logger for broadcast diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates an empty Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		clock:    NewClock(),
		prefix:   DefaultTokenPrefix,
		logger:   slog.Default(),
		handlers: make(map[Token]Handler),
		pending:  make(map[Token]bool),
		handled:  make(map[Token]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a handler and returns its token.
//
// A handler registered during a broadcast is not invoked by that broadcast's
// main pass, but it can still be pulled in through WaitFor.
func (d *Dispatcher) Register(handler Handler) (Token, error) {
	if handler == nil {
		return "", ErrInvalidHandler
	}

	token := Token(fmt.Sprintf("%s%d", d.prefix, d.clock.Next()))

	d.mu.Lock()
	d.handlers[token] = handler
	d.order = append(d.order, token)
	d.mu.Unlock()

	d.logger.Debug("handler registered", "token", token)
	return token, nil
}

// Unregister removes a handler. A handler removed during a broadcast before
// its turn is skipped for the rest of that broadcast.
func (d *Dispatcher) Unregister(token Token) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.handlers[token]; !ok {
		return newError(ErrCodeNotRegistered, ErrNotRegistered.Message, token)
	}
	delete(d.handlers, token)
	d.order = slices.DeleteFunc(d.order, func(t Token) bool { return t == token })

	d.logger.Debug("handler unregistered", "token", token)
	return nil
}

// Len returns the number of registered handlers.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers)
}

// IsDispatching reports whether a broadcast is in progress.
func (d *Dispatcher) IsDispatching() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispatching
}

// Dispatch broadcasts action to every registered handler.
//
// Handlers run in registration order, each at most once. The first handler
// error stops the broadcast and is returned; there is no rollback of
// handlers that already ran.
func (d *Dispatcher) Dispatch(action ir.Action) error {
	d.mu.Lock()
	if d.dispatching {
		d.mu.Unlock()
		return ErrAlreadyDispatching
	}
	d.startDispatching(action)
	order := slices.Clone(d.order)
	d.mu.Unlock()

	// Deferred so that a panicking handler cannot leave the dispatcher
	// stuck in the dispatching state.
	defer d.stopDispatching()

	for _, token := range order {
		d.mu.Lock()
		_, registered := d.handlers[token]
		started := d.pending[token]
		d.mu.Unlock()

		if !registered || started {
			continue
		}
		if err := d.invoke(token); err != nil {
			return err
		}
	}
	return nil
}

// WaitFor runs the handlers for tokens that have not yet run in the current
// broadcast, then returns. It must be called from inside a handler.
func (d *Dispatcher) WaitFor(tokens ...Token) error {
	d.mu.Lock()
	dispatching := d.dispatching
	d.mu.Unlock()
	if !dispatching {
		return ErrNotDispatching
	}

	for _, token := range tokens {
		d.mu.Lock()
		handled := d.handled[token]
		_, registered := d.handlers[token]
		pending := d.pending[token]
		d.mu.Unlock()

		switch {
		case handled:
			continue
		case !registered:
			return newError(ErrCodeNotRegistered, ErrNotRegistered.Message, token)
		case pending:
			return newError(ErrCodeCyclicWait, ErrCyclicWait.Message, token)
		}

		if err := d.invoke(token); err != nil {
			return err
		}
	}
	return nil
}

// invoke runs one handler with the current action, marking it pending for
// the duration of the call and handled once it returns successfully. A
// failed handler is no longer pending, so waiting on it again runs it again
// rather than reporting a cycle.
func (d *Dispatcher) invoke(token Token) error {
	d.mu.Lock()
	handler := d.handlers[token]
	action := d.action
	d.pending[token] = true
	d.mu.Unlock()

	if err := handler(action); err != nil {
		d.mu.Lock()
		delete(d.pending, token)
		d.mu.Unlock()
		return err
	}

	d.mu.Lock()
	d.handled[token] = true
	d.mu.Unlock()
	return nil
}

func (d *Dispatcher) startDispatching(action ir.Action) {
	clear(d.pending)
	clear(d.handled)
	d.action = action
	d.dispatching = true
}

func (d *Dispatcher) stopDispatching() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.action = ir.Action{}
	clear(d.pending)
	clear(d.handled)
	d.dispatching = false
}
