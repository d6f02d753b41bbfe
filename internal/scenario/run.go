package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/fluxury/internal/dispatcher"
	"github.com/roach88/fluxury/internal/flux"
	"github.com/roach88/fluxury/internal/ir"
	"github.com/roach88/fluxury/internal/observe"
	"github.com/roach88/fluxury/internal/testutil"
)

// ExpectFailed is the code reported for step errors that carry no flux
// code, such as the fail operation's error.
const ExpectFailed = "FAILED"

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	logger   *slog.Logger
	observer observe.Observer
	debug    bool
	ids      flux.BroadcastIDGenerator
}

// WithLogger sets the logger handed to the Flux. Runs are silent by default.
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithObserver adds an observer (a journal, for instance) alongside the
// trace recorder.
func WithObserver(obs observe.Observer) RunOption {
	return func(c *runConfig) {
		c.observer = obs
	}
}

// WithDebug enables the Flux's in-place mutation checks.
func WithDebug(enabled bool) RunOption {
	return func(c *runConfig) {
		c.debug = enabled
	}
}

// WithBroadcastIDs replaces the sequential "{broadcast_prefix}-N" IDs.
// Runs that share a journal need unique IDs across runs.
func WithBroadcastIDs(gen flux.BroadcastIDGenerator) RunOption {
	return func(c *runConfig) {
		c.ids = gen
	}
}

// runner holds the state of one scenario run.
type runner struct {
	flux   *flux.Flux
	stores map[string]*flux.Store
	result *Result
	rec    *recorder
	logger *slog.Logger
}

// Run executes a scenario against a fresh Flux.
//
// Execution flow:
//  1. Create stores, then composed stores, in declaration order
//  2. Subscribe a counting listener to every store
//  3. Run steps, checking each step's expectations
//  4. Evaluate assertions against the trace and final state
//
// Failed expectations and assertions are reported in Result.Errors. The
// returned error is reserved for scenarios that cannot be built or a
// cancelled ctx.
func Run(ctx context.Context, s *Scenario, opts ...RunOption) (*Result, error) {
	if errs := Validate(s); len(errs) > 0 {
		return nil, fmt.Errorf("invalid scenario: %w", errs[0])
	}

	cfg := &runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.ids == nil {
		cfg.ids = testutil.NewSequentialIDGenerator(s.BroadcastPrefix)
	}

	result := NewResult()
	rec := &recorder{result: result}
	f := flux.New(
		flux.WithLogger(cfg.logger),
		flux.WithObserver(observe.NewMultiObserver(rec, cfg.observer)),
		flux.WithDebug(cfg.debug),
		flux.WithBroadcastIDs(cfg.ids),
		flux.WithClock(dispatcher.NewClock()),
	)

	r := &runner{
		flux:   f,
		stores: make(map[string]*flux.Store),
		result: result,
		rec:    rec,
		logger: cfg.logger,
	}
	if err := r.build(s); err != nil {
		return nil, err
	}

	for i, step := range s.Steps {
		if err := r.runStep(ctx, i, step); err != nil {
			return nil, err
		}
	}

	result.State = f.RootState()
	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (r *runner) build(s *Scenario) error {
	for _, def := range s.Stores {
		store, err := r.flux.CreateStore(def.Name, r.reducer(def), flux.WithInitialState(def.Initial))
		if err != nil {
			return fmt.Errorf("create store %q: %w", def.Name, err)
		}
		r.stores[def.Name] = store
	}

	for _, def := range s.Composed {
		sources, err := r.sources(def)
		if err != nil {
			return err
		}
		store, err := r.flux.ComposeStore(def.Name, sources)
		if err != nil {
			return fmt.Errorf("compose store %q: %w", def.Name, err)
		}
		r.stores[def.Name] = store
	}

	for _, def := range s.Stores {
		r.count(def.Name)
	}
	for _, def := range s.Composed {
		r.count(def.Name)
	}
	return nil
}

// count subscribes the listener behind Result.Notifications.
func (r *runner) count(name string) {
	r.result.Notifications[name] = 0
	// Subscribe only fails for a nil listener.
	_, _ = r.stores[name].Subscribe(func(ir.Action) {
		r.rec.mu.Lock()
		defer r.rec.mu.Unlock()
		r.result.Notifications[name]++
	})
}

func (r *runner) sources(def ComposedDef) (flux.Sources, error) {
	lookup := func(name string) (*flux.Store, error) {
		st, ok := r.stores[name]
		if !ok {
			return nil, fmt.Errorf("compose store %q: unknown source %q", def.Name, name)
		}
		return st, nil
	}

	if len(def.Map) > 0 {
		keyed := make(map[string]*flux.Store, len(def.Map))
		for key, name := range def.Map {
			st, err := lookup(name)
			if err != nil {
				return flux.Sources{}, err
			}
			keyed[key] = st
		}
		return flux.Map(keyed), nil
	}

	list := make([]*flux.Store, 0, len(def.List))
	for _, name := range def.List {
		st, err := lookup(name)
		if err != nil {
			return flux.Sources{}, err
		}
		list = append(list, st)
	}
	return flux.List(list...), nil
}

// reducer builds the reducer for a declared store. wait_for tokens are
// looked up at dispatch time so stores may wait on later declarations.
func (r *runner) reducer(def StoreDef) flux.Reducer {
	return func(state any, action ir.Action, waitFor flux.WaitFunc) (any, error) {
		opName, ok := def.On[action.Type]
		if !ok {
			return state, nil
		}
		op, ok := operations[opName]
		if !ok {
			return nil, fmt.Errorf("unknown operation %q", opName)
		}

		deps := make([]any, 0, len(def.WaitFor))
		if len(def.WaitFor) > 0 {
			tokens := make([]flux.Token, 0, len(def.WaitFor))
			for _, name := range def.WaitFor {
				st, ok := r.stores[name]
				if !ok {
					return nil, fmt.Errorf("wait_for: unknown store %q", name)
				}
				tokens = append(tokens, st.DispatchToken())
			}
			if err := waitFor(tokens...); err != nil {
				return nil, err
			}
			for _, name := range def.WaitFor {
				deps = append(deps, r.stores[name].GetState())
			}
		}

		return op(state, def.Initial, action.Data, deps)
	}
}

func (r *runner) runStep(ctx context.Context, i int, step Step) error {
	r.rec.setStep(i + 1)
	label := fmt.Sprintf("steps[%d]", i)

	var err error
	if step.Dispose != "" {
		label = fmt.Sprintf("%s (dispose %s)", label, step.Dispose)
		err = r.stores[step.Dispose].Dispose()
	} else {
		label = fmt.Sprintf("%s (%s)", label, step.Dispatch)
		err = r.dispatch(ctx, step)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}

	r.logger.Debug("step finished", "step", i+1, "label", label, "error", err)
	r.checkError(label, step, err)
	if step.Expect != nil {
		r.checkState(label, step.Expect.State)
	}
	return nil
}

func (r *runner) dispatch(ctx context.Context, step Step) error {
	var in ir.Input = ir.Named(step.Dispatch)
	if step.Deferred {
		actionType := step.Dispatch
		in = ir.Deferred(func(ctx context.Context, args ...any) (ir.Action, error) {
			return ir.Action{Type: actionType, Data: args[0]}, nil
		})
	}
	_, err := r.flux.Dispatch(ctx, in, step.Data).Await(ctx)
	return err
}

func (r *runner) checkError(label string, step Step, err error) {
	want := ""
	if step.Expect != nil {
		want = step.Expect.Error
	}

	switch {
	case want == "" && err != nil:
		r.result.AddError(fmt.Sprintf("%s: unexpected error: %v", label, err))
	case want != "" && err == nil:
		r.result.AddError(fmt.Sprintf("%s: expected error %s, got none", label, want))
	case want == "" || want == ExpectAnyError:
	default:
		if got := ErrorCode(err); got != want {
			r.result.AddError(fmt.Sprintf("%s: expected error %s, got %s (%v)", label, want, got, err))
		}
	}
}

func (r *runner) checkState(label string, want map[string]any) {
	root := r.flux.RootState()
	for _, name := range ir.SortedKeys(want) {
		got := root[name]
		if !sameValue(got, want[name]) {
			r.result.AddError(fmt.Sprintf("%s: store %s: expected state %s, got %s",
				label, name, render(want[name]), render(got)))
		}
	}
}

// ErrorCode returns the flux code of err, or ExpectFailed for errors
// without one.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := flux.Code(err); code != "" {
		return code
	}
	return ExpectFailed
}

// recorder turns flux events into trace entries.
type recorder struct {
	mu     sync.Mutex
	step   int
	result *Result
}

func (rec *recorder) setStep(step int) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.step = step
}

func (rec *recorder) OnEvent(_ context.Context, e observe.Event) {
	ev := TraceEvent{
		BroadcastID: e.BroadcastID,
		Action:      e.ActionType,
		Store:       e.Store,
	}
	switch e.Type {
	case observe.BroadcastStart:
		ev.Type = TraceBroadcast
		ev.Seq = e.Seq
	case observe.StoreCommit:
		ev.Type = TraceCommit
		ev.Seq = e.Seq
		ev.State = e.Data["state"]
	case observe.StoreNotify:
		ev.Type = TraceNotify
		ev.Listeners, _ = e.Data["listeners"].(int)
	case observe.BroadcastError:
		ev.Type = TraceError
		ev.Seq = e.Seq
		ev.Error, _ = e.Data["error"].(string)
	case observe.StoreDispose:
		ev.Type = TraceDispose
	default:
		return
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	ev.Step = rec.step
	rec.result.Trace = append(rec.result.Trace, ev)
}
