package scenario

// Scenario is a declarative store graph plus the steps to drive it.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name" json:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description" json:"description"`

	// Stores are created in order.
	Stores []StoreDef `yaml:"stores" json:"stores"`

	// Composed stores are created after Stores, in order. Sources must be
	// declared earlier.
	Composed []ComposedDef `yaml:"composed,omitempty" json:"composed,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps" json:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty" json:"assertions,omitempty"`

	// BroadcastPrefix overrides the broadcast ID prefix (default "b").
	BroadcastPrefix string `yaml:"broadcast_prefix,omitempty" json:"broadcast_prefix,omitempty"`
}

// StoreDef declares a reducer-backed store.
type StoreDef struct {
	Name    string `yaml:"name" json:"name"`
	Initial any    `yaml:"initial,omitempty" json:"initial,omitempty"`

	// WaitFor lists stores whose handlers must run first. Their states are
	// passed to the operation (the count operation reads the first one).
	WaitFor []string `yaml:"wait_for,omitempty" json:"wait_for,omitempty"`

	// On maps action types to operation names.
	On map[string]string `yaml:"on" json:"on"`
}

// ComposedDef declares a derived store. Exactly one of List or Map is set.
type ComposedDef struct {
	Name string            `yaml:"name" json:"name"`
	List []string          `yaml:"list,omitempty" json:"list,omitempty"`
	Map  map[string]string `yaml:"map,omitempty" json:"map,omitempty"`
}

// Step dispatches an action or disposes a store. Exactly one of Dispatch
// or Dispose is set.
type Step struct {
	// Dispatch is the action type to broadcast.
	Dispatch string `yaml:"dispatch,omitempty" json:"dispatch,omitempty"`

	// Data is the action payload.
	Data any `yaml:"data,omitempty" json:"data,omitempty"`

	// Deferred dispatches through a deferred computation instead of a
	// named action.
	Deferred bool `yaml:"deferred,omitempty" json:"deferred,omitempty"`

	// Dispose names a store to dispose.
	Dispose string `yaml:"dispose,omitempty" json:"dispose,omitempty"`

	Expect *Expect `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Expect checks the outcome of one step.
type Expect struct {
	// Error is the expected error code (e.g. CYCLIC_WAIT), or "any".
	// Empty means the step must succeed.
	Error string `yaml:"error,omitempty" json:"error,omitempty"`

	// State maps store names to their expected state after the step.
	State map[string]any `yaml:"state,omitempty" json:"state,omitempty"`
}

// Assertion checks the run as a whole.
type Assertion struct {
	// Type is one of notify_count, final_state, commit_order.
	Type string `yaml:"type" json:"type"`

	// Store is used by notify_count and final_state.
	Store string `yaml:"store,omitempty" json:"store,omitempty"`

	// Count is the expected number of notifications (notify_count).
	Count *int `yaml:"count,omitempty" json:"count,omitempty"`

	// Expect is the expected final state (final_state).
	Expect any `yaml:"expect,omitempty" json:"expect,omitempty"`

	// Stores is the expected commit order (commit_order).
	Stores []string `yaml:"stores,omitempty" json:"stores,omitempty"`

	// Step restricts commit_order to one step (1-based). Zero means the
	// whole run.
	Step int `yaml:"step,omitempty" json:"step,omitempty"`
}

// Assertion type constants.
const (
	AssertNotifyCount = "notify_count"
	AssertFinalState  = "final_state"
	AssertCommitOrder = "commit_order"
)

// ExpectAnyError matches any step error.
const ExpectAnyError = "any"

// Trace event types.
const (
	TraceBroadcast = "broadcast"
	TraceCommit    = "commit"
	TraceNotify    = "notify"
	TraceError     = "error"
	TraceDispose   = "dispose"
)

// TraceEvent is one entry of a run's trace.
type TraceEvent struct {
	Type        string `json:"type"`
	Step        int    `json:"-"`
	BroadcastID string `json:"broadcast_id,omitempty"`
	Seq         int64  `json:"seq,omitempty"`
	Store       string `json:"store,omitempty"`
	Action      string `json:"action,omitempty"`
	State       any    `json:"state,omitempty"`
	Listeners   int    `json:"listeners,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Result is the outcome of a run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds broadcasts, commits, notifications, errors and disposals
	// in the order they happened.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`

	// State is the final root state tree.
	State map[string]any `json:"state"`

	// Notifications counts listener notifications per store.
	Notifications map[string]int `json:"notifications"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:          true,
		Trace:         []TraceEvent{},
		Errors:        []string{},
		State:         map[string]any{},
		Notifications: map[string]int{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
