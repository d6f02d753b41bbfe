package ir

import (
	"context"
	"fmt"
)

// Action is a discrete event description broadcast to every store.
//
// Type is required for dispatch. The zero Action is the "empty action" that
// stores see exactly once, when their initial state is computed.
type Action struct {
	Type string `json:"type" yaml:"type"`
	Data any    `json:"data,omitempty" yaml:"data,omitempty"`
}

func (Action) input() {}

// IsEmpty reports whether a is the empty init action.
func (a Action) IsEmpty() bool {
	return a.Type == "" && a.Data == nil
}

// String renders the action type for logs.
func (a Action) String() string {
	if a.Type == "" {
		return "<init>"
	}
	return a.Type
}

// Input is the sealed set of values accepted by dispatch.
// Only Named, Action and Deferred implement it.
type Input interface {
	input()
}

// Named is the string form of a dispatch input. The payload is taken from
// the first extra dispatch argument, if any.
type Named string

func (Named) input() {}

// Deferred is a computation that eventually yields the action to dispatch.
// It is invoked with the extra dispatch arguments.
type Deferred func(ctx context.Context, args ...any) (Action, error)

func (Deferred) input() {}

// Kind identifies which variant an Input holds.
type Kind int

const (
	// KindInvalid is any input that cannot be dispatched.
	KindInvalid Kind = iota
	// KindNamed is a Named input.
	KindNamed
	// KindAction is a record Action.
	KindAction
	// KindDeferred is a Deferred computation.
	KindDeferred
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNamed:
		return "named"
	case KindAction:
		return "action"
	case KindDeferred:
		return "deferred"
	default:
		return "invalid"
	}
}

// KindOf classifies a dispatch input. Nil inputs, a Named with an empty
// type, an Action without a type and a nil Deferred are all KindInvalid.
func KindOf(in Input) Kind {
	switch v := in.(type) {
	case Named:
		if v == "" {
			return KindInvalid
		}
		return KindNamed
	case Action:
		if v.Type == "" {
			return KindInvalid
		}
		return KindAction
	case Deferred:
		if v == nil {
			return KindInvalid
		}
		return KindDeferred
	default:
		return KindInvalid
	}
}

// Normalize turns a synchronous input into the Action that will be
// broadcast. Deferred inputs cannot be normalized without running them and
// are rejected here; callers handle them before reaching this point.
func Normalize(in Input, args ...any) (Action, error) {
	switch KindOf(in) {
	case KindNamed:
		a := Action{Type: string(in.(Named))}
		if len(args) > 0 {
			a.Data = args[0]
		}
		return a, nil
	case KindAction:
		return in.(Action), nil
	case KindDeferred:
		return Action{}, fmt.Errorf("deferred input must be resolved before normalization")
	default:
		return Action{}, fmt.Errorf("unsupported dispatch input %T", in)
	}
}
