package scenario

import (
	"bytes"
	"fmt"
	"reflect"
	"slices"

	"github.com/roach88/fluxury/internal/ir"
)

// EvaluateAssertions checks assertions against a finished run and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if msg := evaluate(result, a); msg != "" {
			failures = append(failures, fmt.Sprintf("assertions[%d] (%s): %s", i, a.Type, msg))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) string {
	switch a.Type {
	case AssertNotifyCount:
		return assertNotifyCount(result, a)
	case AssertFinalState:
		return assertFinalState(result, a)
	case AssertCommitOrder:
		return assertCommitOrder(result, a)
	default:
		return fmt.Sprintf("unknown assertion type %q", a.Type)
	}
}

func assertNotifyCount(result *Result, a Assertion) string {
	if a.Count == nil {
		return "count is required"
	}
	got := result.Notifications[a.Store]
	if got != *a.Count {
		return fmt.Sprintf("store %s: expected %d notifications, got %d", a.Store, *a.Count, got)
	}
	return ""
}

func assertFinalState(result *Result, a Assertion) string {
	got := result.State[a.Store]
	if !sameValue(got, a.Expect) {
		return fmt.Sprintf("store %s: expected %s, got %s", a.Store, render(a.Expect), render(got))
	}
	return ""
}

func assertCommitOrder(result *Result, a Assertion) string {
	got := CommitOrder(result.Trace, a.Step)
	want := a.Stores
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(got, want) {
		return fmt.Sprintf("expected commits %v, got %v", want, got)
	}
	return ""
}

// CommitOrder lists the stores that committed, in order. step restricts it
// to one step (1-based); zero means the whole trace.
func CommitOrder(trace []TraceEvent, step int) []string {
	order := []string{}
	for _, ev := range trace {
		if ev.Type != TraceCommit {
			continue
		}
		if step > 0 && ev.Step != step {
			continue
		}
		order = append(order, ev.Store)
	}
	return order
}

// sameValue compares by canonical JSON so numeric types from different
// decoders compare equal.
func sameValue(a, b any) bool {
	ca, errA := ir.MarshalCanonical(a)
	cb, errB := ir.MarshalCanonical(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ca, cb)
}

func render(v any) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
