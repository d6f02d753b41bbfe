package scenario

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fluxury/internal/ir"
)

// TraceJSON renders a trace as canonical JSON:
//
//	{"scenario_name":"...","trace":[{...},...]}
//
// Zero-valued fields are omitted, except a commit's state.
func TraceJSON(name string, trace []TraceEvent) ([]byte, error) {
	events := make([]any, len(trace))
	for i, ev := range trace {
		m := map[string]any{"type": ev.Type}
		if ev.BroadcastID != "" {
			m["broadcast_id"] = ev.BroadcastID
		}
		if ev.Seq != 0 {
			m["seq"] = ev.Seq
		}
		if ev.Store != "" {
			m["store"] = ev.Store
		}
		if ev.Action != "" {
			m["action"] = ev.Action
		}
		if ev.Type == TraceCommit {
			m["state"] = ev.State
		}
		if ev.Listeners != 0 {
			m["listeners"] = ev.Listeners
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		events[i] = m
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario_name": name,
		"trace":         events,
	})
}

// RunWithGolden runs a scenario and compares its trace with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
func RunWithGolden(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), s)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, s.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	traceJSON, err := TraceJSON(name, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}
