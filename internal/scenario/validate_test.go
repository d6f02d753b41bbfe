package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func validScenario() *Scenario {
	return &Scenario{
		Name:   "ok",
		Stores: []StoreDef{{Name: "S", Initial: 0, On: map[string]string{"INC": "add"}}},
		Steps:  []Step{{Dispatch: "INC"}},
	}
}

func fields(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, Validate(validScenario()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Scenario)
		field  string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name"},
		{"no stores", func(s *Scenario) { s.Stores = nil }, "stores"},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "steps"},
		{"empty store name", func(s *Scenario) { s.Stores[0].Name = "" }, "stores[0].name"},
		{"duplicate store", func(s *Scenario) {
			s.Stores = append(s.Stores, StoreDef{Name: "S"})
		}, "stores[1].name"},
		{"unknown op", func(s *Scenario) { s.Stores[0].On["INC"] = "nope" }, "stores[0].on.INC"},
		{"unknown wait_for", func(s *Scenario) { s.Stores[0].WaitFor = []string{"Ghost"} }, "stores[0].wait_for[0]"},
		{"composed both shapes", func(s *Scenario) {
			s.Composed = []ComposedDef{{Name: "C", List: []string{"S"}, Map: map[string]string{"s": "S"}}}
		}, "composed[0]"},
		{"composed no shape", func(s *Scenario) {
			s.Composed = []ComposedDef{{Name: "C"}}
		}, "composed[0]"},
		{"composed unknown source", func(s *Scenario) {
			s.Composed = []ComposedDef{{Name: "C", List: []string{"Ghost"}}}
		}, "composed[0].list[0]"},
		{"composed duplicates store", func(s *Scenario) {
			s.Composed = []ComposedDef{{Name: "S", List: []string{"S"}}}
		}, "composed[0].name"},
		{"step both", func(s *Scenario) { s.Steps[0].Dispose = "S" }, "steps[0]"},
		{"step neither", func(s *Scenario) { s.Steps[0].Dispatch = "" }, "steps[0]"},
		{"dispose unknown", func(s *Scenario) { s.Steps[0] = Step{Dispose: "Ghost"} }, "steps[0].dispose"},
		{"expect unknown store", func(s *Scenario) {
			s.Steps[0].Expect = &Expect{State: map[string]any{"Ghost": 1}}
		}, "steps[0].expect.state"},
		{"assertion without type", func(s *Scenario) {
			s.Assertions = []Assertion{{}}
		}, "assertions[0].type"},
		{"unknown assertion", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: "vibes"}}
		}, "assertions[0].type"},
		{"notify_count without count", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertNotifyCount, Store: "S"}}
		}, "assertions[0].count"},
		{"notify_count negative", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertNotifyCount, Store: "S", Count: intPtr(-1)}}
		}, "assertions[0].count"},
		{"final_state unknown store", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertFinalState, Store: "Ghost"}}
		}, "assertions[0].store"},
		{"commit_order without stores", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertCommitOrder}}
		}, "assertions[0].stores"},
		{"commit_order step out of range", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertCommitOrder, Stores: []string{}, Step: 9}}
		}, "assertions[0].step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScenario()
			tt.mutate(s)
			errs := Validate(s)
			assert.Contains(t, fields(errs), tt.field, "errors: %v", errs)
		})
	}
}

func TestValidate_ForwardWaitForAllowed(t *testing.T) {
	s := &Scenario{
		Name: "forward",
		Stores: []StoreDef{
			{Name: "Count", WaitFor: []string{"Messages"}, On: map[string]string{"load": "count"}},
			{Name: "Messages", On: map[string]string{"load": "append"}},
		},
		Composed: []ComposedDef{{Name: "View", List: []string{"Count"}}},
		Steps:    []Step{{Dispatch: "load"}},
	}
	assert.Empty(t, Validate(s))
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "steps[0]", Message: "boom"}
	assert.Equal(t, "steps[0]: boom", e.Error())
}
