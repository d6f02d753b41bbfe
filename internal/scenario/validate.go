package scenario

import (
	"fmt"
	"slices"

	"github.com/roach88/fluxury/internal/ir"
)

// ValidationError describes one problem with a scenario.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a parsed scenario and returns every problem found.
func Validate(s *Scenario) []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if s.Name == "" {
		add("name", "name is required")
	}
	if len(s.Stores) == 0 {
		add("stores", "stores list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		add("steps", "steps list is required and must be non-empty")
	}

	declared := make(map[string]bool)
	declare := func(field, name string) {
		if name == "" {
			add(field, "name is required")
			return
		}
		if declared[name] {
			add(field, "duplicate store name %q", name)
			return
		}
		declared[name] = true
	}

	for i, st := range s.Stores {
		declare(fmt.Sprintf("stores[%d].name", i), st.Name)
	}
	for i, st := range s.Stores {
		field := fmt.Sprintf("stores[%d]", i)
		for _, actionType := range ir.SortedKeys(st.On) {
			op := st.On[actionType]
			if actionType == "" {
				add(field+".on", "action type must be non-empty")
			}
			if _, ok := operations[op]; !ok {
				add(fmt.Sprintf("%s.on.%s", field, actionType), "unknown operation %q (want one of %v)", op, OperationNames())
			}
		}
		for j, dep := range st.WaitFor {
			// Forward references are fine: tokens are resolved at dispatch time.
			if !declared[dep] && !slices.ContainsFunc(s.Composed, func(c ComposedDef) bool { return c.Name == dep }) {
				add(fmt.Sprintf("%s.wait_for[%d]", field, j), "unknown store %q", dep)
			}
		}
	}

	for i, c := range s.Composed {
		field := fmt.Sprintf("composed[%d]", i)
		hasList, hasMap := len(c.List) > 0, len(c.Map) > 0
		switch {
		case hasList && hasMap:
			add(field, "set either list or map, not both")
		case !hasList && !hasMap:
			add(field, "one of list or map is required")
		}
		for j, src := range c.List {
			if !declared[src] {
				add(fmt.Sprintf("%s.list[%d]", field, j), "unknown or later-declared store %q", src)
			}
		}
		for _, k := range ir.SortedKeys(c.Map) {
			src := c.Map[k]
			if !declared[src] {
				add(fmt.Sprintf("%s.map.%s", field, k), "unknown or later-declared store %q", src)
			}
		}
		declare(field+".name", c.Name)
	}

	for i, step := range s.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		switch {
		case step.Dispatch != "" && step.Dispose != "":
			add(field, "set either dispatch or dispose, not both")
		case step.Dispatch == "" && step.Dispose == "":
			add(field, "one of dispatch or dispose is required")
		case step.Dispose != "" && !declared[step.Dispose]:
			add(field+".dispose", "unknown store %q", step.Dispose)
		}
		if step.Expect != nil {
			for _, name := range ir.SortedKeys(step.Expect.State) {
				if !declared[name] {
					add(field+".expect.state", "unknown store %q", name)
				}
			}
		}
	}

	for i, a := range s.Assertions {
		field := fmt.Sprintf("assertions[%d]", i)
		switch a.Type {
		case AssertNotifyCount:
			if !declared[a.Store] {
				add(field+".store", "unknown store %q", a.Store)
			}
			if a.Count == nil {
				add(field+".count", "count is required for notify_count")
			} else if *a.Count < 0 {
				add(field+".count", "count must be non-negative")
			}
		case AssertFinalState:
			if !declared[a.Store] {
				add(field+".store", "unknown store %q", a.Store)
			}
		case AssertCommitOrder:
			if a.Stores == nil {
				add(field+".stores", "stores is required for commit_order")
			}
			for j, name := range a.Stores {
				if !declared[name] {
					add(fmt.Sprintf("%s.stores[%d]", field, j), "unknown store %q", name)
				}
			}
			if a.Step < 0 || a.Step > len(s.Steps) {
				add(field+".step", "step %d out of range 1..%d", a.Step, len(s.Steps))
			}
		case "":
			add(field+".type", "type is required")
		default:
			add(field+".type", "unknown assertion type %q", a.Type)
		}
	}

	return errs
}
