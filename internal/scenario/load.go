package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Load reads, parses and validates a scenario file. The format is chosen
// by extension: .cue for CUE, anything else for YAML.
func Load(path string) (*Scenario, error) {
	s, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if errs := Validate(s); len(errs) > 0 {
		return nil, fmt.Errorf("invalid scenario: %w", errs[0])
	}
	return s, nil
}

// Parse reads and decodes a scenario file without validating it.
func Parse(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return ParseCUE(data, path)
	default:
		return ParseYAML(data)
	}
}

// ParseYAML decodes a YAML scenario. Unknown fields are rejected so typos
// like "asserts:" fail loudly.
func ParseYAML(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	s.normalize()
	return &s, nil
}

// ParseCUE decodes a CUE scenario. The scenario lives under a top-level
// `scenario` field; if there is none the whole file is the scenario.
func ParseCUE(data []byte, filename string) (*Scenario, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %w", err)
	}

	if sv := v.LookupPath(cue.ParsePath("scenario")); sv.Exists() {
		v = sv
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE scenario is not concrete: %w", err)
	}

	var s Scenario
	if err := v.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode CUE: %w", err)
	}
	s.normalize()
	return &s, nil
}

// normalize rewrites decoded values into the shapes reducers see: maps
// keyed by string, []any for lists, int for integral numbers.
func (s *Scenario) normalize() {
	for i := range s.Stores {
		s.Stores[i].Initial = normalizeValue(s.Stores[i].Initial)
	}
	for i := range s.Steps {
		s.Steps[i].Data = normalizeValue(s.Steps[i].Data)
		if e := s.Steps[i].Expect; e != nil {
			for k, v := range e.State {
				e.State[k] = normalizeValue(v)
			}
		}
	}
	for i := range s.Assertions {
		s.Assertions[i].Expect = normalizeValue(s.Assertions[i].Expect)
	}
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalizeValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalizeValue(val)
		}
		return out
	case int64:
		return int(x)
	case uint64:
		return int(x)
	case float64:
		if x == float64(int(x)) {
			return int(x)
		}
		return x
	default:
		return v
	}
}
