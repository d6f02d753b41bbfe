package scenario

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// ErrForcedFailure is returned by the fail operation.
var ErrForcedFailure = errors.New("forced failure")

// operation computes a store's next state. deps holds the states of the
// store's wait_for stores, read after their handlers ran.
type operation func(state, initial, data any, deps []any) (any, error)

var operations = map[string]operation{
	"set":      opSet,
	"add":      opAdd,
	"subtract": opSubtract,
	"merge":    opMerge,
	"append":   opAppend,
	"count":    opCount,
	"reset":    opReset,
	"fail":     opFail,
}

// OperationNames returns the supported operation names, sorted.
func OperationNames() []string {
	return slices.Sorted(maps.Keys(operations))
}

func opSet(_, _, data any, _ []any) (any, error) {
	return data, nil
}

func opAdd(state, _, data any, _ []any) (any, error) {
	return addNumbers(state, data, 1)
}

func opSubtract(state, _, data any, _ []any) (any, error) {
	return addNumbers(state, data, -1)
}

// opMerge shallow-merges a map payload into a new copy of the state.
func opMerge(state, _, data any, _ []any) (any, error) {
	patch, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("merge: payload must be a map, got %T", data)
	}
	var next map[string]any
	switch cur := state.(type) {
	case nil:
		next = make(map[string]any, len(patch))
	case map[string]any:
		next = maps.Clone(cur)
	default:
		return nil, fmt.Errorf("merge: state must be a map, got %T", state)
	}
	maps.Copy(next, patch)
	return next, nil
}

// opAppend appends the payload to a new copy of the state list.
func opAppend(state, _, data any, _ []any) (any, error) {
	switch cur := state.(type) {
	case nil:
		return []any{data}, nil
	case []any:
		next := make([]any, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, data), nil
	default:
		return nil, fmt.Errorf("append: state must be a list, got %T", state)
	}
}

// opCount sets the state to the length of the first wait_for store's state.
func opCount(_, _, _ any, deps []any) (any, error) {
	if len(deps) == 0 {
		return nil, errors.New("count: needs a wait_for store")
	}
	switch v := deps[0].(type) {
	case nil:
		return 0, nil
	case []any:
		return len(v), nil
	case map[string]any:
		return len(v), nil
	case string:
		return len(v), nil
	default:
		return nil, fmt.Errorf("count: cannot count %T", v)
	}
}

func opReset(_, initial, _ any, _ []any) (any, error) {
	return initial, nil
}

func opFail(_, _, _ any, _ []any) (any, error) {
	return nil, ErrForcedFailure
}

// addNumbers returns state + sign*data. A nil payload counts as 1, a nil
// state as 0. Integers stay integers.
func addNumbers(state, data any, sign int) (any, error) {
	if data == nil {
		data = 1
	}
	if state == nil {
		state = 0
	}
	a, aInt, err := number(state)
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	b, bInt, err := number(data)
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	if aInt && bInt {
		return int(a) + sign*int(b), nil
	}
	return a + float64(sign)*b, nil
}

func number(v any) (float64, bool, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true, nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), false, nil
	default:
		return 0, false, fmt.Errorf("not a number: %T", v)
	}
}
