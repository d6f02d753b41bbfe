package flux

import "reflect"

// SameState reports whether next is the same reference as current, which is
// how a reducer signals "no change".
//
// Reference semantics by kind:
//   - maps, pointers, channels, funcs: same underlying pointer
//   - slices: same backing array, length and capacity
//   - other comparable values (numbers, strings, bools, comparable structs): ==
//   - non-comparable structs: never the same
//
// Two nils are the same; nil and a typed value never are.
func SameState(current, next any) bool {
	if current == nil || next == nil {
		return current == nil && next == nil
	}

	a, b := reflect.ValueOf(current), reflect.ValueOf(next)
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len() && a.Cap() == b.Cap()
	}

	if a.Comparable() {
		return a.Equal(b)
	}
	return false
}
