// Package scenario runs declarative store graphs against a Flux.
//
// A scenario declares stores, derived stores and a list of steps, then
// asserts on notifications, final state and commit order. It backs the
// `fluxury run`, `fluxury validate` and `fluxury test` commands and the
// golden trace tests.
//
// # Scenario Format
//
// Scenarios are YAML (.yaml, .yml) or CUE (.cue, under a top-level
// `scenario` field):
//
//	name: counter
//	description: "INC twice, DEC once"
//	stores:
//	  - name: CountStore
//	    initial: 0
//	    on: { INC: add, DEC: subtract }
//	  - name: MessageCount
//	    initial: 0
//	    wait_for: [MessageStore]
//	    on: { loadMessage: count }
//	composed:
//	  - name: Derived
//	    map: { count: CountStore }
//	steps:
//	  - dispatch: INC
//	  - dispatch: DEC
//	    expect:
//	      state: { CountStore: 0 }
//	  - dispose: Derived
//	assertions:
//	  - type: notify_count
//	    store: CountStore
//	    count: 2
//	  - type: final_state
//	    store: CountStore
//	    expect: 0
//	  - type: commit_order
//	    step: 1
//	    stores: [CountStore, Derived]
//
// # Operations
//
// Each store maps action types to one of: set, add, subtract, merge,
// append, count, reset, fail. Actions with no mapping leave the state
// unchanged, so nothing is committed and nobody is notified.
//
// # Deterministic Runs
//
// Every run gets a fresh Flux with broadcast IDs b-1, b-2, ... and a fresh
// logical clock, so the same scenario always yields the same trace.
// Values are compared by their canonical JSON encoding, which makes 1 and
// 1.0 equal whether they came from YAML or CUE.
package scenario
