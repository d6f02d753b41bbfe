// Package ir provides the foundational action and snapshot representation for
// fluxury.
//
// This package contains value types only. Every other internal package may
// import ir; ir imports nothing internal. This keeps actions and their
// canonical encoding at the bottom of the dependency graph.
//
// Key design constraints:
//   - Actions are immutable once built; dispatch never mutates them
//   - Dispatch inputs are a sealed variant (Named, Action, Deferred) resolved
//     once at the dispatch boundary
//   - Canonical JSON is the only encoding used for hashing and journaling
package ir
