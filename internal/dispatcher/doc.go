// Package dispatcher implements the synchronous broadcast primitive behind
// every fluxury store.
//
// A Dispatcher owns a registry of handler callbacks keyed by Token and runs
// one broadcast at a time. During a broadcast, each handler is invoked exactly
// once, in registration order, unless another handler pulls it forward with
// WaitFor.
//
// ORDERING MODEL:
//
// WaitFor is not a scheduler. "Waiting" means synchronously running the
// dependency's handler right now, on the caller's stack, then returning.
// Two sets track progress within a broadcast:
//   - pending: handler has been entered (it may be blocked in WaitFor)
//   - handled: handler has returned
//
// A WaitFor on a token that is pending but not handled means the dependency
// is somewhere up the current call stack: that is a cycle, reported as
// CYCLIC_WAIT. Self-waits are the one-element case of the same rule.
//
// INVARIANTS:
//   - Dispatch is non-reentrant (ALREADY_DISPATCHING)
//   - A handler runs at most once per broadcast
//   - Broadcast bookkeeping is cleared when Dispatch returns, even if a
//     handler failed or panicked
//   - Tokens are never reused for the lifetime of a Dispatcher
package dispatcher
