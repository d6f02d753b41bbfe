// Package flux implements fluxury's stores: named slices of an immutable
// root state tree, each reduced by a handler registered with a shared
// dispatcher.
//
// A Flux value is the explicit context that owns the dispatcher, the root
// state tree and the store registry. There are no process-wide singletons;
// dropping the Flux drops everything it built.
//
// # Broadcast Flow
//
//  1. Flux.Dispatch resolves the input variant (Named, Action, Deferred)
//  2. The dispatcher invokes every store handler in registration order
//  3. Each handler runs its reducer with the current state, the action and
//     a waitFor function
//  4. A reducer result that is not the same reference as the current state
//     is committed: the root tree is replaced wholesale, then the store's
//     subscribers are notified synchronously, in subscription order
//  5. The broadcast moves on to the next handler
//
// A reducer that returns its input unchanged suppresses both the commit and
// the notification. This is the only mechanism for skipping updates, so
// reducers must return the same reference for actions they ignore.
//
// # Failure Semantics
//
// Constructor misuse (CreateStore, ComposeStore, Subscribe) is returned
// synchronously. Everything that happens during dispatch, including reducer
// errors and panics, is reported through the returned Future. A failed
// broadcast stops at the failing handler; stores that committed before it
// stay committed.
//
// # Concurrency
//
// Broadcasts are serialized. A synchronous Dispatch while another broadcast
// is running (re-entrant dispatch from a reducer or listener in particular)
// fails with ALREADY_DISPATCHING. Deferred inputs run their computation on
// a separate goroutine and then wait for the broadcast slot, so they never
// fail for that reason. State reads and subscriptions are safe from any
// goroutine.
package flux
