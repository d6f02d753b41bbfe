// Package journal records broadcasts and commits in SQLite.
//
// The journal is an append-only trace for inspection (`fluxury trace`). It
// is not a persistence layer: nothing is ever restored from it.
//
// # Tables
//
//   - broadcasts: one row per broadcast, written at start with status
//     "pending" and finished as "ok" or "error"
//   - commits: one row per store commit, in commit order, with the
//     canonical JSON of the new state and its content hash
//
// All reads order by seq ASC, then id, so a journal reads back identically
// however often it is queried.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//   - single open connection
package journal
