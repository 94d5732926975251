// Package store provides SQLite-backed durable storage for the tracked
// list: the single current snapshot, the append-only changelog, and the
// run summary (meta).
//
// The three units are independently loadable and independently
// absent-tolerant on first run, but they are written together: a change
// commit appends the changelog entry, replaces the snapshot, and updates
// meta in ONE transaction. A reader can never observe a snapshot without
// the changelog entry that produced it.
//
// # Critical Patterns
//
// Append-Only Changelog:
//   - append is the only mutation; entries are never edited or removed
//   - appends are unconditional: a transition repeating one from further
//     back in the log (revert, then re-apply) is real history; crash safety
//     comes from the single commit transaction, not from dedup
//   - one corrupt entry must not hide the rest - ReadChangelog reports
//     per-entry decode failures and keeps going
//
// Deterministic Reads:
//   - snapshot records read ORDER BY position (source document order)
//   - changelog read ORDER BY seq ASC (oldest first)
//
// Derived Counts:
//   - per-type change counts are summed from the stored groups on read,
//     never maintained as separate columns that could drift
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
//   - single connection: the run orchestrator is the only writer; readers
//     (the viewer) share the same handle within one process
package store
