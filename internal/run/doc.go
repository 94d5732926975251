// Package run implements the per-invocation control flow of the monitor:
// load previous state, accept a freshly ingested record set, diff, and
// commit.
//
// ARCHITECTURE:
//
// Single-Writer Batch Run:
// One invocation of Runner.Run is the only writer the store ever sees.
// Cross-run exclusivity belongs to the external scheduler; the store's
// single-connection discipline and transactional commit keep a misbehaving
// overlapping invocation from producing a torn read.
//
// State Machine:
//
//	Idle -> Loaded -> Diffed -> Committed   (success)
//	Idle -> Failed                          (abort at any step)
//
//  1. Idle -> Loaded: ingest the new record set and load the previous
//     snapshot (empty on first run). Ingest failure or duplicate
//     identifiers abort the run with nothing persisted.
//  2. Loaded -> Diffed: pure diff, always succeeds on valid inputs.
//  3. Diffed -> Committed: non-empty ChangeSet appends to the changelog,
//     replaces the snapshot, and updates meta - all in one transaction.
//     An empty ChangeSet only records the check in meta.
//
// Crash Recovery:
// A run interrupted mid-commit is safe because the commit is one
// transaction: nothing partial survives, so the next run re-diffs against
// the old snapshot, reproduces the identical ChangeSet (the differ is
// deterministic), and commits it once.
package run
