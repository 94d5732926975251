// Package diff computes the field-level delta between two snapshots of the
// tracked list.
//
// Compute is a pure function: no I/O, no mutation of its inputs, and fully
// deterministic given (old, new). Determinism matters because the run
// orchestrator relies on re-diffing after a crash producing the exact same
// ChangeSet, which is what makes commit recovery idempotent.
//
// # Critical Patterns
//
// Disjoint Partition:
//   - Every identifier lands in exactly one of added / removed / modified /
//     unchanged. Never two.
//
// Snapshot-Order Output:
//   - Added and modified entries follow the NEW snapshot's record order;
//     removed entries follow the OLD snapshot's order. Entries are never
//     re-sorted, so deterministic input order yields deterministic output.
//
// Union Field Comparison:
//   - Modified entries compare over the union of both field name sets, with
//     the absent side normalized to "". A field equal on both sides is never
//     emitted.
package diff
