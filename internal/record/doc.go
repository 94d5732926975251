// Package record defines the data model for the tracked list: individual
// Records with a sparse, data-driven field set, and Snapshots of the full
// list at one point in time.
//
// # Critical Patterns
//
// Normalization:
//   - A field that is absent and a field that is "" are the SAME value.
//   - All comparisons go through the normalized view; there is no
//     null-vs-empty ambiguity anywhere downstream.
//
// Content-Addressed Identity:
//   - Snapshot hashes are computed over canonical JSON (sorted keys, NFC
//     normalized strings, no HTML escaping) with SHA-256 domain separation.
//   - The snapshot hash is ORDER-INDEPENDENT with respect to record order:
//     two snapshots with identical records hash identically no matter how
//     the source happened to order them.
//
// Record identity (the ID) is source-assigned and stable across runs for the
// same real-world entity. Within one snapshot IDs must be unique; Snapshot.
// Validate enforces this before any diffing happens.
package record
