package record

import (
	"fmt"
	"time"
)

// Record is one entity on the tracked list: a stable identifier plus an
// arbitrary set of named string fields.
//
// The field set is sparse and data-driven - two records in the same snapshot
// may carry different field names. Consumers must union field names when
// comparing or rendering, never intersect them.
type Record struct {
	ID     string            `json:"_id"`
	Fields map[string]string `json:"fields"`
}

// Field returns the normalized value of a field: absent and "" both
// normalize to the empty string.
func (r Record) Field(name string) string {
	return r.Fields[name]
}

// FieldNames returns the set of field names present on this record.
func (r Record) FieldNames() map[string]bool {
	names := make(map[string]bool, len(r.Fields))
	for k := range r.Fields {
		names[k] = true
	}
	return names
}

// Equal reports whether two records carry the same normalized field values.
// Comparison runs over the UNION of both field name sets, so a field present
// as "" on one side and absent on the other compares equal.
//
// IDs are NOT compared - callers match records by ID before calling Equal.
func (r Record) Equal(other Record) bool {
	for name := range r.Fields {
		if r.Field(name) != other.Field(name) {
			return false
		}
	}
	for name := range other.Fields {
		if r.Field(name) != other.Field(name) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. The diff engine never mutates its inputs;
// Clone exists for callers that need to build derived snapshots.
func (r Record) Clone() Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{ID: r.ID, Fields: fields}
}

// Snapshot is the full record set observed at one point in time.
//
// Record order is the source document's order and is preserved verbatim -
// the differ emits entries in snapshot order, and the viewer renders in
// snapshot order. The content hash, by contrast, is order-independent.
type Snapshot struct {
	Records   []Record
	FetchedAt time.Time
	SourceRef string
}

// Empty returns a snapshot with no records, used as the "previous" side on
// the first-ever run.
func Empty() Snapshot {
	return Snapshot{Records: []Record{}}
}

// Len returns the number of records.
func (s Snapshot) Len() int { return len(s.Records) }

// Validate checks the snapshot invariant: identifiers are unique.
// A duplicate ID is fatal for the run - nothing may be persisted from a
// snapshot that fails validation.
func (s Snapshot) Validate() error {
	seen := make(map[string]bool, len(s.Records))
	for i, r := range s.Records {
		if r.ID == "" {
			return fmt.Errorf("record at position %d has empty identifier", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate record identifier %q", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// Index builds an ID -> Record map. Validate must have passed; on duplicate
// IDs the later record silently wins, which is why validation runs first.
func (s Snapshot) Index() map[string]Record {
	idx := make(map[string]Record, len(s.Records))
	for _, r := range s.Records {
		idx[r.ID] = r
	}
	return idx
}
