package diff

import (
	"sort"

	"github.com/roach88/listwatch/internal/record"
)

// FieldChange holds the before/after values of a single modified field.
// The absent side of a sparse field is represented as "".
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Modification describes the field-level delta for one record present in
// both snapshots. Changes contains ONLY differing fields.
type Modification struct {
	ID      string                 `json:"_id"`
	Changes map[string]FieldChange `json:"changes"`
}

// ChangeSet is the diff between two snapshots: three disjoint groups.
// An identifier appears in at most one group.
type ChangeSet struct {
	Added    []record.Record `json:"added"`
	Removed  []record.Record `json:"removed"`
	Modified []Modification  `json:"modified"`
}

// Empty reports whether the change set carries no changes at all.
// Empty change sets are never appended to the changelog.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Total returns the summed change count. Always derived, never cached.
func (c ChangeSet) Total() int {
	return len(c.Added) + len(c.Removed) + len(c.Modified)
}

// Compute diffs two snapshots.
//
// Added entries carry the full new record, removed entries the full old
// record. Modified entries carry only the differing fields, compared over
// the union of both field name sets with absent normalized to "".
//
// Output ordering: added and modified follow new-snapshot record order,
// removed follows old-snapshot record order. Inputs are never mutated.
func Compute(old, new record.Snapshot) ChangeSet {
	oldIdx := old.Index()
	newIdx := new.Index()

	cs := ChangeSet{
		Added:    []record.Record{},
		Removed:  []record.Record{},
		Modified: []Modification{},
	}

	for _, r := range new.Records {
		prev, exists := oldIdx[r.ID]
		if !exists {
			cs.Added = append(cs.Added, r.Clone())
			continue
		}
		if changes := fieldChanges(prev, r); len(changes) > 0 {
			cs.Modified = append(cs.Modified, Modification{ID: r.ID, Changes: changes})
		}
	}

	for _, r := range old.Records {
		if _, exists := newIdx[r.ID]; !exists {
			cs.Removed = append(cs.Removed, r.Clone())
		}
	}

	return cs
}

// fieldChanges compares two records with the same ID and returns the
// differing fields. Returns an empty map when the records are equal.
func fieldChanges(old, new record.Record) map[string]FieldChange {
	changes := make(map[string]FieldChange)
	for name := range unionNames(old, new) {
		ov := old.Field(name)
		nv := new.Field(name)
		if ov != nv {
			changes[name] = FieldChange{Old: ov, New: nv}
		}
	}
	return changes
}

// unionNames returns the union of both records' field name sets.
func unionNames(a, b record.Record) map[string]bool {
	names := a.FieldNames()
	for name := range b.FieldNames() {
		names[name] = true
	}
	return names
}

// ChangedFieldNames returns the sorted field names of a modification.
// Sorting is presentation-side only; Changes itself is an unordered map.
func (m Modification) ChangedFieldNames() []string {
	names := make([]string, 0, len(m.Changes))
	for name := range m.Changes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
