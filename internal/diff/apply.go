package diff

import (
	"fmt"

	"github.com/roach88/listwatch/internal/record"
)

// Apply reconstructs the new snapshot from the old snapshot plus a change
// set: removed records are dropped, modifications are applied field by
// field, added records are appended.
//
// Apply is the inverse direction of Compute - for any valid (old, new),
// Apply(old, Compute(old, new)) carries exactly new's normalized content.
// The replay verifier and the round-trip tests lean on this.
func Apply(old record.Snapshot, cs ChangeSet) (record.Snapshot, error) {
	removed := make(map[string]bool, len(cs.Removed))
	for _, r := range cs.Removed {
		removed[r.ID] = true
	}

	mods := make(map[string]Modification, len(cs.Modified))
	for _, m := range cs.Modified {
		mods[m.ID] = m
	}

	result := record.Snapshot{Records: []record.Record{}}
	for _, r := range old.Records {
		if removed[r.ID] {
			continue
		}
		out := r.Clone()
		if m, ok := mods[r.ID]; ok {
			for name, change := range m.Changes {
				if out.Field(name) != change.Old {
					return record.Snapshot{}, fmt.Errorf(
						"apply: record %q field %q: old value %q does not match snapshot value %q",
						r.ID, name, change.Old, out.Field(name))
				}
				if change.New == "" {
					delete(out.Fields, name)
				} else {
					out.Fields[name] = change.New
				}
			}
			delete(mods, r.ID)
		}
		result.Records = append(result.Records, out)
	}

	if len(mods) > 0 {
		for id := range mods {
			return record.Snapshot{}, fmt.Errorf("apply: modification for unknown record %q", id)
		}
	}

	for _, r := range cs.Added {
		result.Records = append(result.Records, r.Clone())
	}

	return result, nil
}
