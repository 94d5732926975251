package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/listwatch/internal/diff"
)

// Entry is one persisted changelog record: a non-empty ChangeSet plus the
// snapshot transition that produced it.
type Entry struct {
	Seq       int64          `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	PrevHash  string         `json:"prev_hash"`
	NewHash   string         `json:"new_hash"`
	Change    diff.ChangeSet `json:"change"`
}

// EntryError reports a changelog row that could not be decoded. One corrupt
// row never aborts reading the rest of the log.
type EntryError struct {
	Seq int64
	Err error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("changelog entry %d: %v", e.Seq, e.Err)
}

// ReadChangelog returns all changelog entries oldest first, plus any rows
// that failed to decode. The error return covers query-level failures only.
func (s *Store) ReadChangelog(ctx context.Context) ([]Entry, []EntryError, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, created_at, prev_hash, new_hash, added, removed, modified
		FROM changelog
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("query changelog: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	failed := []EntryError{}
	for rows.Next() {
		var (
			seq                                  int64
			createdAt, prevHash, newHash         string
			addedJSON, removedJSON, modifiedJSON string
		)
		if err := rows.Scan(&seq, &createdAt, &prevHash, &newHash, &addedJSON, &removedJSON, &modifiedJSON); err != nil {
			return nil, nil, fmt.Errorf("scan changelog entry: %w", err)
		}

		entry, err := decodeEntry(seq, createdAt, prevHash, newHash, addedJSON, removedJSON, modifiedJSON)
		if err != nil {
			failed = append(failed, EntryError{Seq: seq, Err: err})
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate changelog: %w", err)
	}

	return entries, failed, nil
}

// ChangelogStats sums per-type counts over the full log. Counts are always
// derived here, never stored, so they cannot drift from the entries.
type ChangelogStats struct {
	Entries  int `json:"entries"`
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
}

// Stats derives summary counts from the changelog.
func (s *Store) Stats(ctx context.Context) (ChangelogStats, []EntryError, error) {
	entries, failed, err := s.ReadChangelog(ctx)
	if err != nil {
		return ChangelogStats{}, nil, err
	}
	stats := ChangelogStats{Entries: len(entries)}
	for _, e := range entries {
		stats.Added += len(e.Change.Added)
		stats.Removed += len(e.Change.Removed)
		stats.Modified += len(e.Change.Modified)
	}
	return stats, failed, nil
}

// appendEntry inserts a changelog entry inside an existing transaction.
//
// Appends unconditionally: a transition that repeats one from further back
// in the log (the list reverted, then re-applied a change) is real history.
// Crash safety needs no dedup here - an interrupted commit rolls the whole
// transaction back and the next run re-derives and commits the diff once.
func appendEntry(ctx context.Context, tx *sql.Tx, e Entry) error {
	addedJSON, err := marshalRecords(e.Change.Added)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	removedJSON, err := marshalRecords(e.Change.Removed)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	modifiedJSON, err := marshalModifications(e.Change.Modified)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO changelog (created_at, prev_hash, new_hash, added, removed, modified)
		VALUES (?, ?, ?, ?, ?, ?)
	`, formatTime(e.Timestamp), e.PrevHash, e.NewHash, addedJSON, removedJSON, modifiedJSON)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	return nil
}

// decodeEntry reassembles an Entry from its stored columns.
func decodeEntry(seq int64, createdAt, prevHash, newHash, addedJSON, removedJSON, modifiedJSON string) (Entry, error) {
	ts, err := parseTime(createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("created_at: %w", err)
	}
	added, err := unmarshalRecords(addedJSON)
	if err != nil {
		return Entry{}, fmt.Errorf("added: %w", err)
	}
	removed, err := unmarshalRecords(removedJSON)
	if err != nil {
		return Entry{}, fmt.Errorf("removed: %w", err)
	}
	modified, err := unmarshalModifications(modifiedJSON)
	if err != nil {
		return Entry{}, fmt.Errorf("modified: %w", err)
	}

	return Entry{
		Seq:       seq,
		Timestamp: ts,
		PrevHash:  prevHash,
		NewHash:   newHash,
		Change: diff.ChangeSet{
			Added:    added,
			Removed:  removed,
			Modified: modified,
		},
	}, nil
}
