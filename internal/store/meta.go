package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/listwatch/internal/record"
)

// Meta is the run summary: hash, timestamps, and counts derived from the
// most recent run. Mutated only by the run orchestrator; the differ never
// reads it.
type Meta struct {
	// LastHash is the content hash of the current snapshot, set only on
	// runs that committed a change.
	LastHash string `json:"last_hash"`
	// LastSourceHash is the SHA-256 of the raw source document bytes,
	// used for the cheap "nothing changed" short-circuit before parsing.
	LastSourceHash string `json:"last_source_hash"`
	// LastChecked advances on every run (successful or, when configured,
	// failed) - it answers "when did we last look".
	LastChecked time.Time `json:"last_checked"`
	// LastChanged advances only when a non-empty ChangeSet was committed.
	LastChanged time.Time `json:"last_changed"`
	// SourceRef is the resolved source document reference (download URL).
	SourceRef string `json:"source_ref"`
	// RecordCount is the current snapshot's record count.
	RecordCount int `json:"record_count"`
}

// RunUpdate carries the meta mutation for one completed run.
type RunUpdate struct {
	Hash        string
	SourceHash  string
	At          time.Time
	RecordCount int
	SourceRef   string
}

// Meta returns the current run summary. A freshly created database returns
// the zero Meta - absence is not an error.
func (s *Store) Meta(ctx context.Context) (Meta, error) {
	var m Meta
	var lastChecked, lastChanged string
	row := s.db.QueryRowContext(ctx, `
		SELECT last_hash, last_source_hash, last_checked, last_changed, source_ref, record_count
		FROM meta WHERE id = 1
	`)
	if err := row.Scan(&m.LastHash, &m.LastSourceHash, &lastChecked, &lastChanged, &m.SourceRef, &m.RecordCount); err != nil {
		return Meta{}, fmt.Errorf("load meta: %w", err)
	}

	var err error
	if m.LastChecked, err = parseTime(lastChecked); err != nil {
		return Meta{}, fmt.Errorf("meta last_checked: %w", err)
	}
	if m.LastChanged, err = parseTime(lastChanged); err != nil {
		return Meta{}, fmt.Errorf("meta last_changed: %w", err)
	}
	return m, nil
}

// RecordCheck updates last_checked only. Used for failed runs (when the
// configuration says failed attempts count as checks) and for the raw-hash
// short-circuit where nothing else moved.
func (s *Store) RecordCheck(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE meta SET last_checked = ? WHERE id = 1
	`, formatTime(at))
	if err != nil {
		return fmt.Errorf("record check: %w", err)
	}
	return nil
}

// RecordRun updates meta after a completed no-change run: last_checked,
// record count, source ref and source hash advance; last_hash and
// last_changed stay where the last change run left them.
//
// Change runs go through CommitChange instead, which folds the full meta
// update into the commit transaction.
func (s *Store) RecordRun(ctx context.Context, u RunUpdate) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE meta SET
			last_source_hash = ?, last_checked = ?, source_ref = ?, record_count = ?
		WHERE id = 1
	`, u.SourceHash, formatTime(u.At), u.SourceRef, u.RecordCount)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// CommitChange persists a change run atomically: changelog append, snapshot
// replacement, and meta update happen in one transaction. If the process
// dies anywhere inside, everything rolls back and the next run re-derives
// the same diff from the untouched old snapshot.
func (s *Store) CommitChange(ctx context.Context, e Entry, snap record.Snapshot, u RunUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit change: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := appendEntry(ctx, tx, e); err != nil {
		return fmt.Errorf("commit change: %w", err)
	}

	if err := replaceSnapshot(ctx, tx, snap, e.NewHash); err != nil {
		return fmt.Errorf("commit change: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE meta SET
			last_hash = ?, last_source_hash = ?, last_checked = ?,
			last_changed = ?, source_ref = ?, record_count = ?
		WHERE id = 1
	`, u.Hash, u.SourceHash, formatTime(u.At), formatTime(u.At), u.SourceRef, u.RecordCount)
	if err != nil {
		return fmt.Errorf("commit change: update meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit change: %w", err)
	}
	return nil
}
