package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/listwatch/internal/record"
)

// LoadSnapshot retrieves the current snapshot and its stored hash.
// present is false on first run (no snapshot committed yet) - that is not
// an error. Records come back in source document order.
func (s *Store) LoadSnapshot(ctx context.Context) (snap record.Snapshot, hash string, present bool, err error) {
	var fetchedAt, sourceRef string
	row := s.db.QueryRowContext(ctx, `
		SELECT hash, fetched_at, source_ref FROM snapshot_info WHERE id = 1
	`)
	if err := row.Scan(&hash, &fetchedAt, &sourceRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.Empty(), "", false, nil
		}
		return record.Snapshot{}, "", false, fmt.Errorf("load snapshot info: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, fields FROM snapshot_records ORDER BY position ASC
	`)
	if err != nil {
		return record.Snapshot{}, "", false, fmt.Errorf("query snapshot records: %w", err)
	}
	defer rows.Close()

	records := []record.Record{}
	for rows.Next() {
		var id, fieldsJSON string
		if err := rows.Scan(&id, &fieldsJSON); err != nil {
			return record.Snapshot{}, "", false, fmt.Errorf("scan snapshot record: %w", err)
		}
		fields, err := unmarshalFields(fieldsJSON)
		if err != nil {
			return record.Snapshot{}, "", false, fmt.Errorf("snapshot record %q: %w", id, err)
		}
		records = append(records, record.Record{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return record.Snapshot{}, "", false, fmt.Errorf("iterate snapshot records: %w", err)
	}

	snap = record.Snapshot{Records: records, SourceRef: sourceRef}
	if fetchedAt != "" {
		t, err := parseTime(fetchedAt)
		if err != nil {
			return record.Snapshot{}, "", false, fmt.Errorf("snapshot fetched_at: %w", err)
		}
		snap.FetchedAt = t
	}
	return snap, hash, true, nil
}

// replaceSnapshot swaps the current snapshot inside an existing transaction.
// Callers own the transaction boundary - this never commits.
func replaceSnapshot(ctx context.Context, tx *sql.Tx, snap record.Snapshot, hash string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_records`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	for i, r := range snap.Records {
		fieldsJSON, err := marshalFields(r.Fields)
		if err != nil {
			return fmt.Errorf("record %q: %w", r.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshot_records (record_id, position, fields)
			VALUES (?, ?, ?)
		`, r.ID, i, fieldsJSON)
		if err != nil {
			return fmt.Errorf("insert record %q: %w", r.ID, err)
		}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_info (id, hash, fetched_at, source_ref)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hash = excluded.hash,
			fetched_at = excluded.fetched_at,
			source_ref = excluded.source_ref
	`, hash, formatTime(snap.FetchedAt), snap.SourceRef)
	if err != nil {
		return fmt.Errorf("update snapshot info: %w", err)
	}

	return nil
}

// formatTime renders a timestamp as RFC 3339 UTC; zero time renders as "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTime is the inverse of formatTime.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
