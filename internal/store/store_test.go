package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"snapshot_records", "snapshot_info", "changelog", "meta"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_SeedsMetaRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM meta").Scan(&count); err != nil {
		t.Fatalf("query meta failed: %v", err)
	}
	if count != 1 {
		t.Errorf("meta row count = %d, want 1", count)
	}
}

func TestOpen_MigratesLegacyChangelog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Hand-build a version-1 database where the changelog still carries
	// the transition uniqueness constraint.
	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open raw database failed: %v", err)
	}
	legacy := []string{
		`CREATE TABLE changelog (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			prev_hash  TEXT NOT NULL,
			new_hash   TEXT NOT NULL,
			added      TEXT NOT NULL,
			removed    TEXT NOT NULL,
			modified   TEXT NOT NULL,
			UNIQUE (prev_hash, new_hash)
		)`,
		`CREATE UNIQUE INDEX idx_changelog_transition_unique
			ON changelog(prev_hash, new_hash)`,
		`INSERT INTO changelog (created_at, prev_hash, new_hash, added, removed, modified)
			VALUES ('2026-01-05T08:00:00Z', '', 'hash-a', '[]', '[]', '[]')`,
		`PRAGMA user_version = 1`,
	}
	for _, stmt := range legacy {
		if _, err := raw.Exec(stmt); err != nil {
			raw.Close()
			t.Fatalf("seed legacy schema failed: %v", err)
		}
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close raw database failed: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	var seq int
	var newHash string
	err = s.db.QueryRow("SELECT seq, new_hash FROM changelog").Scan(&seq, &newHash)
	if err != nil {
		t.Fatalf("query migrated row failed: %v", err)
	}
	if seq != 1 || newHash != "hash-a" {
		t.Errorf("migrated row = (seq=%d, new_hash=%q), want (1, \"hash-a\")", seq, newHash)
	}

	// The rebuilt table must accept a repeat of an existing transition.
	_, err = s.db.Exec(
		`INSERT INTO changelog (created_at, prev_hash, new_hash, added, removed, modified)
			VALUES ('2026-01-06T08:00:00Z', '', 'hash-a', '[]', '[]', '[]')`,
	)
	if err != nil {
		t.Errorf("repeated transition insert failed after migration: %v", err)
	}
}

func TestOpen_SchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}
