package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/listwatch/internal/record"
)

// openTestStore opens a store in a temp dir and closes it at test end.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rec(id string, kv ...string) record.Record {
	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return record.Record{ID: id, Fields: fields}
}

func mustHash(t *testing.T, s record.Snapshot) string {
	t.Helper()
	h, err := s.Hash()
	if err != nil {
		t.Fatalf("Hash() failed: %v", err)
	}
	return h
}

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
