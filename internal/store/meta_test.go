package store

import (
	"context"
	"testing"
	"time"

	"github.com/roach88/listwatch/internal/diff"
	"github.com/roach88/listwatch/internal/record"
)

func TestMeta_ZeroOnFreshDatabase(t *testing.T) {
	s := openTestStore(t)

	m, err := s.Meta(context.Background())
	if err != nil {
		t.Fatalf("Meta() failed: %v", err)
	}
	if m.LastHash != "" || m.RecordCount != 0 {
		t.Errorf("fresh meta should be zero, got %+v", m)
	}
	if !m.LastChecked.IsZero() || !m.LastChanged.IsZero() {
		t.Errorf("fresh meta timestamps should be zero, got %+v", m)
	}
}

func TestRecordCheck_UpdatesLastCheckedOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordCheck(ctx, testTime); err != nil {
		t.Fatalf("RecordCheck() failed: %v", err)
	}

	m, err := s.Meta(ctx)
	if err != nil {
		t.Fatalf("Meta() failed: %v", err)
	}
	if !m.LastChecked.Equal(testTime) {
		t.Errorf("last_checked = %v, want %v", m.LastChecked, testTime)
	}
	if !m.LastChanged.IsZero() {
		t.Error("last_changed must not advance on a bare check")
	}
	if m.LastHash != "" {
		t.Error("last_hash must not advance on a bare check")
	}
}

func TestRecordRun_NoChange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.RecordRun(ctx, RunUpdate{
		Hash: "ignored", SourceHash: "srchash", At: testTime,
		RecordCount: 42, SourceRef: "https://example.gov/list.xlsx",
	})
	if err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	m, err := s.Meta(ctx)
	if err != nil {
		t.Fatalf("Meta() failed: %v", err)
	}
	if m.LastHash != "" {
		t.Error("last_hash must not advance on a no-change run")
	}
	if !m.LastChanged.IsZero() {
		t.Error("last_changed must not advance on a no-change run")
	}
	if m.RecordCount != 42 {
		t.Errorf("record_count = %d, want 42", m.RecordCount)
	}
	if m.LastSourceHash != "srchash" {
		t.Errorf("last_source_hash = %q, want %q", m.LastSourceHash, "srchash")
	}
	if !m.LastChecked.Equal(testTime) {
		t.Errorf("last_checked = %v, want %v", m.LastChecked, testTime)
	}
}

func TestCommitChange_MetaMatchesSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap := record.Snapshot{
		Records:   []record.Record{rec("1", "name", "Alice"), rec("2", "name", "Bob")},
		FetchedAt: testTime,
		SourceRef: "https://example.gov/list.xlsx",
	}
	hash := mustHash(t, snap)
	at := testTime.Add(time.Minute)

	err := s.CommitChange(ctx,
		Entry{Timestamp: at, NewHash: hash, Change: diff.Compute(record.Empty(), snap)},
		snap,
		RunUpdate{Hash: hash, SourceHash: "raw", At: at, RecordCount: snap.Len(), SourceRef: snap.SourceRef})
	if err != nil {
		t.Fatalf("CommitChange() failed: %v", err)
	}

	m, err := s.Meta(ctx)
	if err != nil {
		t.Fatalf("Meta() failed: %v", err)
	}
	loaded, _, _, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}

	// Internal consistency: meta must describe the snapshot the store
	// hands back.
	if m.RecordCount != loaded.Len() {
		t.Errorf("meta record_count %d != snapshot length %d", m.RecordCount, loaded.Len())
	}
	if m.LastHash != mustHash(t, loaded) {
		t.Error("meta last_hash does not match stored snapshot content")
	}
	if !m.LastChanged.Equal(at) || !m.LastChecked.Equal(at) {
		t.Errorf("timestamps not advanced together: %+v", m)
	}
}
