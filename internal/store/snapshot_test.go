package store

import (
	"context"
	"testing"

	"github.com/roach88/listwatch/internal/diff"
	"github.com/roach88/listwatch/internal/record"
)

func TestLoadSnapshot_AbsentOnFirstRun(t *testing.T) {
	s := openTestStore(t)

	snap, hash, present, err := s.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}
	if present {
		t.Error("fresh database should report snapshot absent")
	}
	if hash != "" {
		t.Errorf("absent snapshot hash = %q, want empty", hash)
	}
	if snap.Len() != 0 {
		t.Errorf("absent snapshot has %d records, want 0", snap.Len())
	}
}

func TestCommitChange_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap := record.Snapshot{
		Records: []record.Record{
			rec("1", "name", "Alice", "city", "Warszawa"),
			rec("2", "name", "Bob"),
		},
		FetchedAt: testTime,
		SourceRef: "https://example.gov/list.xlsx",
	}
	hash := mustHash(t, snap)

	entry := Entry{
		Timestamp: testTime,
		PrevHash:  "",
		NewHash:   hash,
		Change:    diff.Compute(record.Empty(), snap),
	}
	update := RunUpdate{
		Hash: hash, SourceHash: "raw", At: testTime,
		RecordCount: snap.Len(), SourceRef: snap.SourceRef,
	}

	if err := s.CommitChange(ctx, entry, snap, update); err != nil {
		t.Fatalf("CommitChange() failed: %v", err)
	}

	loaded, loadedHash, present, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}
	if !present {
		t.Fatal("snapshot should be present after commit")
	}
	if loadedHash != hash {
		t.Errorf("stored hash = %q, want %q", loadedHash, hash)
	}
	if mustHash(t, loaded) != hash {
		t.Error("loaded snapshot content does not hash to the stored hash")
	}

	// Source order preserved.
	if loaded.Records[0].ID != "1" || loaded.Records[1].ID != "2" {
		t.Errorf("record order not preserved: %q, %q", loaded.Records[0].ID, loaded.Records[1].ID)
	}
	if loaded.Records[0].Field("city") != "Warszawa" {
		t.Errorf("field round trip failed: city = %q", loaded.Records[0].Field("city"))
	}
	if !loaded.FetchedAt.Equal(testTime) {
		t.Errorf("fetched_at = %v, want %v", loaded.FetchedAt, testTime)
	}
}

func TestCommitChange_ReplacesPriorSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := record.Snapshot{Records: []record.Record{rec("1", "name", "Alice")}, FetchedAt: testTime}
	firstHash := mustHash(t, first)
	err := s.CommitChange(ctx,
		Entry{Timestamp: testTime, NewHash: firstHash, Change: diff.Compute(record.Empty(), first)},
		first,
		RunUpdate{Hash: firstHash, At: testTime, RecordCount: 1})
	if err != nil {
		t.Fatalf("first CommitChange() failed: %v", err)
	}

	second := record.Snapshot{Records: []record.Record{rec("2", "name", "Bob")}, FetchedAt: testTime.Add(1)}
	secondHash := mustHash(t, second)
	err = s.CommitChange(ctx,
		Entry{Timestamp: testTime.Add(1), PrevHash: firstHash, NewHash: secondHash, Change: diff.Compute(first, second)},
		second,
		RunUpdate{Hash: secondHash, At: testTime.Add(1), RecordCount: 1})
	if err != nil {
		t.Fatalf("second CommitChange() failed: %v", err)
	}

	loaded, _, _, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}
	if loaded.Len() != 1 || loaded.Records[0].ID != "2" {
		t.Errorf("snapshot not replaced: got %d records, first ID %q", loaded.Len(), loaded.Records[0].ID)
	}
}
