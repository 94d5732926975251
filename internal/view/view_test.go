package view

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listwatch/internal/diff"
	"github.com/roach88/listwatch/internal/record"
	"github.com/roach88/listwatch/internal/store"
	"github.com/roach88/listwatch/internal/testutil"
)

var seedTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// seedStore commits one change run so the store holds a snapshot, a
// changelog entry, and populated meta.
func seedStore(t *testing.T, records ...record.Record) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "view.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	if len(records) == 0 {
		return st
	}

	snap := testutil.Snap(records...)
	snap.FetchedAt = seedTime
	snap.SourceRef = "https://example.com/lista.xlsx"
	hash, err := snap.Hash()
	require.NoError(t, err)

	cs := diff.Compute(record.Snapshot{}, snap)
	entry := store.Entry{
		Timestamp: seedTime,
		PrevHash:  "",
		NewHash:   hash,
		Change:    cs,
	}
	update := store.RunUpdate{
		Hash:        hash,
		SourceHash:  "rawhash",
		At:          seedTime,
		RecordCount: snap.Len(),
		SourceRef:   snap.SourceRef,
	}
	require.NoError(t, st.CommitChange(context.Background(), entry, snap, update))
	return st
}

func newTestServer(t *testing.T, st *store.Store, opts Options) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(st, opts, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestListReturnsSnapshotOrder(t *testing.T) {
	st := seedStore(t,
		testutil.Rec("3", "nazwa", "Zeta"),
		testutil.Rec("1", "nazwa", "Alpha"),
		testutil.Rec("2", "nazwa", "Mid"),
	)
	srv := newTestServer(t, st, Options{})

	var resp listResponse
	code := getJSON(t, srv.URL+"/api/list", &resp)

	require.Equal(t, 200, code)
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Records, 3)
	assert.Equal(t, "3", resp.Records[0].ID)
	assert.Equal(t, "1", resp.Records[1].ID)
	assert.Equal(t, "2", resp.Records[2].ID)
	assert.NotEmpty(t, resp.Hash)
	assert.Equal(t, "https://example.com/lista.xlsx", resp.SourceRef)
}

func TestListPagination(t *testing.T) {
	st := seedStore(t,
		testutil.Rec("1", "nazwa", "a"),
		testutil.Rec("2", "nazwa", "b"),
		testutil.Rec("3", "nazwa", "c"),
	)
	srv := newTestServer(t, st, Options{PageSize: 2})

	var resp listResponse
	code := getJSON(t, srv.URL+"/api/list?page=2&page_size=2", &resp)

	require.Equal(t, 200, code)
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "3", resp.Records[0].ID)

	// Past the end: empty page, not an error.
	code = getJSON(t, srv.URL+"/api/list?page=9", &resp)
	require.Equal(t, 200, code)
	assert.Empty(t, resp.Records)
}

func TestListEmptyStore(t *testing.T) {
	st := seedStore(t)
	srv := newTestServer(t, st, Options{})

	var resp listResponse
	code := getJSON(t, srv.URL+"/api/list", &resp)

	require.Equal(t, 200, code)
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Records)
	assert.Empty(t, resp.Records)
}

func TestSearch(t *testing.T) {
	st := seedStore(t,
		testutil.Rec("1|Kowalski", "nazwa", "Kowalski Jan", "adres", "Warszawa"),
		testutil.Rec("2|Nowak", "nazwa", "Nowak sp. z o.o.", "adres", "Kraków"),
	)
	srv := newTestServer(t, st, Options{})

	var resp searchResponse
	code := getJSON(t, srv.URL+"/api/search?q=WARSZ", &resp)
	require.Equal(t, 200, code)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "1|Kowalski", resp.Records[0].ID)
	assert.False(t, resp.Truncated)

	// Identifier matches count too.
	code = getJSON(t, srv.URL+"/api/search?q=nowak", &resp)
	require.Equal(t, 200, code)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "2|Nowak", resp.Records[0].ID)
}

func TestSearchRejectsShortQuery(t *testing.T) {
	srv := newTestServer(t, seedStore(t), Options{})

	var resp map[string]string
	code := getJSON(t, srv.URL+"/api/search?q=a", &resp)
	assert.Equal(t, 400, code)

	code = getJSON(t, srv.URL+"/api/search", &resp)
	assert.Equal(t, 400, code)
}

func TestSearchTruncation(t *testing.T) {
	records := make([]record.Record, 5)
	for i := range records {
		records[i] = testutil.Rec(string(rune('a'+i)), "nazwa", "match me")
	}
	st := seedStore(t, records...)
	srv := newTestServer(t, st, Options{SearchLimit: 3})

	var resp searchResponse
	code := getJSON(t, srv.URL+"/api/search?q=match", &resp)

	require.Equal(t, 200, code)
	assert.Len(t, resp.Records, 3)
	assert.True(t, resp.Truncated)
}

func TestChangelog(t *testing.T) {
	st := seedStore(t, testutil.Rec("1", "nazwa", "Alpha"))
	srv := newTestServer(t, st, Options{})

	var resp changelogResponse
	code := getJSON(t, srv.URL+"/api/changelog", &resp)

	require.Equal(t, 200, code)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, 0, resp.Corrupt)
	entry := resp.Entries[0]
	assert.Empty(t, entry.PrevHash)
	assert.NotEmpty(t, entry.NewHash)
	require.Len(t, entry.Change.Added, 1)
	assert.Equal(t, "1", entry.Change.Added[0].ID)
}

func TestMeta(t *testing.T) {
	st := seedStore(t, testutil.Rec("1", "nazwa", "Alpha"), testutil.Rec("2", "nazwa", "Beta"))
	srv := newTestServer(t, st, Options{})

	var resp struct {
		Meta      store.Meta           `json:"meta"`
		Changelog store.ChangelogStats `json:"changelog"`
	}
	code := getJSON(t, srv.URL+"/api/meta", &resp)

	require.Equal(t, 200, code)
	assert.Equal(t, 2, resp.Meta.RecordCount)
	assert.NotEmpty(t, resp.Meta.LastHash)
	assert.Equal(t, seedTime, resp.Meta.LastChanged.UTC())
	assert.Equal(t, 1, resp.Changelog.Entries)
	assert.Equal(t, 2, resp.Changelog.Added)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, seedStore(t), Options{})

	var resp map[string]string
	code := getJSON(t, srv.URL+"/health", &resp)
	require.Equal(t, 200, code)
	assert.Equal(t, "ok", resp["status"])
}
