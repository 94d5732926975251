package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngest_EndToEnd(t *testing.T) {
	workbook := buildWorkbook(t, [][]interface{}{
		{"Lp.", "Nazwisko i imię", "Uzasadnienie"},
		{"1", "Kowalski Jan", "decyzja nr 5"},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/lista", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/files/tabela.xlsx">Tabela</a></body></html>`)
	})
	mux.HandleFunc("/files/tabela.xlsx", func(w http.ResponseWriter, r *http.Request) {
		w.Write(workbook)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Options{PageURL: srv.URL + "/lista"})
	src, err := c.Ingest(context.Background())
	require.NoError(t, err)

	require.Len(t, src.Records, 1)
	assert.Equal(t, "1|Kowalski Jan", src.Records[0].ID)
	assert.Equal(t, srv.URL+"/files/tabela.xlsx", src.SourceRef)
	assert.Len(t, src.RawHash, 64, "raw hash should be hex SHA-256")
	assert.False(t, src.FetchedAt.IsZero())
}

func TestIngest_SendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(Options{PageURL: srv.URL})
	_, _ = c.Ingest(context.Background())

	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestIngest_PageFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Options{PageURL: srv.URL})
	_, err := c.Ingest(context.Background())
	require.Error(t, err)

	var fe *FetchError
	assert.True(t, errors.As(err, &fe), "expected FetchError, got %T: %v", err, err)
}

func TestIngest_DocumentFetchFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lista", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/files/tabela.xlsx">Tabela</a>`)
	})
	// /files/tabela.xlsx intentionally 404s.
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Options{PageURL: srv.URL + "/lista"})
	_, err := c.Ingest(context.Background())
	require.Error(t, err)

	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
}

func TestIngest_UnparseableDocument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lista", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/files/tabela.xlsx">Tabela</a>`)
	})
	mux.HandleFunc("/files/tabela.xlsx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not a workbook")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Options{PageURL: srv.URL + "/lista"})
	_, err := c.Ingest(context.Background())
	require.Error(t, err)

	var pe *ParseError
	assert.True(t, errors.As(err, &pe), "expected ParseError, got %T: %v", err, err)
}

func TestIngest_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(Options{PageURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Ingest(ctx)
	require.Error(t, err)
	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
}
