// Package view serves a read-only HTTP API over the stored snapshot,
// changelog, and run metadata. It never writes: monitoring runs stay the
// single writer, and the viewer can be pointed at a live database.
package view

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/listwatch/internal/record"
	"github.com/roach88/listwatch/internal/store"
)

// Options bounds the API's response sizes.
type Options struct {
	// PageSize is the default and maximum page size for /api/list.
	PageSize int
	// SearchLimit caps /api/search results.
	SearchLimit int
	// MinQueryLen rejects search queries shorter than this.
	MinQueryLen int
}

func (o *Options) defaults() {
	if o.PageSize <= 0 {
		o.PageSize = 100
	}
	if o.SearchLimit <= 0 {
		o.SearchLimit = 200
	}
	if o.MinQueryLen <= 0 {
		o.MinQueryLen = 2
	}
}

// Server exposes the read-only API.
type Server struct {
	store  *store.Store
	opts   Options
	logger *slog.Logger
}

// New creates a Server over an open store.
func New(st *store.Store, opts Options, logger *slog.Logger) *Server {
	opts.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, opts: opts, logger: logger}
}

// Handler builds the router. All endpoints return JSON.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/list", s.handleList)
		r.Get("/changelog", s.handleChangelog)
		r.Get("/meta", s.handleMeta)
		r.Get("/search", s.handleSearch)
	})

	return r
}

// listResponse is one page of the current snapshot, in snapshot order.
type listResponse struct {
	Records   []record.Record `json:"records"`
	Total     int             `json:"total"`
	Page      int             `json:"page"`
	PageSize  int             `json:"page_size"`
	Hash      string          `json:"hash"`
	FetchedAt string          `json:"fetched_at,omitempty"`
	SourceRef string          `json:"source_ref,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	snap, hash, _, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	size := queryInt(r, "page_size", s.opts.PageSize)
	if size < 1 || size > s.opts.PageSize {
		size = s.opts.PageSize
	}

	start := (page - 1) * size
	end := start + size
	if start > len(snap.Records) {
		start = len(snap.Records)
	}
	if end > len(snap.Records) {
		end = len(snap.Records)
	}

	resp := listResponse{
		Records:   snap.Records[start:end],
		Total:     len(snap.Records),
		Page:      page,
		PageSize:  size,
		Hash:      hash,
		SourceRef: snap.SourceRef,
	}
	if resp.Records == nil {
		resp.Records = []record.Record{}
	}
	if !snap.FetchedAt.IsZero() {
		resp.FetchedAt = snap.FetchedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, 200, resp)
}

type changelogResponse struct {
	Entries []store.Entry `json:"entries"`
	// Corrupt counts rows that could not be decoded; the readable entries
	// are still served.
	Corrupt int `json:"corrupt,omitempty"`
}

func (s *Server) handleChangelog(w http.ResponseWriter, r *http.Request) {
	entries, failed, err := s.store.ReadChangelog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for _, f := range failed {
		s.logger.Warn("skipping unreadable changelog entry", "seq", f.Seq, "error", f.Err)
	}

	if limit := queryInt(r, "limit", 0); limit > 0 && limit < len(entries) {
		// Keep the most recent entries but preserve oldest-first order.
		entries = entries[len(entries)-limit:]
	}
	writeJSON(w, 200, changelogResponse{Entries: entries, Corrupt: len(failed)})
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := s.store.Meta(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stats, _, err := s.store.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"meta":      meta,
		"changelog": stats,
	})
}

type searchResponse struct {
	Query     string          `json:"query"`
	Records   []record.Record `json:"records"`
	Truncated bool            `json:"truncated"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) < s.opts.MinQueryLen {
		writeJSON(w, 400, map[string]string{"error": "query too short"})
		return
	}

	snap, _, _, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	needle := strings.ToLower(q)
	matches := []record.Record{}
	truncated := false
	for _, rec := range snap.Records {
		if !recordMatches(rec, needle) {
			continue
		}
		if len(matches) == s.opts.SearchLimit {
			truncated = true
			break
		}
		matches = append(matches, rec)
	}
	writeJSON(w, 200, searchResponse{Query: q, Records: matches, Truncated: truncated})
}

// recordMatches does a case-insensitive substring match over the record's
// identifier and every field value.
func recordMatches(rec record.Record, needle string) bool {
	if strings.Contains(strings.ToLower(rec.ID), needle) {
		return true
	}
	for _, v := range rec.Fields {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, 500, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
