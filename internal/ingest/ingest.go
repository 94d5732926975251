// Package ingest fetches the published sanctions list and parses it into
// an ordered record set.
//
// The ingester is the engine's only source of data and is deliberately
// dumb: it discovers the spreadsheet link on the publisher's page,
// downloads the document, flattens rows to sparse field maps, and hands
// the result to the run orchestrator. It never touches persisted state.
//
// Failures are typed: FetchError for network/HTTP problems, ParseError for
// documents the parser cannot make sense of. Either aborts the run before
// any persistence.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/listwatch/internal/run"
)

// DefaultUserAgent identifies the monitor to the publisher.
const DefaultUserAgent = "listwatch/1.0 (compliance monitoring tool)"

// maxDocumentBytes bounds the spreadsheet download. The real list is a few
// hundred KB; anything near this limit is a broken or hostile response.
const maxDocumentBytes = 64 << 20

// FetchError indicates the source page or document could not be retrieved.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError indicates the retrieved document could not be parsed.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse source document: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse source document: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options tunes the ingester.
type Options struct {
	// PageURL is the publisher page that links to the current document.
	PageURL string
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
	// Timeout bounds each HTTP request. Default: 60s.
	Timeout time.Duration
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Client ingests the remote list. Safe for sequential use by one run at a
// time, matching the engine's single-writer model.
type Client struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	opts.defaults()
	return &Client{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: opts.Logger,
	}
}

// Ingest implements run.Ingester: locate the spreadsheet, download it, and
// parse it into records.
func (c *Client) Ingest(ctx context.Context) (run.Source, error) {
	fetchedAt := time.Now().UTC()

	page, err := c.get(ctx, c.opts.PageURL)
	if err != nil {
		return run.Source{}, err
	}

	docURL, err := FindDocumentLink(page, c.opts.PageURL)
	if err != nil {
		return run.Source{}, err
	}
	c.logger.Debug("ingest: resolved document link", "url", docURL)

	doc, err := c.get(ctx, docURL)
	if err != nil {
		return run.Source{}, err
	}
	rawHash := sha256.Sum256(doc)
	c.logger.Debug("ingest: downloaded document", "bytes", len(doc))

	records, err := ParseWorkbook(doc)
	if err != nil {
		return run.Source{}, err
	}
	c.logger.Info("ingest: parsed source document", "records", len(records), "url", docURL)

	return run.Source{
		Records:   records,
		SourceRef: docURL,
		RawHash:   hex.EncodeToString(rawHash[:]),
		FetchedAt: fetchedAt,
	}, nil
}

// get performs one bounded GET with the configured user agent.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}
