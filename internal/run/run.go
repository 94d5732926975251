package run

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/listwatch/internal/diff"
	"github.com/roach88/listwatch/internal/record"
	"github.com/roach88/listwatch/internal/store"
)

// Source is what the external ingester hands the engine: an ordered,
// duplicate-free record set plus provenance. RawHash is the SHA-256 of the
// raw source document bytes, used for the cheap no-change short-circuit.
type Source struct {
	Records   []record.Record
	SourceRef string
	RawHash   string
	FetchedAt time.Time
}

// Ingester produces a fresh record set, or a typed failure that aborts the
// run before any persistence.
type Ingester interface {
	Ingest(ctx context.Context) (Source, error)
}

// Notifier receives the committed changelog entry of a change run for
// downstream formatting and delivery. The engine never formats messages.
type Notifier interface {
	Notify(ctx context.Context, entry store.Entry) error
}

// State names the orchestrator's position in the run state machine.
type State string

const (
	StateIdle      State = "idle"
	StateLoaded    State = "loaded"
	StateDiffed    State = "diffed"
	StateCommitted State = "committed"
	StateFailed    State = "failed"
)

// Report summarizes one completed run.
type Report struct {
	RunID    string `json:"run_id"`
	State    State  `json:"state"`
	Changed  bool   `json:"changed"`
	FirstRun bool   `json:"first_run,omitempty"`
	// SourceUnchanged is true when the raw document hash matched the
	// previous run and the run short-circuited before parsing.
	SourceUnchanged bool   `json:"source_unchanged,omitempty"`
	Added           int    `json:"added"`
	Removed         int    `json:"removed"`
	Modified        int    `json:"modified"`
	RecordCount     int    `json:"record_count"`
	Hash            string `json:"hash,omitempty"`
}

// Runner drives one monitor run end to end. It owns no ambient state: the
// store, ingester, and notifier are injected, and every run receives and
// returns its state explicitly through them.
type Runner struct {
	store    *store.Store
	ingester Ingester
	notifier Notifier
	logger   *slog.Logger

	now      func() time.Time
	newRunID func() string

	// recordFailedChecks controls whether an aborted run still advances
	// Meta.LastChecked. Configurable because reasonable monitoring
	// semantics exist for both readings.
	recordFailedChecks bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithNotifier attaches a change notifier. Without one, change runs commit
// silently.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithClock overrides the wall clock (tests).
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithRunIDGenerator overrides the run ID generator (tests).
func WithRunIDGenerator(gen func() string) Option {
	return func(r *Runner) { r.newRunID = gen }
}

// WithRecordFailedChecks controls whether failed runs advance
// Meta.LastChecked. Default: true.
func WithRecordFailedChecks(v bool) Option {
	return func(r *Runner) { r.recordFailedChecks = v }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a Runner backed by the given store and ingester.
func New(st *store.Store, ing Ingester, opts ...Option) *Runner {
	r := &Runner{
		store:              st,
		ingester:           ing,
		logger:             slog.Default(),
		now:                time.Now,
		newRunID:           func() string { return uuid.Must(uuid.NewV7()).String() },
		recordFailedChecks: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one monitor cycle: ingest, validate, diff, commit, notify.
//
// On failure nothing is persisted except (when configured) the last-checked
// timestamp. The returned Report always carries the terminal state.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	rep := Report{RunID: r.newRunID(), State: StateIdle}
	log := r.logger.With("run_id", rep.RunID)
	startedAt := r.now().UTC()

	log.Info("run: starting check")

	src, err := r.ingester.Ingest(ctx)
	if err != nil {
		return r.fail(ctx, log, rep, newIngestError(rep.RunID, err))
	}

	newSnap := record.Snapshot{
		Records:   src.Records,
		FetchedAt: src.FetchedAt,
		SourceRef: src.SourceRef,
	}
	if newSnap.FetchedAt.IsZero() {
		newSnap.FetchedAt = startedAt
	}
	if err := newSnap.Validate(); err != nil {
		return r.fail(ctx, log, rep, newValidationError(rep.RunID, err))
	}

	meta, err := r.store.Meta(ctx)
	if err != nil {
		return r.fail(ctx, log, rep, newPersistenceError(rep.RunID, "load meta", err))
	}

	// Fast path: raw document bytes identical to the previous run means
	// no structural change is possible - skip diffing entirely.
	if src.RawHash != "" && src.RawHash == meta.LastSourceHash {
		if err := r.store.RecordCheck(ctx, startedAt); err != nil {
			return r.fail(ctx, log, rep, newPersistenceError(rep.RunID, "record check", err))
		}
		rep.State = StateCommitted
		rep.SourceUnchanged = true
		rep.RecordCount = meta.RecordCount
		rep.Hash = meta.LastHash
		log.Info("run: source document unchanged", "hash", src.RawHash)
		return rep, nil
	}

	prevSnap, prevHash, present, err := r.store.LoadSnapshot(ctx)
	if err != nil {
		return r.fail(ctx, log, rep, newPersistenceError(rep.RunID, "load snapshot", err))
	}
	rep.State = StateLoaded
	rep.FirstRun = !present

	cs := diff.Compute(prevSnap, newSnap)
	rep.State = StateDiffed
	rep.Added = len(cs.Added)
	rep.Removed = len(cs.Removed)
	rep.Modified = len(cs.Modified)
	rep.RecordCount = newSnap.Len()

	newHash, err := newSnap.Hash()
	if err != nil {
		return r.fail(ctx, log, rep, newPersistenceError(rep.RunID, "hash snapshot", err))
	}
	rep.Hash = newHash

	update := store.RunUpdate{
		Hash:        newHash,
		SourceHash:  src.RawHash,
		At:          startedAt,
		RecordCount: newSnap.Len(),
		SourceRef:   src.SourceRef,
	}

	if cs.Empty() {
		// Identical content: no changelog entry, no snapshot
		// replacement, meta records the check without advancing
		// last_hash or last_changed.
		if err := r.store.RecordRun(ctx, update); err != nil {
			return r.fail(ctx, log, rep, newPersistenceError(rep.RunID, "record run", err))
		}
		rep.State = StateCommitted
		log.Info("run: no changes detected", "records", newSnap.Len())
		return rep, nil
	}

	entry := store.Entry{
		Timestamp: startedAt,
		PrevHash:  prevHash,
		NewHash:   newHash,
		Change:    cs,
	}
	if err := r.store.CommitChange(ctx, entry, newSnap, update); err != nil {
		return r.fail(ctx, log, rep, newPersistenceError(rep.RunID, "commit change", err))
	}
	rep.State = StateCommitted
	rep.Changed = true
	log.Info("run: change committed",
		"added", rep.Added, "removed", rep.Removed, "modified", rep.Modified,
		"records", rep.RecordCount)

	if r.notifier != nil {
		// Notification failure never fails the run - the change is
		// already durably committed.
		if err := r.notifier.Notify(ctx, entry); err != nil {
			log.Error("run: notification failed", "error", err)
		}
	}

	return rep, nil
}

// fail finalizes an aborted run: records the attempted check when
// configured, logs, and returns the terminal report.
func (r *Runner) fail(ctx context.Context, log *slog.Logger, rep Report, runErr *RunError) (Report, error) {
	rep.State = StateFailed

	// Persistence failures skip the bookkeeping write - the store may be
	// the thing that is broken.
	if r.recordFailedChecks && runErr.Code != ErrCodePersistence {
		if err := r.store.RecordCheck(ctx, r.now().UTC()); err != nil {
			log.Error("run: failed to record check after abort", "error", err)
			runErr.Err = fmt.Errorf("%w (additionally: %v)", runErr.Err, err)
		}
	}

	log.Error("run: aborted", "code", string(runErr.Code), "error", runErr)
	return rep, runErr
}
