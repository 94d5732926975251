package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/listwatch/internal/store"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current snapshot and changelog summary",
		Long: `Show the last check and change timestamps, the current snapshot hash
and record count, and totals derived from the changelog.

Example:
  listwatch status --db ./listwatch.db
  listwatch status --db ./listwatch.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}

	return cmd
}

type statusReport struct {
	Meta      store.Meta           `json:"meta"`
	Changelog store.ChangelogStats `json:"changelog"`
	// CorruptEntries counts changelog rows that could not be decoded.
	CorruptEntries int `json:"corrupt_entries,omitempty"`
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmdContext(cmd)
	meta, err := st.Meta(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load meta", err)
	}
	stats, failed, err := st.Stats(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read changelog", err)
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	report := statusReport{Meta: meta, Changelog: stats, CorruptEntries: len(failed)}
	if opts.Format == "json" {
		return formatter.Success(report)
	}
	return formatter.Success(statusSummary(report))
}

func statusSummary(r statusReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Last checked:  %s\n", humanTime(r.Meta.LastChecked))
	fmt.Fprintf(&sb, "Last changed:  %s\n", humanTime(r.Meta.LastChanged))
	fmt.Fprintf(&sb, "Records:       %d\n", r.Meta.RecordCount)
	fmt.Fprintf(&sb, "Snapshot hash: %s\n", orNone(r.Meta.LastHash))
	fmt.Fprintf(&sb, "Source:        %s\n", orNone(r.Meta.SourceRef))
	fmt.Fprintf(&sb, "Changelog:     %d entries (%d added, %d removed, %d modified)",
		r.Changelog.Entries, r.Changelog.Added, r.Changelog.Removed, r.Changelog.Modified)
	if r.CorruptEntries > 0 {
		fmt.Fprintf(&sb, "\nWarning:       %d unreadable changelog entries", r.CorruptEntries)
	}
	return sb.String()
}

func humanTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
