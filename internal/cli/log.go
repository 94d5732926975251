package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/listwatch/internal/store"
)

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the changelog, oldest first",
		Long: `Print every recorded change, oldest first. Unreadable entries are
reported on stderr and skipped; the rest of the log is still printed.

Example:
  listwatch log --db ./listwatch.db
  listwatch log --db ./listwatch.db --limit 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(rootOpts, limit, cmd)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show only the most recent N entries (0 = all)")

	return cmd
}

func runLog(opts *RootOptions, limit int, cmd *cobra.Command) error {
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

	entries, failed, err := st.ReadChangelog(cmdContext(cmd))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read changelog", err)
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	for _, f := range failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", f)
	}

	if limit > 0 && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}

	if opts.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		return formatter.Success("Changelog is empty")
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, entrySummary(e))
	}
	return formatter.Success(strings.Join(lines, "\n"))
}

func entrySummary(e store.Entry) string {
	return fmt.Sprintf("#%d  %s  +%d -%d ~%d  %s -> %s",
		e.Seq,
		e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		len(e.Change.Added), len(e.Change.Removed), len(e.Change.Modified),
		shortHash(e.PrevHash), shortHash(e.NewHash))
}

func shortHash(h string) string {
	if h == "" {
		return "(empty)"
	}
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
