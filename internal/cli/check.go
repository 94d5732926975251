package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/listwatch/internal/ingest"
	"github.com/roach88/listwatch/internal/notify"
	"github.com/roach88/listwatch/internal/run"
	"github.com/roach88/listwatch/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions

	// Ingester overrides the HTTP ingester (for testing). If nil, one is
	// built from the config.
	Ingester run.Ingester
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fetch the list once and record any changes",
		Long: `Fetch the published list, diff it against the stored snapshot, and
commit any changes to the changelog. A run that finds no changes records
the check and leaves the changelog untouched.

Example:
  listwatch check --db ./listwatch.db
  listwatch check --config ./listwatch.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd)
		},
	}

	return cmd
}

func runCheck(opts *CheckOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
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

	ingester := opts.Ingester
	if ingester == nil {
		ingester = ingest.New(ingest.Options{
			PageURL:   cfg.Source.PageURL,
			UserAgent: cfg.Source.UserAgent,
			Timeout:   cfg.Source.Timeout,
		})
	}

	runOpts := []run.Option{
		run.WithRecordFailedChecks(*cfg.Monitor.RecordFailedChecks),
	}
	smtp := notify.SMTPOptions{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		From:      cfg.SMTP.From,
		To:        cfg.SMTP.To,
		SourceURL: cfg.SMTP.SourceURL,
	}
	if smtp.Configured() {
		runOpts = append(runOpts, run.WithNotifier(notify.NewMailer(smtp)))
	}

	runner := run.New(st, ingester, runOpts...)
	report, err := runner.Run(cmdContext(cmd))
	if err != nil {
		code := "RUN_FAILED"
		var runErr *run.RunError
		if errors.As(err, &runErr) {
			code = string(runErr.Code)
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "check failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(report)
	}
	return formatter.Success(checkSummary(report))
}

func checkSummary(rep run.Report) string {
	switch {
	case rep.SourceUnchanged:
		return fmt.Sprintf("No change: source document identical (%d records)", rep.RecordCount)
	case rep.Changed && rep.FirstRun:
		return fmt.Sprintf("Initial snapshot recorded: %d records", rep.RecordCount)
	case rep.Changed:
		return fmt.Sprintf("Changes committed: %d added, %d removed, %d modified (%d records)",
			rep.Added, rep.Removed, rep.Modified, rep.RecordCount)
	default:
		return fmt.Sprintf("No changes detected (%d records)", rep.RecordCount)
	}
}
