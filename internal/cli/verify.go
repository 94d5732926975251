package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/listwatch/internal/store"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check stored state for consistency",
		Long: `Recompute the stored snapshot's content hash and compare it against
the recorded hashes, then walk the changelog checking that each entry's
previous hash chains from the one before it.

Exit code 1 means a mismatch or unreadable entries were found.

Example:
  listwatch verify --db ./listwatch.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, cmd)
		},
	}

	return cmd
}

type verifyReport struct {
	SnapshotPresent bool     `json:"snapshot_present"`
	RecordCount     int      `json:"record_count"`
	ComputedHash    string   `json:"computed_hash,omitempty"`
	StoredHash      string   `json:"stored_hash,omitempty"`
	MetaHash        string   `json:"meta_hash,omitempty"`
	ChangelogLength int      `json:"changelog_length"`
	Problems        []string `json:"problems,omitempty"`
}

func runVerify(opts *RootOptions, cmd *cobra.Command) error {
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
	report := verifyReport{Problems: []string{}}

	snap, storedHash, present, err := st.LoadSnapshot(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load snapshot", err)
	}
	meta, err := st.Meta(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load meta", err)
	}
	entries, failed, err := st.ReadChangelog(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read changelog", err)
	}

	report.SnapshotPresent = present
	report.StoredHash = storedHash
	report.MetaHash = meta.LastHash
	report.ChangelogLength = len(entries)

	if present {
		report.RecordCount = snap.Len()
		computed, err := snap.Hash()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to hash snapshot", err)
		}
		report.ComputedHash = computed

		if computed != storedHash {
			report.Problems = append(report.Problems,
				fmt.Sprintf("snapshot hash mismatch: computed %s, stored %s", computed, storedHash))
		}
		if meta.LastHash != "" && computed != meta.LastHash {
			report.Problems = append(report.Problems,
				fmt.Sprintf("meta hash mismatch: computed %s, meta records %s", computed, meta.LastHash))
		}
		if snap.Len() != meta.RecordCount {
			report.Problems = append(report.Problems,
				fmt.Sprintf("record count mismatch: snapshot has %d, meta records %d", snap.Len(), meta.RecordCount))
		}
	}

	for _, f := range failed {
		report.Problems = append(report.Problems, f.Error())
	}

	// Each committed transition starts from the snapshot the previous one
	// produced, so the log must chain.
	for i := 1; i < len(entries); i++ {
		if entries[i].PrevHash != entries[i-1].NewHash {
			report.Problems = append(report.Problems,
				fmt.Sprintf("changelog break at entry %d: prev hash %s does not chain from %s",
					entries[i].Seq, shortHash(entries[i].PrevHash), shortHash(entries[i-1].NewHash)))
		}
	}
	if present && len(entries) > 0 {
		last := entries[len(entries)-1]
		if last.NewHash != storedHash {
			report.Problems = append(report.Problems,
				fmt.Sprintf("last changelog entry produced %s but stored snapshot is %s",
					shortHash(last.NewHash), shortHash(storedHash)))
		}
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	if len(report.Problems) > 0 {
		_ = formatter.Error("VERIFY_FAILED", fmt.Sprintf("%d problems found", len(report.Problems)), report.Problems)
		return NewExitError(ExitFailure, "verification failed")
	}

	if opts.Format == "json" {
		return formatter.Success(report)
	}
	if !present {
		return formatter.Success("OK: no snapshot recorded yet")
	}
	return formatter.Success(fmt.Sprintf("OK: %d records, hash %s, %d changelog entries",
		report.RecordCount, shortHash(report.ComputedHash), report.ChangelogLength))
}
