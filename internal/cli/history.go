package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/extract/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// HistoryResult holds the listed ledger entries.
type HistoryResult struct {
	Sessions []store.Session `json:"sessions"`
	Total    int             `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded emission sessions",
		Long: `List the sessions recorded in a ledger, newest first.

Examples:
  extract history --db ./extract.db
  extract history --db ./extract.db --limit 0 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite session ledger (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum sessions to list (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return outputValidateError(formatter, ErrCodeLedger, fmt.Sprintf("failed to open ledger: %v", err), nil)
	}
	defer st.Close()

	ctx, stop := commandContext(cmd)
	defer stop()

	sessions, err := st.ListSessions(ctx, opts.Limit)
	if err != nil {
		return outputValidateError(formatter, ErrCodeLedger, fmt.Sprintf("failed to list sessions: %v", err), nil)
	}

	if opts.Format == "json" {
		return formatter.Success(HistoryResult{Sessions: sessions, Total: len(sessions)})
	}

	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return nil
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			strconv.FormatInt(s.Seq, 10),
			s.ID,
			s.Target,
			s.Module,
			shortHash(s.OutputHash),
			strconv.Itoa(s.Lines),
			humanize.Bytes(uint64(s.Bytes)),
			s.OutputPath,
		})
	}
	renderTable(w, []string{"Seq", "Session", "Target", "Module", "Output Hash", "Lines", "Size", "Output"}, rows)
	return nil
}

// shortHash abbreviates a hex digest for text output.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
