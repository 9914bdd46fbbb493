package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/extract/internal/ir"
	"github.com/roach88/extract/internal/session"
	"github.com/roach88/extract/internal/store"
)

// LedgerEntry is what recording a session in the ledger found out.
type LedgerEntry struct {
	Seq                int64  `json:"seq"`
	PreviousOutputHash string `json:"previous_output_hash,omitempty"`
	Nondeterministic   bool   `json:"nondeterministic"`
}

// recordSession appends res to the ledger. The previous output hash for the
// same (target, input hash, options hash) is read first so a differing
// output is reported.
func recordSession(ctx context.Context, st *store.Store, res *session.Result) (*LedgerEntry, error) {
	prev, found, err := st.LastOutputHash(ctx, res.Target, res.InputHash, res.OptionsHash)
	if err != nil {
		return nil, err
	}

	seq, err := st.RecordSession(ctx, store.Session{
		ID:          res.ID,
		Target:      res.Target,
		Module:      res.Module,
		InputPath:   res.Input,
		InputHash:   res.InputHash,
		OptionsHash: res.OptionsHash,
		OutputPath:  res.Output,
		OutputHash:  res.OutputHash,
		Lines:       res.Lines,
		Bytes:       res.Bytes,
		ToolVersion: ir.ToolVersion,
	})
	if err != nil {
		return nil, err
	}

	entry := &LedgerEntry{Seq: seq}
	if found {
		entry.PreviousOutputHash = prev
		entry.Nondeterministic = prev != res.OutputHash
	}
	return entry, nil
}

// openLedger opens the ledger at path, or returns nil when path is empty.
func openLedger(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	return store.Open(path)
}

// commandContext returns the command's context (background if unset),
// cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
