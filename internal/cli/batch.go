package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/extract/internal/session"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Database string
	Jobs     int

	// IDs allows overriding the session ID generator (for testing).
	IDs session.IDGenerator
}

// BatchEntry is the outcome of one job.
type BatchEntry struct {
	Input  string      `json:"input"`
	Target string      `json:"target"`
	Result *EmitResult `json:"result,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// BatchResult holds the outcome of a whole batch.
type BatchResult struct {
	Jobs             []BatchEntry `json:"jobs"`
	Succeeded        int          `json:"succeeded"`
	Failed           int          `json:"failed"`
	Nondeterministic int          `json:"nondeterministic"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <config.yaml>",
		Short: "Run one emission session per job in a YAML file",
		Long: `Run every job listed in a YAML batch file. Each job is an independent
session; a failing job does not stop the others.

  jobs:
    - input: shapes.json
    - input: palette.cue
      target: py
      output: gen/palette.py
      indent: 2
      imports: ["import math"]

Relative paths are resolved against the batch file's directory.
With --jobs N up to N sessions run at once; jobs writing to stdout
("output: -") need --jobs 1.

Exit codes:
  0 - All jobs succeeded
  1 - At least one job failed or was non-deterministic
  2 - Command error (batch file missing or malformed, ledger error)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite session ledger")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 1, "sessions to run concurrently")

	return cmd
}

func runBatch(opts *BatchOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	jobs, err := session.LoadBatch(path)
	if err != nil {
		return outputValidateError(formatter, ErrCodeBatchConfig, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %d job(s) from %s", len(jobs), path)

	workers := opts.Jobs
	if workers < 1 {
		workers = 1
	}
	for i := range jobs {
		if jobs[i].Output != session.StdoutPath {
			continue
		}
		if workers > 1 {
			return outputValidateError(formatter, ErrCodeBatchConfig,
				fmt.Sprintf("jobs[%d] writes to stdout, which requires --jobs 1", i), nil)
		}
		jobs[i].Stdout = cmd.OutOrStdout()
	}

	st, err := openLedger(opts.Database)
	if err != nil {
		return outputValidateError(formatter, ErrCodeLedger, fmt.Sprintf("failed to open ledger: %v", err), nil)
	}
	if st != nil {
		defer st.Close()
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	ids := opts.IDs
	if ids == nil {
		ids = session.UUIDv7Generator{}
	}
	outcomes := session.NewRunner(ids).RunConcurrent(ctx, jobs, workers)

	result := BatchResult{Jobs: make([]BatchEntry, 0, len(outcomes))}
	var jobErrs []error
	for _, o := range outcomes {
		entry := BatchEntry{Input: o.Job.Input, Target: o.Job.Target}
		if entry.Target == "" {
			entry.Target = session.DefaultTarget
		}

		if o.Err != nil {
			entry.Error = &CLIError{Code: sessionErrorCode(o.Err), Message: o.Err.Error()}
			result.Failed++
			result.Jobs = append(result.Jobs, entry)
			jobErrs = append(jobErrs, fmt.Errorf("%s: %w", o.Job.Input, o.Err))
			formatter.VerboseLog("Job %s failed: %v", o.Job.Input, o.Err)
			continue
		}

		entry.Target = o.Result.Target
		entry.Result = &EmitResult{Result: o.Result}
		if st != nil {
			ledger, err := recordSession(ctx, st, o.Result)
			if err != nil {
				return outputValidateError(formatter, ErrCodeLedger, fmt.Sprintf("failed to record session: %v", err), nil)
			}
			entry.Result.Ledger = ledger
			if ledger.Nondeterministic {
				result.Nondeterministic++
			}
		}
		result.Succeeded++
		result.Jobs = append(result.Jobs, entry)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputBatchText(formatter, result)
	}

	if result.Failed > 0 || result.Nondeterministic > 0 {
		return WrapExitError(ExitFailure,
			fmt.Sprintf("batch: %d failed, %d non-deterministic", result.Failed, result.Nondeterministic),
			errors.Join(jobErrs...))
	}
	return nil
}

func outputBatchText(formatter *OutputFormatter, result BatchResult) {
	w := formatter.Writer
	for _, j := range result.Jobs {
		switch {
		case j.Error != nil:
			fmt.Fprintf(w, "✗ %s [%s]\n  %s: %s\n", j.Input, j.Target, j.Error.Code, j.Error.Message)
		case j.Result.Ledger != nil && j.Result.Ledger.Nondeterministic:
			fmt.Fprintf(w, "✗ %s -> %s [%s] non-deterministic (was %s)\n", j.Input, j.Result.Output, j.Target, j.Result.Ledger.PreviousOutputHash)
		default:
			fmt.Fprintf(w, "✓ %s -> %s [%s] %d lines\n", j.Input, j.Result.Output, j.Target, j.Result.Lines)
		}
	}
	fmt.Fprintf(w, "\n%d succeeded, %d failed\n", result.Succeeded, result.Failed)
}
