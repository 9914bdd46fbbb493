package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/extract/internal/compiler"
	"github.com/roach88/extract/internal/driver"
	"github.com/roach88/extract/internal/emit"
	"github.com/roach88/extract/internal/session"
	"github.com/roach88/extract/internal/target"
)

// EmitOptions holds flags for the emit command.
type EmitOptions struct {
	*RootOptions
	Target   string
	Output   string
	Indent   int
	Imports  []string
	Database string
	Trace    bool
	Check    bool

	// IDs allows overriding the session ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs session.IDGenerator
}

// EmitResult is the payload reported for one committed session.
type EmitResult struct {
	*session.Result
	Ledger *LedgerEntry `json:"ledger,omitempty"`
}

// NewEmitCommand creates the emit command.
func NewEmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "emit <ir-file>",
		Short: "Emit source code for an IR module",
		Long: `Load an IR module, validate it and render it for one target.

The output is written to a temporary file next to the destination and
renamed into place only when the backend finished without error. Without
-o the destination is the input path with the target's extension. Use
-o - to write to stdout; the summary then goes to stderr.

With --check nothing is written: the module is rendered in memory and
compared with the existing output file, printing a line diff when they
differ.

With --db every committed session is appended to a SQLite ledger. A run
whose output differs from the last recorded output for the same module
and target is reported as non-deterministic.

Exit codes:
  0 - Source emitted
  1 - Module invalid, output differs from the ledger, or --check found a stale file
  2 - Command error (file not found, unknown target, write failure, etc.)

Examples:
  extract emit shapes.json
  extract emit shapes.cue -t py -o - --indent 2
  extract emit shapes.yaml --import "import math" --db ./extract.db
  extract emit shapes.json --check`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Target, "target", "t", session.DefaultTarget, "target language")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", `output file path ("-" for stdout)`)
	cmd.Flags().IntVar(&opts.Indent, "indent", 0, "indent width in spaces (0 = target default)")
	cmd.Flags().StringArrayVar(&opts.Imports, "import", nil, "extra import line for the prelude (repeatable)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite session ledger")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print the emission protocol trace to stderr")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "compare with the existing output instead of writing")

	return cmd
}

func runEmit(opts *EmitOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Output == session.StdoutPath {
		// stdout carries the emitted source
		formatter.Writer = cmd.ErrOrStderr()
	}

	if opts.Indent < 0 {
		return outputValidateError(formatter, ErrCodeGeneric, "--indent must not be negative", nil)
	}

	m, err := LoadModule(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded module %q from %s", m.Name, path)

	tgt, err := target.Lookup(opts.Target)
	if err != nil {
		return outputValidateError(formatter, ErrCodeUnknownTarget, err.Error(), nil)
	}

	if errs := compiler.Validate(m); len(errs) > 0 {
		return outputValidationErrors(formatter, m.Name, errs)
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	if opts.Check {
		return runCheck(ctx, opts, path, m, tgt, formatter)
	}

	st, err := openLedger(opts.Database)
	if err != nil {
		return outputValidateError(formatter, ErrCodeLedger, fmt.Sprintf("failed to open ledger: %v", err), nil)
	}
	if st != nil {
		defer st.Close()
	}

	ids := opts.IDs
	if ids == nil {
		ids = session.UUIDv7Generator{}
	}
	res, err := session.NewRunner(ids).Run(ctx, session.Job{
		Input:   path,
		Module:  m,
		Target:  tgt.Name,
		Output:  opts.Output,
		Stdout:  cmd.OutOrStdout(),
		Options: target.Options{IndentWidth: opts.Indent, Imports: opts.Imports},
	})
	if err != nil {
		return outputSessionError(formatter, err)
	}
	formatter.VerboseLog("Session %s wrote %d line(s) to %s", res.ID, res.Lines, res.Output)

	if opts.Trace {
		d := driver.New(emit.NewRecorder(formatter.GetErrWriter()))
		if err := d.Emit(m); err != nil {
			return outputValidateError(formatter, ErrCodeWriteFailed, fmt.Sprintf("trace: %v", err), nil)
		}
	}

	out := EmitResult{Result: res}
	if st != nil {
		entry, err := recordSession(ctx, st, res)
		if err != nil {
			return outputValidateError(formatter, ErrCodeLedger, fmt.Sprintf("failed to record session: %v", err), nil)
		}
		out.Ledger = entry
		formatter.VerboseLog("Recorded session %s as seq %d", res.ID, entry.Seq)
	}

	if err := outputEmitResult(formatter, out); err != nil {
		return err
	}
	if out.Ledger != nil && out.Ledger.Nondeterministic {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: output %s differs from previous output %s for the same input",
			ErrCodeNondeterministic, res.OutputHash, out.Ledger.PreviousOutputHash))
	}
	return nil
}

// sessionErrorCode picks the error code for a failed session.
func sessionErrorCode(err error) string {
	var invalid *session.InvalidModuleError
	if errors.As(err, &invalid) && len(invalid.Errors) > 0 {
		return invalid.Errors[0].Code
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field)
	}
	switch {
	case errors.Is(err, target.ErrUnknownTarget):
		return ErrCodeUnknownTarget
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	default:
		return ErrCodeWriteFailed
	}
}

func outputEmitResult(formatter *OutputFormatter, out EmitResult) error {
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s -> %s (%s, %d lines, %s)\n", out.Module, out.Output, out.Target, out.Lines, humanize.Bytes(uint64(out.Bytes)))
	fmt.Fprintf(w, "  session: %s\n", out.ID)
	fmt.Fprintf(w, "  output sha256: %s\n", out.OutputHash)
	if formatter.Verbose {
		s := out.Stats
		fmt.Fprintf(w, "  decls: %d, functions: %d, matches: %d, switches: %d, defaults: %d emitted / %d elided\n",
			s.Decls, s.Functions, s.Matches, s.Switches, s.DefaultsEmitted, s.DefaultsElided)
	}
	if out.Ledger != nil {
		if out.Ledger.Nondeterministic {
			fmt.Fprintf(w, "✗ Non-deterministic: previous output %s\n", out.Ledger.PreviousOutputHash)
		} else {
			fmt.Fprintf(w, "  ledger seq: %d\n", out.Ledger.Seq)
		}
	}
	return nil
}
