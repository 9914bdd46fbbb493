package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/roach88/extract/internal/ir"
	"github.com/roach88/extract/internal/session"
	"github.com/roach88/extract/internal/target"
)

// CheckResult reports whether a generated file on disk is current.
type CheckResult struct {
	Module     string `json:"module"`
	Target     string `json:"target"`
	Output     string `json:"output"`
	Missing    bool   `json:"missing,omitempty"`
	UpToDate   bool   `json:"up_to_date"`
	OutputHash string `json:"output_hash"`
	Diff       string `json:"diff,omitempty"`
}

// runCheck renders m in memory and compares it with the file the session
// would write. Nothing is written.
func runCheck(ctx context.Context, opts *EmitOptions, path string, m *ir.Module, tgt target.Target, formatter *OutputFormatter) error {
	dest := opts.Output
	if dest == "" {
		dest = session.OutputPath(path, m.Name, tgt)
	}
	if dest == session.StdoutPath {
		return outputValidateError(formatter, ErrCodeGeneric, "--check needs a file output, not stdout", nil)
	}

	var buf bytes.Buffer
	res, err := session.NewRunner(session.NewFixedGenerator("check")).Run(ctx, session.Job{
		Input:   path,
		Module:  m,
		Target:  tgt.Name,
		Output:  session.StdoutPath,
		Stdout:  &buf,
		Options: target.Options{IndentWidth: opts.Indent, Imports: opts.Imports},
	})
	if err != nil {
		return outputSessionError(formatter, err)
	}

	result := CheckResult{Module: m.Name, Target: tgt.Name, Output: dest, OutputHash: res.OutputHash}
	current, err := os.ReadFile(dest)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Missing = true
	case err != nil:
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("reading %s: %v", dest, err), nil)
	default:
		result.UpToDate = bytes.Equal(current, buf.Bytes())
		if !result.UpToDate {
			result.Diff = lineDiff(string(current), buf.String())
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		switch {
		case result.UpToDate:
			fmt.Fprintf(w, "✓ %s is up to date\n", dest)
		case result.Missing:
			fmt.Fprintf(w, "✗ %s does not exist\n", dest)
		default:
			fmt.Fprintf(w, "✗ %s is stale\n\n%s", dest, result.Diff)
		}
	}

	if !result.UpToDate {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s is not up to date", ErrCodeStale, dest))
	}
	return nil
}

// lineDiff renders the changed lines between was and now, "-" for removed
// and "+" for added.
func lineDiff(was, now string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(was, now)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var buf strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			buf.WriteString(prefix + line)
			if !strings.HasSuffix(line, "\n") {
				buf.WriteString("\n")
			}
		}
	}
	return buf.String()
}
