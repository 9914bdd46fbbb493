// Package session runs emission sessions: load an IR module, pick a
// backend, drive it into a sink and commit the output.
//
// A session owns its sink for its whole lifetime. File output goes to a
// temporary file in the destination directory and is renamed into place
// only after the backend flushed without error, so a failed or cancelled
// session never leaves a partial file behind.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/extract/internal/compiler"
	"github.com/roach88/extract/internal/driver"
	"github.com/roach88/extract/internal/ir"
	"github.com/roach88/extract/internal/target"
)

// DefaultTarget is used when a Job names no target.
const DefaultTarget = "python"

// StdoutPath as a Job.Output streams the emitted source to Job.Stdout.
const StdoutPath = "-"

// Job describes one emission session.
type Job struct {
	// Input is the IR file to load. It also names the default output.
	Input string
	// Module is emitted instead of loading Input when non-nil.
	Module *ir.Module
	// Target is a registered target name or alias.
	Target string
	// Output is the destination path. Empty derives one from Input and the
	// target extension; StdoutPath writes to Stdout.
	Output string
	// Stdout receives output when Output is StdoutPath (default os.Stdout).
	Stdout  io.Writer
	Options target.Options
}

// Result describes a committed session.
type Result struct {
	ID          string       `json:"id"`
	Target      string       `json:"target"`
	Module      string       `json:"module"`
	Input       string       `json:"input,omitempty"`
	Output      string       `json:"output"`
	InputHash   string       `json:"input_hash"`
	OptionsHash string       `json:"options_hash"`
	OutputHash  string       `json:"output_hash"`
	Lines       int          `json:"lines"`
	Bytes       int64        `json:"bytes"`
	Stats       driver.Stats `json:"stats"`
}

// InvalidModuleError reports a module that failed validation. Nothing is
// emitted for an invalid module.
type InvalidModuleError struct {
	Module string
	Errors []compiler.ValidationError
}

func (e *InvalidModuleError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("module %q is invalid: %v", e.Module, e.Errors[0])
	}
	return fmt.Sprintf("module %q is invalid: %d errors, first: %v", e.Module, len(e.Errors), e.Errors[0])
}

// Runner runs sessions. The zero value is not usable; use NewRunner.
type Runner struct {
	ids IDGenerator
}

// NewRunner creates a runner that names sessions with ids.
func NewRunner(ids IDGenerator) *Runner {
	return &Runner{ids: ids}
}

// Run runs job with UUIDv7 session IDs.
func Run(ctx context.Context, job Job) (*Result, error) {
	return NewRunner(UUIDv7Generator{}).Run(ctx, job)
}

// Run executes one session. On error no output file is left behind.
func (r *Runner) Run(ctx context.Context, job Job) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := job.Module
	if m == nil {
		if job.Input == "" {
			return nil, errors.New("session: job has neither input nor module")
		}
		loaded, err := compiler.Load(job.Input)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", job.Input, err)
		}
		m = loaded
	}
	if errs := compiler.Validate(m); len(errs) > 0 {
		return nil, &InvalidModuleError{Module: m.Name, Errors: errs}
	}

	name := job.Target
	if name == "" {
		name = DefaultTarget
	}
	tgt, err := target.Lookup(name)
	if err != nil {
		return nil, err
	}

	inputHash, err := ir.Hash(m)
	if err != nil {
		return nil, err
	}

	optionsHash, err := job.Options.Hash()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Target:      tgt.Name,
		Module:      m.Name,
		Input:       job.Input,
		InputHash:   inputHash,
		OptionsHash: optionsHash,
	}

	fill := func(w io.Writer) error {
		return emitInto(w, tgt, job.Options, m, res)
	}

	if job.Output == StdoutPath {
		stdout := job.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		res.Output = StdoutPath
		if err := fill(stdout); err != nil {
			return nil, err
		}
		res.ID = r.ids.Generate()
		return res, nil
	}

	res.Output = job.Output
	if res.Output == "" {
		res.Output = OutputPath(job.Input, m.Name, tgt)
	}
	if err := writeAtomic(ctx, res.Output, fill); err != nil {
		return nil, err
	}
	// IDs are handed out only to committed sessions.
	res.ID = r.ids.Generate()
	return res, nil
}

// OutputPath derives the default output file: the input path with its
// extension replaced by the target's, or the module name in the current
// directory when there is no input file.
func OutputPath(input, module string, tgt target.Target) string {
	if input == "" {
		return module + tgt.Extension
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + tgt.Extension
}

// emitInto drives one backend over m into w and records what was written.
func emitInto(w io.Writer, tgt target.Target, opts target.Options, m *ir.Module, res *Result) error {
	cw := &countingWriter{w: w, h: sha256.New()}
	d := driver.New(tgt.New(cw, opts))
	if err := d.Emit(m); err != nil {
		return fmt.Errorf("emit %s: %w", tgt.Name, err)
	}

	res.Stats = d.Stats()
	res.Lines = cw.lines
	res.Bytes = cw.n
	res.OutputHash = hex.EncodeToString(cw.h.Sum(nil))
	return nil
}

// writeAtomic fills a temporary file next to path and renames it into place.
// The temporary file is removed on every failure path, including a panic in
// fill, which continues to propagate after cleanup.
func writeAtomic(ctx context.Context, path string, fill func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err := fill(f); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	committed = true
	return nil
}

// countingWriter tracks bytes, newlines and a sha256 of everything written.
type countingWriter struct {
	w     io.Writer
	h     hash.Hash
	n     int64
	lines int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.h.Write(p[:n])
	c.n += int64(n)
	for _, b := range p[:n] {
		if b == '\n' {
			c.lines++
		}
	}
	return n, err
}
