package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/roach88/extract/internal/target"
)

// BatchFile is the YAML form of a batch run:
//
//	jobs:
//	  - input: shapes.json
//	    target: python
//	    output: out/shapes.py
//	    indent: 2
//	    imports: ["import ZBitOps"]
type BatchFile struct {
	Jobs []JobSpec `yaml:"jobs"`
}

// JobSpec is one job in a batch file. Relative paths are resolved against
// the batch file's directory.
type JobSpec struct {
	Input   string   `yaml:"input"`
	Target  string   `yaml:"target"`
	Output  string   `yaml:"output"`
	Indent  int      `yaml:"indent"`
	Imports []string `yaml:"imports"`
}

// LoadBatch reads a batch file and returns its jobs.
func LoadBatch(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var bf BatchFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&bf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(bf.Jobs) == 0 {
		return nil, fmt.Errorf("parse %s: no jobs", path)
	}

	base := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || p == StdoutPath || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	jobs := make([]Job, len(bf.Jobs))
	for i, spec := range bf.Jobs {
		if spec.Input == "" {
			return nil, fmt.Errorf("parse %s: jobs[%d]: input is required", path, i)
		}
		if spec.Indent < 0 {
			return nil, fmt.Errorf("parse %s: jobs[%d]: indent must not be negative", path, i)
		}
		jobs[i] = Job{
			Input:  resolve(spec.Input),
			Target: spec.Target,
			Output: resolve(spec.Output),
			Options: target.Options{
				IndentWidth: spec.Indent,
				Imports:     spec.Imports,
			},
		}
	}
	return jobs, nil
}

// Outcome is the result of one batch job.
type Outcome struct {
	Job    Job
	Result *Result
	Err    error
}

// RunAll runs jobs one after another. Sessions share nothing: a failed job
// does not stop the others. Once ctx is cancelled the remaining jobs fail
// with the context error without starting.
func (r *Runner) RunAll(ctx context.Context, jobs []Job) []Outcome {
	return r.RunConcurrent(ctx, jobs, 1)
}

// RunConcurrent runs up to workers jobs at a time. Outcomes keep job order.
// With workers == 1 jobs start in order, so session IDs follow job order.
// Jobs that share an output path race; the last rename wins.
func (r *Runner) RunConcurrent(ctx context.Context, jobs []Job, workers int) []Outcome {
	if workers < 1 {
		workers = 1
	}

	out := make([]Outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res, err := r.Run(ctx, job)
			out[i] = Outcome{Job: job, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
