package harness

import (
	"bytes"
	"context"
	"fmt"

	"github.com/roach88/extract/internal/compiler"
	"github.com/roach88/extract/internal/driver"
	"github.com/roach88/extract/internal/emit"
	"github.com/roach88/extract/internal/session"
	"github.com/roach88/extract/internal/target"
)

// Run executes a scenario and returns the result.
//
// The module is emitted twice: once into an emit.Recorder for the trace,
// and once through a session for the scenario's target. Both passes see
// the same module, so the trace describes exactly the calls the backend
// received.
//
// A returned error means the scenario could not run (unreadable or invalid
// module, unknown target). Failed assertions are reported in the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	m, err := compiler.Load(scenario.Module)
	if err != nil {
		return nil, fmt.Errorf("failed to load module: %w", err)
	}
	if errs := compiler.Validate(m); len(errs) > 0 {
		return nil, fmt.Errorf("invalid module: %v", errs[0])
	}

	rec := emit.NewRecorder(nil)
	if err := driver.New(rec).Emit(m); err != nil {
		return nil, fmt.Errorf("failed to record trace: %w", err)
	}

	tgt := scenario.Target
	if tgt == "" {
		tgt = session.DefaultTarget
	}
	if _, err := target.Lookup(tgt); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	res, err := session.NewRunner(session.NewFixedGenerator(scenario.Name)).Run(ctx, session.Job{
		Input:   scenario.Module,
		Module:  m,
		Target:  tgt,
		Output:  session.StdoutPath,
		Stdout:  &out,
		Options: target.Options{IndentWidth: scenario.Indent, Imports: scenario.Imports},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to emit: %w", err)
	}

	result := NewResult()
	result.Trace = rec.Calls()
	result.Output = out.String()
	result.OutputHash = res.OutputHash

	if err := assertBalanced(result.Trace, rec.Open()); err != nil {
		result.AddError(err.Error())
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}
