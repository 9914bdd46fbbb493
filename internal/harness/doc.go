// Package harness provides conformance testing for emission backends.
//
// A scenario names an IR module, a target and assertions over two views of
// one emission: the protocol trace the driver produced (recorded with
// emit.Recorder) and the source text the target backend rendered.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: palette_python
//	description: "Exhaustive switch renders without a default arm"
//	module: ../modules/palette.cue
//	target: python
//	indent: 2
//	imports: ["import math"]
//	assertions:
//	  - type: trace_contains
//	    op: begin_switch_case
//	    args: [c, Color.Red]
//	  - type: trace_order
//	    ops: [prelude, begin_function_decl, begin_switch]
//	  - type: trace_count
//	    op: begin_switch_default_case
//	    count: 0
//	  - type: output_contains
//	    text: "if c == Color.Red:"
//	  - type: output_not_contains
//	    text: "else:"
//
// # Assertion Types
//
//   - trace_contains: Verifies an operation appears in the trace, with args as a prefix of its arguments
//   - trace_order: Verifies operations first appear in the specified order
//   - trace_count: Verifies an operation appears exactly N times
//   - output_contains / output_not_contains: Substring checks on the rendered source
//
// Every run also checks that the trace is balanced: each Begin call has its
// matching End.
//
// # Deterministic Testing
//
// Sessions run with a fixed session ID (the scenario name), so results and
// golden files are byte-identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/palette.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(context.Background(), scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
