package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/extract/internal/emit"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Trace    []emit.Call // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, call := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s%s\n", i+1, strings.Repeat("  ", call.Depth), call)
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains a call to the operation
// whose arguments start with the expected args.
func assertTraceContains(trace []emit.Call, assertion Assertion) error {
	for _, call := range trace {
		if call.Op == assertion.Op && hasArgPrefix(call.Args, assertion.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("op %s with args %v", assertion.Op, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if operations first appear in the specified order.
// Operations don't need to be consecutive (intervening calls are allowed).
func assertTraceOrder(trace []emit.Call, assertion Assertion) error {
	// Step 1: Find first position of each expected op
	positions := make(map[string]int)

	for i, call := range trace {
		for _, op := range assertion.Ops {
			if call.Op == op && positions[op] == 0 {
				positions[op] = i + 1 // 1-indexed for readability
			}
		}
	}

	// Step 2: Verify all ops found
	for _, op := range assertion.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops present: %v", assertion.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    trace,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Ops); i++ {
		prev := assertion.Ops[i-1]
		curr := assertion.Ops[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the operation appears exactly the specified number of times.
func assertTraceCount(trace []emit.Call, assertion Assertion) error {
	count := 0
	for _, call := range trace {
		if call.Op == assertion.Op {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("op %s to appear %d time(s)", assertion.Op, assertion.Count),
			Actual:   fmt.Sprintf("appeared %d time(s)", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertOutput checks for (or against) a substring of the rendered source.
func assertOutput(output string, assertion Assertion) error {
	want := assertion.Type == AssertOutputContains
	if strings.Contains(output, assertion.Text) == want {
		return nil
	}

	actual := "text not found in output"
	if !want {
		actual = "text found in output"
	}
	return &AssertionError{
		Type:     assertion.Type,
		Expected: fmt.Sprintf("%q", assertion.Text),
		Actual:   actual + "\n\n" + output,
	}
}

// assertBalanced checks that every Begin call was closed by its End.
func assertBalanced(trace []emit.Call, open []string) error {
	if len(open) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     "balanced",
		Expected: "every begin_* closed by its end_*",
		Actual:   fmt.Sprintf("still open: %v", open),
		Trace:    trace,
	}
}

// hasArgPrefix reports whether want is a prefix of got.
func hasArgPrefix(got, want []string) bool {
	if len(want) > len(got) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// EvaluateAssertions evaluates all assertions against a result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertOutputContains, AssertOutputNotContains:
			err = assertOutput(result.Output, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
