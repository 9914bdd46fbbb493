package harness

import "github.com/roach88/extract/internal/emit"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: balanced trace and all assertions hold.
	Pass bool `json:"pass"`

	// Trace contains every protocol call the driver made, in order.
	Trace []emit.Call `json:"trace"`

	// Output is the source text rendered by the scenario's target.
	Output string `json:"output"`

	// OutputHash is the sha256 of Output, as recorded by the session.
	OutputHash string `json:"output_hash"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []emit.Call{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
