package emit

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/extract/internal/printer"
)

// Call is one recorded protocol invocation.
type Call struct {
	Op    string
	Args  []string
	Depth int
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Op
	}
	return c.Op + " " + strings.Join(c.Args, " ")
}

// Recorder is an Emitter that records the call sequence instead of rendering
// a language. Thunks are invoked in argument order, so the recording is the
// driver's traversal order. Depth grows inside thunks and between Begin/End
// halves.
//
// With a non-nil sink, Flush renders one call per line, indented by depth.
type Recorder struct {
	calls []Call
	depth int
	open  []string
	sink  io.Writer
}

// NewRecorder creates a Recorder. sink may be nil.
func NewRecorder(sink io.Writer) *Recorder {
	return &Recorder{sink: sink}
}

// Calls returns the recorded calls.
func (r *Recorder) Calls() []Call {
	return r.calls
}

// Ops returns just the operation names, in order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.calls))
	for i, c := range r.calls {
		ops[i] = c.Op
	}
	return ops
}

// Open returns the Begin* halves still waiting for their End*.
func (r *Recorder) Open() []string {
	return r.open
}

func (r *Recorder) record(op string, args ...string) {
	r.calls = append(r.calls, Call{Op: op, Args: args, Depth: r.depth})
}

func (r *Recorder) begin(op string, args ...string) {
	r.record("begin_"+op, args...)
	r.open = append(r.open, op)
	r.depth++
}

func (r *Recorder) end(op string) {
	r.depth--
	if n := len(r.open); n > 0 && r.open[n-1] == op {
		r.open = r.open[:n-1]
	} else {
		r.open = append(r.open, "unmatched end_"+op)
	}
	r.record("end_" + op)
}

func (r *Recorder) nested(thunks ...Thunk) {
	r.depth++
	for _, t := range thunks {
		t()
	}
	r.depth--
}

func (r *Recorder) Prelude()                      { r.record("prelude") }
func (r *Recorder) Comment(text string)           { r.record("comment", fmt.Sprintf("%q", text)) }
func (r *Recorder) EndDeclaration()               { r.record("end_declaration") }
func (r *Recorder) TypeAlias(name, target string) { r.record("type_alias", name, target) }

func (r *Recorder) Enum(name string, values []string) {
	r.record("enum", append([]string{name}, values...)...)
}

func (r *Recorder) Variant(name string, branches []Branch) {
	args := []string{name}
	for _, b := range branches {
		args = append(args, fmt.Sprintf("%s/%d", b.Name, len(b.Fields)))
	}
	r.record("variant", args...)
}

func (r *Recorder) BeginFunctionDecl(name string, params []Param, returnType string) {
	args := []string{name}
	for _, p := range params {
		args = append(args, p.Name)
	}
	r.begin("function_decl", args...)
}

func (r *Recorder) EndFunctionDecl()                   { r.end("function_decl") }
func (r *Recorder) BeginConstantDecl(name, typ string) { r.begin("constant_decl", name) }
func (r *Recorder) EndConstantDecl()                   { r.end("constant_decl") }
func (r *Recorder) BeginLocalVarDecl(name, typ string) { r.begin("local_var_decl", name) }
func (r *Recorder) EndLocalVarDecl()                   { r.end("local_var_decl") }

func (r *Recorder) IfStmt(cond, then, els Thunk) {
	r.record("if_stmt")
	r.nested(cond, then, els)
}

func (r *Recorder) BeginMatch(discriminee string) { r.begin("match", discriminee) }
func (r *Recorder) EndMatch()                     { r.end("match") }

func (r *Recorder) BeginMatchCase(discriminee, branch string, fieldNames []string) {
	r.begin("match_case", append([]string{discriminee, branch}, fieldNames...)...)
}

func (r *Recorder) EndMatchCase()                  { r.end("match_case") }
func (r *Recorder) BeginMatchDefaultCase()         { r.begin("match_default_case") }
func (r *Recorder) EndMatchDefaultCase()           { r.end("match_default_case") }
func (r *Recorder) BeginSwitch(discriminee string) { r.begin("switch", discriminee) }
func (r *Recorder) EndSwitch()                     { r.end("switch") }

func (r *Recorder) BeginSwitchCase(discriminee, value, enumName string) {
	r.begin("switch_case", discriminee, enumName+"."+value)
}

func (r *Recorder) EndSwitchCase()          { r.end("switch_case") }
func (r *Recorder) BeginSwitchDefaultCase() { r.begin("switch_default_case") }
func (r *Recorder) EndSwitchDefaultCase()   { r.end("switch_default_case") }
func (r *Recorder) BeginReturnExpr()        { r.begin("return_expr") }
func (r *Recorder) EndReturnExpr()          { r.end("return_expr") }
func (r *Recorder) Nop()                    { r.record("nop") }

func (r *Recorder) IfExpr(cond, then, els Thunk) {
	r.record("if_expr")
	r.nested(cond, then, els)
}

func (r *Recorder) EmptyList()      { r.record("empty_list") }
func (r *Recorder) BeginList()      { r.begin("list") }
func (r *Recorder) EndListElement() { r.record("end_list_element") }
func (r *Recorder) EndList()        { r.end("list") }

func (r *Recorder) ListLength(list Thunk) {
	r.record("list_length")
	r.nested(list)
}

func (r *Recorder) ListNthDefault(index, list, def Thunk) {
	r.record("list_nth_default")
	r.nested(index, list, def)
}

func (r *Recorder) binary(op string, a, b Thunk) {
	r.record(op)
	r.nested(a, b)
}

func (r *Recorder) Concat(a, b Thunk)      { r.binary("concat", a, b) }
func (r *Recorder) Equality(a, b Thunk)    { r.binary("equality", a, b) }
func (r *Recorder) Gt(a, b Thunk)          { r.binary("gt", a, b) }
func (r *Recorder) LogicalOr(a, b Thunk)   { r.binary("logical_or", a, b) }
func (r *Recorder) ShiftLeft(a, b Thunk)   { r.binary("shift_left", a, b) }
func (r *Recorder) BooleanAnd(a, b Thunk)  { r.binary("boolean_and", a, b) }
func (r *Recorder) BooleanOr(a, b Thunk)   { r.binary("boolean_or", a, b) }
func (r *Recorder) BitLiteral(bits string) { r.record("bit_literal", bits) }
func (r *Recorder) TrueLiteral()           { r.record("true_literal") }
func (r *Recorder) FalseLiteral()          { r.record("false_literal") }
func (r *Recorder) Var(name string)        { r.record("var", name) }

func (r *Recorder) BeginFunctionCall(callee Thunk) {
	r.begin("function_call")
	callee()
}

func (r *Recorder) EndFunctionArg()  { r.record("end_function_arg") }
func (r *Recorder) EndFunctionCall() { r.end("function_call") }

// Flush renders the recording to the sink, if there is one.
func (r *Recorder) Flush() error {
	if r.sink == nil {
		return nil
	}
	p := printer.New(r.sink, printer.Options{IndentWidth: 2})
	for _, c := range r.calls {
		depth := c.Depth
		for i := 0; i < depth; i++ {
			p.IncreaseIndent()
		}
		p.Writeln(c.String())
		for i := 0; i < depth; i++ {
			p.DecreaseIndent()
		}
	}
	return p.Flush()
}

var _ Emitter = (*Recorder)(nil)
