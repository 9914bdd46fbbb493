// Package pybe renders the emission protocol as Python 3 source.
//
// Encoding choices:
//   - enums become enum.Enum subclasses numbered 1..k in declaration order
//   - a variant becomes a base class plus one subclass per branch; branch
//     values are positional constructor arguments stored as f0, f1, ...
//   - match is an if/elif chain of isinstance tests, switch an if/elif chain
//     of equality tests against Enum members
//   - conditional expressions use Python's trailing form (a if c else b)
//   - every binary operator is parenthesised, so nesting never depends on
//     Python precedence
package pybe

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/extract/internal/emit"
	"github.com/roach88/extract/internal/printer"
)

// DefaultHeader is the comment written at the top of every generated file.
const DefaultHeader = "This Python file was autogenerated by extract"

// Options configures the Python backend.
type Options struct {
	// IndentWidth is spaces per block level (default 4).
	IndentWidth int

	// Header replaces DefaultHeader when non-empty.
	Header string

	// Imports are extra import lines written after "from enum import Enum",
	// e.g. "import ZBitOps".
	Imports []string
}

// chain tracks one open match or switch.
type chain struct {
	cases    int
	elseOpen bool
}

// Backend is the Python emission backend. It is not safe for concurrent use;
// create one per output file.
type Backend struct {
	p      *printer.Printer
	opts   Options
	chains []chain
}

// New creates a Python backend writing to w.
func New(w io.Writer, opts Options) *Backend {
	return &Backend{
		p: printer.New(w, printer.Options{
			IndentWidth:   opts.IndentWidth,
			CommentPrefix: "# ",
		}),
		opts: opts,
	}
}

// Printer exposes the underlying output engine.
func (b *Backend) Printer() *printer.Printer {
	return b.p
}

// Prelude writes the header comment, imports and runtime helpers.
func (b *Backend) Prelude() {
	header := b.opts.Header
	if header == "" {
		header = DefaultHeader
	}
	b.Comment(header)
	b.p.Writeln("from enum import Enum")
	for _, imp := range b.opts.Imports {
		b.p.Writeln(imp)
	}
	b.EndDeclaration()

	b.p.Writeln("def list_nth_default(n, l, d):")
	b.p.Indented(func() {
		b.p.Writeln("return l[n] if 0 <= n < len(l) else d")
	})
	b.EndDeclaration()
}

func (b *Backend) Comment(text string) {
	for _, line := range strings.Split(text, "\n") {
		b.p.Comment(line)
	}
}

func (b *Backend) EndDeclaration() {
	b.p.EndDeclaration()
}

func (b *Backend) Flush() error {
	return b.p.Flush()
}

// TypeAlias is a no-op: Python has no alias declaration worth emitting for
// untyped output.
func (b *Backend) TypeAlias(name, target string) {}

func (b *Backend) Enum(name string, values []string) {
	b.p.Writeln(fmt.Sprintf("class %s(Enum):", Ident(name)))
	b.p.Indented(func() {
		if len(values) == 0 {
			b.Nop()
			return
		}
		for i, v := range values {
			b.p.Writeln(fmt.Sprintf("%s = %d", Ident(v), i+1))
		}
	})
	b.EndDeclaration()
}

func (b *Backend) Variant(name string, branches []emit.Branch) {
	base := Ident(name)
	b.p.Writeln(fmt.Sprintf("class %s(object): pass", base))
	b.EndDeclaration()

	for _, br := range branches {
		b.p.Writeln(fmt.Sprintf("class %s(%s):", Ident(br.Name), base))
		b.p.Indented(func() {
			var params strings.Builder
			for i := range br.Fields {
				params.WriteString(", ")
				params.WriteString(fieldName(i))
			}
			b.p.Writeln(fmt.Sprintf("def __init__(self%s):", params.String()))
			b.p.Indented(func() {
				if len(br.Fields) == 0 {
					b.Nop()
					return
				}
				for i := range br.Fields {
					f := fieldName(i)
					b.p.Writeln(fmt.Sprintf("self.%s = %s", f, f))
				}
			})
		})
		b.EndDeclaration()
	}
}

func (b *Backend) BeginFunctionDecl(name string, params []emit.Param, returnType string) {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = Ident(p.Name)
	}
	b.p.Writeln(fmt.Sprintf("def %s(%s):", Ident(name), strings.Join(names, ", ")))
	b.p.IncreaseIndent()
}

func (b *Backend) EndFunctionDecl() {
	b.p.DecreaseIndent()
	b.EndDeclaration()
}

func (b *Backend) BeginConstantDecl(name, typ string) {
	b.p.StartLine()
	b.p.Write(Ident(name) + " = ")
}

func (b *Backend) EndConstantDecl() {
	b.p.FinishLine()
	b.EndDeclaration()
}

func (b *Backend) BeginLocalVarDecl(name, typ string) {
	b.p.StartLine()
	b.p.Write(Ident(name) + " = ")
}

func (b *Backend) EndLocalVarDecl() {
	b.p.FinishLine()
}

func (b *Backend) IfStmt(cond, then, els emit.Thunk) {
	b.p.StartLine()
	b.p.Write("if ")
	cond()
	b.p.Write(":")
	b.p.FinishLine()
	b.p.Indented(then)
	b.p.Writeln("else:")
	b.p.Indented(els)
}

func (b *Backend) BeginMatch(discriminee string) {
	b.chains = append(b.chains, chain{})
}

func (b *Backend) EndMatch() {
	b.chains = b.chains[:len(b.chains)-1]
}

// BeginMatchCase opens one isinstance test and binds the branch's fields.
// Binding names "_" are skipped. All fields are bound by one tuple
// assignment, so a binding that reuses the discriminee's name cannot change
// what the later fields are read from.
func (b *Backend) BeginMatchCase(discriminee, branch string, fieldNames []string) {
	d := Ident(discriminee)
	b.p.Writeln(fmt.Sprintf("%s isinstance(%s, %s):", b.nextTest(), d, Ident(branch)))
	b.p.IncreaseIndent()

	var names, fields []string
	for i, f := range fieldNames {
		if f == "_" {
			continue
		}
		names = append(names, Ident(f))
		fields = append(fields, d+"."+fieldName(i))
	}
	if len(names) > 0 {
		b.p.Writeln(strings.Join(names, ", ") + " = " + strings.Join(fields, ", "))
	}
}

func (b *Backend) EndMatchCase() {
	b.p.DecreaseIndent()
}

func (b *Backend) BeginMatchDefaultCase() {
	b.beginDefault()
}

func (b *Backend) EndMatchDefaultCase() {
	b.endDefault()
}

func (b *Backend) BeginSwitch(discriminee string) {
	b.chains = append(b.chains, chain{})
}

func (b *Backend) EndSwitch() {
	b.chains = b.chains[:len(b.chains)-1]
}

func (b *Backend) BeginSwitchCase(discriminee, value, enumName string) {
	b.p.Writeln(fmt.Sprintf("%s %s == %s.%s:", b.nextTest(), Ident(discriminee), Ident(enumName), Ident(value)))
	b.p.IncreaseIndent()
}

func (b *Backend) EndSwitchCase() {
	b.p.DecreaseIndent()
}

func (b *Backend) BeginSwitchDefaultCase() {
	b.beginDefault()
}

func (b *Backend) EndSwitchDefaultCase() {
	b.endDefault()
}

// nextTest returns the keyword for the next test in the innermost chain.
func (b *Backend) nextTest() string {
	c := &b.chains[len(b.chains)-1]
	c.cases++
	if c.cases == 1 {
		return "if"
	}
	return "elif"
}

// beginDefault opens the unconditional fallback. A chain with no tests has
// nothing to fall back from, so its default body is written in place.
func (b *Backend) beginDefault() {
	c := &b.chains[len(b.chains)-1]
	if c.cases == 0 {
		return
	}
	c.elseOpen = true
	b.p.Writeln("else:")
	b.p.IncreaseIndent()
}

func (b *Backend) endDefault() {
	c := &b.chains[len(b.chains)-1]
	if c.elseOpen {
		c.elseOpen = false
		b.p.DecreaseIndent()
	}
}

func (b *Backend) BeginReturnExpr() {
	b.p.StartLine()
	b.p.Write("return ")
}

func (b *Backend) EndReturnExpr() {
	b.p.FinishLine()
}

func (b *Backend) Nop() {
	b.p.Writeln("pass")
}

func (b *Backend) IfExpr(cond, then, els emit.Thunk) {
	b.p.Write("(")
	then()
	b.p.Write(" if ")
	cond()
	b.p.Write(" else ")
	els()
	b.p.Write(")")
}

func (b *Backend) EmptyList() {
	b.BeginList()
	b.EndList()
}

func (b *Backend) BeginList() {
	b.p.Write("[")
}

func (b *Backend) EndListElement() {
	b.p.Write(", ")
}

func (b *Backend) EndList() {
	b.p.Write("]")
}

func (b *Backend) ListLength(list emit.Thunk) {
	b.p.Write("len(")
	list()
	b.p.Write(")")
}

func (b *Backend) ListNthDefault(index, list, def emit.Thunk) {
	b.p.Write("list_nth_default(")
	index()
	b.p.Write(", ")
	list()
	b.p.Write(", ")
	def()
	b.p.Write(")")
}

func (b *Backend) infix(op string, x, y emit.Thunk) {
	b.p.Write("(")
	x()
	b.p.Write(" " + op + " ")
	y()
	b.p.Write(")")
}

func (b *Backend) Concat(x, y emit.Thunk)     { b.infix("+", x, y) }
func (b *Backend) Equality(x, y emit.Thunk)   { b.infix("==", x, y) }
func (b *Backend) Gt(x, y emit.Thunk)         { b.infix(">", x, y) }
func (b *Backend) LogicalOr(x, y emit.Thunk)  { b.infix("|", x, y) }
func (b *Backend) ShiftLeft(x, y emit.Thunk)  { b.infix("<<", x, y) }
func (b *Backend) BooleanAnd(x, y emit.Thunk) { b.infix("and", x, y) }
func (b *Backend) BooleanOr(x, y emit.Thunk)  { b.infix("or", x, y) }

// BitLiteral renders a string of binary digits as a 0b literal. An empty
// digit string is zero.
func (b *Backend) BitLiteral(bits string) {
	if bits == "" {
		bits = "0"
	}
	b.p.Write("0b" + bits)
}

func (b *Backend) TrueLiteral() {
	b.p.Write("True")
}

func (b *Backend) FalseLiteral() {
	b.p.Write("False")
}

func (b *Backend) Var(name string) {
	b.p.Write(Ident(name))
}

func (b *Backend) BeginFunctionCall(callee emit.Thunk) {
	callee()
	b.p.Write("(")
}

func (b *Backend) EndFunctionArg() {
	b.p.Write(", ")
}

func (b *Backend) EndFunctionCall() {
	b.p.Write(")")
}

var _ emit.Emitter = (*Backend)(nil)
