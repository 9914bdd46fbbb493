// Package driver walks an IR module depth-first and drives an
// emit.Emitter. It is the only code that knows both the IR and the
// protocol; backends never see IR nodes, only names and thunks.
package driver

import (
	"github.com/roach88/extract/internal/emit"
	"github.com/roach88/extract/internal/ir"
)

// Stats summarises one traversal.
type Stats struct {
	Decls           int `json:"decls"`
	Functions       int `json:"functions"`
	Matches         int `json:"matches"`
	Switches        int `json:"switches"`
	DefaultsEmitted int `json:"defaults_emitted"`
	DefaultsElided  int `json:"defaults_elided"`
}

// Driver emits IR modules through one backend.
type Driver struct {
	e     emit.Emitter
	syms  *ir.Symbols
	stats Stats
}

// New creates a driver for backend e.
func New(e emit.Emitter) *Driver {
	return &Driver{e: e}
}

// Stats returns counts from the most recent Emit.
func (d *Driver) Stats() Stats {
	return d.stats
}

// Emit renders m in declaration order: prelude, the module comment, then
// every declaration. It returns the first error the backend's sink reported.
//
// The input is trusted: Emit does not validate. Use compiler.Validate first.
func (d *Driver) Emit(m *ir.Module) error {
	d.syms = ir.NewSymbols(m)
	d.stats = Stats{}

	d.e.Prelude()
	if m.Comment != "" {
		d.e.Comment(m.Comment)
		d.e.EndDeclaration()
	}
	for _, decl := range m.Decls {
		d.decl(decl)
	}
	return d.e.Flush()
}

func (d *Driver) decl(decl ir.Decl) {
	d.stats.Decls++

	switch n := decl.(type) {
	case *ir.TypeAlias:
		d.e.TypeAlias(n.Name, n.Target)

	case *ir.Enum:
		d.e.Enum(n.Name, n.Values)

	case *ir.Variant:
		branches := make([]emit.Branch, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = emit.Branch{Name: b.Name, Fields: b.Fields}
		}
		d.e.Variant(n.Name, branches)

	case *ir.Function:
		d.stats.Functions++
		params := make([]emit.Param, len(n.Params))
		for i, p := range n.Params {
			params[i] = emit.Param{Name: p.Name, Type: p.Type}
		}
		d.e.BeginFunctionDecl(n.Name, params, n.ReturnType)
		d.stmt(n.Body)
		d.e.EndFunctionDecl()

	case *ir.Constant:
		d.e.BeginConstantDecl(n.Name, n.Type)
		d.expr(n.Value)
		d.e.EndConstantDecl()
	}
}

func (d *Driver) stmtThunk(s ir.Stmt) emit.Thunk {
	return func() { d.stmt(s) }
}

func (d *Driver) exprThunk(e ir.Expr) emit.Thunk {
	return func() { d.expr(e) }
}

func (d *Driver) stmt(s ir.Stmt) {
	switch n := s.(type) {
	case nil:
		d.e.Nop()

	case *ir.If:
		d.e.IfStmt(d.exprThunk(n.Cond), d.stmtThunk(n.Then), d.stmtThunk(n.Else))

	case *ir.Match:
		d.match(n)

	case *ir.Switch:
		d.switchStmt(n)

	case *ir.Let:
		d.e.BeginLocalVarDecl(n.Name, n.Type)
		d.expr(n.Value)
		d.e.EndLocalVarDecl()
		d.stmt(n.Body)

	case *ir.Return:
		d.e.BeginReturnExpr()
		d.expr(n.Value)
		d.e.EndReturnExpr()

	case *ir.Nop:
		d.e.Nop()
	}
}

// wantDefault decides whether a default arm is emitted: only when the IR
// supplies one and the cases do not already cover every declared branch.
func (d *Driver) wantDefault(hasDefault bool, cov ir.Coverage) bool {
	if !hasDefault {
		return false
	}
	if cov.Known && cov.Exhaustive {
		d.stats.DefaultsElided++
		return false
	}
	d.stats.DefaultsEmitted++
	return true
}

func (d *Driver) match(n *ir.Match) {
	d.stats.Matches++
	withDefault := d.wantDefault(n.Default != nil, d.syms.MatchCoverage(n))
	if len(n.Cases) == 0 && !withDefault {
		d.e.Nop()
		return
	}

	d.e.BeginMatch(n.Discriminee)
	for _, c := range n.Cases {
		d.e.BeginMatchCase(n.Discriminee, c.Branch, c.Fields)
		d.stmt(c.Body)
		d.e.EndMatchCase()
	}
	if withDefault {
		d.e.BeginMatchDefaultCase()
		d.stmt(n.Default)
		d.e.EndMatchDefaultCase()
	}
	d.e.EndMatch()
}

func (d *Driver) switchStmt(n *ir.Switch) {
	d.stats.Switches++
	withDefault := d.wantDefault(n.Default != nil, d.syms.SwitchCoverage(n))
	if len(n.Cases) == 0 && !withDefault {
		d.e.Nop()
		return
	}

	d.e.BeginSwitch(n.Discriminee)
	for _, c := range n.Cases {
		d.e.BeginSwitchCase(n.Discriminee, c.Value, n.Enum)
		d.stmt(c.Body)
		d.e.EndSwitchCase()
	}
	if withDefault {
		d.e.BeginSwitchDefaultCase()
		d.stmt(n.Default)
		d.e.EndSwitchDefaultCase()
	}
	d.e.EndSwitch()
}

func (d *Driver) expr(e ir.Expr) {
	switch n := e.(type) {
	case *ir.Var:
		d.e.Var(n.Name)

	case *ir.Call:
		d.e.BeginFunctionCall(d.exprThunk(n.Func))
		for i, a := range n.Args {
			if i > 0 {
				d.e.EndFunctionArg()
			}
			d.expr(a)
		}
		d.e.EndFunctionCall()

	case *ir.List:
		if len(n.Elems) == 0 {
			d.e.EmptyList()
			return
		}
		d.e.BeginList()
		for i, el := range n.Elems {
			if i > 0 {
				d.e.EndListElement()
			}
			d.expr(el)
		}
		d.e.EndList()

	case *ir.Length:
		d.e.ListLength(d.exprThunk(n.List))

	case *ir.NthDefault:
		d.e.ListNthDefault(d.exprThunk(n.Index), d.exprThunk(n.List), d.exprThunk(n.Default))

	case *ir.Binary:
		d.binary(n)

	case *ir.Bits:
		d.e.BitLiteral(n.Digits)

	case *ir.Bool:
		if n.Value {
			d.e.TrueLiteral()
		} else {
			d.e.FalseLiteral()
		}

	case *ir.IfExpr:
		d.e.IfExpr(d.exprThunk(n.Cond), d.exprThunk(n.Then), d.exprThunk(n.Else))
	}
}

// binary dispatches an infix operator. Unknown operators render nothing.
func (d *Driver) binary(n *ir.Binary) {
	l, r := d.exprThunk(n.Left), d.exprThunk(n.Right)
	switch n.Op {
	case ir.OpConcat:
		d.e.Concat(l, r)
	case ir.OpEqual:
		d.e.Equality(l, r)
	case ir.OpGreater:
		d.e.Gt(l, r)
	case ir.OpLogicalOr:
		d.e.LogicalOr(l, r)
	case ir.OpShiftLeft:
		d.e.ShiftLeft(l, r)
	case ir.OpBooleanAnd:
		d.e.BooleanAnd(l, r)
	case ir.OpBooleanOr:
		d.e.BooleanOr(l, r)
	}
}
