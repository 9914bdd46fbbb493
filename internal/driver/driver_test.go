package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extract/internal/compiler"
	"github.com/roach88/extract/internal/emit"
	"github.com/roach88/extract/internal/ir"
	"github.com/roach88/extract/internal/pybe"
)

func loadShapes(t *testing.T) *ir.Module {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "shapes.json"))
	require.NoError(t, err)
	m, err := ir.Parse(data)
	require.NoError(t, err)
	require.Empty(t, compiler.Validate(m))
	return m
}

func record(t *testing.T, m *ir.Module) *emit.Recorder {
	t.Helper()
	rec := emit.NewRecorder(nil)
	require.NoError(t, New(rec).Emit(m))
	require.Empty(t, rec.Open(), "every begin must be matched by its end")
	return rec
}

func count(ops []string, op string) int {
	n := 0
	for _, o := range ops {
		if o == op {
			n++
		}
	}
	return n
}

func TestEmitShapesPython(t *testing.T) {
	m := loadShapes(t)

	buf := &bytes.Buffer{}
	be := pybe.New(buf, pybe.Options{})
	d := New(be)
	require.NoError(t, d.Emit(m))
	assert.Equal(t, 0, be.Printer().Depth())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "shapes_python", buf.Bytes())

	stats := d.Stats()
	assert.Equal(t, 8, stats.Decls)
	assert.Equal(t, 3, stats.Functions)
	assert.Equal(t, 1, stats.Matches)
	assert.Equal(t, 1, stats.Switches)
	assert.Equal(t, 1, stats.DefaultsEmitted)
	assert.Equal(t, 1, stats.DefaultsElided)
}

func TestEmitIsDeterministic(t *testing.T) {
	m := loadShapes(t)

	render := func() string {
		buf := &bytes.Buffer{}
		require.NoError(t, New(pybe.New(buf, pybe.Options{})).Emit(m))
		return buf.String()
	}
	assert.Equal(t, render(), render())
}

func TestEmitCallsPreludeFirstAndFlushes(t *testing.T) {
	rec := record(t, &ir.Module{Name: "empty"})
	assert.Equal(t, []string{"prelude"}, rec.Ops())
}

func TestModuleCommentIsSeparated(t *testing.T) {
	rec := record(t, &ir.Module{Comment: "hi"})
	assert.Equal(t, []string{"prelude", "comment", "end_declaration"}, rec.Ops())
}

func TestDeclarationOrderIsPreserved(t *testing.T) {
	rec := record(t, loadShapes(t))

	var top []string
	for _, c := range rec.Calls() {
		if c.Depth == 0 && (c.Op == "type_alias" || c.Op == "enum" || c.Op == "variant" ||
			c.Op == "begin_function_decl" || c.Op == "begin_constant_decl") {
			top = append(top, c.Op+":"+c.Args[0])
		}
	}
	assert.Equal(t, []string{
		"type_alias:Word",
		"enum:Color",
		"variant:Shape",
		"begin_function_decl:width",
		"begin_function_decl:is_warm",
		"begin_function_decl:pick",
		"begin_constant_decl:origin",
		"begin_constant_decl:unit",
	}, top)
}

func matchModule(def ir.Stmt, cases ...ir.MatchCase) *ir.Module {
	return &ir.Module{Decls: []ir.Decl{
		&ir.Variant{Name: "T", Branches: []ir.Branch{{Name: "A"}, {Name: "B", Fields: []string{"x"}}, {Name: "C"}}},
		&ir.Function{Name: "f", Params: []ir.Param{{Name: "t"}}, Body: &ir.Match{
			Discriminee: "t", Variant: "T", Cases: cases, Default: def,
		}},
	}}
}

func TestMatchEmitsOneTestPerCaseInOrder(t *testing.T) {
	rec := record(t, matchModule(nil,
		ir.MatchCase{Branch: "C", Body: &ir.Nop{}},
		ir.MatchCase{Branch: "A", Body: &ir.Nop{}},
		ir.MatchCase{Branch: "B", Fields: []string{"y"}, Body: &ir.Nop{}},
	))

	var branches []string
	for _, c := range rec.Calls() {
		if c.Op == "begin_match_case" {
			branches = append(branches, c.Args[1])
		}
	}
	assert.Equal(t, []string{"C", "A", "B"}, branches)
	assert.Equal(t, 0, count(rec.Ops(), "begin_match_default_case"))
}

func TestMatchDefaultAppendedWhenNotExhaustive(t *testing.T) {
	rec := record(t, matchModule(&ir.Nop{},
		ir.MatchCase{Branch: "A", Body: &ir.Nop{}},
	))

	ops := rec.Ops()
	assert.Equal(t, 1, count(ops, "begin_match_case"))
	assert.Equal(t, 1, count(ops, "begin_match_default_case"))

	idx := func(op string) int {
		for i, o := range ops {
			if o == op {
				return i
			}
		}
		return -1
	}
	assert.Less(t, idx("end_match_case"), idx("begin_match_default_case"))
	assert.Less(t, idx("end_match_default_case"), idx("end_match"))
}

func TestMatchDefaultElidedWhenExhaustive(t *testing.T) {
	d := New(emit.NewRecorder(nil))
	require.NoError(t, d.Emit(matchModule(&ir.Nop{},
		ir.MatchCase{Branch: "A", Body: &ir.Nop{}},
		ir.MatchCase{Branch: "B", Fields: []string{"y"}, Body: &ir.Nop{}},
		ir.MatchCase{Branch: "C", Body: &ir.Nop{}},
	)))
	assert.Equal(t, 1, d.Stats().DefaultsElided)
	assert.Equal(t, 0, d.Stats().DefaultsEmitted)
}

func TestMatchOnExternalVariantKeepsDefault(t *testing.T) {
	m := &ir.Module{Decls: []ir.Decl{
		&ir.Function{Name: "f", Body: &ir.Match{
			Discriminee: "o", Variant: "option",
			Cases:   []ir.MatchCase{{Branch: "Some", Fields: []string{"v"}, Body: &ir.Nop{}}},
			Default: &ir.Nop{},
		}},
	}}
	rec := record(t, m)
	assert.Equal(t, 1, count(rec.Ops(), "begin_match_default_case"))
}

func TestEmptyMatchRendersNop(t *testing.T) {
	m := &ir.Module{Decls: []ir.Decl{
		&ir.Function{Name: "f", Body: &ir.Match{Discriminee: "o", Variant: "ext"}},
	}}
	rec := record(t, m)
	assert.Equal(t, []string{"prelude", "begin_function_decl", "nop", "end_function_decl"}, rec.Ops())
}

func TestSwitchUsesEnumName(t *testing.T) {
	m := &ir.Module{Decls: []ir.Decl{
		&ir.Enum{Name: "Color", Values: []string{"Red", "Blue"}},
		&ir.Function{Name: "f", Body: &ir.Switch{
			Discriminee: "c", Enum: "Color",
			Cases:   []ir.SwitchCase{{Value: "Red", Body: &ir.Nop{}}},
			Default: &ir.Nop{},
		}},
	}}
	rec := record(t, m)

	var cases []string
	for _, c := range rec.Calls() {
		if c.Op == "begin_switch_case" {
			cases = append(cases, c.String())
		}
	}
	assert.Equal(t, []string{"begin_switch_case c Color.Red"}, cases)
	assert.Equal(t, 1, count(rec.Ops(), "begin_switch_default_case"))
}

func TestIfStmtThunkOrder(t *testing.T) {
	m := &ir.Module{Decls: []ir.Decl{
		&ir.Function{Name: "f", Body: &ir.If{
			Cond: &ir.Var{Name: "c"},
			Then: &ir.Return{Value: &ir.Var{Name: "a"}},
			Else: &ir.Return{Value: &ir.Var{Name: "b"}},
		}},
	}}
	rec := record(t, m)

	var vars []string
	for _, c := range rec.Calls() {
		if c.Op == "var" {
			vars = append(vars, c.Args[0])
		}
	}
	assert.Equal(t, []string{"c", "a", "b"}, vars)
}

func TestCallArgumentSeparators(t *testing.T) {
	tests := []struct {
		name string
		args int
		want int
	}{
		{"zero", 0, 0},
		{"one", 1, 0},
		{"three", 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := make([]ir.Expr, tt.args)
			for i := range args {
				args[i] = &ir.Bool{Value: true}
			}
			m := &ir.Module{Decls: []ir.Decl{
				&ir.Constant{Name: "k", Value: &ir.Call{Func: &ir.Var{Name: "f"}, Args: args}},
			}}
			rec := record(t, m)
			assert.Equal(t, tt.want, count(rec.Ops(), "end_function_arg"))
			assert.Equal(t, 1, count(rec.Ops(), "end_function_call"))
		})
	}
}

func TestListElementSeparators(t *testing.T) {
	m := &ir.Module{Decls: []ir.Decl{
		&ir.Constant{Name: "e", Value: &ir.List{}},
		&ir.Constant{Name: "l", Value: &ir.List{Elems: []ir.Expr{&ir.Bits{Digits: "1"}, &ir.Bits{Digits: "0"}}}},
	}}
	rec := record(t, m)
	ops := rec.Ops()
	assert.Equal(t, 1, count(ops, "empty_list"))
	assert.Equal(t, 1, count(ops, "begin_list"))
	assert.Equal(t, 1, count(ops, "end_list_element"))
}

func TestBinaryOperatorsDispatch(t *testing.T) {
	ops := map[ir.BinaryOp]string{
		ir.OpConcat:     "concat",
		ir.OpEqual:      "equality",
		ir.OpGreater:    "gt",
		ir.OpLogicalOr:  "logical_or",
		ir.OpShiftLeft:  "shift_left",
		ir.OpBooleanAnd: "boolean_and",
		ir.OpBooleanOr:  "boolean_or",
	}
	for op, want := range ops {
		m := &ir.Module{Decls: []ir.Decl{
			&ir.Constant{Name: "k", Value: &ir.Binary{Op: op, Left: &ir.Var{Name: "a"}, Right: &ir.Var{Name: "b"}}},
		}}
		rec := record(t, m)
		assert.Equal(t, 1, count(rec.Ops(), want), "operator %s", op)
	}
}

func TestUnknownOperatorRendersNothing(t *testing.T) {
	m := &ir.Module{Decls: []ir.Decl{
		&ir.Constant{Name: "k", Value: &ir.Binary{Op: "xor", Left: &ir.Var{Name: "a"}, Right: &ir.Var{Name: "b"}}},
	}}
	rec := record(t, m)
	assert.Equal(t, []string{"prelude", "begin_constant_decl", "end_constant_decl"}, rec.Ops())
}

func TestLetEmitsDeclThenBody(t *testing.T) {
	m := &ir.Module{Decls: []ir.Decl{
		&ir.Function{Name: "f", Body: &ir.Let{
			Name: "x", Value: &ir.Bool{Value: true},
			Body: &ir.Return{Value: &ir.Var{Name: "x"}},
		}},
	}}
	rec := record(t, m)
	assert.Equal(t, []string{
		"prelude",
		"begin_function_decl",
		"begin_local_var_decl", "true_literal", "end_local_var_decl",
		"begin_return_expr", "var", "end_return_expr",
		"end_function_decl",
	}, rec.Ops())
}

func TestTraceRendering(t *testing.T) {
	buf := &bytes.Buffer{}
	m := &ir.Module{Decls: []ir.Decl{
		&ir.Function{Name: "f", Params: []ir.Param{{Name: "x"}}, Body: &ir.Return{Value: &ir.Var{Name: "x"}}},
	}}
	require.NoError(t, New(emit.NewRecorder(buf)).Emit(m))

	assert.Equal(t, strings.Join([]string{
		"prelude",
		"begin_function_decl f x",
		"  begin_return_expr",
		"    var x",
		"  end_return_expr",
		"end_function_decl",
		"",
	}, "\n"), buf.String())
}
