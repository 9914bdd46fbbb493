package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/extract/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrEmptyName       = "E101" // declaration, branch, value or binding name is empty
	ErrDuplicateName   = "E102" // two top-level declarations share a name
	ErrDuplicateMember = "E103" // repeated enum value, branch or parameter
	ErrMissingNode     = "E104" // required statement or expression is absent
	ErrUnknownBranch   = "E105" // match case names a branch the variant lacks
	ErrArityMismatch   = "E106" // match case binds the wrong number of fields
	ErrNonExhaustive   = "E107" // match/switch misses cases and has no default
	ErrUnknownOperator = "E108" // binary operator not recognised
	ErrInvalidBits     = "E109" // bit literal contains non-binary digits
	ErrUnknownValue    = "E110" // switch case names a value the enum lacks
	ErrDuplicateCase   = "E111" // match/switch tests the same branch twice
)

// ValidationError represents an IR validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a module for the malformations the emitter does not guard
// against at render time. Returns all errors found (does not fail-fast).
//
// Match and switch statements over types declared in the module must be
// exhaustive or carry a default. Statements over external types are
// accepted as-is.
func Validate(m *ir.Module) []ValidationError {
	v := &validator{syms: ir.NewSymbols(m)}

	names := make(map[string]bool)
	for i, d := range m.Decls {
		field := fmt.Sprintf("decls[%d]", i)
		name := d.DeclName()
		if strings.TrimSpace(name) == "" {
			v.add(field+".name", "declaration name is required", ErrEmptyName)
		} else if names[name] {
			v.add(field+".name", fmt.Sprintf("duplicate declaration name: %q", name), ErrDuplicateName)
		}
		names[name] = true

		v.decl(d, field)
	}

	return v.errs
}

type validator struct {
	syms *ir.Symbols
	errs []ValidationError
}

func (v *validator) add(field, message, code string) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: message, Code: code})
}

// unique reports empty and repeated names in list.
func (v *validator) unique(field, what string, list []string) {
	seen := make(map[string]bool, len(list))
	for i, n := range list {
		f := fmt.Sprintf("%s[%d]", field, i)
		if strings.TrimSpace(n) == "" {
			v.add(f, what+" name is required", ErrEmptyName)
			continue
		}
		if seen[n] {
			v.add(f, fmt.Sprintf("duplicate %s: %q", what, n), ErrDuplicateMember)
		}
		seen[n] = true
	}
}

func (v *validator) decl(d ir.Decl, field string) {
	switch d := d.(type) {
	case *ir.TypeAlias:
		// Nothing to check beyond the name.
	case *ir.Enum:
		v.unique(field+".values", "enum value", d.Values)
	case *ir.Variant:
		branches := make([]string, len(d.Branches))
		for i, b := range d.Branches {
			branches[i] = b.Name
		}
		v.unique(field+".branches", "branch", branches)
	case *ir.Function:
		params := make([]string, len(d.Params))
		for i, p := range d.Params {
			params[i] = p.Name
		}
		v.unique(field+".params", "parameter", params)
		v.stmt(d.Body, field+".body")
	case *ir.Constant:
		v.expr(d.Value, field+".value")
	}
}

func (v *validator) stmt(s ir.Stmt, field string) {
	if s == nil {
		v.add(field, "statement is required", ErrMissingNode)
		return
	}

	switch s := s.(type) {
	case *ir.If:
		v.expr(s.Cond, field+".cond")
		v.stmt(s.Then, field+".then")
		v.stmt(s.Else, field+".else")

	case *ir.Match:
		v.match(s, field)

	case *ir.Switch:
		v.switchStmt(s, field)

	case *ir.Let:
		if strings.TrimSpace(s.Name) == "" {
			v.add(field+".name", "local variable name is required", ErrEmptyName)
		}
		v.expr(s.Value, field+".value")
		v.stmt(s.Body, field+".body")

	case *ir.Return:
		v.expr(s.Value, field+".value")

	case *ir.Nop:
	}
}

func (v *validator) match(s *ir.Match, field string) {
	if strings.TrimSpace(s.Discriminee) == "" {
		v.add(field+".discriminee", "discriminee is required", ErrEmptyName)
	}

	_, declared := v.syms.Variants[s.Variant]
	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		cf := fmt.Sprintf("%s.cases[%d]", field, i)
		if seen[c.Branch] {
			v.add(cf+".branch", fmt.Sprintf("branch %q is matched twice", c.Branch), ErrDuplicateCase)
		}
		seen[c.Branch] = true

		for j, name := range c.Fields {
			if strings.TrimSpace(name) == "" {
				v.add(fmt.Sprintf("%s.fields[%d]", cf, j), `binding name is required (use "_" to ignore a field)`, ErrEmptyName)
			}
		}

		if declared {
			b, ok := v.syms.Branch(s.Variant, c.Branch)
			if !ok {
				v.add(cf+".branch", fmt.Sprintf("variant %q has no branch %q", s.Variant, c.Branch), ErrUnknownBranch)
			} else if len(c.Fields) != len(b.Fields) {
				v.add(cf+".fields", fmt.Sprintf("branch %q has %d field(s), case binds %d",
					c.Branch, len(b.Fields), len(c.Fields)), ErrArityMismatch)
			}
		}
		v.stmt(c.Body, cf+".body")
	}

	if s.Default != nil {
		v.stmt(s.Default, field+".default")
		return
	}
	if cov := v.syms.MatchCoverage(s); cov.Known && !cov.Exhaustive {
		v.add(field, fmt.Sprintf("match on %q is not exhaustive, missing %s",
			s.Variant, strings.Join(cov.Missing, ", ")), ErrNonExhaustive)
	}
}

func (v *validator) switchStmt(s *ir.Switch, field string) {
	if strings.TrimSpace(s.Discriminee) == "" {
		v.add(field+".discriminee", "discriminee is required", ErrEmptyName)
	}

	e, declared := v.syms.Enums[s.Enum]
	values := make(map[string]bool)
	if declared {
		for _, val := range e.Values {
			values[val] = true
		}
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		cf := fmt.Sprintf("%s.cases[%d]", field, i)
		if seen[c.Value] {
			v.add(cf+".value", fmt.Sprintf("value %q is tested twice", c.Value), ErrDuplicateCase)
		}
		seen[c.Value] = true
		if declared && !values[c.Value] {
			v.add(cf+".value", fmt.Sprintf("enum %q has no value %q", s.Enum, c.Value), ErrUnknownValue)
		}
		v.stmt(c.Body, cf+".body")
	}

	if s.Default != nil {
		v.stmt(s.Default, field+".default")
		return
	}
	if cov := v.syms.SwitchCoverage(s); cov.Known && !cov.Exhaustive {
		v.add(field, fmt.Sprintf("switch on %q is not exhaustive, missing %s",
			s.Enum, strings.Join(cov.Missing, ", ")), ErrNonExhaustive)
	}
}

func (v *validator) expr(e ir.Expr, field string) {
	if e == nil {
		v.add(field, "expression is required", ErrMissingNode)
		return
	}

	switch e := e.(type) {
	case *ir.Var:
		if strings.TrimSpace(e.Name) == "" {
			v.add(field+".name", "variable name is required", ErrEmptyName)
		}
	case *ir.Call:
		v.expr(e.Func, field+".func")
		for i, a := range e.Args {
			v.expr(a, fmt.Sprintf("%s.args[%d]", field, i))
		}
	case *ir.List:
		for i, el := range e.Elems {
			v.expr(el, fmt.Sprintf("%s.elems[%d]", field, i))
		}
	case *ir.Length:
		v.expr(e.List, field+".list")
	case *ir.NthDefault:
		v.expr(e.Index, field+".index")
		v.expr(e.List, field+".list")
		v.expr(e.Default, field+".default")
	case *ir.Binary:
		if !ir.ValidBinaryOps[e.Op] {
			v.add(field+".op", fmt.Sprintf("unknown operator %q", e.Op), ErrUnknownOperator)
		}
		v.expr(e.Left, field+".left")
		v.expr(e.Right, field+".right")
	case *ir.Bits:
		if strings.Trim(e.Digits, "01") != "" {
			v.add(field+".digits", fmt.Sprintf("invalid binary digits %q", e.Digits), ErrInvalidBits)
		}
	case *ir.Bool:
	case *ir.IfExpr:
		v.expr(e.Cond, field+".cond")
		v.expr(e.Then, field+".then")
		v.expr(e.Else, field+".else")
	}
}
