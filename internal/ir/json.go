package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Node kinds used as the "kind" discriminator on the wire.
const (
	KindTypeAlias  = "type_alias"
	KindEnum       = "enum"
	KindVariant    = "variant"
	KindFunction   = "function"
	KindConstant   = "constant"
	KindIf         = "if"
	KindMatch      = "match"
	KindSwitch     = "switch"
	KindLet        = "let"
	KindReturn     = "return"
	KindNop        = "nop"
	KindVar        = "var"
	KindCall       = "call"
	KindList       = "list"
	KindLength     = "length"
	KindNthDefault = "nth_default"
	KindBinary     = "binary"
	KindBits       = "bits"
	KindBool       = "bool"
	KindIfExpr     = "if_expr"
)

// DecodeError reports malformed IR JSON at a path such as
// "decls[2].body.cases[0].body".
type DecodeError struct {
	Path    string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Parse decodes a Module from its JSON form.
func Parse(data []byte) (*Module, error) {
	var m Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ---- encoding ----

// withKind marshals v (a struct) with a leading "kind" member.
func withKind(kind string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"kind":%q`, kind)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *TypeAlias) MarshalJSON() ([]byte, error) {
	type plain TypeAlias
	return withKind(KindTypeAlias, (*plain)(d))
}

func (d *Enum) MarshalJSON() ([]byte, error) {
	type plain Enum
	return withKind(KindEnum, (*plain)(d))
}

func (d *Variant) MarshalJSON() ([]byte, error) {
	type plain Variant
	return withKind(KindVariant, (*plain)(d))
}

func (d *Function) MarshalJSON() ([]byte, error) {
	type plain Function
	return withKind(KindFunction, (*plain)(d))
}

func (d *Constant) MarshalJSON() ([]byte, error) {
	type plain Constant
	return withKind(KindConstant, (*plain)(d))
}

func (s *If) MarshalJSON() ([]byte, error) {
	type plain If
	return withKind(KindIf, (*plain)(s))
}

func (s *Match) MarshalJSON() ([]byte, error) {
	type plain Match
	return withKind(KindMatch, (*plain)(s))
}

func (s *Switch) MarshalJSON() ([]byte, error) {
	type plain Switch
	return withKind(KindSwitch, (*plain)(s))
}

func (s *Let) MarshalJSON() ([]byte, error) {
	type plain Let
	return withKind(KindLet, (*plain)(s))
}

func (s *Return) MarshalJSON() ([]byte, error) {
	type plain Return
	return withKind(KindReturn, (*plain)(s))
}

func (s *Nop) MarshalJSON() ([]byte, error) {
	return []byte(`{"kind":"nop"}`), nil
}

func (e *Var) MarshalJSON() ([]byte, error) {
	type plain Var
	return withKind(KindVar, (*plain)(e))
}

func (e *Call) MarshalJSON() ([]byte, error) {
	type plain Call
	return withKind(KindCall, (*plain)(e))
}

func (e *List) MarshalJSON() ([]byte, error) {
	type plain List
	return withKind(KindList, (*plain)(e))
}

func (e *Length) MarshalJSON() ([]byte, error) {
	type plain Length
	return withKind(KindLength, (*plain)(e))
}

func (e *NthDefault) MarshalJSON() ([]byte, error) {
	type plain NthDefault
	return withKind(KindNthDefault, (*plain)(e))
}

func (e *Binary) MarshalJSON() ([]byte, error) {
	type plain Binary
	return withKind(KindBinary, (*plain)(e))
}

func (e *Bits) MarshalJSON() ([]byte, error) {
	type plain Bits
	return withKind(KindBits, (*plain)(e))
}

func (e *Bool) MarshalJSON() ([]byte, error) {
	type plain Bool
	return withKind(KindBool, (*plain)(e))
}

func (e *IfExpr) MarshalJSON() ([]byte, error) {
	type plain IfExpr
	return withKind(KindIfExpr, (*plain)(e))
}

// ---- decoding ----

// UnmarshalJSON decodes a module, resolving every "kind" discriminator.
func (m *Module) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name    string            `json:"name"`
		Comment string            `json:"comment"`
		Decls   []json.RawMessage `json:"decls"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return &DecodeError{Message: err.Error()}
	}

	m.Name = wire.Name
	m.Comment = wire.Comment
	m.Decls = make([]Decl, 0, len(wire.Decls))
	for i, raw := range wire.Decls {
		d, err := decodeDecl(raw, fmt.Sprintf("decls[%d]", i))
		if err != nil {
			return err
		}
		m.Decls = append(m.Decls, d)
	}
	return nil
}

func kindOf(raw json.RawMessage, path string) (string, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", &DecodeError{Path: path, Message: err.Error()}
	}
	if head.Kind == "" {
		return "", &DecodeError{Path: path, Message: "missing kind"}
	}
	return head.Kind, nil
}

func decodeInto(raw json.RawMessage, path string, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &DecodeError{Path: path, Message: err.Error()}
	}
	return nil
}

func decodeDecl(raw json.RawMessage, path string) (Decl, error) {
	kind, err := kindOf(raw, path)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindTypeAlias:
		d := &TypeAlias{}
		type plain TypeAlias
		return d, decodeInto(raw, path, (*plain)(d))

	case KindEnum:
		d := &Enum{}
		type plain Enum
		return d, decodeInto(raw, path, (*plain)(d))

	case KindVariant:
		d := &Variant{}
		type plain Variant
		return d, decodeInto(raw, path, (*plain)(d))

	case KindFunction:
		var wire struct {
			Name       string          `json:"name"`
			Params     []Param         `json:"params"`
			ReturnType string          `json:"return_type"`
			Body       json.RawMessage `json:"body"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		body, err := decodeStmt(wire.Body, path+".body")
		if err != nil {
			return nil, err
		}
		return &Function{Name: wire.Name, Params: wire.Params, ReturnType: wire.ReturnType, Body: body}, nil

	case KindConstant:
		var wire struct {
			Name  string          `json:"name"`
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		value, err := decodeExpr(wire.Value, path+".value")
		if err != nil {
			return nil, err
		}
		return &Constant{Name: wire.Name, Type: wire.Type, Value: value}, nil

	default:
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("unknown declaration kind %q", kind)}
	}
}

// decodeStmt decodes a statement. An absent or null statement decodes to nil.
func decodeStmt(raw json.RawMessage, path string) (Stmt, error) {
	if isNull(raw) {
		return nil, nil
	}
	kind, err := kindOf(raw, path)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindIf:
		var wire struct {
			Cond json.RawMessage `json:"cond"`
			Then json.RawMessage `json:"then"`
			Else json.RawMessage `json:"else"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		s := &If{}
		if s.Cond, err = decodeExpr(wire.Cond, path+".cond"); err != nil {
			return nil, err
		}
		if s.Then, err = decodeStmt(wire.Then, path+".then"); err != nil {
			return nil, err
		}
		if s.Else, err = decodeStmt(wire.Else, path+".else"); err != nil {
			return nil, err
		}
		return s, nil

	case KindMatch:
		var wire struct {
			Discriminee string `json:"discriminee"`
			Variant     string `json:"variant"`
			Cases       []struct {
				Branch string          `json:"branch"`
				Fields []string        `json:"fields"`
				Body   json.RawMessage `json:"body"`
			} `json:"cases"`
			Default json.RawMessage `json:"default"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		s := &Match{Discriminee: wire.Discriminee, Variant: wire.Variant}
		for i, c := range wire.Cases {
			body, err := decodeStmt(c.Body, fmt.Sprintf("%s.cases[%d].body", path, i))
			if err != nil {
				return nil, err
			}
			s.Cases = append(s.Cases, MatchCase{Branch: c.Branch, Fields: c.Fields, Body: body})
		}
		if s.Default, err = decodeStmt(wire.Default, path+".default"); err != nil {
			return nil, err
		}
		return s, nil

	case KindSwitch:
		var wire struct {
			Discriminee string `json:"discriminee"`
			Enum        string `json:"enum"`
			Cases       []struct {
				Value string          `json:"value"`
				Body  json.RawMessage `json:"body"`
			} `json:"cases"`
			Default json.RawMessage `json:"default"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		s := &Switch{Discriminee: wire.Discriminee, Enum: wire.Enum}
		for i, c := range wire.Cases {
			body, err := decodeStmt(c.Body, fmt.Sprintf("%s.cases[%d].body", path, i))
			if err != nil {
				return nil, err
			}
			s.Cases = append(s.Cases, SwitchCase{Value: c.Value, Body: body})
		}
		if s.Default, err = decodeStmt(wire.Default, path+".default"); err != nil {
			return nil, err
		}
		return s, nil

	case KindLet:
		var wire struct {
			Name  string          `json:"name"`
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
			Body  json.RawMessage `json:"body"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		s := &Let{Name: wire.Name, Type: wire.Type}
		if s.Value, err = decodeExpr(wire.Value, path+".value"); err != nil {
			return nil, err
		}
		if s.Body, err = decodeStmt(wire.Body, path+".body"); err != nil {
			return nil, err
		}
		return s, nil

	case KindReturn:
		var wire struct {
			Value json.RawMessage `json:"value"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		value, err := decodeExpr(wire.Value, path+".value")
		if err != nil {
			return nil, err
		}
		return &Return{Value: value}, nil

	case KindNop:
		return &Nop{}, nil

	default:
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("unknown statement kind %q", kind)}
	}
}

// decodeExpr decodes an expression. An absent or null expression decodes to nil.
func decodeExpr(raw json.RawMessage, path string) (Expr, error) {
	if isNull(raw) {
		return nil, nil
	}
	kind, err := kindOf(raw, path)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindVar:
		e := &Var{}
		type plain Var
		return e, decodeInto(raw, path, (*plain)(e))

	case KindBits:
		e := &Bits{}
		type plain Bits
		return e, decodeInto(raw, path, (*plain)(e))

	case KindBool:
		e := &Bool{}
		type plain Bool
		return e, decodeInto(raw, path, (*plain)(e))

	case KindCall:
		var wire struct {
			Func json.RawMessage   `json:"func"`
			Args []json.RawMessage `json:"args"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		e := &Call{}
		if e.Func, err = decodeExpr(wire.Func, path+".func"); err != nil {
			return nil, err
		}
		if e.Args, err = decodeExprs(wire.Args, path+".args"); err != nil {
			return nil, err
		}
		return e, nil

	case KindList:
		var wire struct {
			Elems []json.RawMessage `json:"elems"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		elems, err := decodeExprs(wire.Elems, path+".elems")
		if err != nil {
			return nil, err
		}
		return &List{Elems: elems}, nil

	case KindLength:
		var wire struct {
			List json.RawMessage `json:"list"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		list, err := decodeExpr(wire.List, path+".list")
		if err != nil {
			return nil, err
		}
		return &Length{List: list}, nil

	case KindNthDefault:
		var wire struct {
			Index   json.RawMessage `json:"index"`
			List    json.RawMessage `json:"list"`
			Default json.RawMessage `json:"default"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		e := &NthDefault{}
		if e.Index, err = decodeExpr(wire.Index, path+".index"); err != nil {
			return nil, err
		}
		if e.List, err = decodeExpr(wire.List, path+".list"); err != nil {
			return nil, err
		}
		if e.Default, err = decodeExpr(wire.Default, path+".default"); err != nil {
			return nil, err
		}
		return e, nil

	case KindBinary:
		var wire struct {
			Op    BinaryOp        `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		e := &Binary{Op: wire.Op}
		if e.Left, err = decodeExpr(wire.Left, path+".left"); err != nil {
			return nil, err
		}
		if e.Right, err = decodeExpr(wire.Right, path+".right"); err != nil {
			return nil, err
		}
		return e, nil

	case KindIfExpr:
		var wire struct {
			Cond json.RawMessage `json:"cond"`
			Then json.RawMessage `json:"then"`
			Else json.RawMessage `json:"else"`
		}
		if err := decodeInto(raw, path, &wire); err != nil {
			return nil, err
		}
		e := &IfExpr{}
		if e.Cond, err = decodeExpr(wire.Cond, path+".cond"); err != nil {
			return nil, err
		}
		if e.Then, err = decodeExpr(wire.Then, path+".then"); err != nil {
			return nil, err
		}
		if e.Else, err = decodeExpr(wire.Else, path+".else"); err != nil {
			return nil, err
		}
		return e, nil

	default:
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("unknown expression kind %q", kind)}
	}
}

func decodeExprs(raws []json.RawMessage, path string) ([]Expr, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]Expr, len(raws))
	for i, raw := range raws {
		e, err := decodeExpr(raw, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
