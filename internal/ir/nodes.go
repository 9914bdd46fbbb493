package ir

// Module is one IR compilation unit. It becomes one target source file.
type Module struct {
	Name    string `json:"name"`
	Comment string `json:"comment,omitempty"`
	Decls   []Decl `json:"decls"`
}

// Decl is a top-level declaration.
type Decl interface {
	declNode()
	// DeclName returns the declared name.
	DeclName() string
}

// Stmt is a statement: something that occupies whole lines in the output.
type Stmt interface {
	stmtNode()
}

// Expr is an expression: something rendered inside a line.
type Expr interface {
	exprNode()
}

// ---- declarations ----

// TypeAlias names another type.
type TypeAlias struct {
	Name   string `json:"name"`
	Target string `json:"target"`
}

// Enum is a name and an ordered list of unique value names. Values are
// numbered 1..k by position.
type Enum struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Branch is one alternative of a Variant. Fields are type names; their
// count is the branch arity.
type Branch struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields,omitempty"`
}

// Variant is a tagged union.
type Variant struct {
	Name     string   `json:"name"`
	Branches []Branch `json:"branches"`
}

// Param is a function parameter.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Function is a top-level function with a statement body.
type Function struct {
	Name       string  `json:"name"`
	Params     []Param `json:"params,omitempty"`
	ReturnType string  `json:"return_type,omitempty"`
	Body       Stmt    `json:"body"`
}

// Constant is a top-level named value.
type Constant struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value Expr   `json:"value"`
}

func (*TypeAlias) declNode() {}
func (*Enum) declNode()      {}
func (*Variant) declNode()   {}
func (*Function) declNode()  {}
func (*Constant) declNode()  {}

func (d *TypeAlias) DeclName() string { return d.Name }
func (d *Enum) DeclName() string      { return d.Name }
func (d *Variant) DeclName() string   { return d.Name }
func (d *Function) DeclName() string  { return d.Name }
func (d *Constant) DeclName() string  { return d.Name }

// ---- statements ----

// If is a two-armed conditional statement. Both arms are required.
type If struct {
	Cond Expr `json:"cond"`
	Then Stmt `json:"then"`
	Else Stmt `json:"else"`
}

// MatchCase tests for one variant branch and binds its fields by position.
type MatchCase struct {
	Branch string   `json:"branch"`
	Fields []string `json:"fields,omitempty"`
	Body   Stmt     `json:"body"`
}

// Match dispatches on the branch a variant value holds. Discriminee is
// always an already-bound name.
type Match struct {
	Discriminee string      `json:"discriminee"`
	Variant     string      `json:"variant,omitempty"`
	Cases       []MatchCase `json:"cases"`
	Default     Stmt        `json:"default,omitempty"`
}

// SwitchCase tests for one enum value.
type SwitchCase struct {
	Value string `json:"value"`
	Body  Stmt   `json:"body"`
}

// Switch dispatches on enum value equality.
type Switch struct {
	Discriminee string       `json:"discriminee"`
	Enum        string       `json:"enum"`
	Cases       []SwitchCase `json:"cases"`
	Default     Stmt         `json:"default,omitempty"`
}

// Let binds a local variable, then continues with Body.
type Let struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value Expr   `json:"value"`
	Body  Stmt   `json:"body"`
}

// Return returns Value from the enclosing function.
type Return struct {
	Value Expr `json:"value"`
}

// Nop does nothing. Targets that need a statement in an empty block use it.
type Nop struct{}

func (*If) stmtNode()     {}
func (*Match) stmtNode()  {}
func (*Switch) stmtNode() {}
func (*Let) stmtNode()    {}
func (*Return) stmtNode() {}
func (*Nop) stmtNode()    {}

// ---- expressions ----

// Var references a name. No scope resolution is performed.
type Var struct {
	Name string `json:"name"`
}

// Call applies Func to Args.
type Call struct {
	Func Expr   `json:"func"`
	Args []Expr `json:"args,omitempty"`
}

// List is a list literal. A List with no elements is the empty list.
type List struct {
	Elems []Expr `json:"elems,omitempty"`
}

// Length is the length of a list.
type Length struct {
	List Expr `json:"list"`
}

// NthDefault is bounds-safe indexing: element Index of List, or Default
// when Index is out of range.
type NthDefault struct {
	Index   Expr `json:"index"`
	List    Expr `json:"list"`
	Default Expr `json:"default"`
}

// BinaryOp names a fixed infix operation.
type BinaryOp string

const (
	OpConcat     BinaryOp = "concat"
	OpEqual      BinaryOp = "eq"
	OpGreater    BinaryOp = "gt"
	OpLogicalOr  BinaryOp = "lor"
	OpShiftLeft  BinaryOp = "shl"
	OpBooleanAnd BinaryOp = "and"
	OpBooleanOr  BinaryOp = "or"
)

// ValidBinaryOps lists the accepted operators.
var ValidBinaryOps = map[BinaryOp]bool{
	OpConcat:     true,
	OpEqual:      true,
	OpGreater:    true,
	OpLogicalOr:  true,
	OpShiftLeft:  true,
	OpBooleanAnd: true,
	OpBooleanOr:  true,
}

// Binary is an infix operation.
type Binary struct {
	Op    BinaryOp `json:"op"`
	Left  Expr     `json:"left"`
	Right Expr     `json:"right"`
}

// Bits is a binary literal given as a string of 0/1 digits.
type Bits struct {
	Digits string `json:"digits"`
}

// Bool is a boolean literal.
type Bool struct {
	Value bool `json:"value"`
}

// IfExpr is a conditional that produces a value.
type IfExpr struct {
	Cond Expr `json:"cond"`
	Then Expr `json:"then"`
	Else Expr `json:"else"`
}

func (*Var) exprNode()        {}
func (*Call) exprNode()       {}
func (*List) exprNode()       {}
func (*Length) exprNode()     {}
func (*NthDefault) exprNode() {}
func (*Binary) exprNode()     {}
func (*Bits) exprNode()       {}
func (*Bool) exprNode()       {}
func (*IfExpr) exprNode()     {}
