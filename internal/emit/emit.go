// Package emit defines the emission protocol: the contract between the
// generic IR driver and a target-language backend.
//
// The driver walks the IR depth-first and calls one Emitter method per node
// kind. Children are passed as Thunks, which the backend invokes at the point
// its syntax requires. Paired Begin*/End* calls bracket child output; the
// driver always calls both halves exactly once and in order, and the backend
// decides only what text and indentation change each half produces.
//
// Call-order rules the driver guarantees:
//   - EndFunctionArg is called between consecutive arguments, never after the
//     last one; a call with no arguments is BeginFunctionCall + EndFunctionCall.
//   - EndListElement is called between consecutive list elements, with the
//     same rule.
//   - Statement operations (declarations, IfStmt, the match/switch family,
//     the return pair, Nop) own whole lines. Expression operations only
//     append to the line the enclosing statement started.
//
// The protocol has no error conditions. A backend that cannot express a
// construct renders it as a harmless no-op. Sink failures surface from Flush.
package emit

// Thunk is a deferred sub-traversal. Invoking it emits the child's text.
type Thunk func()

// Param is a function parameter.
type Param struct {
	Name string
	Type string
}

// Branch is one alternative of a variant. Only len(Fields) matters to
// untyped backends; Fields holds the field type names in order.
type Branch struct {
	Name   string
	Fields []string
}

// Emitter is implemented by every target backend.
type Emitter interface {
	// Prelude writes the file header. Called once, before anything else.
	Prelude()
	// Comment writes one full-line comment.
	Comment(text string)
	// EndDeclaration writes the separator between top-level declarations.
	EndDeclaration()
	// Flush completes the output and reports the first sink error.
	Flush() error

	// Declarations.
	TypeAlias(name, target string)
	Enum(name string, values []string)
	Variant(name string, branches []Branch)
	BeginFunctionDecl(name string, params []Param, returnType string)
	EndFunctionDecl()
	BeginConstantDecl(name, typ string)
	EndConstantDecl()
	BeginLocalVarDecl(name, typ string)
	EndLocalVarDecl()

	// Statements.
	IfStmt(cond, then, els Thunk)
	BeginMatch(discriminee string)
	EndMatch()
	BeginMatchCase(discriminee, branch string, fieldNames []string)
	EndMatchCase()
	BeginMatchDefaultCase()
	EndMatchDefaultCase()
	BeginSwitch(discriminee string)
	EndSwitch()
	BeginSwitchCase(discriminee, value, enumName string)
	EndSwitchCase()
	BeginSwitchDefaultCase()
	EndSwitchDefaultCase()
	BeginReturnExpr()
	EndReturnExpr()
	Nop()

	// Expressions.
	IfExpr(cond, then, els Thunk)
	EmptyList()
	BeginList()
	EndListElement()
	EndList()
	ListLength(list Thunk)
	ListNthDefault(index, list, def Thunk)
	Concat(a, b Thunk)
	Equality(a, b Thunk)
	Gt(a, b Thunk)
	LogicalOr(a, b Thunk)
	ShiftLeft(a, b Thunk)
	BooleanAnd(a, b Thunk)
	BooleanOr(a, b Thunk)
	BitLiteral(bits string)
	TrueLiteral()
	FalseLiteral()
	Var(name string)
	BeginFunctionCall(callee Thunk)
	EndFunctionArg()
	EndFunctionCall()
}
