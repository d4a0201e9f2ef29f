// Package ast defines the ct language syntax tree.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// Expr is any node the parser can produce as a statement or operand.
// Statements and expressions share one namespace in ct: every statement
// is an expression that may or may not produce a value.
type Expr interface {
	Node
	exprNode() // sealed marker
}

// AnyType is the declared type tag of every declaration. The language has no
// type annotations yet, so declarations and headers always carry it.
const AnyType = "any"

// --- Literals ---

type IntLiteral struct {
	Span  Span
	Value int64
}

func (n *IntLiteral) Kind() string   { return "IntLiteral" }
func (n *IntLiteral) NodeSpan() Span { return n.Span }
func (n *IntLiteral) exprNode()      {}

type FloatLiteral struct {
	Span  Span
	Value float64
}

func (n *FloatLiteral) Kind() string   { return "FloatLiteral" }
func (n *FloatLiteral) NodeSpan() Span { return n.Span }
func (n *FloatLiteral) exprNode()      {}

type BoolLiteral struct {
	Span  Span
	Value bool
}

func (n *BoolLiteral) Kind() string   { return "BoolLiteral" }
func (n *BoolLiteral) NodeSpan() Span { return n.Span }
func (n *BoolLiteral) exprNode()      {}

type StrLiteral struct {
	Span  Span
	Value string
}

func (n *StrLiteral) Kind() string   { return "StrLiteral" }
func (n *StrLiteral) NodeSpan() Span { return n.Span }
func (n *StrLiteral) exprNode()      {}

// --- Variables ---

// VarRef reads a variable by name.
type VarRef struct {
	Span Span
	Name string
}

func (n *VarRef) Kind() string   { return "VarRef" }
func (n *VarRef) NodeSpan() Span { return n.Span }
func (n *VarRef) exprNode()      {}

// VarDecl is `let name`. On the left of `=` it defines name in the innermost scope.
type VarDecl struct {
	Span Span
	Name string
	Type string
}

func (n *VarDecl) Kind() string   { return "VarDecl" }
func (n *VarDecl) NodeSpan() Span { return n.Span }
func (n *VarDecl) exprNode()      {}

// --- Operators ---

// BinaryExpr holds an operator in its source spelling ("+", "==", "+=", ...).
type BinaryExpr struct {
	Span  Span
	Op    string
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) exprNode()      {}

// --- Functions ---

// Param is a declared function parameter.
type Param struct {
	Span Span
	Name string
	Type string
}

// FnHeader is the `name(params)` part of a function definition.
type FnHeader struct {
	Span       Span
	Name       string
	Params     []Param
	ReturnType string
}

type FnDecl struct {
	Span   Span
	Header FnHeader
	Body   []Expr
}

func (n *FnDecl) Kind() string   { return "FnDecl" }
func (n *FnDecl) NodeSpan() Span { return n.Span }
func (n *FnDecl) exprNode()      {}

type FnCall struct {
	Span Span
	Name string
	Args []Expr
}

func (n *FnCall) Kind() string   { return "FnCall" }
func (n *FnCall) NodeSpan() Span { return n.Span }
func (n *FnCall) exprNode()      {}

// --- Control Flow ---

// IfBranch is one `(cond) { body }` arm. A trailing else carries a
// synthesized `true` condition.
type IfBranch struct {
	Span Span
	Cond Expr
	Body []Expr
}

// IfChain stores branches in source order.
type IfChain struct {
	Span     Span
	Branches []IfBranch
}

func (n *IfChain) Kind() string   { return "IfChain" }
func (n *IfChain) NodeSpan() Span { return n.Span }
func (n *IfChain) exprNode()      {}

type WhileStmt struct {
	Span Span
	Cond Expr
	Body []Expr
}

func (n *WhileStmt) Kind() string   { return "WhileStmt" }
func (n *WhileStmt) NodeSpan() Span { return n.Span }
func (n *WhileStmt) exprNode()      {}

// ForStmt is a placeholder: the header is skipped and evaluation is unsupported.
type ForStmt struct {
	Span Span
	Body []Expr
}

func (n *ForStmt) Kind() string   { return "ForStmt" }
func (n *ForStmt) NodeSpan() Span { return n.Span }
func (n *ForStmt) exprNode()      {}

type ReturnStmt struct {
	Span  Span
	Value Expr
}

func (n *ReturnStmt) Kind() string   { return "ReturnStmt" }
func (n *ReturnStmt) NodeSpan() Span { return n.Span }
func (n *ReturnStmt) exprNode()      {}

type BreakStmt struct {
	Span Span
}

func (n *BreakStmt) Kind() string   { return "BreakStmt" }
func (n *BreakStmt) NodeSpan() Span { return n.Span }
func (n *BreakStmt) exprNode()      {}

type ContinueStmt struct {
	Span Span
}

func (n *ContinueStmt) Kind() string   { return "ContinueStmt" }
func (n *ContinueStmt) NodeSpan() Span { return n.Span }
func (n *ContinueStmt) exprNode()      {}

// --- Structures ---

// MemberExpr is `recv.attr` or, when Call is set, `recv.attr(args...)`.
type MemberExpr struct {
	Span     Span
	Receiver string
	Attr     string
	Call     bool
	Args     []Expr
}

func (n *MemberExpr) Kind() string   { return "MemberExpr" }
func (n *MemberExpr) NodeSpan() Span { return n.Span }
func (n *MemberExpr) exprNode()      {}

// StructDecl is `struct Name {}`. Only empty bodies parse.
type StructDecl struct {
	Span Span
	Name string
}

func (n *StructDecl) Kind() string   { return "StructDecl" }
func (n *StructDecl) NodeSpan() Span { return n.Span }
func (n *StructDecl) exprNode()      {}

// --- Program ---

// Program is a whole source file. The runtime streams statements one at a
// time instead; Program is used by tooling (fmt, check).
type Program struct {
	Span       Span
	Statements []Expr
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }

// binaryPrecedence is the binding power of each binary operator (higher binds tighter).
var binaryPrecedence = map[string]int{
	"=":  1,
	"+=": 1,
	"-=": 1,
	"||": 5,
	"&&": 6,
	"<":  10,
	">":  10,
	"<=": 10,
	">=": 10,
	"==": 10,
	"!=": 10,
	"+":  20,
	"-":  20,
	"*":  30,
	"/":  30,
	"%":  30,
}

// Precedence returns the binding power of a binary operator, or -1 when op
// is not a binary operator.
func Precedence(op string) int {
	if p, ok := binaryPrecedence[op]; ok {
		return p
	}
	return -1
}
