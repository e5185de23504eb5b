package lcgs

import (
	"fmt"
	"strconv"
)

// Pos is a 1-based line and column in the program text.
type Pos struct {
	Line   int
	Column int
}

// Root is a parsed LCGS program. The parser guarantees that only global
// declaration kinds appear at this level.
type Root struct {
	Decls []Decl
}

// Decl is any LCGS declaration.
type Decl interface {
	DeclName() string
	Position() Pos
}

// ConstDecl is "const max_health = 1;".
type ConstDecl struct {
	Name  string
	Value Expr
	At    Pos
}

// LabelDecl is a proposition, e.g. "label alive = health > 0;".
type LabelDecl struct {
	Name      string
	Condition Expr
	At        Pos
}

// StateVarDecl is "health : [0 .. max_health] init max_health;".
type StateVarDecl struct {
	Name string
	Min  Expr
	Max  Expr
	Init Expr
	At   Pos
}

// StateVarChangeDecl is "health' = health - 1;".
type StateVarChangeDecl struct {
	Name string
	Next Expr
	At   Pos
}

// PlayerDecl instantiates a template, e.g. "player p1 = shooter [target=p2];".
type PlayerDecl struct {
	Name       string
	Template   string
	Relabeling []RelabelCase
	At         Pos
}

// RelabelCase replaces From with either another name or an integer literal.
type RelabelCase struct {
	From     string
	ToName   string
	ToNumber int
	IsNumber bool
}

// TemplateDecl is a player type. Only labels, state variables, updates and
// transitions appear inside. Params name identifiers that every player must
// relabel.
type TemplateDecl struct {
	Name   string
	Params []string
	Decls  []Decl
	At     Pos
}

// TransitionDecl is an action guarded by a condition, e.g. "[shoot] health > 0;".
type TransitionDecl struct {
	Name      string
	Condition Expr
	At        Pos
}

func (d *ConstDecl) DeclName() string          { return d.Name }
func (d *LabelDecl) DeclName() string          { return d.Name }
func (d *StateVarDecl) DeclName() string       { return d.Name }
func (d *StateVarChangeDecl) DeclName() string { return d.Name }
func (d *PlayerDecl) DeclName() string         { return d.Name }
func (d *TemplateDecl) DeclName() string       { return d.Name }
func (d *TransitionDecl) DeclName() string     { return d.Name }

func (d *ConstDecl) Position() Pos          { return d.At }
func (d *LabelDecl) Position() Pos          { return d.At }
func (d *StateVarDecl) Position() Pos       { return d.At }
func (d *StateVarChangeDecl) Position() Pos { return d.At }
func (d *PlayerDecl) Position() Pos         { return d.At }
func (d *TemplateDecl) Position() Pos       { return d.At }
func (d *TransitionDecl) Position() Pos     { return d.At }

// Expr is an integer-valued expression.
type Expr interface {
	Position() Pos
	String() string
}

// Number is an integer literal.
type Number struct {
	Value int
	At    Pos
}

// Ident is an identifier with an optional owner, e.g. "p1.health". An empty
// Owner means the current template scope or, failing that, the global scope.
type Ident struct {
	Owner string
	Name  string
	At    Pos
}

// Unary applies a prefix operator.
type Unary struct {
	Op UnaryOp
	X  Expr
	At Pos
}

// Binary applies an infix operator.
type Binary struct {
	Op BinaryOp
	L  Expr
	R  Expr
	At Pos
}

// Ternary is "cond ? then : else".
type Ternary struct {
	Cond Expr
	Then Expr
	Else Expr
	At   Pos
}

// VarRef is a resolved reference to the state variable with the given index.
type VarRef struct {
	Index int
	Label string
	At    Pos
}

// ActionRef is a resolved reference to an action. It evaluates to 1 when the
// player chose the action and 0 otherwise.
type ActionRef struct {
	Player int
	Action int
	Label  string
	At     Pos
}

func (e *Number) Position() Pos    { return e.At }
func (e *Ident) Position() Pos     { return e.At }
func (e *Unary) Position() Pos     { return e.At }
func (e *Binary) Position() Pos    { return e.At }
func (e *Ternary) Position() Pos   { return e.At }
func (e *VarRef) Position() Pos    { return e.At }
func (e *ActionRef) Position() Pos { return e.At }

func (e *Number) String() string { return strconv.Itoa(e.Value) }

func (e *Ident) String() string {
	if e.Owner == "" {
		return e.Name
	}
	return e.Owner + "." + e.Name
}

func (e *Unary) String() string   { return fmt.Sprintf("%s(%s)", e.Op, e.X) }
func (e *Binary) String() string  { return fmt.Sprintf("(%s %s %s)", e.L, e.Op, e.R) }
func (e *Ternary) String() string { return fmt.Sprintf("(%s ? %s : %s)", e.Cond, e.Then, e.Else) }
func (e *VarRef) String() string  { return e.Label }

func (e *ActionRef) String() string { return e.Label }

// UnaryOp enumerates prefix operators.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
)

func (op UnaryOp) String() string {
	if op == OpNot {
		return "!"
	}
	return "-"
}

// Apply evaluates the operator.
func (op UnaryOp) Apply(v int) int {
	if op == OpNot {
		return boolInt(v == 0)
	}
	return -v
}

// BinaryOp enumerates infix operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpMul
	OpSub
	OpDiv
	OpEq
	OpNeq
	OpGt
	OpLt
	OpGeq
	OpLeq
	OpAnd
	OpOr
	OpXor
	OpImplies
)

var binaryOpText = map[BinaryOp]string{
	OpAdd:     "+",
	OpMul:     "*",
	OpSub:     "-",
	OpDiv:     "/",
	OpEq:      "==",
	OpNeq:     "!=",
	OpGt:      ">",
	OpLt:      "<",
	OpGeq:     ">=",
	OpLeq:     "<=",
	OpAnd:     "&&",
	OpOr:      "||",
	OpXor:     "^",
	OpImplies: "->",
}

func (op BinaryOp) String() string { return binaryOpText[op] }

// Apply evaluates the operator. Division by zero yields 0.
func (op BinaryOp) Apply(a, b int) int {
	switch op {
	case OpAdd:
		return a + b
	case OpMul:
		return a * b
	case OpSub:
		return a - b
	case OpDiv:
		if b == 0 {
			return 0
		}
		return a / b
	case OpEq:
		return boolInt(a == b)
	case OpNeq:
		return boolInt(a != b)
	case OpGt:
		return boolInt(a > b)
	case OpLt:
		return boolInt(a < b)
	case OpGeq:
		return boolInt(a >= b)
	case OpLeq:
		return boolInt(a <= b)
	case OpAnd:
		return boolInt(a != 0 && b != 0)
	case OpOr:
		return boolInt(a != 0 || b != 0)
	case OpXor:
		return boolInt((a != 0) != (b != 0))
	case OpImplies:
		return boolInt(a == 0 || b != 0)
	}
	panic(fmt.Sprintf("lcgs: unknown binary operator %d", op))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
