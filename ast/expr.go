package ast

// Expr represents an expression simple or complex. All expression nodes
// implement the `Expr` interface.
type Expr interface {
	ASTNode
}

// -----------------------------------------------------------------------------

// ConstId is a qualified identifier as written in source.  Only the first
// path segment is consulted by the compiler core: dotted access is not yet
// supported.
type ConstId struct {
	// Whether the identifier was written with a leading path separator.
	Absolute bool

	// The path segments of the identifier.  Never empty.
	Path []string
}

// Name returns the path segment used for lookup.
func (ci ConstId) Name() string {
	return ci.Path[0]
}

// -----------------------------------------------------------------------------

// IntLit represents an integer literal.
type IntLit struct {
	ASTBase

	Value int64
}

// Identifier represents an identifier reference.
type Identifier struct {
	ASTBase

	Id ConstId
}

// Name returns the identifier's lookup name.
func (id *Identifier) Name() string {
	return id.Id.Name()
}

// -----------------------------------------------------------------------------

// AssignOper enumerates assignment operators.
type AssignOper int

const (
	// AssignEq is plain `=` assignment.
	AssignEq AssignOper = iota
)

// AssignExpr represents an assignment expression.  Its value is the assigned
// right-hand side.
type AssignExpr struct {
	ASTBase

	Oper AssignOper

	// The assignment target.  Only identifiers are assignable.
	Lhs Expr

	Rhs Expr
}

// -----------------------------------------------------------------------------

// BinOper enumerates binary operators.
type BinOper int

const (
	BinPlus BinOper = iota
	BinMinus
	BinTimes
	BinLess
)

// Name returns the source spelling of the operator.
func (op BinOper) Name() string {
	switch op {
	case BinPlus:
		return "+"
	case BinMinus:
		return "-"
	case BinTimes:
		return "*"
	default:
		// BinLess
		return "<"
	}
}

// BinaryExpr represents a binary operator application.
type BinaryExpr struct {
	ASTBase

	Oper BinOper

	Lhs, Rhs Expr
}

// -----------------------------------------------------------------------------

// CallExpr represents a call expression.  When the callee denotes a class,
// the call is constructor syntax and lowers to a heap allocation.
type CallExpr struct {
	ASTBase

	Fn   Expr
	Args []Expr
}

// LambdaExpr represents an anonymous function expression.  Lambdas capture
// nothing lexically: they are lifted out to standalone functions.
type LambdaExpr struct {
	ASTBase

	Args []FuncArg
	Body Stmt
}

// IndexExpr represents an index expression `lhs[rhs]`.  It has no defined
// lowering yet.
type IndexExpr struct {
	ASTBase

	Lhs, Rhs Expr
}
