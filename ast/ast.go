package ast

import "sable/report"

// The abstract interface for all AST nodes.
type ASTNode interface {
	// The text span of the AST node.
	Span() *report.TextSpan
}

// A utility base struct for all AST nodes.
type ASTBase struct {
	// The span over which the AST node occurs.
	span *report.TextSpan
}

// NewASTBaseOn creates a new AST base with the given span.
func NewASTBaseOn(span *report.TextSpan) ASTBase {
	return ASTBase{span: span}
}

// NewASTBaseOver creates a new AST base spanning over two spans.
func NewASTBaseOver(start, end *report.TextSpan) ASTBase {
	return ASTBase{span: report.NewSpanOver(start, end)}
}

func (ab ASTBase) Span() *report.TextSpan {
	return ab.span
}

// -----------------------------------------------------------------------------

// TypeExpr represents an unresolved type label as written in source.
type TypeExpr interface {
	ASTNode
}

// PrimTypeExpr is a primitive type label: `int`, `bool`, `float` or `void`.
type PrimTypeExpr struct {
	ASTBase

	// Kind is one of the enumerated primitive kinds defined by `typing`.
	Kind int
}

// Enumeration of primitive type label kinds.  These mirror typing.PrimType
// but keep the AST free of resolved-type dependencies.
const (
	PrimInt = iota
	PrimBool
	PrimFloat
	PrimVoid
)

// NamedTypeExpr is a type label referring to a user-defined class by name.
type NamedTypeExpr struct {
	ASTBase

	Name string
}

// FuncTypeExpr is a function type label: `ret(params...)`.
type FuncTypeExpr struct {
	ASTBase

	ReturnType TypeExpr
	Params     []TypeExpr
}
