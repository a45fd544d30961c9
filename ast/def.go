package ast

// Def represents a top level definition in user source code.  Definitions
// also occur inside class bodies where variable definitions contribute the
// class's fields.
type Def interface {
	ASTNode

	// Names returns the list of names that this definition defines.
	Names() []string
}

// -----------------------------------------------------------------------------

// VarDef is an AST node for a variable definition: a common type label
// applied to one or more names.  At the top level these become module
// globals; inside a class body they become the class's fields.
type VarDef struct {
	ASTBase

	// The type label shared by all the declared names.
	Type TypeExpr

	// The declared names in declaration order.
	VarNames []string
}

func (vd *VarDef) Names() []string {
	return vd.VarNames
}

// -----------------------------------------------------------------------------

// ClassDef is an AST node for a class definition.
type ClassDef struct {
	ASTBase

	Name string

	// The constructor arguments of the class.
	Args []FuncArg

	// The member definitions of the class body.
	Body []Def
}

func (cd *ClassDef) Names() []string {
	return []string{cd.Name}
}

// -----------------------------------------------------------------------------

// FuncDef is an AST node for a function definition.
type FuncDef struct {
	ASTBase

	Name       string
	ReturnType TypeExpr
	Args       []FuncArg
	Body       []Stmt
}

// FuncArg represents a function argument.
type FuncArg struct {
	Name string
	Type TypeExpr
}

func (fd *FuncDef) Names() []string {
	return []string{fd.Name}
}

// -----------------------------------------------------------------------------

// ImportDef is an AST node for an import of another compilation unit.
// Imports are recognised but resolved trivially: no cross-unit linking.
type ImportDef struct {
	ASTBase

	Path string
}

func (id *ImportDef) Names() []string {
	return nil
}
