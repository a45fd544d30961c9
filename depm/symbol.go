package depm

import (
	"sable/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// Ref is the interface for the kinds of references a name can be bound to on
// the lexical stack.
type Ref interface {
	// Type returns the resolved type of the bound entity.
	Type() typing.DataType
}

// -----------------------------------------------------------------------------

// VarRef binds a name directly to an SSA value: no address is ever taken.
// Assignments to such names rename them to fresh SSA values instead of
// storing.
type VarRef struct {
	// The resolved type of the variable.
	VarType typing.DataType

	// The SSA value the name is currently bound to.
	Val value.Value
}

func (vr *VarRef) Type() typing.DataType {
	return vr.VarType
}

// -----------------------------------------------------------------------------

// PtrRef binds a name to a lexical slot holding a value by address.  Class
// fields and module globals are bound this way; reads load through the
// address and assignments store through it.
type PtrRef struct {
	// The resolved type of the stored value.
	ElemType typing.DataType

	// The address of the slot.  Filled in by the lowerer; nil while the
	// reference only participates in resolution.
	Addr value.Value
}

func (pr *PtrRef) Type() typing.DataType {
	return pr.ElemType
}

// -----------------------------------------------------------------------------

// FuncRef binds a name to a top-level function.
type FuncRef struct {
	// The function's signature.
	Sig *typing.FuncType

	// The emitted IR function.  Filled in by the lowerer before any bodies
	// are lowered; nil during resolution.
	Fn *ir.Func
}

func (fr *FuncRef) Type() typing.DataType {
	return fr.Sig
}

// -----------------------------------------------------------------------------

// ClassRef binds a name to a class.  Class bindings serve both as type
// annotations and as `T(...)` constructor callees.
type ClassRef struct {
	Class *Class
}

func (cr *ClassRef) Type() typing.DataType {
	return typing.ClassType{ID: cr.Class.ID, Name: cr.Class.Name}
}

// -----------------------------------------------------------------------------

// Symbol is a single named entry in a scope.
type Symbol struct {
	// The source name of the symbol.
	Name string

	// The stable internal name used for the symbol in emitted IR.  For
	// locals subject to SSA rewriting this includes a disambiguating
	// integer suffix.
	InternalName string

	// What the name is bound to.
	Ref Ref
}
