package depm

import (
	"sable/typing"

	"github.com/llir/llvm/ir/types"
)

// Class is a resolved user-defined class.
type Class struct {
	// The unique class ID assigned during resolution.  IDs are allocated
	// once and never reused.
	ID uint64

	// The source name of the class.
	Name string

	// The stable internal name used for the class's type alias in emitted
	// IR.
	InternalName string

	// The resolved types of the class's constructor parameters in
	// declaration order.  Constructor calls are checked against these.
	CtorParams []typing.DataType

	// The member scope built from the class body.  Pointer-bound members
	// contribute to the class layout in declaration order.
	Members *Scope

	// The IR type alias of the class.  Filled in by the lowerer; nil during
	// resolution.
	Alias types.Type
}

// ClassTable is the table of all resolved classes organized by class ID.  It
// is written only during resolution and read-only thereafter.
type ClassTable struct {
	classes map[uint64]*Class
	order   []uint64
}

// NewClassTable creates a new empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{classes: make(map[uint64]*Class)}
}

// Declare allocates a fresh class ID for the named class and inserts the new
// class into the table.  The member scope is attached later, once the class
// body has been resolved.
func (ct *ClassTable) Declare(name string) *Class {
	cls := &Class{
		ID:           uint64(len(ct.order)),
		Name:         name,
		InternalName: name,
	}

	ct.classes[cls.ID] = cls
	ct.order = append(ct.order, cls.ID)
	return cls
}

// Get looks up a class by ID.
func (ct *ClassTable) Get(id uint64) (*Class, bool) {
	cls, ok := ct.classes[id]
	return cls, ok
}

// All returns all classes in declaration order.
func (ct *ClassTable) All() []*Class {
	classes := make([]*Class, len(ct.order))
	for i, id := range ct.order {
		classes[i] = ct.classes[id]
	}

	return classes
}
