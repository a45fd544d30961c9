package lower

import (
	"fmt"

	"sable/ast"
	"sable/depm"
	"sable/report"
	"sable/resolve"
	"sable/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Lowerer is responsible for converting the resolved AST into LLVM IR.  It
// lowers each compilation unit into a single LLVM module.
type Lowerer struct {
	// table is the class table produced by resolution.  Read-only here.
	table *depm.ClassTable

	// stack is the lexical stack used for name lookup during lowering.
	stack *depm.Stack

	// mod is the LLVM module being generated.
	mod *ir.Module

	// uniq is the monotonic counter used for fresh block labels and SSA
	// name suffixes.  It is never reset: it survives stack shadowing and
	// the loop engine's snapshot/restore.
	uniq int

	// lambdaCount is the counter used to name lifted lambda functions.
	lambdaCount int

	// blocks is the ordered list of basic blocks of the function currently
	// being lowered.
	blocks []*ir.Block

	// block is the block statements are currently appended to.
	block *ir.Block

	// loopExits is the stack of end blocks of the loops enclosing the
	// statement currently being lowered.  `break` branches to its top.
	loopExits []*ir.Block

	// retType is the return type hint of the function currently being
	// lowered.  nil means the return type is not yet known: the first
	// return statement decides it.
	retType typing.DataType

	// lifted is the list of lambda functions lifted out of expressions.
	// It is append-only during lowering.
	lifted []*ir.Func

	// topFuncs is the list of top-level source functions.
	topFuncs []*ir.Func

	// mallocFn is the lazily created external declaration of `malloc`.
	mallocFn *ir.Func
}

// Compile lowers a resolved definition list into an LLVM module.  Lowering
// is fail-fast: the first error aborts the compilation and no partial module
// is returned.
func Compile(defs []ast.Def, topScope *depm.Scope, table *depm.ClassTable) (*ir.Module, []*report.Diagnostic) {
	l := &Lowerer{
		table: table,
		stack: depm.NewStack(),
		mod:   ir.NewModule(),
	}

	var errs []*report.Diagnostic
	mod := func() *ir.Module {
		defer report.Catch(&errs)
		return l.lowerUnit(defs, topScope)
	}()

	if len(errs) > 0 {
		return nil, errs
	}

	return mod, nil
}

// lowerUnit lowers all definitions of a compilation unit and assembles the
// final module.
func (l *Lowerer) lowerUnit(defs []ast.Def, topScope *depm.Scope) *ir.Module {
	l.stack.Add(topScope)

	l.declareClasses()
	l.declareGlobals(defs, topScope)
	funcDefs := l.declareFuncs(defs, topScope)

	for _, fd := range funcDefs {
		sym, _ := topScope.Get(fd.Name)
		l.lowerFunc(fd, sym.Ref.(*depm.FuncRef))
	}

	// Module function order: the malloc declaration, then lifted lambdas,
	// then top-level functions in source order.  malloc and every lambda thus
	// precede the top-level functions; calls among top-level functions may
	// still refer forward.
	if l.mallocFn != nil {
		l.mod.Funcs = append(l.mod.Funcs, l.mallocFn)
	}
	l.mod.Funcs = append(l.mod.Funcs, l.lifted...)
	l.mod.Funcs = append(l.mod.Funcs, l.topFuncs...)

	return l.mod
}

// declareClasses creates one type alias per class.  Aliases are created
// empty first and filled in afterwards so that members may refer to classes
// declared later.
func (l *Lowerer) declareClasses() {
	classes := l.table.All()

	structs := make([]*types.StructType, len(classes))
	for i, cls := range classes {
		st := types.NewStruct()
		cls.Alias = l.mod.NewTypeDef(cls.InternalName, st)
		structs[i] = st
	}

	for i, cls := range classes {
		var fields []types.Type
		for _, name := range cls.Members.Names() {
			sym, _ := cls.Members.Get(name)
			if pr, ok := sym.Ref.(*depm.PtrRef); ok {
				fields = append(fields, types.NewPointer(l.convType(pr.ElemType)))
			}
		}

		structs[i].Fields = fields
	}
}

// declareGlobals creates a zero-initialized module global for every
// top-level variable definition and records its address on the stack
// binding.
func (l *Lowerer) declareGlobals(defs []ast.Def, topScope *depm.Scope) {
	for _, def := range defs {
		vd, ok := def.(*ast.VarDef)
		if !ok {
			continue
		}

		for _, name := range vd.VarNames {
			sym, _ := topScope.Get(name)
			pr := sym.Ref.(*depm.PtrRef)

			glob := l.mod.NewGlobal(sym.InternalName, l.convType(pr.ElemType))
			glob.Init = l.zeroValue(pr.ElemType)
			pr.Addr = glob
		}
	}
}

// declareFuncs declares every top-level function before any body is lowered
// so that bodies may call functions defined later in the unit.
func (l *Lowerer) declareFuncs(defs []ast.Def, topScope *depm.Scope) []*ast.FuncDef {
	var funcDefs []*ast.FuncDef

	for _, def := range defs {
		fd, ok := def.(*ast.FuncDef)
		if !ok {
			continue
		}

		sym, _ := topScope.Get(fd.Name)
		fr := sym.Ref.(*depm.FuncRef)

		params := make([]*ir.Param, len(fd.Args))
		for i, arg := range fd.Args {
			params[i] = ir.NewParam(arg.Name, l.convType(fr.Sig.Params[i]))
		}

		fn := ir.NewFunc(sym.InternalName, l.convType(fr.Sig.ReturnType), params...)
		fn.CallingConv = enum.CallingConvFast
		fn.Linkage = enum.LinkageExternal

		// top-level source functions are collected by the shadow stack
		// collector; lifted lambdas are not
		fn.GC = "shadow-stack"

		fr.Fn = fn
		l.topFuncs = append(l.topFuncs, fn)
		funcDefs = append(funcDefs, fd)
	}

	return funcDefs
}

// lowerFunc lowers a top-level function body.
func (l *Lowerer) lowerFunc(fd *ast.FuncDef, fr *depm.FuncRef) {
	l.blocks, l.block, l.loopExits = nil, nil, nil
	l.retType = fr.Sig.ReturnType

	l.newBlock()

	l.stack.Push()
	defer l.stack.Pop()

	for i, arg := range fd.Args {
		l.stack.Put(arg.Name, arg.Name, &depm.VarRef{
			VarType: fr.Sig.Params[i],
			Val:     fr.Fn.Params[i],
		})
	}

	for _, stmt := range fd.Body {
		l.lowerStmt(stmt)
	}

	fr.Fn.Blocks = l.seal()
}

// seal finalizes the blocks of the function currently being lowered: a
// trailing unterminated block of a void function returns; any other block
// still missing a terminator is unreachable.
func (l *Lowerer) seal() []*ir.Block {
	if l.block != nil && l.block.Term == nil && typing.IsVoid(l.retType) {
		l.block.NewRet(nil)
	}

	for _, b := range l.blocks {
		if b.Term == nil {
			b.NewUnreachable()
		}
	}

	return l.blocks
}

// -----------------------------------------------------------------------------

// next returns a fresh integer from the uniqueness counter.
func (l *Lowerer) next() int {
	n := l.uniq
	l.uniq++
	return n
}

// newBlock appends a fresh basic block to the current function and makes it
// the current block.
func (l *Lowerer) newBlock() *ir.Block {
	b := l.detachedBlock()
	l.attachBlock(b)
	return b
}

// detachedBlock creates a labelled basic block without attaching it to the
// function.  Control-flow lowering pre-allocates join blocks this way and
// attaches them once their position in the block order is known.
func (l *Lowerer) detachedBlock() *ir.Block {
	return ir.NewBlock(fmt.Sprintf("bb%d", l.next()))
}

// attachBlock appends a block to the current function's block list and makes
// it the current block.
func (l *Lowerer) attachBlock(b *ir.Block) {
	l.blocks = append(l.blocks, b)
	l.block = b
}

// cur returns the block statements should currently be appended to,
// allocating a fresh block if there is none or the current one is already
// terminated.
func (l *Lowerer) cur() *ir.Block {
	if l.block == nil || l.block.Term != nil {
		return l.newBlock()
	}

	return l.block
}

// bind rebinds a name to a fresh SSA value in the innermost scope.  The
// internal name carries a fresh integer suffix; if the value is a nameable
// instruction it takes that name in the emitted IR.
func (l *Lowerer) bind(name string, tp typing.DataType, val value.Value) {
	internal := fmt.Sprintf("%s.%d", name, l.next())

	if _, ok := val.(ir.Instruction); ok {
		if named, ok := val.(value.Named); ok {
			named.SetName(internal)
		}
	}

	l.stack.Put(name, internal, &depm.VarRef{VarType: tp, Val: val})
}

// resolveType resolves a type label on the ambient stack, raising the
// failure if it does not resolve.
func (l *Lowerer) resolveType(texpr ast.TypeExpr) typing.DataType {
	tp, diag := resolve.ResolveType(l.stack, texpr)
	if diag != nil {
		panic(diag)
	}

	return tp
}

// malloc returns the external declaration of `malloc`, creating it on first
// use.
func (l *Lowerer) malloc() *ir.Func {
	if l.mallocFn == nil {
		l.mallocFn = ir.NewFunc("malloc", types.I8Ptr, ir.NewParam("size", types.I64))
	}

	return l.mallocFn
}
