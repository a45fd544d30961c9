package lower

import (
	"sable/ast"
	"sable/depm"
	"sable/report"
	"sable/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// lowerStmt lowers a single statement into the current block, shaping
// control flow as needed.
func (l *Lowerer) lowerStmt(stmt ast.Stmt) {
	switch v := stmt.(type) {
	case *ast.BlockStmt:
		l.stack.Push()
		defer l.stack.Pop()

		for _, s := range v.Stmts {
			l.lowerStmt(s)
		}
	case *ast.VarDecl:
		l.lowerVarDecl(v)
	case *ast.ReturnStmt:
		l.lowerReturn(v)
	case *ast.IfStmt:
		l.lowerIf(v)
	case *ast.WhileStmt:
		l.lowerLoop(v.Cond, []ast.Stmt{v.Body}, nil)
	case *ast.ForStmt:
		l.lowerFor(v)
	case *ast.ExprStmt:
		op := l.lowerExpr(v.Expr, nil)
		if op.Class != nil {
			report.Raise(report.MisuseOfClass, v.Span(),
				"class `%s` used where a value is required", op.Class.Name)
		}
	case *ast.BreakStmt:
		if len(l.loopExits) == 0 {
			report.ICE("break used outside of a loop")
		}

		l.cur().NewBr(l.loopExits[len(l.loopExits)-1])
	default:
		report.ICE("unknown statement node: %T", stmt)
	}
}

// lowerVarDecl lowers a local variable declaration.  Locals are pure SSA
// values: declarations never allocate stack memory.
func (l *Lowerer) lowerVarDecl(vd *ast.VarDecl) {
	tp := l.resolveType(vd.Type)

	var val value.Value
	if vd.Initializer == nil {
		val = l.defaultValue(tp, vd)
	} else {
		val = l.lowerValue(vd.Initializer, tp).Val
	}

	l.bind(vd.Name, tp, val)
}

// defaultValue returns the value a declaration without an initializer is
// bound to.
func (l *Lowerer) defaultValue(tp typing.DataType, vd *ast.VarDecl) value.Value {
	switch v := tp.(type) {
	case typing.PrimType:
		switch v {
		case typing.PrimInt:
			return constant.NewInt(types.I32, 0)
		case typing.PrimBool:
			return constant.False
		case typing.PrimFloat:
			return constant.NewFloat(types.Double, 0)
		}
	case typing.ClassType, *typing.FuncType:
		return constant.NewNull(l.convType(tp).(*types.PointerType))
	}

	report.Raise(report.Unsupported, vd.Span(),
		"variable `%s` of type `%s` requires an initializer", vd.Name, tp.Repr())
	return nil
}

// lowerReturn lowers a return statement, threading the function's
// return-type hint: the first return of a function whose return type is not
// yet known decides it.
func (l *Lowerer) lowerReturn(ret *ast.ReturnStmt) {
	if ret.Expr == nil {
		if l.retType != nil && !typing.IsVoid(l.retType) {
			report.Raise(report.WrongReturnType, ret.Span(),
				"expected a return value of type `%s`", l.retType.Repr())
		}

		l.cur().NewRet(nil)
		l.retType = typing.PrimVoid
		return
	}

	op := l.lowerValue(ret.Expr, l.retType)

	if typing.IsVoid(op.Typ) {
		l.cur().NewRet(nil)
	} else {
		l.cur().NewRet(op.Val)
	}

	l.retType = op.Typ
}

// lowerIf lowers an if statement.  Each branch runs in its own scope and
// falls through to a common end block.
func (l *Lowerer) lowerIf(ifStmt *ast.IfStmt) {
	condBlock := l.cur()
	cond := l.lowerValue(ifStmt.Cond, typing.PrimBool)
	condBlock = l.block

	endBlock := l.detachedBlock()

	l.stack.Push()
	thenEntry := l.newBlock()
	l.lowerStmt(ifStmt.Then)
	if l.block.Term == nil {
		l.block.NewBr(endBlock)
	}
	l.stack.Pop()

	elseEntry := endBlock
	if ifStmt.Else != nil {
		l.stack.Push()
		elseEntry = l.newBlock()
		l.lowerStmt(ifStmt.Else)
		if l.block.Term == nil {
			l.block.NewBr(endBlock)
		}
		l.stack.Pop()
	}

	condBlock.NewCondBr(cond.Val, thenEntry, elseEntry)

	l.attachBlock(endBlock)
}

// lowerFor lowers a C-style for loop by desugaring it to a while loop with
// the iterator appended at the end of the body.  The block holding the
// initializer becomes the loop's start block so that control enters the
// loop test without an intervening branch.
func (l *Lowerer) lowerFor(forStmt *ast.ForStmt) {
	if forStmt.Init != nil {
		l.lowerStmt(forStmt.Init)
	}

	start := l.cur()

	body := []ast.Stmt{forStmt.Body}
	if forStmt.Iter != nil {
		body = append(body, &ast.ExprStmt{
			ASTBase: ast.NewASTBaseOn(forStmt.Iter.Span()),
			Expr:    forStmt.Iter,
		})
	}

	l.lowerLoop(forStmt.Cond, body, start)
}

// lowerLoop lowers a while loop, building the loop's phi nodes.  `cond` may
// be nil, in which case the loop condition defaults to true.  `start` is
// the pre-allocated start block inherited from a for initializer, or nil to
// allocate one fresh.
//
// The set of names assigned anywhere in the condition or body is discovered
// syntactically up front.  Each such name currently bound as a variable is
// rebound to a fresh phi joining its pre-entry value (from the start block)
// with its end-of-body value (from the body's tail block).  This is
// conservative: a name may receive a phi it never rereads, but every
// written variable carries a fresh SSA name on every iteration path.
func (l *Lowerer) lowerLoop(cond ast.Expr, body []ast.Stmt, start *ir.Block) {
	if start == nil {
		prev := l.cur()
		start = l.detachedBlock()
		prev.NewBr(start)
		l.attachBlock(start)
	}

	testBlock := l.detachedBlock()
	endBlock := l.detachedBlock()

	writes := writeSet(cond, body)

	snap := l.stack.Snapshot()

	type loopPhi struct {
		name     string
		internal string
		tp       typing.DataType
		phi      *ir.InstPhi
	}

	var phis []loopPhi
	for _, name := range writes {
		sym, ok := l.stack.Lookup(name)
		if !ok {
			continue
		}

		vr, ok := sym.Ref.(*depm.VarRef)
		if !ok {
			// addressed slots store through their address: no phi needed
			continue
		}

		phi := ir.NewPhi(ir.NewIncoming(vr.Val, start))
		phi.Typ = l.convType(vr.VarType)

		l.bind(name, vr.VarType, phi)
		internal, _ := l.stack.Lookup(name)

		phis = append(phis, loopPhi{
			name:     name,
			internal: internal.InternalName,
			tp:       vr.VarType,
			phi:      phi,
		})
	}

	start.NewBr(testBlock)

	bodyEntry := l.newBlock()

	l.loopExits = append(l.loopExits, endBlock)
	for _, s := range body {
		l.lowerStmt(s)
	}
	l.loopExits = l.loopExits[:len(l.loopExits)-1]

	tail := l.block
	if tail == nil || tail.Term != nil {
		tail = l.newBlock()
	}
	tail.NewBr(testBlock)

	// back edges: the end-of-body binding of each written name flows into
	// its phi from the body's tail block
	diff := l.stack.Diff(snap)
	for _, lp := range phis {
		post := value.Value(lp.phi)
		if change, ok := diff[lp.name]; ok {
			if vr, ok := change.New.(*depm.VarRef); ok {
				post = vr.Val
			}
		}

		lp.phi.Incs = append(lp.phi.Incs, ir.NewIncoming(post, tail))
		testBlock.Insts = append(testBlock.Insts, lp.phi)
	}

	// the pre-entry stack comes back, except that the phi bindings live
	// on: their lifetime is the loop body plus the loop exit
	l.stack.Restore(snap)
	for _, lp := range phis {
		l.stack.Put(lp.name, lp.internal, &depm.VarRef{VarType: lp.tp, Val: lp.phi})
	}

	l.attachBlock(testBlock)

	var condVal value.Value
	if cond == nil {
		condVal = constant.True
	} else {
		condVal = l.lowerValue(cond, typing.PrimBool).Val
	}

	l.block.NewCondBr(condVal, bodyEntry, endBlock)

	l.attachBlock(endBlock)
}
