package lower

import (
	"fmt"

	"sable/ast"
	"sable/depm"
	"sable/report"
	"sable/typing"

	"fortio.org/safecast"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// operand is the outcome of lowering an expression: either an SSA value
// paired with its resolved type, or a class.  A class outcome is only legal
// as the callee of a call expression (constructor syntax); every other
// context raises MisuseOfClass.
type operand struct {
	Val value.Value
	Typ typing.DataType

	// Class is non-nil when the expression denotes a class rather than a
	// value.
	Class *depm.Class
}

// lowerValue lowers an expression that must produce a value.
func (l *Lowerer) lowerValue(expr ast.Expr, expect typing.DataType) operand {
	op := l.lowerExpr(expr, expect)
	if op.Class != nil {
		report.Raise(report.MisuseOfClass, expr.Span(),
			"class `%s` used where a value is required", op.Class.Name)
	}

	return op
}

// lowerExpr lowers an expression.  When an expected type is supplied, the
// produced value is checked against it.
func (l *Lowerer) lowerExpr(expr ast.Expr, expect typing.DataType) operand {
	switch v := expr.(type) {
	case *ast.IntLit:
		return l.lowerIntLit(v, expect)
	case *ast.Identifier:
		return l.lowerIdent(v, expect)
	case *ast.AssignExpr:
		return l.lowerAssign(v, expect)
	case *ast.BinaryExpr:
		return l.lowerBinary(v, expect)
	case *ast.CallExpr:
		return l.lowerCall(v, expect)
	case *ast.LambdaExpr:
		return l.lowerLambda(v, expect)
	case *ast.IndexExpr:
		report.Raise(report.Unsupported, v.Span(), "index expressions have no lowering yet")
	}

	report.ICE("unknown expression node: %T", expr)
	return operand{}
}

// checkType checks a produced type against an expectation.  A `(params) ->
// void` expectation accepts a function of any return type over the same
// parameters so that lambdas whose return type is inferred from their bodies
// can be bound to function-typed slots.
func (l *Lowerer) checkType(span *report.TextSpan, actual, expect typing.DataType) {
	if expect == nil || typing.Equals(actual, expect) {
		return
	}

	if eft, ok := expect.(*typing.FuncType); ok && typing.IsVoid(eft.ReturnType) {
		if aft, ok := actual.(*typing.FuncType); ok && typing.SameParams(aft, eft) {
			return
		}
	}

	report.Raise(report.TypeMismatch, span,
		"expected type `%s` but got `%s`", expect.Repr(), actual.Repr())
}

// -----------------------------------------------------------------------------

// lowerIntLit lowers an integer literal.  Literals coerce by expectation: a
// float expectation turns the literal into a double constant.
func (l *Lowerer) lowerIntLit(lit *ast.IntLit, expect typing.DataType) operand {
	switch {
	case expect == nil || typing.Equals(expect, typing.PrimInt):
		x, err := safecast.Conv[int32](lit.Value)
		if err != nil {
			report.Raise(report.NumericOverflow, lit.Span(),
				"literal `%d` does not fit in 32 bits", lit.Value)
		}

		return operand{Val: constant.NewInt(types.I32, int64(x)), Typ: typing.PrimInt}
	case typing.Equals(expect, typing.PrimFloat):
		return operand{Val: constant.NewFloat(types.Double, float64(lit.Value)), Typ: typing.PrimFloat}
	default:
		report.Raise(report.TypeMismatch, lit.Span(),
			"expected type `%s` but got `int`", expect.Repr())
		return operand{}
	}
}

// lowerIdent lowers an identifier read.
func (l *Lowerer) lowerIdent(id *ast.Identifier, expect typing.DataType) operand {
	sym, ok := l.stack.Lookup(id.Name())
	if !ok {
		report.Raise(report.LookupFailure, id.Span(), "undefined symbol: `%s`", id.Name())
	}

	switch ref := sym.Ref.(type) {
	case *depm.VarRef:
		l.checkType(id.Span(), ref.VarType, expect)
		return operand{Val: ref.Val, Typ: ref.VarType}
	case *depm.PtrRef:
		// addressed slots are loaded on every read
		load := l.cur().NewLoad(l.convType(ref.ElemType), ref.Addr)
		l.checkType(id.Span(), ref.ElemType, expect)
		return operand{Val: load, Typ: ref.ElemType}
	case *depm.FuncRef:
		l.checkType(id.Span(), ref.Sig, expect)
		return operand{Val: ref.Fn, Typ: ref.Sig}
	case *depm.ClassRef:
		return operand{Class: ref.Class}
	default:
		report.ICE("unknown stack reference: %T", ref)
		return operand{}
	}
}

// lowerAssign lowers an assignment expression.  Assignments to variable
// bindings rename: they rebind the name to a fresh SSA value rather than
// storing.  Assignments to addressed slots store through the address.  The
// expression's value is the assigned right-hand side in both cases.
func (l *Lowerer) lowerAssign(as *ast.AssignExpr, expect typing.DataType) operand {
	id, ok := as.Lhs.(*ast.Identifier)
	if !ok {
		report.Raise(report.Unsupported, as.Span(), "only identifiers are assignable")
	}

	sym, ok := l.stack.Lookup(id.Name())
	if !ok {
		report.Raise(report.LookupFailure, id.Span(), "undefined symbol: `%s`", id.Name())
	}

	switch ref := sym.Ref.(type) {
	case *depm.VarRef:
		rhs := l.lowerValue(as.Rhs, ref.VarType)
		l.bind(id.Name(), ref.VarType, rhs.Val)
		l.checkType(as.Span(), ref.VarType, expect)
		return operand{Val: rhs.Val, Typ: ref.VarType}
	case *depm.PtrRef:
		rhs := l.lowerValue(as.Rhs, ref.ElemType)
		l.cur().NewStore(rhs.Val, ref.Addr)
		l.checkType(as.Span(), ref.ElemType, expect)
		return operand{Val: rhs.Val, Typ: ref.ElemType}
	default:
		report.Raise(report.Unsupported, as.Span(), "cannot assign to `%s`", id.Name())
		return operand{}
	}
}

// lowerBinary lowers a binary operator application.  The left operand is
// lowered without expectation; its type becomes the expectation of the right
// operand, enforcing homogeneous operands.
func (l *Lowerer) lowerBinary(bin *ast.BinaryExpr, expect typing.DataType) operand {
	lhs := l.lowerValue(bin.Lhs, nil)
	rhs := l.lowerValue(bin.Rhs, lhs.Typ)

	isFloat := typing.Equals(lhs.Typ, typing.PrimFloat)
	if !isFloat && !typing.Equals(lhs.Typ, typing.PrimInt) {
		report.Raise(report.Unsupported, bin.Span(),
			"operator `%s` is not defined for type `%s`", bin.Oper.Name(), lhs.Typ.Repr())
	}

	b := l.cur()

	if bin.Oper == ast.BinLess {
		var cmp value.Value
		if isFloat {
			cmp = b.NewFCmp(enum.FPredOLT, lhs.Val, rhs.Val)
		} else {
			cmp = b.NewICmp(enum.IPredSLT, lhs.Val, rhs.Val)
		}

		l.checkType(bin.Span(), typing.PrimBool, expect)
		return operand{Val: cmp, Typ: typing.PrimBool}
	}

	var val value.Value
	switch bin.Oper {
	case ast.BinPlus:
		if isFloat {
			val = b.NewFAdd(lhs.Val, rhs.Val)
		} else {
			val = b.NewAdd(lhs.Val, rhs.Val)
		}
	case ast.BinMinus:
		if isFloat {
			val = b.NewFSub(lhs.Val, rhs.Val)
		} else {
			val = b.NewSub(lhs.Val, rhs.Val)
		}
	case ast.BinTimes:
		if isFloat {
			val = b.NewFMul(lhs.Val, rhs.Val)
		} else {
			val = b.NewMul(lhs.Val, rhs.Val)
		}
	default:
		report.ICE("unknown binary operator: %d", bin.Oper)
	}

	l.checkType(bin.Span(), lhs.Typ, expect)
	return operand{Val: val, Typ: lhs.Typ}
}

// lowerCall lowers a call expression.  A class callee is constructor syntax
// and lowers to a heap allocation of the class.
func (l *Lowerer) lowerCall(call *ast.CallExpr, expect typing.DataType) operand {
	callee := l.lowerExpr(call.Fn, nil)

	if callee.Class != nil {
		return l.lowerConstruct(call, callee.Class, expect)
	}

	ft, ok := callee.Typ.(*typing.FuncType)
	if !ok {
		report.Raise(report.NotAFunction, call.Span(),
			"value of type `%s` is not callable", callee.Typ.Repr())
	}

	if len(call.Args) != len(ft.Params) {
		report.Raise(report.WrongNumberOfArguments, call.Span(),
			"call expects %d arguments but got %d", len(ft.Params), len(call.Args))
	}

	args := make([]value.Value, len(call.Args))
	for i, arg := range call.Args {
		args[i] = l.lowerValue(arg, ft.Params[i]).Val
	}

	inst := l.cur().NewCall(callee.Val, args...)
	inst.CallingConv = enum.CallingConvFast

	l.checkType(call.Span(), ft.ReturnType, expect)
	return operand{Val: inst, Typ: ft.ReturnType}
}

// lowerConstruct lowers constructor syntax `T(...)` to a heap allocation of
// the class, returning a typed pointer to the class alias.  The allocation
// size is computed with the usual null-gep idiom.  Arguments are checked
// against the class's declared constructor parameters and lowered for their
// effects; no field initialization is emitted.
func (l *Lowerer) lowerConstruct(call *ast.CallExpr, cls *depm.Class, expect typing.DataType) operand {
	if len(call.Args) != len(cls.CtorParams) {
		report.Raise(report.WrongNumberOfArguments, call.Span(),
			"constructing `%s` expects %d arguments but got %d",
			cls.Name, len(cls.CtorParams), len(call.Args))
	}

	for i, arg := range call.Args {
		l.lowerValue(arg, cls.CtorParams[i])
	}

	ptrType := types.NewPointer(cls.Alias)
	b := l.cur()

	end := b.NewGetElementPtr(cls.Alias, constant.NewNull(ptrType), constant.NewInt(types.I32, 1))
	size := b.NewPtrToInt(end, types.I64)

	raw := b.NewCall(l.malloc(), size)
	obj := b.NewBitCast(raw, ptrType)

	tp := typing.ClassType{ID: cls.ID, Name: cls.Name}
	l.checkType(call.Span(), tp, expect)
	return operand{Val: obj, Typ: tp}
}

// lowerLambda lifts a lambda expression into a standalone function appended
// to the module.  The body is lowered under a shadowed stack so that the
// lambda captures nothing lexically; its return type is derived from the
// body's returns, or void if no return is reached.
func (l *Lowerer) lowerLambda(lam *ast.LambdaExpr, expect typing.DataType) operand {
	name := fmt.Sprintf("lambda%d", l.lambdaCount)
	l.lambdaCount++

	argTypes := make([]typing.DataType, len(lam.Args))
	params := make([]*ir.Param, len(lam.Args))
	for i, arg := range lam.Args {
		argTypes[i] = l.resolveType(arg.Type)
		params[i] = ir.NewParam(arg.Name, l.convType(argTypes[i]))
	}

	// a function-typed expectation contributes its return type as the
	// initial hint; a void return expectation leaves it open
	var retHint typing.DataType
	if eft, ok := expect.(*typing.FuncType); ok && !typing.IsVoid(eft.ReturnType) {
		retHint = eft.ReturnType
	}

	savedBlocks, savedBlock := l.blocks, l.block
	savedExits, savedRet := l.loopExits, l.retType
	l.blocks, l.block, l.loopExits, l.retType = nil, nil, nil, retHint

	l.stack.Shadow(func() {
		l.stack.Push()
		defer l.stack.Pop()

		l.newBlock()

		for i, arg := range lam.Args {
			l.stack.Put(arg.Name, arg.Name, &depm.VarRef{VarType: argTypes[i], Val: params[i]})
		}

		l.lowerStmt(lam.Body)
	})

	// a body that reaches no return is void, whatever the hint said
	reached := false
	for _, b := range l.blocks {
		if _, ok := b.Term.(*ir.TermRet); ok {
			reached = true
		}
	}
	if l.retType == nil || !reached {
		l.retType = typing.PrimVoid
	}
	retType := l.retType

	fn := ir.NewFunc(name, l.convType(retType), params...)
	fn.CallingConv = enum.CallingConvFast
	fn.Linkage = enum.LinkageExternal
	fn.Blocks = l.seal()
	l.lifted = append(l.lifted, fn)

	l.blocks, l.block = savedBlocks, savedBlock
	l.loopExits, l.retType = savedExits, savedRet

	sig := &typing.FuncType{Params: argTypes, ReturnType: retType}
	l.checkType(lam.Span(), sig, expect)
	return operand{Val: fn, Typ: sig}
}
