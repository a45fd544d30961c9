package lower

import (
	"strings"
	"testing"

	"sable/ast"
	"sable/report"
	"sable/resolve"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

var intType = &ast.PrimTypeExpr{Kind: ast.PrimInt}
var boolType = &ast.PrimTypeExpr{Kind: ast.PrimBool}
var voidType = &ast.PrimTypeExpr{Kind: ast.PrimVoid}

func ident(name string) *ast.Identifier {
	return &ast.Identifier{Id: ast.ConstId{Path: []string{name}}}
}

func compile(t *testing.T, defs []ast.Def) *ir.Module {
	t.Helper()

	scope, table, errs := resolve.Resolve(defs)
	if errs != nil {
		t.Fatalf("resolution failed: %v", errs)
	}

	mod, errs := Compile(defs, scope, table)
	if errs != nil {
		t.Fatalf("lowering failed: %v", errs)
	}

	return mod
}

func compileErr(t *testing.T, defs []ast.Def) []*report.Diagnostic {
	t.Helper()

	scope, table, errs := resolve.Resolve(defs)
	if errs != nil {
		t.Fatalf("resolution failed: %v", errs)
	}

	mod, errs := Compile(defs, scope, table)
	if errs == nil {
		t.Fatalf("expected lowering to fail, got module:\n%s", mod.String())
	}

	return errs
}

func findFunc(t *testing.T, mod *ir.Module, name string) *ir.Func {
	t.Helper()

	for _, fn := range mod.Funcs {
		if fn.Name() == name {
			return fn
		}
	}

	t.Fatalf("function `%s` not found in module", name)
	return nil
}

// -----------------------------------------------------------------------------

func TestIdentityFunction(t *testing.T) {
	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "id",
			ReturnType: intType,
			Args:       []ast.FuncArg{{Name: "x", Type: intType}},
			Body:       []ast.Stmt{&ast.ReturnStmt{Expr: ident("x")}},
		},
	}

	mod := compile(t, defs)
	fn := findFunc(t, mod, "id")

	if fn.GC != "shadow-stack" {
		t.Fatalf("top-level functions must carry the shadow-stack collector tag")
	}
	if len(fn.Blocks) != 1 {
		t.Fatalf("expected a single block, got %d", len(fn.Blocks))
	}

	ret, ok := fn.Blocks[0].Term.(*ir.TermRet)
	if !ok {
		t.Fatalf("expected a return terminator, got %T", fn.Blocks[0].Term)
	}
	if ret.X != fn.Params[0] {
		t.Fatalf("expected the function to return its sole argument")
	}
}

func TestAdditionWithLocalStaysInRegisters(t *testing.T) {
	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "f",
			ReturnType: intType,
			Args:       []ast.FuncArg{{Name: "a", Type: intType}, {Name: "b", Type: intType}},
			Body: []ast.Stmt{
				&ast.VarDecl{Name: "c", Type: intType, Initializer: &ast.BinaryExpr{
					Oper: ast.BinPlus, Lhs: ident("a"), Rhs: ident("b"),
				}},
				&ast.ReturnStmt{Expr: ident("c")},
			},
		},
	}

	mod := compile(t, defs)
	fn := findFunc(t, mod, "f")

	var add *ir.InstAdd
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			switch v := inst.(type) {
			case *ir.InstAdd:
				if add != nil {
					t.Fatalf("expected exactly one addition")
				}
				add = v
			case *ir.InstLoad, *ir.InstStore, *ir.InstAlloca:
				t.Fatalf("locals must be pure SSA values, found %T", inst)
			}
		}
	}
	if add == nil {
		t.Fatalf("expected an addition instruction")
	}

	ret := fn.Blocks[len(fn.Blocks)-1].Term.(*ir.TermRet)
	if ret.X != add {
		t.Fatalf("expected the addition's result to be returned")
	}
}

func sumLoopDefs() []ast.Def {
	return []ast.Def{
		&ast.FuncDef{
			Name:       "sum",
			ReturnType: intType,
			Args:       []ast.FuncArg{{Name: "n", Type: intType}},
			Body: []ast.Stmt{
				&ast.VarDecl{Name: "s", Type: intType, Initializer: &ast.IntLit{Value: 0}},
				&ast.ForStmt{
					Init: &ast.VarDecl{Name: "i", Type: intType, Initializer: &ast.IntLit{Value: 0}},
					Cond: &ast.BinaryExpr{Oper: ast.BinLess, Lhs: ident("i"), Rhs: ident("n")},
					Iter: &ast.AssignExpr{Lhs: ident("i"), Rhs: &ast.BinaryExpr{
						Oper: ast.BinPlus, Lhs: ident("i"), Rhs: &ast.IntLit{Value: 1},
					}},
					Body: &ast.ExprStmt{Expr: &ast.AssignExpr{Lhs: ident("s"), Rhs: &ast.BinaryExpr{
						Oper: ast.BinPlus, Lhs: ident("s"), Rhs: ident("i"),
					}}},
				},
				&ast.ReturnStmt{Expr: ident("s")},
			},
		},
	}
}

func TestLoopAccumulatorBuildsPhis(t *testing.T) {
	mod := compile(t, sumLoopDefs())
	fn := findFunc(t, mod, "sum")

	var testBlock *ir.Block
	var condBr *ir.TermCondBr
	for _, block := range fn.Blocks {
		if br, ok := block.Term.(*ir.TermCondBr); ok {
			testBlock, condBr = block, br
		}
	}
	if testBlock == nil {
		t.Fatalf("expected a loop test block ending in a conditional branch")
	}

	var phis []*ir.InstPhi
	for _, inst := range testBlock.Insts {
		if phi, ok := inst.(*ir.InstPhi); ok {
			phis = append(phis, phi)
		}
	}
	if len(phis) != 2 {
		t.Fatalf("expected phis for `s` and `i`, got %d", len(phis))
	}

	start := fn.Blocks[0]
	for _, phi := range phis {
		if len(phi.Incs) != 2 {
			t.Fatalf("every loop phi has exactly two incoming edges, got %d", len(phi.Incs))
		}
		if phi.Incs[0].Pred != start {
			t.Fatalf("the first incoming edge must come from the start block")
		}

		pre, ok := phi.Incs[0].X.(*constant.Int)
		if !ok || pre.X.Int64() != 0 {
			t.Fatalf("expected the pre-entry value 0, got %v", phi.Incs[0].X)
		}
		if _, ok := phi.Incs[1].X.(*ir.InstAdd); !ok {
			t.Fatalf("expected the back-edge value to be the body's addition")
		}

		tail, ok := phi.Incs[1].Pred.(*ir.Block)
		if !ok {
			t.Fatalf("expected a block predecessor")
		}
		if br, ok := tail.Term.(*ir.TermBr); !ok || br.Target != testBlock {
			t.Fatalf("the back edge must come from the body's tail block")
		}
	}

	if _, ok := condBr.Cond.(*ir.InstICmp); !ok {
		t.Fatalf("expected the loop condition to be a signed compare")
	}

	// the loop exit returns the phi of `s`
	ret, ok := fn.Blocks[len(fn.Blocks)-1].Term.(*ir.TermRet)
	if !ok {
		t.Fatalf("expected the exit block to return")
	}
	if _, ok := ret.X.(*ir.InstPhi); !ok {
		t.Fatalf("code after the loop must read the phi value, got %T", ret.X)
	}
}

func TestClassConstruction(t *testing.T) {
	defs := []ast.Def{
		&ast.ClassDef{Name: "Point", Body: []ast.Def{
			&ast.VarDef{Type: intType, VarNames: []string{"x"}},
		}},
		&ast.FuncDef{
			Name:       "make",
			ReturnType: &ast.NamedTypeExpr{Name: "Point"},
			Body: []ast.Stmt{
				&ast.ReturnStmt{Expr: &ast.CallExpr{Fn: ident("Point")}},
			},
		},
	}

	mod := compile(t, defs)

	if len(mod.TypeDefs) != 1 {
		t.Fatalf("expected one class alias, got %d", len(mod.TypeDefs))
	}
	alias, ok := mod.TypeDefs[0].(*types.StructType)
	if !ok {
		t.Fatalf("expected a structure alias, got %T", mod.TypeDefs[0])
	}
	if alias.Name() != "Point" {
		t.Fatalf("expected the alias to carry the class's internal name")
	}
	if len(alias.Fields) != 1 {
		t.Fatalf("expected one field, got %d", len(alias.Fields))
	}
	field, ok := alias.Fields[0].(*types.PointerType)
	if !ok || !field.ElemType.Equal(types.I32) {
		t.Fatalf("expected the field layout `{ i32* }`, got %v", alias.Fields[0])
	}

	// malloc is declared and precedes its callers
	if mod.Funcs[0].Name() != "malloc" {
		t.Fatalf("expected the malloc declaration first, got %s", mod.Funcs[0].Name())
	}

	fn := findFunc(t, mod, "make")
	body := fn.Blocks[0]

	var call *ir.InstCall
	var cast *ir.InstBitCast
	for _, inst := range body.Insts {
		switch v := inst.(type) {
		case *ir.InstCall:
			call = v
		case *ir.InstBitCast:
			cast = v
		}
	}
	if call == nil || call.Callee != mod.Funcs[0] {
		t.Fatalf("expected construction to call malloc")
	}
	if cast == nil {
		t.Fatalf("expected the allocation to be cast to the class alias")
	}

	ret := body.Term.(*ir.TermRet)
	if ret.X != cast {
		t.Fatalf("expected the typed pointer to be returned")
	}
}

func TestConstructorArguments(t *testing.T) {
	pointClass := func() *ast.ClassDef {
		return &ast.ClassDef{
			Name: "Point",
			Args: []ast.FuncArg{{Name: "x", Type: intType}, {Name: "y", Type: intType}},
			Body: []ast.Def{
				&ast.VarDef{Type: intType, VarNames: []string{"x", "y"}},
			},
		}
	}

	makeFn := func(args ...ast.Expr) *ast.FuncDef {
		return &ast.FuncDef{
			Name:       "make",
			ReturnType: &ast.NamedTypeExpr{Name: "Point"},
			Args:       []ast.FuncArg{{Name: "a", Type: intType}},
			Body: []ast.Stmt{
				&ast.ReturnStmt{Expr: &ast.CallExpr{Fn: ident("Point"), Args: args}},
			},
		}
	}

	// arity is checked against the class's declared constructor parameters
	errs := compileErr(t, []ast.Def{pointClass(), makeFn(&ast.IntLit{Value: 1})})
	if len(errs) != 1 || errs[0].Kind != report.WrongNumberOfArguments {
		t.Fatalf("expected an arity error, got %v", errs)
	}

	// argument expressions are lowered, so bad ones are diagnosed
	errs = compileErr(t, []ast.Def{pointClass(), makeFn(ident("undef"), &ast.IntLit{Value: 2})})
	if len(errs) != 1 || errs[0].Kind != report.LookupFailure {
		t.Fatalf("expected a lookup failure in argument position, got %v", errs)
	}

	// a well-formed constructor call lowers its arguments ahead of the
	// allocation
	mod := compile(t, []ast.Def{pointClass(), makeFn(
		&ast.BinaryExpr{Oper: ast.BinPlus, Lhs: ident("a"), Rhs: &ast.IntLit{Value: 1}},
		&ast.IntLit{Value: 2},
	)})

	fn := findFunc(t, mod, "make")
	body := fn.Blocks[0]

	if _, ok := body.Insts[0].(*ir.InstAdd); !ok {
		t.Fatalf("expected the argument addition to be emitted, got %T", body.Insts[0])
	}

	var sawMalloc bool
	for _, inst := range body.Insts {
		if call, ok := inst.(*ir.InstCall); ok && call.Callee == mod.Funcs[0] {
			sawMalloc = true
		}
	}
	if !sawMalloc {
		t.Fatalf("expected construction to still allocate via malloc")
	}
}

func TestLambdaIsLiftedAndCaptureFree(t *testing.T) {
	lambda := &ast.LambdaExpr{
		Args: []ast.FuncArg{{Name: "a", Type: intType}},
		Body: &ast.ReturnStmt{Expr: &ast.BinaryExpr{
			Oper: ast.BinPlus, Lhs: ident("a"), Rhs: &ast.IntLit{Value: 1},
		}},
	}

	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "g",
			ReturnType: voidType,
			Body: []ast.Stmt{
				&ast.VarDecl{Name: "f", Type: &ast.FuncTypeExpr{
					ReturnType: voidType,
					Params:     []ast.TypeExpr{intType},
				}},
				&ast.ExprStmt{Expr: &ast.AssignExpr{Lhs: ident("f"), Rhs: lambda}},
			},
		},
	}

	mod := compile(t, defs)

	if len(mod.Funcs) != 2 {
		t.Fatalf("expected the lifted lambda plus `g`, got %d functions", len(mod.Funcs))
	}
	if mod.Funcs[0].Name() != "lambda0" {
		t.Fatalf("lifted lambdas must precede top-level functions, got %s first", mod.Funcs[0].Name())
	}

	lifted := mod.Funcs[0]
	if lifted.GC != "" {
		t.Fatalf("lifted lambdas carry no collector tag")
	}

	// the return type was derived from the body
	if !lifted.Sig.RetType.Equal(types.I32) {
		t.Fatalf("expected the lambda's return type to be inferred as i32")
	}

	ret := lifted.Blocks[len(lifted.Blocks)-1].Term.(*ir.TermRet)
	if _, ok := ret.X.(*ir.InstAdd); !ok {
		t.Fatalf("expected the lambda body to return the addition")
	}
}

func TestLambdaDoesNotSeeEnclosingLocals(t *testing.T) {
	lambda := &ast.LambdaExpr{
		Args: []ast.FuncArg{{Name: "a", Type: intType}},
		Body: &ast.ReturnStmt{Expr: ident("x")},
	}

	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "g",
			ReturnType: voidType,
			Body: []ast.Stmt{
				&ast.VarDecl{Name: "x", Type: intType},
				&ast.VarDecl{Name: "f", Type: &ast.FuncTypeExpr{
					ReturnType: voidType,
					Params:     []ast.TypeExpr{intType},
				}},
				&ast.ExprStmt{Expr: &ast.AssignExpr{Lhs: ident("f"), Rhs: lambda}},
			},
		},
	}

	errs := compileErr(t, defs)
	if len(errs) != 1 || errs[0].Kind != report.LookupFailure {
		t.Fatalf("expected a single lookup failure, got %v", errs)
	}
	if !strings.Contains(errs[0].Message, "x") {
		t.Fatalf("expected the failure to name `x`, got %s", errs[0].Message)
	}
}

func TestReturnTypeMismatch(t *testing.T) {
	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "g",
			ReturnType: intType,
			Body: []ast.Stmt{
				&ast.VarDecl{Name: "b", Type: boolType},
				&ast.ReturnStmt{Expr: ident("b")},
			},
		},
	}

	errs := compileErr(t, defs)
	if len(errs) != 1 || errs[0].Kind != report.TypeMismatch {
		t.Fatalf("expected a single type mismatch, got %v", errs)
	}
	if !strings.Contains(errs[0].Message, "int") || !strings.Contains(errs[0].Message, "bool") {
		t.Fatalf("expected the mismatch to name both types, got %s", errs[0].Message)
	}
}

// -----------------------------------------------------------------------------

func TestVoidFunctionImplicitReturn(t *testing.T) {
	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "g",
			ReturnType: voidType,
			Body: []ast.Stmt{
				&ast.VarDecl{Name: "x", Type: intType, Initializer: &ast.IntLit{Value: 1}},
			},
		},
	}

	mod := compile(t, defs)
	fn := findFunc(t, mod, "g")

	last := fn.Blocks[len(fn.Blocks)-1]
	ret, ok := last.Term.(*ir.TermRet)
	if !ok {
		t.Fatalf("a void function falling off the end must return, got %T", last.Term)
	}
	if ret.X != nil {
		t.Fatalf("expected a bare `ret void`, got a value")
	}
}

func TestValueFunctionFallthroughIsUnreachable(t *testing.T) {
	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "g",
			ReturnType: intType,
			Body: []ast.Stmt{
				&ast.IfStmt{
					Cond: &ast.BinaryExpr{Oper: ast.BinLess, Lhs: &ast.IntLit{Value: 0}, Rhs: &ast.IntLit{Value: 1}},
					Then: &ast.ReturnStmt{Expr: &ast.IntLit{Value: 1}},
					Else: &ast.ReturnStmt{Expr: &ast.IntLit{Value: 2}},
				},
			},
		},
	}

	mod := compile(t, defs)
	fn := findFunc(t, mod, "g")

	last := fn.Blocks[len(fn.Blocks)-1]
	if _, ok := last.Term.(*ir.TermUnreachable); !ok {
		t.Fatalf("an unreached block of a value function must be unreachable, got %T", last.Term)
	}
}

func TestBareReturnInValueFunction(t *testing.T) {
	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "g",
			ReturnType: intType,
			Body:       []ast.Stmt{&ast.ReturnStmt{}},
		},
	}

	errs := compileErr(t, defs)
	if len(errs) != 1 || errs[0].Kind != report.WrongReturnType {
		t.Fatalf("expected a wrong-return-type error, got %v", errs)
	}
}

func TestInfiniteForDefaultsToTrue(t *testing.T) {
	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "spin",
			ReturnType: voidType,
			Body: []ast.Stmt{
				&ast.ForStmt{Body: &ast.BreakStmt{}},
			},
		},
	}

	mod := compile(t, defs)
	fn := findFunc(t, mod, "spin")

	var condBr *ir.TermCondBr
	for _, block := range fn.Blocks {
		if br, ok := block.Term.(*ir.TermCondBr); ok {
			condBr = br
		}
	}
	if condBr == nil {
		t.Fatalf("expected a loop test block")
	}

	cond, ok := condBr.Cond.(*constant.Int)
	if !ok || cond.X.Int64() != 1 {
		t.Fatalf("a missing condition must default to true, got %v", condBr.Cond)
	}
}

func TestBreakOutsideLoopIsFatal(t *testing.T) {
	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "g",
			ReturnType: voidType,
			Body:       []ast.Stmt{&ast.BreakStmt{}},
		},
	}

	scope, table, errs := resolve.Resolve(defs)
	if errs != nil {
		t.Fatalf("resolution failed: %v", errs)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("break outside a loop must be a fatal internal error")
		}
	}()

	Compile(defs, scope, table)
}

func TestEveryBlockHasExactlyOneTerminator(t *testing.T) {
	mod := compile(t, sumLoopDefs())

	for _, fn := range mod.Funcs {
		for _, block := range fn.Blocks {
			if block.Term == nil {
				t.Fatalf("block %s of %s has no terminator", block.Name(), fn.Name())
			}
		}
	}
}

func TestLiteralCoercionToFloat(t *testing.T) {
	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "half",
			ReturnType: &ast.PrimTypeExpr{Kind: ast.PrimFloat},
			Body: []ast.Stmt{
				&ast.ReturnStmt{Expr: &ast.IntLit{Value: 2}},
			},
		},
	}

	mod := compile(t, defs)
	fn := findFunc(t, mod, "half")

	ret := fn.Blocks[0].Term.(*ir.TermRet)
	fl, ok := ret.X.(*constant.Float)
	if !ok {
		t.Fatalf("an int literal under a float expectation must become a double, got %T", ret.X)
	}
	if !fl.Typ.Equal(types.Double) {
		t.Fatalf("expected a double constant, got %v", fl.Typ)
	}
}

func TestLiteralOverflowIsReported(t *testing.T) {
	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "big",
			ReturnType: intType,
			Body: []ast.Stmt{
				&ast.ReturnStmt{Expr: &ast.IntLit{Value: 1 << 40}},
			},
		},
	}

	errs := compileErr(t, defs)
	if len(errs) != 1 || errs[0].Kind != report.NumericOverflow {
		t.Fatalf("expected a numeric overflow error, got %v", errs)
	}
}

func TestCallArityAndKindErrors(t *testing.T) {
	arity := []ast.Def{
		&ast.FuncDef{
			Name:       "id",
			ReturnType: intType,
			Args:       []ast.FuncArg{{Name: "x", Type: intType}},
			Body:       []ast.Stmt{&ast.ReturnStmt{Expr: ident("x")}},
		},
		&ast.FuncDef{
			Name:       "g",
			ReturnType: intType,
			Body: []ast.Stmt{
				&ast.ReturnStmt{Expr: &ast.CallExpr{Fn: ident("id")}},
			},
		},
	}

	errs := compileErr(t, arity)
	if len(errs) != 1 || errs[0].Kind != report.WrongNumberOfArguments {
		t.Fatalf("expected an arity error, got %v", errs)
	}

	notFn := []ast.Def{
		&ast.FuncDef{
			Name:       "g",
			ReturnType: intType,
			Body: []ast.Stmt{
				&ast.VarDecl{Name: "x", Type: intType},
				&ast.ReturnStmt{Expr: &ast.CallExpr{Fn: ident("x")}},
			},
		},
	}

	errs = compileErr(t, notFn)
	if len(errs) != 1 || errs[0].Kind != report.NotAFunction {
		t.Fatalf("expected a not-a-function error, got %v", errs)
	}
}

func TestClassValueMisuse(t *testing.T) {
	defs := []ast.Def{
		&ast.ClassDef{Name: "Point"},
		&ast.FuncDef{
			Name:       "g",
			ReturnType: voidType,
			Body: []ast.Stmt{
				&ast.ExprStmt{Expr: ident("Point")},
			},
		},
	}

	errs := compileErr(t, defs)
	if len(errs) != 1 || errs[0].Kind != report.MisuseOfClass {
		t.Fatalf("expected a misuse-of-class error, got %v", errs)
	}
}

func TestIndexExprIsUnsupported(t *testing.T) {
	defs := []ast.Def{
		&ast.FuncDef{
			Name:       "g",
			ReturnType: intType,
			Args:       []ast.FuncArg{{Name: "x", Type: intType}},
			Body: []ast.Stmt{
				&ast.ReturnStmt{Expr: &ast.IndexExpr{Lhs: ident("x"), Rhs: &ast.IntLit{Value: 0}}},
			},
		},
	}

	errs := compileErr(t, defs)
	if len(errs) != 1 || errs[0].Kind != report.Unsupported {
		t.Fatalf("expected an unsupported-construct error, got %v", errs)
	}
}

func TestGlobalVariableReadsLoad(t *testing.T) {
	defs := []ast.Def{
		&ast.VarDef{Type: intType, VarNames: []string{"counter"}},
		&ast.FuncDef{
			Name:       "get",
			ReturnType: intType,
			Body:       []ast.Stmt{&ast.ReturnStmt{Expr: ident("counter")}},
		},
	}

	mod := compile(t, defs)

	if len(mod.Globals) != 1 || mod.Globals[0].Name() != "counter" {
		t.Fatalf("expected a module global for the top-level variable")
	}

	fn := findFunc(t, mod, "get")
	load, ok := fn.Blocks[0].Insts[0].(*ir.InstLoad)
	if !ok {
		t.Fatalf("reads of addressed slots must load, got %T", fn.Blocks[0].Insts[0])
	}
	if load.Src != mod.Globals[0] {
		t.Fatalf("expected the load to read the global")
	}
}

func TestCompileTwiceIsIsomorphic(t *testing.T) {
	mod1 := compile(t, sumLoopDefs())
	mod2 := compile(t, sumLoopDefs())

	if len(mod1.Funcs) != len(mod2.Funcs) {
		t.Fatalf("modules differ in function count")
	}
	for i := range mod1.Funcs {
		if len(mod1.Funcs[i].Blocks) != len(mod2.Funcs[i].Blocks) {
			t.Fatalf("function %s differs in block count", mod1.Funcs[i].Name())
		}
	}
}
