package main

import "sable/ast"

// demoUnit builds the AST of a small demonstration program exercising the
// whole pipeline:
//
//	class Point { int x; int y; }
//
//	int sum(int n) {
//	    int s = 0;
//	    for (int i = 0; i < n; i = i + 1)
//	        s = s + i;
//	    return s;
//	}
//
//	Point origin() { return Point(); }
func demoUnit() []ast.Def {
	intType := &ast.PrimTypeExpr{Kind: ast.PrimInt}

	ident := func(name string) *ast.Identifier {
		return &ast.Identifier{Id: ast.ConstId{Path: []string{name}}}
	}

	sum := &ast.FuncDef{
		Name:       "sum",
		ReturnType: intType,
		Args:       []ast.FuncArg{{Name: "n", Type: intType}},
		Body: []ast.Stmt{
			&ast.VarDecl{Name: "s", Type: intType, Initializer: &ast.IntLit{Value: 0}},
			&ast.ForStmt{
				Init: &ast.VarDecl{Name: "i", Type: intType, Initializer: &ast.IntLit{Value: 0}},
				Cond: &ast.BinaryExpr{Oper: ast.BinLess, Lhs: ident("i"), Rhs: ident("n")},
				Iter: &ast.AssignExpr{
					Lhs: ident("i"),
					Rhs: &ast.BinaryExpr{Oper: ast.BinPlus, Lhs: ident("i"), Rhs: &ast.IntLit{Value: 1}},
				},
				Body: &ast.ExprStmt{
					Expr: &ast.AssignExpr{
						Lhs: ident("s"),
						Rhs: &ast.BinaryExpr{Oper: ast.BinPlus, Lhs: ident("s"), Rhs: ident("i")},
					},
				},
			},
			&ast.ReturnStmt{Expr: ident("s")},
		},
	}

	point := &ast.ClassDef{
		Name: "Point",
		Body: []ast.Def{
			&ast.VarDef{Type: intType, VarNames: []string{"x", "y"}},
		},
	}

	origin := &ast.FuncDef{
		Name:       "origin",
		ReturnType: &ast.NamedTypeExpr{Name: "Point"},
		Body: []ast.Stmt{
			&ast.ReturnStmt{Expr: &ast.CallExpr{Fn: ident("Point")}},
		},
	}

	return []ast.Def{point, sum, origin}
}
