package lower

import "sable/ast"

// writeSet computes the set of names that appear as assignment targets
// anywhere in a loop's condition or body, in first-write order.  The
// traversal is purely syntactic: it descends through nested statements and
// sub-expressions but not into lambda bodies, which are lifted and never
// touch enclosing bindings.
func writeSet(cond ast.Expr, body []ast.Stmt) []string {
	w := &writeCollector{seen: make(map[string]struct{})}

	w.visitExpr(cond)
	for _, stmt := range body {
		w.visitStmt(stmt)
	}

	return w.names
}

type writeCollector struct {
	names []string
	seen  map[string]struct{}
}

func (w *writeCollector) add(name string) {
	if _, ok := w.seen[name]; ok {
		return
	}

	w.seen[name] = struct{}{}
	w.names = append(w.names, name)
}

func (w *writeCollector) visitStmt(stmt ast.Stmt) {
	switch v := stmt.(type) {
	case *ast.BlockStmt:
		for _, s := range v.Stmts {
			w.visitStmt(s)
		}
	case *ast.VarDecl:
		w.visitExpr(v.Initializer)
	case *ast.ReturnStmt:
		w.visitExpr(v.Expr)
	case *ast.IfStmt:
		w.visitExpr(v.Cond)
		w.visitStmt(v.Then)
		if v.Else != nil {
			w.visitStmt(v.Else)
		}
	case *ast.WhileStmt:
		w.visitExpr(v.Cond)
		w.visitStmt(v.Body)
	case *ast.ForStmt:
		if v.Init != nil {
			w.visitStmt(v.Init)
		}
		w.visitExpr(v.Cond)
		w.visitExpr(v.Iter)
		w.visitStmt(v.Body)
	case *ast.ExprStmt:
		w.visitExpr(v.Expr)
	}
}

func (w *writeCollector) visitExpr(expr ast.Expr) {
	switch v := expr.(type) {
	case nil:
		return
	case *ast.AssignExpr:
		if id, ok := v.Lhs.(*ast.Identifier); ok {
			w.add(id.Name())
		}

		w.visitExpr(v.Rhs)
	case *ast.BinaryExpr:
		w.visitExpr(v.Lhs)
		w.visitExpr(v.Rhs)
	case *ast.CallExpr:
		w.visitExpr(v.Fn)
		for _, arg := range v.Args {
			w.visitExpr(arg)
		}
	case *ast.IndexExpr:
		w.visitExpr(v.Lhs)
		w.visitExpr(v.Rhs)
	}
}
