package resolve

import (
	"sable/ast"
	"sable/depm"
	"sable/report"
	"sable/typing"
)

// Resolver walks the top-level definition list to produce the top-level
// scope and the class table.  It is the only pass that tolerates self- and
// mutual reference between classes: every class name is bound before any
// class body is descended into.  Errors accumulate; the resolver never
// short-circuits.
type Resolver struct {
	stack *depm.Stack
	table *depm.ClassTable
	rep   *report.Reporter
}

// Resolve resolves a list of top-level definitions.  It returns the
// top-level scope and the class table, or a non-empty list of diagnostics.
func Resolve(defs []ast.Def) (*depm.Scope, *depm.ClassTable, []*report.Diagnostic) {
	r := &Resolver{
		stack: depm.NewStack(),
		table: depm.NewClassTable(),
		rep:   report.NewReporter(),
	}

	scope := r.resolveDefs(defs)

	if r.rep.AnyErrors() {
		return nil, nil, r.rep.Diagnostics()
	}

	return scope, r.table, nil
}

// resolveDefs resolves a definition list into a scope.  The returned scope
// is pushed onto the ambient stack while class bodies are resolved so that
// classes can refer to themselves and to their siblings by name.  The walk
// runs in two phases: first every definition is declared, then class bodies
// are resolved with all class names already bound.
func (r *Resolver) resolveDefs(defs []ast.Def) *depm.Scope {
	scope := depm.NewScope()

	// Phase one: declare every definition.  Class IDs are allocated here,
	// before any body is visited.
	var classes []*depm.Class
	for _, def := range defs {
		switch v := def.(type) {
		case *ast.ClassDef:
			cls := r.table.Declare(v.Name)
			classes = append(classes, cls)
			scope.Define(&depm.Symbol{
				Name:         v.Name,
				InternalName: cls.InternalName,
				Ref:          &depm.ClassRef{Class: cls},
			})
		case *ast.ImportDef:
			// imports are recognised but contribute nothing: there is no
			// cross-unit linking in this core
		}
	}

	// Declaring variables and functions needs the class bindings above to
	// resolve their type labels, so it runs under the new scope as well.
	r.stack.Add(scope)
	defer r.stack.Pop()

	for _, def := range defs {
		switch v := def.(type) {
		case *ast.VarDef:
			tp := r.resolveType(v.Type)
			if tp == nil {
				continue
			}

			for _, name := range v.VarNames {
				scope.Define(&depm.Symbol{
					Name:         name,
					InternalName: name,
					Ref:          &depm.PtrRef{ElemType: tp},
				})
			}
		case *ast.FuncDef:
			sig := r.resolveSignature(v)
			if sig == nil {
				continue
			}

			scope.Define(&depm.Symbol{
				Name:         v.Name,
				InternalName: v.Name,
				Ref:          &depm.FuncRef{Sig: sig},
			})
		}
	}

	// Phase two: resolve class bodies into member scopes.  Every class name
	// is already bound, so members may freely refer to this class and to
	// its siblings.
	n := 0
	for _, def := range defs {
		if v, ok := def.(*ast.ClassDef); ok {
			cls := classes[n]
			n++

			cls.CtorParams = make([]typing.DataType, len(v.Args))
			for i, arg := range v.Args {
				cls.CtorParams[i] = r.resolveType(arg.Type)
			}

			cls.Members = r.resolveDefs(v.Body)
		}
	}

	return scope
}

// resolveSignature resolves a function definition's type signature.  It
// returns nil if any part of the signature fails to resolve.
func (r *Resolver) resolveSignature(fd *ast.FuncDef) *typing.FuncType {
	rtType := r.resolveType(fd.ReturnType)

	params := make([]typing.DataType, len(fd.Args))
	for i, arg := range fd.Args {
		params[i] = r.resolveType(arg.Type)
	}

	if rtType == nil {
		return nil
	}

	for _, param := range params {
		if param == nil {
			return nil
		}
	}

	return &typing.FuncType{Params: params, ReturnType: rtType}
}

// resolveType resolves a type label on the ambient stack, reporting any
// failure.  It returns nil on failure so the walk can continue.
func (r *Resolver) resolveType(texpr ast.TypeExpr) typing.DataType {
	tp, diag := ResolveType(r.stack, texpr)
	if diag != nil {
		r.rep.Report(diag)
		return nil
	}

	return tp
}

// -----------------------------------------------------------------------------

// ResolveType resolves a type label against a lexical stack.  Primitive
// labels map directly; named labels must be bound to a class on the stack.
func ResolveType(stack *depm.Stack, texpr ast.TypeExpr) (typing.DataType, *report.Diagnostic) {
	switch v := texpr.(type) {
	case *ast.PrimTypeExpr:
		switch v.Kind {
		case ast.PrimInt:
			return typing.PrimInt, nil
		case ast.PrimBool:
			return typing.PrimBool, nil
		case ast.PrimFloat:
			return typing.PrimFloat, nil
		default:
			// ast.PrimVoid
			return typing.PrimVoid, nil
		}
	case *ast.NamedTypeExpr:
		sym, ok := stack.Lookup(v.Name)
		if !ok {
			return nil, report.Errorf(report.LookupFailure, v.Span(),
				"undefined symbol: `%s`", v.Name)
		}

		cref, ok := sym.Ref.(*depm.ClassRef)
		if !ok {
			return nil, report.Errorf(report.NotAClass, v.Span(),
				"`%s` is not a class", v.Name)
		}

		return typing.ClassType{ID: cref.Class.ID, Name: cref.Class.Name}, nil
	case *ast.FuncTypeExpr:
		rtType, diag := ResolveType(stack, v.ReturnType)
		if diag != nil {
			return nil, diag
		}

		params := make([]typing.DataType, len(v.Params))
		for i, param := range v.Params {
			tp, diag := ResolveType(stack, param)
			if diag != nil {
				return nil, diag
			}

			params[i] = tp
		}

		return &typing.FuncType{Params: params, ReturnType: rtType}, nil
	}

	report.ICE("unknown type label: %T", texpr)
	return nil, nil
}
