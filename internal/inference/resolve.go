package inference

import (
	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/token"
	"github.com/funvibe/classinfer/internal/typesystem"
)

// typeOfDeclaration types a reference to decl in the current context.
// Variables are monomorphic; every other declaration is instantiated fresh.
func (in *Inferer) typeOfDeclaration(loc token.Location, decl ast.Declaration) typesystem.Type {
	switch in.context {
	case Term:
		switch decl.(type) {
		case *ast.FunctionDefinition, *ast.VariableDeclaration, *ast.TypeClassDefinition, *ast.TypeDefinition:
		default:
			in.unexpectedReference(loc, decl)
		}
		in.visit(decl)
		if _, ok := decl.(*ast.VariableDeclaration); ok {
			return in.getType(decl)
		}
		return in.env.Fresh(in.getType(decl))

	case Type:
		switch decl.(type) {
		case *ast.VariableDeclaration, *ast.TypeDefinition:
		default:
			in.unexpectedReference(loc, decl)
		}
		in.visit(decl)
		if _, ok := decl.(*ast.VariableDeclaration); ok {
			return in.getType(decl)
		}
		return in.env.Fresh(in.getType(decl))

	case Sort:
		class, ok := decl.(*ast.TypeClassDefinition)
		if !ok {
			in.reporter.TypeError(diagnostics.ErrT013, loc, "Expected type class.")
			return in.fresh()
		}
		in.withContext(Term, func() { in.visit(class) })
		tc, ok := in.global.TypeClasses[class.ID()]
		if !ok {
			in.reporter.TypeError(diagnostics.ErrT013, loc, "Unregistered type class.")
			return in.fresh()
		}
		return in.ts.FreshTypeVariable(typesystem.NewSort(tc))
	}
	in.reporter.Unreachable(loc, "expression context "+in.context.String())
	return nil
}

func (in *Inferer) unexpectedReference(loc token.Location, decl ast.Declaration) {
	in.reporter.Fatal(diagnostics.NewError(diagnostics.ErrF004, loc, "Attempt to type identifier referring to unexpected node.").
		WithSecondary(decl.Location(), "Referenced node."))
}
