package inference

import (
	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/token"
	"github.com/funvibe/classinfer/internal/typesystem"
	"github.com/samber/lo"
)

func (in *Inferer) visitIdentifier(id *ast.Identifier) {
	if id.Referenced != nil {
		in.setType(id, in.typeOfDeclaration(id.Location(), id.Referenced))
		return
	}
	switch in.context {
	case Type:
		// A free type variable name.
		in.setType(id, in.fresh())
	default:
		in.reporter.FatalTypeError(diagnostics.ErrF004, id.Location(), "Unresolved identifier "+id.Name+".")
	}
}

func (in *Inferer) visitIdentifierPath(p *ast.IdentifierPath) {
	if p.Referenced == nil {
		in.reporter.FatalTypeError(diagnostics.ErrF004, p.Location(), "Unresolved identifier path.")
	}
	in.setType(p, in.typeOfDeclaration(p.Location(), p.Referenced))
}

func (in *Inferer) visitBinaryOperation(op *ast.BinaryOperation) {
	switch in.context {
	case Term:
		info, ok := in.registry.Operator(op.Operator)
		if !ok {
			in.reporter.TypeError(diagnostics.ErrT007, op.Location(), "Binary operation in term context not yet supported.")
			in.setType(op, in.fresh())
			return
		}
		generic, ok := in.ts.TypeClassFunction(info.Class, info.Member)
		if !ok {
			in.reporter.Unreachable(op.Location(), "operator class has no member "+info.Member)
		}
		in.visit(op.Left)
		in.visit(op.Right)
		argTuple := in.ts.TupleType([]typesystem.Type{in.getType(op.Left), in.getType(op.Right)})
		call := typesystem.FunctionType(argTuple, in.fresh())
		in.unify(in.env.Fresh(generic), call, op.Location())
		_, result, _ := in.env.DestFunctionType(call)
		in.setType(op, in.env.Resolve(result))
	case Type:
		switch op.Operator {
		case token.Colon:
			in.visit(op.Left)
			in.withContext(Sort, func() { in.visit(op.Right) })
			left := in.getType(op.Left)
			in.unify(left, in.getType(op.Right), op.Location())
			in.setType(op, left)
		case token.RightArrow:
			in.visit(op.Left)
			in.visit(op.Right)
			in.setType(op, typesystem.FunctionType(in.getType(op.Left), in.getType(op.Right)))
		default:
			in.reporter.TypeError(diagnostics.ErrT001, op.Location(), "Invalid binary operations in type context.")
			in.setType(op, in.fresh())
		}
	case Sort:
		in.reporter.TypeError(diagnostics.ErrT001, op.Location(), "Invalid binary operation in sort context.")
		in.setType(op, in.fresh())
	}
}

func (in *Inferer) visitTupleExpression(tuple *ast.TupleExpression) {
	components := lo.Map(tuple.Components, func(e ast.Expression, _ int) typesystem.Type {
		in.visit(e)
		return in.getType(e)
	})
	switch in.context {
	case Term, Type:
		in.setType(tuple, in.ts.TupleType(components))
	case Sort:
		t := in.fresh()
		for _, c := range components {
			in.unify(t, c, tuple.Location())
		}
		in.setType(tuple, t)
	}
}

func (in *Inferer) visitFunctionCall(call *ast.FunctionCall) {
	in.visit(call.Expression)
	for _, arg := range call.Arguments {
		in.visit(arg)
	}
	if in.context == Sort {
		in.reporter.TypeError(diagnostics.ErrT001, call.Location(), "Function call in sort context.")
		in.setType(call, in.fresh())
		return
	}

	functionType := in.getType(call.Expression)
	argTuple := in.ts.TupleType(lo.Map(call.Arguments, func(e ast.Expression, _ int) typesystem.Type { return in.getType(e) }))
	if in.context == Term {
		generic := typesystem.FunctionType(argTuple, in.fresh())
		in.unify(functionType, generic, call.Location())
		_, result, _ := in.env.DestFunctionType(generic)
		in.setType(call, in.env.Resolve(result))
		return
	}
	generic := typesystem.TypeFunctionType(argTuple, in.ts.FreshKindVariable(typesystem.Sort{}))
	in.unify(functionType, generic, call.Location())
	_, result, _ := in.env.DestTypeFunctionType(generic)
	in.setType(call, in.env.Resolve(result))
}

func (in *Inferer) visitMemberAccess(m *ast.MemberAccess) {
	if in.context != Term {
		in.reporter.TypeError(diagnostics.ErrT001, m.Location(), "Member access outside term context.")
		in.setType(m, in.fresh())
		return
	}
	in.visit(m.Expression)
	ctor, _, ok := in.env.DestTypeConstant(in.getType(m.Expression))
	if !ok {
		in.reporter.TypeError(diagnostics.ErrT006, m.Expression.Location(), "Unsupported member access expression.")
		in.setType(m, in.fresh())
		return
	}
	member, ok := in.global.Members[ctor][m.MemberName]
	if !ok {
		in.reporter.TypeError(diagnostics.ErrT006, m.MemberLocation, "Member not found.")
		in.setType(m, in.fresh())
		return
	}
	in.setType(m, in.env.Fresh(member.Type))
}

func (in *Inferer) visitAssignment(a *ast.Assignment) {
	in.visit(a.LeftHandSide)
	in.visit(a.RightHandSide)
	if in.context != Term {
		in.reporter.TypeError(diagnostics.ErrT001, a.Location(), "Assignment outside term context.")
		in.setType(a, in.fresh())
		return
	}
	left := in.getType(a.LeftHandSide)
	in.unify(left, in.getType(a.RightHandSide), a.Location())
	in.setType(a, in.env.Resolve(left))
}

func (in *Inferer) visitElementaryTypeName(e *ast.ElementaryTypeNameExpression) {
	if in.context != Type {
		in.reporter.TypeError(diagnostics.ErrT001, e.Location(), "Elementary type name expression only supported in type context.")
		in.setType(e, in.fresh())
		return
	}
	ctor, ok := in.registry.ConstructorOf(e)
	if !ok {
		in.reporter.TypeError(diagnostics.ErrT014, e.Location(), "No type constructor registered for elementary type name.")
		in.setType(e, in.fresh())
		return
	}
	n := in.ts.ConstructorInfo(ctor).Arguments
	arguments := make([]typesystem.Type, n)
	for i := range arguments {
		arguments[i] = in.fresh()
	}
	if n == 0 {
		in.setType(e, in.ts.Type(ctor, nil))
		return
	}
	in.setType(e, typesystem.TypeFunctionType(in.ts.TupleType(arguments), in.ts.Type(ctor, arguments)))
}
