package inference

import (
	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/config"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/typesystem"
	"github.com/samber/lo"
)

// visit records a type for n. A node that already has a type is not
// visited again, which makes declarations safe to visit on demand.
func (in *Inferer) visit(n ast.Node) {
	if inst, ok := n.(*ast.TypeClassInstantiation); ok && in.active.Insert(inst.ID()) {
		// Active for the whole visit, including a memoized one, so that
		// unification can tell a cycle from a missing instance.
		in.activeOrder = append(in.activeOrder, inst)
		defer func() {
			in.active.Remove(inst.ID())
			in.activeOrder = in.activeOrder[:len(in.activeOrder)-1]
		}()
	}
	if in.annotation(n) != nil {
		return
	}

	switch n := n.(type) {
	case *ast.SourceUnit:
		for _, child := range n.Nodes {
			in.visit(child)
		}
		in.setType(n, in.unitType)
	case *ast.FunctionDefinition:
		in.visitFunctionDefinition(n)
	case *ast.ParameterList:
		in.visitParameterList(n)
	case *ast.VariableDeclaration:
		in.visitVariableDeclaration(n)
	case *ast.Block:
		for _, stmt := range n.Statements {
			in.visit(stmt)
		}
		in.setType(n, in.unitType)
	case *ast.Return:
		in.visitReturn(n)
	case *ast.ExpressionStatement:
		in.visit(n.Expression)
		in.setType(n, in.unitType)
	case *ast.VariableDeclarationStatement:
		in.visitVariableDeclarationStatement(n)
	case *ast.TypeDefinition:
		in.visitTypeDefinition(n)
	case *ast.TypeClassDefinition:
		in.visitTypeClassDefinition(n)
	case *ast.TypeClassInstantiation:
		in.visitTypeClassInstantiation(n)
	case *ast.Identifier:
		in.visitIdentifier(n)
	case *ast.IdentifierPath:
		in.visitIdentifierPath(n)
	case *ast.BinaryOperation:
		in.visitBinaryOperation(n)
	case *ast.TupleExpression:
		in.visitTupleExpression(n)
	case *ast.FunctionCall:
		in.visitFunctionCall(n)
	case *ast.MemberAccess:
		in.visitMemberAccess(n)
	case *ast.Assignment:
		in.visitAssignment(n)
	case *ast.ElementaryTypeNameExpression:
		in.visitElementaryTypeName(n)
	case *ast.Literal:
		in.visitLiteral(n)
	case *ast.InlineAssembly:
		in.visitInlineAssembly(n)
	default:
		in.reporter.FatalTypeError(diagnostics.ErrF005, n.Location(), "Unsupported AST node during type inference.")
	}
}

func (in *Inferer) visitFunctionDefinition(fn *ast.FunctionDefinition) {
	if in.context != Term {
		in.reporter.Unreachable(fn.Location(), "function definition outside term context")
	}
	in.logger.Debug("inference: function", "name", fn.Name, "loc", fn.Location())

	savedFunction := in.currentFunctionType
	in.currentFunctionType = nil
	defer func() { in.currentFunctionType = savedFunction }()

	listType := func(list *ast.ParameterList) typesystem.Type {
		if list == nil {
			return in.unitType
		}
		in.visit(list)
		return in.getType(list)
	}
	functionType := typesystem.FunctionType(listType(fn.Parameters), listType(fn.ReturnParameters))

	// Recorded before the body so that recursive references terminate.
	in.setType(fn, functionType)
	in.currentFunctionType = functionType
	if fn.IsImplemented() {
		in.visit(fn.Body)
	}
}

func (in *Inferer) visitParameterList(list *ast.ParameterList) {
	types := lo.Map(list.Parameters, func(p *ast.VariableDeclaration, _ int) typesystem.Type {
		in.visit(p)
		return in.getType(p)
	})
	in.setType(list, in.ts.TupleType(types))
}

func (in *Inferer) visitReturn(ret *ast.Return) {
	if in.currentFunctionType == nil {
		in.reporter.Unreachable(ret.Location(), "return outside function")
	}
	_, returnType, _ := in.env.DestFunctionType(in.currentFunctionType)
	if ret.Expression != nil {
		in.visit(ret.Expression)
		in.unify(returnType, in.getType(ret.Expression), ret.Location())
	} else {
		in.unify(returnType, in.unitType, ret.Location())
	}
	in.setType(ret, in.unitType)
}

func (in *Inferer) visitVariableDeclarationStatement(stmt *ast.VariableDeclarationStatement) {
	for _, d := range stmt.Declarations {
		in.visit(d)
	}
	if stmt.InitialValue != nil {
		in.visit(stmt.InitialValue)
	}
	in.setType(stmt, in.unitType)

	if len(stmt.Declarations) != 1 {
		in.reporter.TypeError(diagnostics.ErrT007, stmt.Location(), "Multi variable declaration not supported.")
		return
	}
	if stmt.InitialValue != nil {
		in.unify(in.getType(stmt.Declarations[0]), in.getType(stmt.InitialValue), stmt.Location())
	}
}

func (in *Inferer) visitVariableDeclaration(v *ast.VariableDeclaration) {
	switch in.context {
	case Term:
		if v.TypeExpression != nil {
			in.withContext(Type, func() { in.visit(v.TypeExpression) })
			in.setType(v, in.getType(v.TypeExpression))
			return
		}
		in.setType(v, in.fresh())
	case Type:
		t := in.fresh()
		in.setType(v, t)
		if v.TypeExpression != nil {
			in.withContext(Sort, func() { in.visit(v.TypeExpression) })
			in.unify(t, in.getType(v.TypeExpression), v.TypeExpression.Location())
		}
	case Sort:
		in.reporter.TypeError(diagnostics.ErrT001, v.Location(), "Variable declaration in sort context.")
		in.setType(v, in.fresh())
	}
}

func (in *Inferer) visitTypeDefinition(td *ast.TypeDefinition) {
	var arguments []typesystem.Type
	if td.Arguments != nil {
		arguments = lo.Map(td.Arguments.Parameters, func(*ast.VariableDeclaration, int) typesystem.Type { return in.fresh() })
	}
	definedType := in.declaredType(td, arguments)
	if len(arguments) == 0 {
		in.setType(td, definedType)
	} else {
		in.setType(td, typesystem.TypeFunctionType(in.ts.TupleType(arguments), definedType))
	}
	in.logger.Debug("inference: type definition", "name", td.Name, "type", in.env.TypeToString(in.annotation(td)))

	if td.Arguments != nil {
		in.withContext(Type, func() { in.visit(td.Arguments) })
	}
	var underlying typesystem.Type
	if td.TypeExpression != nil {
		in.withContext(Type, func() { in.visit(td.TypeExpression) })
		underlying = in.getType(td.TypeExpression)
	}

	ctor := in.typeConstructor(td)
	if _, exists := in.global.Members[ctor]; exists {
		in.reporter.Unreachable(td.Location(), "member table of "+td.Name+" already exists")
	}
	members := make(map[string]typesystem.TypeMember)
	if underlying != nil {
		members[config.AbsMember] = typesystem.TypeMember{Type: typesystem.FunctionType(underlying, definedType)}
		members[config.RepMember] = typesystem.TypeMember{Type: typesystem.FunctionType(definedType, underlying)}
	}
	in.global.Members[ctor] = members
}
