package inference

import (
	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/typesystem"
)

func (in *Inferer) visitTypeClassDefinition(class *ast.TypeClassDefinition) {
	if in.context != Term {
		in.reporter.Unreachable(class.Location(), "type class definition outside term context")
	}
	in.logger.Debug("inference: type class", "name", class.Name, "loc", class.Location())
	in.setType(class, in.declaredType(class, nil))
	if class.TypeVariable == nil {
		in.reporter.Unreachable(class.Location(), "type class without type variable")
	}
	in.withContext(Type, func() { in.visit(class.TypeVariable) })

	classVar := in.fresh()
	ctor := in.typeConstructor(class)
	members, ok := in.global.Members[ctor]
	if !ok {
		members = make(map[string]typesystem.TypeMember)
		in.global.Members[ctor] = members
	}
	functions := make(map[string]typesystem.Type, len(class.Functions))

	for _, fn := range class.Functions {
		in.visit(fn)
		functionType := in.env.Fresh(in.getType(fn))
		functions[fn.Name] = functionType
		typeVars := in.env.TypeVars(functionType)
		if len(typeVars) != 1 {
			in.reporter.FatalTypeError(diagnostics.ErrF002, fn.Location(), "Function in type class may only depend on the type class variable.")
		}
		in.unify(typeVars[0], classVar, fn.Location())

		if _, dup := members[fn.Name]; dup {
			in.reporter.FatalTypeError(diagnostics.ErrF003, fn.Location(), "Function in type class declared multiple times.")
		}
		members[fn.Name] = typesystem.TypeMember{Type: functionType}
	}

	tc, err := in.ts.DeclareTypeClass(classVar, functions, class.Name, class)
	if err != nil {
		in.reporter.FatalTypeError(diagnostics.ErrF007, class.Location(), err.Error())
	}
	in.global.TypeClasses[class.ID()] = tc

	in.unify(in.getType(class.TypeVariable), in.ts.FreshTypeVariable(typesystem.NewSort(tc)), class.Location())

	// Instance-side errors surface as soon as the class is known.
	for _, inst := range in.registry.ClassInstantiations(class).All() {
		in.visit(inst)
	}
}

func (in *Inferer) visitTypeClassInstantiation(inst *ast.TypeClassInstantiation) {
	in.setType(inst, in.voidType)
	in.logger.Debug("inference: instantiation", "loc", inst.Location(), "active", len(in.activeOrder))

	class, ok := in.instantiatedClass(inst)
	if !ok {
		return
	}
	ctor, ok := in.registry.ConstructorOf(inst.TypeConstructor)
	if !ok {
		in.reporter.TypeError(diagnostics.ErrT014, inst.TypeConstructor.Location(), "Invalid type constructor.")
		return
	}

	var arguments []typesystem.Type
	arity := typesystem.Arity{Class: class}
	if inst.ArgumentSorts != nil {
		in.withContext(Type, func() {
			in.visit(inst.ArgumentSorts)
			arguments = in.ts.DestTupleType(in.getType(inst.ArgumentSorts))
		})
		for _, arg := range arguments {
			arity.ArgumentSorts = append(arity.ArgumentSorts, in.env.Sort(arg))
		}
	}
	instanceType := in.ts.Type(ctor, arguments)

	functions := make(map[string]typesystem.Type, len(inst.Functions))
	in.withContext(Term, func() {
		for _, fn := range inst.Functions {
			in.visit(fn)
			if _, dup := functions[fn.Name]; dup {
				in.reporter.TypeError(diagnostics.ErrT008, fn.Location(),
					"Duplicate definition of function "+fn.Name+" during type class instantiation.")
				continue
			}
			functions[fn.Name] = in.getType(fn)
		}
	})

	if err := in.ts.InstantiateClass(instanceType, arity, functions); err != nil {
		in.reporter.TypeError(diagnostics.ErrT009, inst.Location(), err.Error())
	}
}

// instantiatedClass resolves the class named by an instantiation,
// declaring a user class first if needed.
func (in *Inferer) instantiatedClass(inst *ast.TypeClassInstantiation) (typesystem.TypeClass, bool) {
	name := inst.TypeClass
	if name.IsBuiltin() {
		class, ok := in.registry.BuiltinClass(name.Builtin)
		if !ok {
			in.reporter.TypeError(diagnostics.ErrT013, inst.Location(), "Invalid type class name.")
		}
		return class, ok
	}
	decl, ok := name.Path.Referenced.(*ast.TypeClassDefinition)
	if !ok {
		in.reporter.TypeError(diagnostics.ErrT013, name.Loc, "Expected type class.")
		return typesystem.TypeClass{}, false
	}
	// Declaring the class visits this instantiation again; that visit is a
	// no-op because the instantiation already has a type.
	in.withContext(Term, func() { in.visit(decl) })
	class, ok := in.global.TypeClasses[decl.ID()]
	return class, ok
}
