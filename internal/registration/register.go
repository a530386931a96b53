package registration

import (
	"fmt"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/typesystem"
)

// Register declares the builtin classes into ts and walks every node of
// arena. Duplicate instantiations are reported to reporter; the first one
// wins.
func Register(arena *ast.Arena, ts *typesystem.TypeSystem, reporter *diagnostics.Reporter) (*Registry, error) {
	r := newRegistry(ts)
	if err := r.declareBuiltins(); err != nil {
		return nil, err
	}

	// Declarations first: type names and instantiations may refer to
	// declarations that appear later in the unit.
	for _, n := range arena.Nodes() {
		switch n := n.(type) {
		case *ast.TypeDefinition:
			args := 0
			if n.Arguments != nil {
				args = len(n.Arguments.Parameters)
			}
			r.constructors[n.ID()] = ts.DeclareTypeConstructor(n.Name, args, n)
		case *ast.TypeClassDefinition:
			r.constructors[n.ID()] = ts.DeclareTypeConstructor(n.Name, 0, n)
			r.classInstantiations[n.ID()] = newInstantiations()
		}
	}

	for _, n := range arena.Nodes() {
		switch n := n.(type) {
		case *ast.ElementaryTypeNameExpression:
			if p, ok := elementaryConstructors[n.Type]; ok {
				r.constructors[n.ID()] = ts.PrimitiveConstructor(p)
			}
		case *ast.IdentifierPath:
			if n.Referenced != nil {
				if c, ok := r.constructors[n.Referenced.ID()]; ok {
					r.constructors[n.ID()] = c
				}
			}
		}
	}

	for _, n := range arena.Nodes() {
		if inst, ok := n.(*ast.TypeClassInstantiation); ok {
			r.registerInstantiation(inst, reporter)
		}
	}
	return r, nil
}

func (r *Registry) declareBuiltins() error {
	for _, b := range builtinClasses {
		v := r.ts.FreshTypeVariable(typesystem.Sort{})
		members := map[string]typesystem.Type{b.member: b.signature(r.ts, v)}
		class, err := r.ts.DeclareTypeClass(v, members, b.name, nil)
		if err != nil {
			return fmt.Errorf("declaring builtin class %s: %w", b.name, err)
		}
		r.builtinClasses[b.token] = class
		r.builtinByName[b.name] = b.token
		r.builtinInstantiations[b.token] = newInstantiations()
		if b.operator {
			r.operators[b.token] = Operator{Class: class, Member: b.member}
		}
	}
	return nil
}

func (r *Registry) registerInstantiation(inst *ast.TypeClassInstantiation, reporter *diagnostics.Reporter) {
	var list *Instantiations
	if inst.TypeClass.IsBuiltin() {
		list = r.builtinInstantiations[inst.TypeClass.Builtin]
	} else if class, ok := inst.TypeClass.Path.Referenced.(*ast.TypeClassDefinition); ok {
		list = r.classInstantiations[class.ID()]
	}
	ctor, ok := r.constructors[inst.TypeConstructor.ID()]
	if list == nil || !ok {
		// Left for inference to report against the instantiation itself.
		return
	}
	if prev, dup := list.byConstructor[ctor]; dup {
		reporter.TypeError(diagnostics.ErrR001, inst.Location(), "Duplicate type class instantiation.").
			WithSecondary(prev.Location(), "Previous instantiation.")
		return
	}
	list.byConstructor[ctor] = inst
	list.order = append(list.order, inst)
}
