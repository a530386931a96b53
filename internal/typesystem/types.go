package typesystem

import (
	"github.com/samber/lo"
)

// Type is an immutable type term. Types are only meaningful relative to an
// Environment, which maps type variables to their bindings.
type Type interface {
	typeNode()
}

// TVar is a unification variable constrained to a sort.
type TVar struct {
	Index int
	Sort  Sort
}

// TCon is a type constructor applied to its arguments.
type TCon struct {
	Constructor TypeConstructor
	Args        []Type
}

// TFunc is a term-level function type.
type TFunc struct {
	Domain   Type
	Codomain Type
}

// TTuple is a product of two or more components. The empty tuple is the
// unit type and a singleton tuple is its only element.
type TTuple struct {
	Elements []Type
}

// TTypeFunc is a type-level function, the type of a type constructor
// abstracted over its arguments.
type TTypeFunc struct {
	Arguments Type
	Result    Type
}

func (TVar) typeNode()      {}
func (TCon) typeNode()      {}
func (TFunc) typeNode()     {}
func (TTuple) typeNode()    {}
func (TTypeFunc) typeNode() {}

// TupleType builds the tuple of elems, collapsing the unit and singleton cases.
func (ts *TypeSystem) TupleType(elems []Type) Type {
	switch len(elems) {
	case 0:
		return ts.Primitive(Unit)
	case 1:
		return elems[0]
	}
	return TTuple{Elements: elems}
}

// DestTupleType is the inverse of TupleType.
func (ts *TypeSystem) DestTupleType(t Type) []Type {
	t = ts.env.Resolve(t)
	switch tt := t.(type) {
	case TTuple:
		return tt.Elements
	case TCon:
		if tt.Constructor == ts.primitives[Unit] {
			return nil
		}
	}
	return []Type{t}
}

// FunctionType builds domain -> codomain.
func FunctionType(domain, codomain Type) Type {
	return TFunc{Domain: domain, Codomain: codomain}
}

// DestFunctionType splits a resolved function type. ok is false for any
// other type.
func (e *Environment) DestFunctionType(t Type) (domain, codomain Type, ok bool) {
	f, ok := e.Resolve(t).(TFunc)
	if !ok {
		return nil, nil, false
	}
	return f.Domain, f.Codomain, true
}

// TypeFunctionType builds the type-level function arguments => result.
func TypeFunctionType(arguments, result Type) Type {
	return TTypeFunc{Arguments: arguments, Result: result}
}

// DestTypeFunctionType splits a resolved type-level function type.
func (e *Environment) DestTypeFunctionType(t Type) (arguments, result Type, ok bool) {
	f, ok := e.Resolve(t).(TTypeFunc)
	if !ok {
		return nil, nil, false
	}
	return f.Arguments, f.Result, true
}

// DestTypeConstant splits a resolved type constant.
func (e *Environment) DestTypeConstant(t Type) (TypeConstructor, []Type, bool) {
	c, ok := e.Resolve(t).(TCon)
	if !ok {
		return TypeConstructor{}, nil, false
	}
	return c.Constructor, c.Args, true
}

// IsTypeConstant reports whether t resolves to a type constant.
func (e *Environment) IsTypeConstant(t Type) bool {
	_, ok := e.Resolve(t).(TCon)
	return ok
}

// mapType rebuilds t bottom-up, replacing variables with f(v).
func mapType(t Type, f func(TVar) Type) Type {
	switch tt := t.(type) {
	case TVar:
		return f(tt)
	case TCon:
		if len(tt.Args) == 0 {
			return tt
		}
		return TCon{Constructor: tt.Constructor, Args: lo.Map(tt.Args, func(a Type, _ int) Type { return mapType(a, f) })}
	case TFunc:
		return TFunc{Domain: mapType(tt.Domain, f), Codomain: mapType(tt.Codomain, f)}
	case TTuple:
		return TTuple{Elements: lo.Map(tt.Elements, func(a Type, _ int) Type { return mapType(a, f) })}
	case TTypeFunc:
		return TTypeFunc{Arguments: mapType(tt.Arguments, f), Result: mapType(tt.Result, f)}
	}
	return t
}

// walkVars calls f for every variable occurrence in t, left to right.
func walkVars(t Type, f func(TVar)) {
	switch tt := t.(type) {
	case TVar:
		f(tt)
	case TCon:
		for _, a := range tt.Args {
			walkVars(a, f)
		}
	case TFunc:
		walkVars(tt.Domain, f)
		walkVars(tt.Codomain, f)
	case TTuple:
		for _, e := range tt.Elements {
			walkVars(e, f)
		}
	case TTypeFunc:
		walkVars(tt.Arguments, f)
		walkVars(tt.Result, f)
	}
}
