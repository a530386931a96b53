// Package registration runs before type inference. It assigns type
// constructors to declarations and type names, declares the builtin
// classes, and collects the instantiations of every class.
package registration

import (
	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/config"
	"github.com/funvibe/classinfer/internal/token"
	"github.com/funvibe/classinfer/internal/typesystem"
)

// Operator is the class member implementing a binary operator.
type Operator struct {
	Class  typesystem.TypeClass
	Member string
}

// Instantiations of one class, keyed by the target constructor.
type Instantiations struct {
	byConstructor map[typesystem.TypeConstructor]*ast.TypeClassInstantiation
	order         []*ast.TypeClassInstantiation
}

func newInstantiations() *Instantiations {
	return &Instantiations{byConstructor: make(map[typesystem.TypeConstructor]*ast.TypeClassInstantiation)}
}

// For returns the instantiation for c, or nil.
func (i *Instantiations) For(c typesystem.TypeConstructor) *ast.TypeClassInstantiation {
	if i == nil {
		return nil
	}
	return i.byConstructor[c]
}

// All returns the instantiations in source order.
func (i *Instantiations) All() []*ast.TypeClassInstantiation {
	if i == nil {
		return nil
	}
	return i.order
}

// Registry is the queryable result of the registration pass.
type Registry struct {
	ts *typesystem.TypeSystem

	constructors   map[ast.NodeID]typesystem.TypeConstructor
	builtinClasses map[token.Kind]typesystem.TypeClass
	builtinByName  map[string]token.Kind
	operators      map[token.Kind]Operator

	classInstantiations   map[ast.NodeID]*Instantiations
	builtinInstantiations map[token.Kind]*Instantiations
}

func newRegistry(ts *typesystem.TypeSystem) *Registry {
	return &Registry{
		ts:                    ts,
		constructors:          make(map[ast.NodeID]typesystem.TypeConstructor),
		builtinClasses:        make(map[token.Kind]typesystem.TypeClass),
		builtinByName:         make(map[string]token.Kind),
		operators:             make(map[token.Kind]Operator),
		classInstantiations:   make(map[ast.NodeID]*Instantiations),
		builtinInstantiations: make(map[token.Kind]*Instantiations),
	}
}

// TypeSystem returns the type system the registry declared into.
func (r *Registry) TypeSystem() *typesystem.TypeSystem { return r.ts }

// ConstructorOf returns the constructor assigned to a declaration or type name.
func (r *Registry) ConstructorOf(n ast.Node) (typesystem.TypeConstructor, bool) {
	c, ok := r.constructors[n.ID()]
	return c, ok
}

// BuiltinClass returns the builtin class named by tok.
func (r *Registry) BuiltinClass(tok token.Kind) (typesystem.TypeClass, bool) {
	c, ok := r.builtinClasses[tok]
	return c, ok
}

// IntegerClass returns the class every number literal must belong to.
func (r *Registry) IntegerClass() typesystem.TypeClass {
	return r.builtinClasses[token.Integer]
}

// Operator returns the class member implementing op.
func (r *Registry) Operator(op token.Kind) (Operator, bool) {
	o, ok := r.operators[op]
	return o, ok
}

// ClassInstantiations returns the instantiations of a user class.
func (r *Registry) ClassInstantiations(decl *ast.TypeClassDefinition) *Instantiations {
	return r.classInstantiations[decl.ID()]
}

// InstantiationsOf returns the instantiations of any class, user or builtin.
func (r *Registry) InstantiationsOf(class typesystem.TypeClass) *Instantiations {
	if decl := r.ts.TypeClassDeclaration(class); decl != nil {
		return r.classInstantiations[decl.ID()]
	}
	if tok, ok := r.builtinByName[r.ts.TypeClassName(class)]; ok {
		return r.builtinInstantiations[tok]
	}
	return nil
}

type builtinClass struct {
	token  token.Kind
	name   string
	member string
	// signature builds the member type over the class variable.
	signature func(ts *typesystem.TypeSystem, v typesystem.Type) typesystem.Type
	operator  bool
}

func binary(result func(ts *typesystem.TypeSystem, v typesystem.Type) typesystem.Type) func(*typesystem.TypeSystem, typesystem.Type) typesystem.Type {
	return func(ts *typesystem.TypeSystem, v typesystem.Type) typesystem.Type {
		return typesystem.FunctionType(ts.TupleType([]typesystem.Type{v, v}), result(ts, v))
	}
}

func self(_ *typesystem.TypeSystem, v typesystem.Type) typesystem.Type { return v }

func boolean(ts *typesystem.TypeSystem, _ typesystem.Type) typesystem.Type {
	return ts.Primitive(typesystem.Bool)
}

var builtinClasses = []builtinClass{
	{
		token:  token.Integer,
		name:   config.IntegerClassName,
		member: config.FromIntegerMember,
		signature: func(ts *typesystem.TypeSystem, v typesystem.Type) typesystem.Type {
			return typesystem.FunctionType(ts.Primitive(typesystem.Integer), v)
		},
	},
	{token: token.Mul, name: config.MulClassName, member: config.MulMember, signature: binary(self), operator: true},
	{token: token.Add, name: config.AddClassName, member: config.AddMember, signature: binary(self), operator: true},
	{token: token.Equal, name: config.EqualClassName, member: config.EqualMember, signature: binary(boolean), operator: true},
	{token: token.LessThan, name: config.LessClassName, member: config.LessMember, signature: binary(boolean), operator: true},
}

var elementaryConstructors = map[token.Kind]typesystem.PrimitiveType{
	token.Void:    typesystem.Void,
	token.Word:    typesystem.Word,
	token.Integer: typesystem.Integer,
	token.Bool:    typesystem.Bool,
	token.Unit:    typesystem.Unit,
}
