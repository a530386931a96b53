package typesystem

import (
	"fmt"
	"slices"
	"strings"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/samber/lo"
)

// PrimitiveType names the constructors every TypeSystem starts with.
type PrimitiveType int

const (
	Void PrimitiveType = iota
	Word
	Integer
	Unit
	Bool
)

var primitiveNames = []string{"void", "word", "integer", "unit", "bool"}

func (p PrimitiveType) String() string { return primitiveNames[p] }

// TypeConstructor is an opaque handle to a named type.
type TypeConstructor struct {
	index int
}

// TypeClass is an opaque handle to a declared type class.
type TypeClass struct {
	index int
}

// Arity keys an instance: the class and the sorts its arguments must have.
type Arity struct {
	ArgumentSorts []Sort
	Class         TypeClass
}

// TypeMember is a named function attached to a type constructor.
type TypeMember struct {
	Type Type
}

// ConstructorInfo describes a declared type constructor.
type ConstructorInfo struct {
	Name        string
	Arguments   int
	Declaration ast.Declaration // nil for primitives
	Arities     []Arity
}

type typeClassInfo struct {
	typeVariable Type
	name         string
	declaration  ast.Declaration
	functions    map[string]Type
}

// TypeSystem owns constructors, classes and the global environment.
type TypeSystem struct {
	constructors []*ConstructorInfo
	classes      []*typeClassInfo
	primitives   map[PrimitiveType]TypeConstructor
	env          *Environment
	nextVar      int
}

// New creates a type system with the primitive constructors declared.
func New() *TypeSystem {
	ts := &TypeSystem{primitives: make(map[PrimitiveType]TypeConstructor)}
	ts.env = &Environment{ts: ts, bindings: make(map[int]Type)}
	for p := range primitiveNames {
		ts.primitives[PrimitiveType(p)] = ts.DeclareTypeConstructor(primitiveNames[p], 0, nil)
	}
	return ts
}

// Env returns the global environment.
func (ts *TypeSystem) Env() *Environment { return ts.env }

// DeclareTypeConstructor registers a named constructor taking arguments type arguments.
func (ts *TypeSystem) DeclareTypeConstructor(name string, arguments int, decl ast.Declaration) TypeConstructor {
	ts.constructors = append(ts.constructors, &ConstructorInfo{Name: name, Arguments: arguments, Declaration: decl})
	return TypeConstructor{index: len(ts.constructors) - 1}
}

// ConstructorInfo returns the description of c.
func (ts *TypeSystem) ConstructorInfo(c TypeConstructor) *ConstructorInfo {
	return ts.constructors[c.index]
}

// PrimitiveConstructor returns the constructor of a primitive type.
func (ts *TypeSystem) PrimitiveConstructor(p PrimitiveType) TypeConstructor {
	return ts.primitives[p]
}

// Primitive returns the saturated primitive type.
func (ts *TypeSystem) Primitive(p PrimitiveType) Type {
	return TCon{Constructor: ts.primitives[p]}
}

// Type applies c to args.
func (ts *TypeSystem) Type(c TypeConstructor, args []Type) Type {
	return TCon{Constructor: c, Args: args}
}

// FreshTypeVariable returns a new unbound variable of the given sort.
func (ts *TypeSystem) FreshTypeVariable(sort Sort) Type {
	return ts.freshVar(sort)
}

// FreshKindVariable returns a new variable standing for the result of a
// type-level application. Types and kinds share one variable space.
func (ts *TypeSystem) FreshKindVariable(sort Sort) Type {
	return ts.freshVar(sort)
}

func (ts *TypeSystem) freshVar(sort Sort) TVar {
	v := TVar{Index: ts.nextVar, Sort: sort}
	ts.nextVar++
	return v
}

// DeclareTypeClass registers a class with the given class variable and
// member functions. Every member must depend on exactly the class variable.
// On success the class variable is constrained to the new class.
func (ts *TypeSystem) DeclareTypeClass(typeVar Type, functions map[string]Type, name string, decl ast.Declaration) (TypeClass, error) {
	classVar, ok := ts.env.Resolve(typeVar).(TVar)
	if !ok {
		return TypeClass{}, &ClassError{Reason: "Invalid type variable."}
	}
	names := lo.Keys(functions)
	slices.Sort(names)
	for _, fn := range names {
		vars := ts.env.TypeVars(functions[fn])
		switch {
		case len(vars) == 0:
			return TypeClass{}, &ClassError{Reason: fmt.Sprintf("Function %s does not depend on class variable.", fn)}
		case len(vars) > 1:
			return TypeClass{}, &ClassError{Reason: fmt.Sprintf("Function %s depends on multiple type variables.", fn)}
		case vars[0].Index != classVar.Index:
			return TypeClass{}, &ClassError{Reason: fmt.Sprintf("Function %s does not depend on class variable.", fn)}
		}
	}

	ts.classes = append(ts.classes, &typeClassInfo{name: name, declaration: decl})
	class := TypeClass{index: len(ts.classes) - 1}
	sorted := ts.FreshTypeVariable(NewSort(class))
	if failures := ts.env.Unify(classVar, sorted); len(failures) > 0 {
		ts.classes = ts.classes[:len(ts.classes)-1]
		return TypeClass{}, &ClassError{Reason: "Invalid type variable."}
	}
	info := ts.classes[class.index]
	info.typeVariable = sorted
	info.functions = make(map[string]Type, len(functions))
	for fn, t := range functions {
		info.functions[fn] = ts.env.ResolveRecursive(t)
	}
	return class, nil
}

// TypeClassFunction returns the generic type of a class member.
func (ts *TypeSystem) TypeClassFunction(class TypeClass, name string) (Type, bool) {
	t, ok := ts.classes[class.index].functions[name]
	return t, ok
}

// TypeClassDeclaration returns the declaring node, or nil for builtin classes.
func (ts *TypeSystem) TypeClassDeclaration(class TypeClass) ast.Declaration {
	return ts.classes[class.index].declaration
}

// TypeClassName returns the declared name of class.
func (ts *TypeSystem) TypeClassName(class TypeClass) string {
	return ts.classes[class.index].name
}

// TypeClassVariable returns the sorted variable members are generic over.
func (ts *TypeSystem) TypeClassVariable(class TypeClass) Type {
	return ts.classes[class.index].typeVariable
}

// InstantiateClass records that instance belongs to arity.Class when its
// arguments have arity.ArgumentSorts. functions must provide every class
// member with a type compatible with the member specialised to instance.
func (ts *TypeSystem) InstantiateClass(instance Type, arity Arity, functions map[string]Type) error {
	con, ok := ts.env.Resolve(instance).(TCon)
	if !ok {
		return &ClassError{Reason: "Invalid instance variable."}
	}
	info := ts.constructors[con.Constructor.index]
	if len(arity.ArgumentSorts) != info.Arguments || len(con.Args) != info.Arguments {
		return &ClassError{Reason: "Invalid arity."}
	}
	class := ts.classes[arity.Class.index]
	for _, a := range info.Arities {
		if a.Class == arity.Class {
			return &ClassError{Reason: fmt.Sprintf("Duplicate instantiation of %s for %s.", class.name, info.Name)}
		}
	}

	var missing, extra []string
	for name := range class.functions {
		if _, ok := functions[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range functions {
		if _, ok := class.functions[name]; !ok {
			extra = append(extra, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return &ClassError{Reason: fmt.Sprintf("Missing function: %s.", strings.Join(missing, ", "))}
	}
	if len(extra) > 0 {
		slices.Sort(extra)
		return &ClassError{Reason: fmt.Sprintf("Function %s is not a member of %s.", strings.Join(extra, ", "), class.name)}
	}

	// Members are checked in a scratch environment so that a rejected
	// instance leaves no bindings behind.
	classVar := class.typeVariable.(TVar)
	scratch := ts.env.Clone()
	names := lo.Keys(class.functions)
	slices.Sort(names)
	for _, name := range names {
		expected := mapType(class.functions[name], func(v TVar) Type {
			if v.Index == classVar.Index {
				return con
			}
			return v
		})
		if failures := scratch.Unify(expected, functions[name]); len(failures) > 0 {
			return &ClassError{Reason: fmt.Sprintf(
				"Type of function %s does not match class %s: expected %s, got %s.",
				name, class.name, scratch.TypeToString(expected), scratch.TypeToString(functions[name]),
			)}
		}
	}

	info.Arities = append(info.Arities, arity)
	return nil
}

// SortToString renders a sort by class names.
func (ts *TypeSystem) SortToString(s Sort) string {
	names := lo.Map(s.Classes(), func(c TypeClass, _ int) string { return ts.TypeClassName(c) })
	if len(names) == 1 {
		return names[0]
	}
	return "(" + strings.Join(names, ", ") + ")"
}
