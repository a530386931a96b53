package typesystem

import (
	"maps"
	"strings"

	"github.com/samber/lo"
)

// Environment is a substitution from type variables to types.
type Environment struct {
	ts       *TypeSystem
	bindings map[int]Type
}

// Clone returns an independent copy sharing the type system.
func (e *Environment) Clone() *Environment {
	return &Environment{ts: e.ts, bindings: maps.Clone(e.bindings)}
}

// Resolve follows variable bindings at the top of t.
func (e *Environment) Resolve(t Type) Type {
	for {
		v, ok := t.(TVar)
		if !ok {
			return t
		}
		bound, ok := e.bindings[v.Index]
		if !ok {
			return t
		}
		t = bound
	}
}

// ResolveRecursive substitutes every bound variable in t.
func (e *Environment) ResolveRecursive(t Type) Type {
	return mapType(e.Resolve(t), func(v TVar) Type {
		r := e.Resolve(v)
		if rv, ok := r.(TVar); ok {
			return rv
		}
		return e.ResolveRecursive(r)
	})
}

// Unify makes a and b equal by extending the substitution. Failures do not
// roll back bindings made before them.
func (e *Environment) Unify(a, b Type) []UnificationFailure {
	a, b = e.Resolve(a), e.Resolve(b)

	if l, ok := a.(TVar); ok {
		if r, ok := b.(TVar); ok {
			return e.unifyVars(l, r)
		}
		return e.instantiate(l, b)
	}
	if r, ok := b.(TVar); ok {
		return e.instantiate(r, a)
	}

	mismatch := []UnificationFailure{TypeMismatch{A: a, B: b}}
	switch l := a.(type) {
	case TCon:
		r, ok := b.(TCon)
		if !ok || l.Constructor != r.Constructor || len(l.Args) != len(r.Args) {
			return mismatch
		}
		var failures []UnificationFailure
		for i := range l.Args {
			failures = append(failures, e.Unify(l.Args[i], r.Args[i])...)
		}
		return failures
	case TFunc:
		r, ok := b.(TFunc)
		if !ok {
			return mismatch
		}
		return append(e.Unify(l.Domain, r.Domain), e.Unify(l.Codomain, r.Codomain)...)
	case TTuple:
		r, ok := b.(TTuple)
		if !ok || len(l.Elements) != len(r.Elements) {
			return mismatch
		}
		var failures []UnificationFailure
		for i := range l.Elements {
			failures = append(failures, e.Unify(l.Elements[i], r.Elements[i])...)
		}
		return failures
	case TTypeFunc:
		r, ok := b.(TTypeFunc)
		if !ok {
			return mismatch
		}
		return append(e.Unify(l.Arguments, r.Arguments), e.Unify(l.Result, r.Result)...)
	}
	return mismatch
}

func (e *Environment) unifyVars(l, r TVar) []UnificationFailure {
	switch {
	case l.Index == r.Index:
		return nil
	case l.Sort.SubsetOf(r.Sort):
		e.bindings[l.Index] = r
	case r.Sort.SubsetOf(l.Sort):
		e.bindings[r.Index] = l
	default:
		merged := e.ts.freshVar(l.Sort.Union(r.Sort))
		e.bindings[l.Index] = merged
		e.bindings[r.Index] = merged
	}
	return nil
}

func (e *Environment) instantiate(v TVar, t Type) []UnificationFailure {
	for _, occ := range e.TypeVars(t) {
		if occ.Index == v.Index {
			return []UnificationFailure{RecursiveUnification{Var: v, Type: t}}
		}
	}
	if have := e.Sort(t); !v.Sort.SubsetOf(have) {
		return []UnificationFailure{SortMismatch{Type: t, Sort: v.Sort.Difference(have)}}
	}
	e.bindings[v.Index] = t
	return nil
}

// Sort returns the classes t is known to belong to. A type constant has
// every class for which one of its constructor's arities is satisfied by
// the sorts of its arguments.
func (e *Environment) Sort(t Type) Sort {
	switch tt := e.Resolve(t).(type) {
	case TVar:
		return tt.Sort
	case TCon:
		argSorts := lo.Map(tt.Args, func(a Type, _ int) Sort { return e.Sort(a) })
		var classes []TypeClass
		for _, arity := range e.ts.ConstructorInfo(tt.Constructor).Arities {
			if len(arity.ArgumentSorts) != len(argSorts) {
				continue
			}
			satisfied := true
			for i, required := range arity.ArgumentSorts {
				if !required.SubsetOf(argSorts[i]) {
					satisfied = false
					break
				}
			}
			if satisfied {
				classes = append(classes, arity.Class)
			}
		}
		return NewSort(classes...)
	}
	return Sort{}
}

// TypeVars returns the distinct free variables of t in order of occurrence.
func (e *Environment) TypeVars(t Type) []TVar {
	var vars []TVar
	seen := make(map[int]bool)
	walkVars(e.ResolveRecursive(t), func(v TVar) {
		if !seen[v.Index] {
			seen[v.Index] = true
			vars = append(vars, v)
		}
	})
	return vars
}

// Fresh returns a copy of t with every free variable renamed to a new
// variable of the same sort.
func (e *Environment) Fresh(t Type) Type {
	renamed := make(map[int]Type)
	return mapType(e.ResolveRecursive(t), func(v TVar) Type {
		if r, ok := renamed[v.Index]; ok {
			return r
		}
		r := e.ts.freshVar(v.Sort)
		renamed[v.Index] = r
		return r
	})
}

// TypeEquals compares a and b after substitution.
func (e *Environment) TypeEquals(a, b Type) bool {
	a, b = e.Resolve(a), e.Resolve(b)
	switch l := a.(type) {
	case TVar:
		r, ok := b.(TVar)
		return ok && l.Index == r.Index
	case TCon:
		r, ok := b.(TCon)
		if !ok || l.Constructor != r.Constructor || len(l.Args) != len(r.Args) {
			return false
		}
		for i := range l.Args {
			if !e.TypeEquals(l.Args[i], r.Args[i]) {
				return false
			}
		}
		return true
	case TFunc:
		r, ok := b.(TFunc)
		return ok && e.TypeEquals(l.Domain, r.Domain) && e.TypeEquals(l.Codomain, r.Codomain)
	case TTuple:
		r, ok := b.(TTuple)
		if !ok || len(l.Elements) != len(r.Elements) {
			return false
		}
		for i := range l.Elements {
			if !e.TypeEquals(l.Elements[i], r.Elements[i]) {
				return false
			}
		}
		return true
	case TTypeFunc:
		r, ok := b.(TTypeFunc)
		return ok && e.TypeEquals(l.Arguments, r.Arguments) && e.TypeEquals(l.Result, r.Result)
	}
	return false
}

// TypeToString renders t after substitution. Variables print as 'a, 'b, ...
// followed by their sort.
func (e *Environment) TypeToString(t Type) string {
	var b strings.Builder
	e.writeType(&b, e.ResolveRecursive(t), false)
	return b.String()
}

func (e *Environment) writeType(b *strings.Builder, t Type, nested bool) {
	switch tt := t.(type) {
	case TVar:
		b.WriteString("'")
		b.WriteString(varName(tt.Index))
		if !tt.Sort.IsEmpty() {
			b.WriteString(":")
			b.WriteString(e.ts.SortToString(tt.Sort))
		}
	case TCon:
		b.WriteString(e.ts.ConstructorInfo(tt.Constructor).Name)
		if len(tt.Args) > 0 {
			b.WriteString("(")
			e.writeList(b, tt.Args)
			b.WriteString(")")
		}
	case TTuple:
		b.WriteString("(")
		e.writeList(b, tt.Elements)
		b.WriteString(")")
	case TFunc:
		if nested {
			b.WriteString("(")
		}
		e.writeType(b, tt.Domain, true)
		b.WriteString(" -> ")
		e.writeType(b, tt.Codomain, false)
		if nested {
			b.WriteString(")")
		}
	case TTypeFunc:
		if nested {
			b.WriteString("(")
		}
		e.writeType(b, tt.Arguments, true)
		b.WriteString(" => ")
		e.writeType(b, tt.Result, false)
		if nested {
			b.WriteString(")")
		}
	}
}

func (e *Environment) writeList(b *strings.Builder, ts []Type) {
	for i, t := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		e.writeType(b, t, false)
	}
}

// varName spells index in base 26: a, b, ..., z, ba, bb, ...
func varName(index int) string {
	var out []byte
	for {
		out = append(out, byte('a'+index%26))
		index /= 26
		if index == 0 {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
