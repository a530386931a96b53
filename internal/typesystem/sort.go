package typesystem

import (
	"slices"

	"github.com/hashicorp/go-set/v3"
)

// Sort is a set of type classes a type must belong to. The zero Sort is
// empty and satisfied by every type. Sorts are never mutated after creation.
type Sort struct {
	classes *set.Set[TypeClass]
}

// NewSort returns the sort requiring the given classes.
func NewSort(classes ...TypeClass) Sort {
	s := set.New[TypeClass](len(classes))
	for _, c := range classes {
		s.Insert(c)
	}
	return Sort{classes: s}
}

// Size returns the number of classes in the sort.
func (s Sort) Size() int {
	if s.classes == nil {
		return 0
	}
	return s.classes.Size()
}

func (s Sort) IsEmpty() bool { return s.Size() == 0 }

func (s Sort) Contains(c TypeClass) bool {
	return s.classes != nil && s.classes.Contains(c)
}

// Classes returns the classes ordered by declaration.
func (s Sort) Classes() []TypeClass {
	if s.classes == nil {
		return nil
	}
	out := s.classes.Slice()
	slices.SortFunc(out, func(a, b TypeClass) int { return a.index - b.index })
	return out
}

// SubsetOf reports whether every class of s is in o.
func (s Sort) SubsetOf(o Sort) bool {
	if s.classes == nil {
		return true
	}
	for c := range s.classes.Items() {
		if !o.Contains(c) {
			return false
		}
	}
	return true
}

func (s Sort) Equal(o Sort) bool {
	return s.Size() == o.Size() && s.SubsetOf(o)
}

// Union returns the classes required by either sort.
func (s Sort) Union(o Sort) Sort {
	out := NewSort(s.Classes()...)
	for _, c := range o.Classes() {
		out.classes.Insert(c)
	}
	return out
}

// Difference returns the classes of s missing from o.
func (s Sort) Difference(o Sort) Sort {
	out := NewSort()
	for _, c := range s.Classes() {
		if !o.Contains(c) {
			out.classes.Insert(c)
		}
	}
	return out
}
