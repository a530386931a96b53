package typesystem

// ClassError is returned when a class declaration or instantiation is rejected.
type ClassError struct {
	Reason string
}

func (e *ClassError) Error() string {
	return e.Reason
}

// UnificationFailure is one reason two types could not be unified.
type UnificationFailure interface {
	unificationFailure()
}

// TypeMismatch: A and B have different shapes or constructors.
type TypeMismatch struct {
	A, B Type
}

// SortMismatch: Type lacks the classes in Sort.
type SortMismatch struct {
	Type Type
	Sort Sort
}

// RecursiveUnification: Var occurs in Type.
type RecursiveUnification struct {
	Var  TVar
	Type Type
}

func (TypeMismatch) unificationFailure()         {}
func (SortMismatch) unificationFailure()         {}
func (RecursiveUnification) unificationFailure() {}
