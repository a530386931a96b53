package diagnostics

import (
	"fmt"
	"strings"

	"github.com/funvibe/classinfer/internal/token"
)

// ErrorCode is a stable diagnostic identifier.
type ErrorCode string

// Type errors (non-fatal unless raised through FatalTypeError)
const (
	ErrT001 ErrorCode = "T001" // construct used in an illegal expression context
	ErrT002 ErrorCode = "T002" // type mismatch
	ErrT003 ErrorCode = "T003" // sort mismatch
	ErrT004 ErrorCode = "T004" // recursive unification
	ErrT005 ErrorCode = "T005" // recursion during type class instantiation
	ErrT006 ErrorCode = "T006" // member access
	ErrT007 ErrorCode = "T007" // unsupported expression form
	ErrT008 ErrorCode = "T008" // duplicate class member in instantiation
	ErrT009 ErrorCode = "T009" // instantiation rejected by the type system
	ErrT010 ErrorCode = "T010" // invalid number literal
	ErrT011 ErrorCode = "T011" // non-integer literal
	ErrT012 ErrorCode = "T012" // unsupported literal kind
	ErrT013 ErrorCode = "T013" // type class lookup
	ErrT014 ErrorCode = "T014" // invalid type constructor
)

// Fatal errors abort the analysis
const (
	ErrF001 ErrorCode = "F001" // unregistered type constructor
	ErrF002 ErrorCode = "F002" // class member must depend on exactly the class variable
	ErrF003 ErrorCode = "F003" // duplicate class member
	ErrF004 ErrorCode = "F004" // unexpected referenced node
	ErrF005 ErrorCode = "F005" // unsupported syntax node
	ErrF006 ErrorCode = "F006" // internal invariant violated
	ErrF007 ErrorCode = "F007" // type class declaration rejected
)

// Registration and assembly errors
const (
	ErrR001 ErrorCode = "R001" // duplicate instantiation
	ErrA001 ErrorCode = "A001" // unresolved assembly identifier
)

// SecondaryLocation points at a related place in the source.
type SecondaryLocation struct {
	Location token.Location
	Message  string
}

// DiagnosticError is a located message produced by an analysis pass.
type DiagnosticError struct {
	Code      ErrorCode
	Location  token.Location
	Secondary []SecondaryLocation
	Message   string
	Fatal     bool
}

// NewError creates a diagnostic at loc.
func NewError(code ErrorCode, loc token.Location, msg string) *DiagnosticError {
	return &DiagnosticError{Code: code, Location: loc, Message: msg}
}

// WithSecondary appends a related location and returns the diagnostic.
func (e *DiagnosticError) WithSecondary(loc token.Location, msg string) *DiagnosticError {
	e.Secondary = append(e.Secondary, SecondaryLocation{Location: loc, Message: msg})
	return e
}

func (e *DiagnosticError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: error[%s]: %s", e.Location, e.Code, e.Message)
	for _, s := range e.Secondary {
		fmt.Fprintf(&b, "\n  %s: note: %s", s.Location, s.Message)
	}
	return b.String()
}
