package diagnostics

import (
	"errors"
	"fmt"

	"github.com/funvibe/classinfer/internal/token"
)

// ErrAborted is returned by passes that stopped on a fatal diagnostic.
var ErrAborted = errors.New("analysis aborted")

// Abort is the panic value raised by FatalTypeError. It must only be
// recovered by CatchAbort.
type Abort struct {
	Err *DiagnosticError
}

// Reporter collects diagnostics in emission order.
type Reporter struct {
	errors []*DiagnosticError
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Report appends an already built diagnostic.
func (r *Reporter) Report(err *DiagnosticError) {
	r.errors = append(r.errors, err)
}

// TypeError records a non-fatal diagnostic and returns it so that callers
// can attach secondary locations.
func (r *Reporter) TypeError(code ErrorCode, loc token.Location, msg string) *DiagnosticError {
	err := NewError(code, loc, msg)
	r.Report(err)
	return err
}

// TypeErrorf is TypeError with formatting.
func (r *Reporter) TypeErrorf(code ErrorCode, loc token.Location, format string, args ...any) *DiagnosticError {
	return r.TypeError(code, loc, fmt.Sprintf(format, args...))
}

// FatalTypeError records the diagnostic and aborts the running pass.
func (r *Reporter) FatalTypeError(code ErrorCode, loc token.Location, msg string) {
	r.Fatal(NewError(code, loc, msg))
}

// Fatal records an already built diagnostic and aborts the running pass.
func (r *Reporter) Fatal(err *DiagnosticError) {
	err.Fatal = true
	r.Report(err)
	panic(Abort{Err: err})
}

// Unreachable aborts on a violated internal invariant.
func (r *Reporter) Unreachable(loc token.Location, what string) {
	r.FatalTypeError(ErrF006, loc, "internal error: "+what)
}

// HasErrors reports whether any diagnostic was recorded.
func (r *Reporter) HasErrors() bool { return len(r.errors) > 0 }

// Errors returns all diagnostics in emission order.
func (r *Reporter) Errors() []*DiagnosticError { return r.errors }

// FatalError returns the diagnostic that aborted the pass, if any.
func (r *Reporter) FatalError() *DiagnosticError {
	for _, e := range r.errors {
		if e.Fatal {
			return e
		}
	}
	return nil
}

// CatchAbort runs fn and converts an Abort panic into an error wrapping
// ErrAborted. Other panics propagate.
func CatchAbort(fn func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			a, ok := p.(Abort)
			if !ok {
				panic(p)
			}
			err = fmt.Errorf("%w: %s", ErrAborted, a.Err.Message)
		}
	}()
	fn()
	return nil
}
