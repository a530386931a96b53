package diagnostics

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/classinfer/internal/token"
)

func loc(line, col int) token.Location {
	return token.Location{Source: "unit.sol", Line: line, Column: col}
}

func TestDiagnosticError_Error(t *testing.T) {
	err := NewError(ErrT002, loc(3, 7), "Cannot unify word and bool.")
	want := "unit.sol:3:7: error[T002]: Cannot unify word and bool."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err.WithSecondary(loc(1, 1), "Instantiation.")
	if !strings.Contains(err.Error(), "unit.sol:1:1: note: Instantiation.") {
		t.Errorf("secondary location missing from %q", err.Error())
	}
}

func TestReporter_NonFatal(t *testing.T) {
	r := NewReporter()
	if r.HasErrors() {
		t.Fatal("new reporter has errors")
	}
	r.TypeError(ErrT001, loc(1, 1), "first")
	r.TypeErrorf(ErrT002, loc(2, 1), "Cannot unify %s and %s.", "word", "bool")
	if len(r.Errors()) != 2 {
		t.Fatalf("got %d errors, want 2", len(r.Errors()))
	}
	if r.Errors()[1].Message != "Cannot unify word and bool." {
		t.Errorf("message = %q", r.Errors()[1].Message)
	}
	if r.FatalError() != nil {
		t.Error("unexpected fatal diagnostic")
	}
}

func TestCatchAbort(t *testing.T) {
	r := NewReporter()
	ran := false
	err := CatchAbort(func() {
		r.FatalTypeError(ErrF005, loc(4, 2), "Unsupported AST node.")
		ran = true
	})
	if ran {
		t.Fatal("execution continued after fatal error")
	}
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if f := r.FatalError(); f == nil || f.Code != ErrF005 {
		t.Errorf("fatal diagnostic = %v", f)
	}
}

func TestCatchAbort_OtherPanicsPropagate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected foreign panic to propagate")
		}
	}()
	_ = CatchAbort(func() { panic("boom") })
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "never")
	p.PrintAll([]*DiagnosticError{
		NewError(ErrT003, loc(2, 5), "bool does not have sort integer"),
	})
	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colour codes in never mode: %q", out)
	}
	if !strings.Contains(out, "unit.sol:2:5: error[T003]: bool does not have sort integer") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.HasSuffix(out, "1 error(s)\n") {
		t.Errorf("missing summary in %q", out)
	}

	buf.Reset()
	NewPrinter(&buf, "always").Print(NewError(ErrT003, loc(1, 1), "x"))
	if !strings.Contains(buf.String(), ansiRed) {
		t.Errorf("expected colour codes in always mode: %q", buf.String())
	}
}
