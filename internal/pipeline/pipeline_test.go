package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/funvibe/classinfer/internal/config"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/store"
)

const wrapUnit = `
declarations:
  - type: Flag
    underlying: {elementary: word}
  - instantiation: {builtin: integer}
    target: {elementary: word}
    functions:
      - function: fromInteger
        params: [{name: n, type: {elementary: integer}}]
        returns: [{name: r, type: {elementary: word}}]
  - function: wrap
    returns: [{name: r, type: {ident: Flag}}]
    body:
      - let: [{name: x}]
        value: {number: "5"}
      - return: {call: {member: abs, of: {ident: Flag}}, args: [{ident: x}]}
`

const brokenUnit = `
declarations:
  - function: f
    params: [{name: p, type: {elementary: word}}]
    returns: [{name: r, type: {elementary: bool}}]
    body:
      - return: {ident: p}
  - function: g
    body:
      - let: [{name: v, type: {ident: f}}]
`

func writeUnit(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unit"+config.SourceFileExt)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheck_Success(t *testing.T) {
	ctx := NewPipelineContext(writeUnit(t, wrapUnit), config.DefaultOptions())
	ctx = Check(nil).Run(ctx)

	if ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v %v", ctx.Errors, ctx.Reporter.Errors())
	}
	if ctx.Report == nil || !ctx.Report.OK {
		t.Fatalf("report = %+v", ctx.Report)
	}
	if len(ctx.Report.Literals) != 1 || ctx.Report.Literals[0].Value != "5" {
		t.Errorf("literals = %+v", ctx.Report.Literals)
	}
	wrap := ctx.Unit.Nodes[2]
	a, ok := ctx.Report.TypeOf(wrap.ID())
	if !ok || a.Type != "unit -> Flag" {
		t.Errorf("wrap annotation = %+v", a)
	}
	found := false
	for _, m := range ctx.Report.Members {
		if m.Owner == "Flag" && m.Name == config.RepMember {
			found = m.Type == "Flag -> word"
		}
	}
	if !found {
		t.Errorf("Flag.rep missing from %+v", ctx.Report.Members)
	}
}

func TestCheck_FatalIsPersisted(t *testing.T) {
	s, err := store.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := NewPipelineContext(writeUnit(t, brokenUnit), config.DefaultOptions())
	ctx = Check(s).Run(ctx)

	if !ctx.Aborted {
		t.Fatal("expected the run to abort")
	}
	if len(ctx.Errors) != 0 {
		t.Fatalf("non-diagnostic errors: %v", ctx.Errors)
	}
	stored, err := s.LoadDiagnostics(context.Background(), ctx.Report.RunID)
	if err != nil {
		t.Fatalf("LoadDiagnostics: %v", err)
	}
	want := []diagnostics.ErrorCode{diagnostics.ErrT002, diagnostics.ErrF004}
	if len(stored) != len(want) {
		t.Fatalf("stored %d diagnostics, want %d: %+v", len(stored), len(want), stored)
	}
	for i, code := range want {
		if stored[i].Code != code {
			t.Errorf("diagnostic %d = %s, want %s", i, stored[i].Code, code)
		}
	}
	if !stored[1].Fatal {
		t.Error("abort diagnostic not marked fatal")
	}
}

func TestCheck_MissingFile(t *testing.T) {
	ctx := NewPipelineContext(filepath.Join(t.TempDir(), "missing.yaml"), config.DefaultOptions())
	ctx = Check(nil).Run(ctx)
	if len(ctx.Errors) != 1 {
		t.Fatalf("errors = %v", ctx.Errors)
	}
	if ctx.Report != nil || ctx.Inferer != nil {
		t.Error("later stages ran without a unit")
	}
}

func TestRun_StopsWhenCancelled(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	ctx := NewPipelineContext(writeUnit(t, wrapUnit), config.DefaultOptions())
	ctx.Context = cancelled
	ctx = Check(nil).Run(ctx)

	if len(ctx.Errors) != 1 || !errors.Is(ctx.Errors[0], context.Canceled) {
		t.Fatalf("errors = %v", ctx.Errors)
	}
	if ctx.Unit != nil {
		t.Error("unit loaded after cancellation")
	}
}
