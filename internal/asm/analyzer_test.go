package asm

import (
	"testing"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
)

func TestReferenceAnalyzer(t *testing.T) {
	b := ast.NewBuilder("asm.sol")
	x := b.Var("x", nil)
	useX := b.AsmIdent("x", ast.AsmRValue)
	declTmp := b.AsmIdent("tmp", ast.AsmNonExternal)
	useTmp := b.AsmIdent("tmp", ast.AsmLValue)
	useY := b.AsmIdent("y", ast.AsmRValue)
	block := b.Assembly(useX, declTmp, useTmp, useY)
	b.BindExternal(block, useX, x)

	var seen []string
	resolve := func(id *ast.AsmIdentifier, ctx ast.AsmContext, _ bool) bool {
		seen = append(seen, id.Name)
		if ctx == ast.AsmNonExternal {
			return false
		}
		_, ok := block.ExternalReferences[id.ID()]
		return ok
	}

	r := diagnostics.NewReporter()
	info, ok := ReferenceAnalyzer{}.Analyze(block, resolve, r)
	if ok {
		t.Fatal("expected failure for unresolved y")
	}
	if len(info.Resolved) != 1 || info.Resolved[0] != useX {
		t.Errorf("resolved = %v, want [x]", info.Resolved)
	}
	if len(info.Unresolved) != 1 || info.Unresolved[0] != useY {
		t.Errorf("unresolved = %v, want [y]", info.Unresolved)
	}
	// The local use of tmp never reaches the resolver.
	want := []string{"x", "tmp", "y"}
	if len(seen) != len(want) {
		t.Fatalf("resolver saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("resolver call %d = %s, want %s", i, seen[i], want[i])
		}
	}
	if len(r.Errors()) != 1 || r.Errors()[0].Code != diagnostics.ErrA001 {
		t.Errorf("diagnostics = %v", r.Errors())
	}
}
