// Package asm analyzes inline assembly blocks on behalf of the type checker.
// Only identifier resolution is modelled: the host decides what each
// external identifier means through a Resolver.
package asm

import (
	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
)

// Resolver is called for every identifier occurrence in a block. It returns
// true when the identifier refers to a declaration outside the block.
// crossFunction is set for references from nested assembly functions.
type Resolver func(id *ast.AsmIdentifier, ctx ast.AsmContext, crossFunction bool) bool

// Info collects the result of analyzing one block.
type Info struct {
	Resolved   []*ast.AsmIdentifier
	Unresolved []*ast.AsmIdentifier
}

// Analyzer checks an assembly block.
type Analyzer interface {
	Analyze(block *ast.InlineAssembly, resolve Resolver, reporter *diagnostics.Reporter) (*Info, bool)
}

// ReferenceAnalyzer resolves identifier references in order. Identifiers
// bound inside the block are passed to the resolver with AsmNonExternal so
// that the host can forget stale external bindings for them.
type ReferenceAnalyzer struct{}

func (ReferenceAnalyzer) Analyze(block *ast.InlineAssembly, resolve Resolver, reporter *diagnostics.Reporter) (*Info, bool) {
	info := &Info{}
	ok := true
	locals := make(map[string]bool)
	for _, id := range block.Identifiers {
		if id.Context == ast.AsmNonExternal {
			locals[id.Name] = true
			resolve(id, id.Context, false)
			continue
		}
		if locals[id.Name] {
			continue
		}
		if resolve(id, id.Context, false) {
			info.Resolved = append(info.Resolved, id)
			continue
		}
		info.Unresolved = append(info.Unresolved, id)
		reporter.TypeError(diagnostics.ErrA001, id.Location(), "Identifier not found.")
		ok = false
	}
	return info, ok
}
