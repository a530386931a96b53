package inference

import (
	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
)

// visitInlineAssembly re-resolves the external references of block. Every
// referenced declaration must have the word type.
func (in *Inferer) visitInlineAssembly(block *ast.InlineAssembly) {
	in.setType(block, in.unitType)
	if in.context != Term {
		in.reporter.TypeError(diagnostics.ErrT001, block.Location(), "Inline assembly outside term context.")
		return
	}

	refs := make(map[ast.NodeID]ExternalReference)
	in.externalRefs[block.ID()] = refs

	resolve := func(id *ast.AsmIdentifier, ctx ast.AsmContext, _ bool) bool {
		if ctx == ast.AsmNonExternal {
			// A local binding shadows whatever the earlier pass bound.
			delete(block.ExternalReferences, id.ID())
			delete(refs, id.ID())
			return false
		}
		decl, ok := block.ExternalReferences[id.ID()]
		if !ok || decl == nil {
			return false
		}
		in.visit(decl)
		in.unify(in.getType(decl), in.wordType, id.Location())
		refs[id.ID()] = ExternalReference{Declaration: decl, ValueSize: 1}
		return true
	}

	if _, ok := in.asm.Analyze(block, resolve, in.reporter); !ok && !in.reporter.HasErrors() {
		in.reporter.Unreachable(block.Location(), "assembly analysis failed without diagnostics")
	}
}
