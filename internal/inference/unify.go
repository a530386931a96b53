package inference

import (
	"fmt"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/token"
	"github.com/funvibe/classinfer/internal/typesystem"
)

// unify unifies a and b in the global environment and reports failures at
// loc. While an instantiation is being visited, sort mismatches that only
// lack registered but not yet visited instantiations are resolved by
// visiting those instantiations and unifying once more.
func (in *Inferer) unify(a, b typesystem.Type, loc token.Location) {
	failures := in.env.Unify(a, b)

	if len(failures) > 0 && len(in.activeOrder) > 0 {
		missing, explained, recursion := in.missingInstantiations(failures)
		if recursion != nil {
			in.reportRecursion(loc)
			return
		}
		if explained {
			for _, inst := range missing {
				in.logger.Debug("inference: visiting missing instantiation", "at", inst.Location(), "for", loc)
				in.visit(inst)
			}
			failures = in.env.Unify(a, b)
		}
	}

	for _, f := range failures {
		in.reportFailure(f, loc)
	}
}

// missingInstantiations explains every failure as a sort mismatch of a type
// constant whose missing classes each have a registered instantiation for
// its constructor. recursion is the first such instantiation that is
// already active.
func (in *Inferer) missingInstantiations(failures []typesystem.UnificationFailure) (missing []*ast.TypeClassInstantiation, explained bool, recursion *ast.TypeClassInstantiation) {
	for _, f := range failures {
		mismatch, ok := f.(typesystem.SortMismatch)
		if !ok {
			return nil, false, nil
		}
		ctor, _, ok := in.env.DestTypeConstant(mismatch.Type)
		if !ok {
			return nil, false, nil
		}
		for _, class := range mismatch.Sort.Classes() {
			inst := in.registry.InstantiationsOf(class).For(ctor)
			if inst == nil {
				return nil, false, nil
			}
			if in.active.Contains(inst.ID()) {
				return nil, false, inst
			}
			missing = append(missing, inst)
		}
	}
	return missing, true, nil
}

func (in *Inferer) reportRecursion(loc token.Location) {
	err := in.reporter.TypeError(diagnostics.ErrT005, loc, "Recursion during type class instantiation.")
	for _, inst := range in.activeOrder {
		err.WithSecondary(inst.Location(), "Involved instantiation")
	}
	in.logger.Debug("inference: instantiation cycle", "at", loc, "active", len(in.activeOrder))
}

func (in *Inferer) reportFailure(f typesystem.UnificationFailure, loc token.Location) {
	switch f := f.(type) {
	case typesystem.TypeMismatch:
		in.reporter.TypeError(diagnostics.ErrT002, loc, fmt.Sprintf(
			"Cannot unify %s and %s.", in.env.TypeToString(f.A), in.env.TypeToString(f.B)))
	case typesystem.SortMismatch:
		in.reporter.TypeError(diagnostics.ErrT003, loc, fmt.Sprintf(
			"%s does not have sort %s", in.env.TypeToString(f.Type), in.ts.SortToString(f.Sort)))
	case typesystem.RecursiveUnification:
		in.reporter.TypeError(diagnostics.ErrT004, loc, fmt.Sprintf(
			"Recursive unification: %s occurs in %s.", in.env.TypeToString(f.Var), in.env.TypeToString(f.Type)))
	default:
		in.reporter.Unreachable(loc, fmt.Sprintf("unknown unification failure %T", f))
	}
}
