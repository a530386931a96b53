// Package report flattens the result of one analysis run into plain rows
// that can be printed, dumped or persisted.
package report

import (
	"slices"
	"strings"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/inference"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Annotation is the inferred type of one node.
type Annotation struct {
	Node     ast.NodeID
	Kind     string
	Location string
	Type     string
}

// Member is one entry of a constructor's member table.
type Member struct {
	Owner string
	Name  string
	Type  string
}

// Literal is the exact value of an accepted number literal.
type Literal struct {
	Node  ast.NodeID
	Text  string
	Value string
}

// Report is the outcome of analyzing one unit.
type Report struct {
	RunID       uuid.UUID
	Source      string
	OK          bool
	Aborted     bool
	Annotations []Annotation
	Members     []Member
	Literals    []Literal
	Diagnostics []*diagnostics.DiagnosticError
}

// Build collects the annotations of every typed node in arena order.
// in may be nil when inference did not run.
func Build(source string, arena *ast.Arena, in *inference.Inferer, errs []*diagnostics.DiagnosticError, aborted bool) *Report {
	r := &Report{
		RunID:       uuid.New(),
		Source:      source,
		Aborted:     aborted,
		Diagnostics: errs,
		OK:          len(errs) == 0 && !aborted,
	}
	if in == nil {
		return r
	}

	for _, n := range arena.Nodes() {
		t := in.TypeString(n)
		if t == "" {
			continue
		}
		r.Annotations = append(r.Annotations, Annotation{
			Node:     n.ID(),
			Kind:     ast.KindName(n),
			Location: n.Location().String(),
			Type:     t,
		})
		if lit, ok := n.(*ast.Literal); ok {
			if v, ok := in.LiteralValue(lit); ok {
				r.Literals = append(r.Literals, Literal{Node: lit.ID(), Text: lit.Value, Value: v.RatString()})
			}
		}
	}

	ts := in.TypeSystem()
	env := ts.Env()
	for ctor, members := range in.Global().Members {
		owner := ts.ConstructorInfo(ctor).Name
		for _, name := range lo.Keys(members) {
			r.Members = append(r.Members, Member{Owner: owner, Name: name, Type: env.TypeToString(members[name].Type)})
		}
	}
	slices.SortFunc(r.Members, func(a, b Member) int {
		if c := strings.Compare(a.Owner, b.Owner); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return r
}

// TypeOf returns the annotation of node id.
func (r *Report) TypeOf(id ast.NodeID) (Annotation, bool) {
	return lo.Find(r.Annotations, func(a Annotation) bool { return a.Node == id })
}
