// Package inference assigns a type to every node of a registered syntax
// tree. Expressions are interpreted as terms, types or sorts depending on
// where they appear; type classes are resolved through unification.
package inference

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"github.com/funvibe/classinfer/internal/asm"
	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/config"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/registration"
	"github.com/funvibe/classinfer/internal/typesystem"
	"github.com/hashicorp/go-set/v3"
)

// ExpressionContext says how an expression is interpreted.
type ExpressionContext int

const (
	Term ExpressionContext = iota
	Type
	Sort
)

func (c ExpressionContext) String() string {
	switch c {
	case Term:
		return "term"
	case Type:
		return "type"
	case Sort:
		return "sort"
	}
	return fmt.Sprintf("ExpressionContext(%d)", int(c))
}

// GlobalAnnotation holds results that are not attached to a single node.
type GlobalAnnotation struct {
	// Members maps a type constructor to its member functions.
	Members map[typesystem.TypeConstructor]map[string]typesystem.TypeMember
	// TypeClasses maps a class declaration to its declared class.
	TypeClasses map[ast.NodeID]typesystem.TypeClass
}

// ExternalReference is an assembly identifier bound to a declaration.
type ExternalReference struct {
	Declaration ast.Declaration
	ValueSize   int
}

// Options configure an Inferer. Zero values select defaults.
type Options struct {
	MaxLiteralBits int
	Logger         *slog.Logger
	Assembly       asm.Analyzer
}

// Inferer runs type inference over one translation unit.
type Inferer struct {
	arena    *ast.Arena
	ts       *typesystem.TypeSystem
	env      *typesystem.Environment
	registry *registration.Registry
	reporter *diagnostics.Reporter
	asm      asm.Analyzer
	logger   *slog.Logger

	maxLiteralBits int

	annotations  []typesystem.Type
	global       GlobalAnnotation
	literals     map[ast.NodeID]*big.Rat
	externalRefs map[ast.NodeID]map[ast.NodeID]ExternalReference

	context             ExpressionContext
	currentFunctionType typesystem.Type
	active              *set.Set[ast.NodeID]
	activeOrder         []*ast.TypeClassInstantiation

	voidType    typesystem.Type
	wordType    typesystem.Type
	integerType typesystem.Type
	unitType    typesystem.Type
	boolType    typesystem.Type
}

// New creates an inferer over arena using the constructors and classes
// declared by the registration pass.
func New(arena *ast.Arena, registry *registration.Registry, reporter *diagnostics.Reporter, opts Options) *Inferer {
	ts := registry.TypeSystem()
	in := &Inferer{
		arena:          arena,
		ts:             ts,
		env:            ts.Env(),
		registry:       registry,
		reporter:       reporter,
		asm:            opts.Assembly,
		logger:         opts.Logger,
		maxLiteralBits: opts.MaxLiteralBits,
		annotations:    make([]typesystem.Type, arena.Len()),
		global: GlobalAnnotation{
			Members:     make(map[typesystem.TypeConstructor]map[string]typesystem.TypeMember),
			TypeClasses: make(map[ast.NodeID]typesystem.TypeClass),
		},
		literals:     make(map[ast.NodeID]*big.Rat),
		externalRefs: make(map[ast.NodeID]map[ast.NodeID]ExternalReference),
		context:      Term,
		active:       set.New[ast.NodeID](0),
		voidType:     ts.Primitive(typesystem.Void),
		wordType:     ts.Primitive(typesystem.Word),
		integerType:  ts.Primitive(typesystem.Integer),
		unitType:     ts.Primitive(typesystem.Unit),
		boolType:     ts.Primitive(typesystem.Bool),
	}
	if in.asm == nil {
		in.asm = asm.ReferenceAnalyzer{}
	}
	if in.logger == nil {
		in.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if in.maxLiteralBits <= 0 {
		in.maxLiteralBits = config.DefaultMaxLiteralBits
	}
	return in
}

// Analyze visits the unit. It reports whether no diagnostics were produced;
// err wraps diagnostics.ErrAborted when a fatal error stopped the pass.
func (in *Inferer) Analyze(unit *ast.SourceUnit) (bool, error) {
	err := diagnostics.CatchAbort(func() {
		in.visit(unit)
	})
	if err != nil {
		in.logger.Debug("inference: aborted", "error", err)
		return false, err
	}
	return !in.reporter.HasErrors(), nil
}

// TypeOf returns the type recorded for n, resolved against the environment.
func (in *Inferer) TypeOf(n ast.Node) (typesystem.Type, bool) {
	t := in.annotations[n.ID()]
	if t == nil {
		return nil, false
	}
	return in.env.ResolveRecursive(t), true
}

// TypeString renders the type recorded for n, or "" when n was not visited.
func (in *Inferer) TypeString(n ast.Node) string {
	t, ok := in.TypeOf(n)
	if !ok {
		return ""
	}
	return in.env.TypeToString(t)
}

// Global returns the member and class tables.
func (in *Inferer) Global() *GlobalAnnotation { return &in.global }

// LiteralValue returns the exact value of a well-formed number literal.
func (in *Inferer) LiteralValue(l *ast.Literal) (*big.Rat, bool) {
	v, ok := in.literals[l.ID()]
	return v, ok
}

// ExternalReferences returns the resolved external identifiers of block.
func (in *Inferer) ExternalReferences(block *ast.InlineAssembly) map[ast.NodeID]ExternalReference {
	return in.externalRefs[block.ID()]
}

// TypeSystem returns the type system the inferer declares into.
func (in *Inferer) TypeSystem() *typesystem.TypeSystem { return in.ts }

func (in *Inferer) annotation(n ast.Node) typesystem.Type {
	return in.annotations[n.ID()]
}

func (in *Inferer) setType(n ast.Node, t typesystem.Type) {
	in.annotations[n.ID()] = t
}

// getType returns the type of an already visited node.
func (in *Inferer) getType(n ast.Node) typesystem.Type {
	t := in.annotations[n.ID()]
	if t == nil {
		in.reporter.Unreachable(n.Location(), ast.KindName(n)+" has no type")
	}
	return t
}

func (in *Inferer) fresh() typesystem.Type {
	return in.ts.FreshTypeVariable(typesystem.Sort{})
}

// withContext runs fn with the expression context set to ctx.
func (in *Inferer) withContext(ctx ExpressionContext, fn func()) {
	saved := in.context
	in.context = ctx
	defer func() { in.context = saved }()
	fn()
}

// typeConstructor returns the constructor registered for a declaration.
func (in *Inferer) typeConstructor(decl ast.Declaration) typesystem.TypeConstructor {
	c, ok := in.registry.ConstructorOf(decl)
	if !ok {
		in.reporter.FatalTypeError(diagnostics.ErrF001, decl.Location(), "Unregistered type.")
	}
	return c
}

func (in *Inferer) declaredType(decl ast.Declaration, args []typesystem.Type) typesystem.Type {
	return in.ts.Type(in.typeConstructor(decl), args)
}
