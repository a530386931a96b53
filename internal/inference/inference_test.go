package inference

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/registration"
	"github.com/funvibe/classinfer/internal/token"
	"github.com/funvibe/classinfer/internal/typesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	in  *Inferer
	rep *diagnostics.Reporter
	ok  bool
	err error
}

func analyze(t *testing.T, b *ast.Builder, unit *ast.SourceUnit) result {
	t.Helper()
	rep := diagnostics.NewReporter()
	reg, err := registration.Register(b.Arena(), typesystem.New(), rep)
	require.NoError(t, err)
	in := New(b.Arena(), reg, rep, Options{})
	ok, err := in.Analyze(unit)
	return result{in: in, rep: rep, ok: ok, err: err}
}

func codes(rep *diagnostics.Reporter) []diagnostics.ErrorCode {
	var out []diagnostics.ErrorCode
	for _, e := range rep.Errors() {
		out = append(out, e.Code)
	}
	return out
}

func TestInfer_Generalization(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	x := b.Var("x", nil)
	id := b.Function("id", b.Params(x), b.Params(b.Var("y", nil)), b.Block(b.Return(b.Ref(x))))

	p := b.Var("p", b.Elementary(token.Word))
	q := b.Var("q", b.Elementary(token.Bool))
	a := b.Var("a", nil)
	c := b.Var("c", nil)
	g := b.Function("g", b.Params(p, q), nil, b.Block(
		b.Let(b.Call(b.Ref(id), b.Ref(p)), a),
		b.Let(b.Call(b.Ref(id), b.Ref(q)), c),
	))
	r := analyze(t, b, b.SourceUnit(id, g))

	require.NoError(t, r.err)
	assert.True(t, r.ok, "diagnostics: %v", r.rep.Errors())
	assert.Equal(t, "word", r.in.TypeString(a))
	assert.Equal(t, "bool", r.in.TypeString(c))

	domain, codomain, ok := r.in.TypeSystem().Env().DestFunctionType(mustType(t, r.in, id))
	require.True(t, ok)
	assert.True(t, r.in.TypeSystem().Env().TypeEquals(domain, codomain), "id should map a type to itself")
}

func TestInfer_ReturnMismatch(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	p := b.Var("p", b.Elementary(token.Word))
	fn := b.Function("h", b.Params(p), b.Params(b.Var("r", b.Elementary(token.Bool))), b.Block(b.Return(b.Ref(p))))
	r := analyze(t, b, b.SourceUnit(fn))

	require.NoError(t, r.err)
	assert.False(t, r.ok)
	require.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrT002}, codes(r.rep))
	msg := r.rep.Errors()[0].Message
	assert.True(t, strings.HasPrefix(msg, "Cannot unify "), msg)
	assert.Contains(t, msg, "word")
	assert.Contains(t, msg, "bool")
}

func TestInfer_LiteralNeedsIntegerInstance(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	lit := b.Number("7", ast.UnitNone)
	fn := b.Function("f", nil, b.Params(b.Var("r", b.Elementary(token.Word))), b.Block(b.Return(lit)))
	r := analyze(t, b, b.SourceUnit(fn))

	require.NoError(t, r.err)
	require.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrT003}, codes(r.rep))
	assert.Equal(t, "word does not have sort integer", r.rep.Errors()[0].Message)

	v, ok := r.in.LiteralValue(lit)
	require.True(t, ok)
	assert.Equal(t, 0, v.Cmp(big.NewRat(7, 1)))
}

func TestInfer_LiteralWithInstance(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	inst := b.BuiltinInstantiation(token.Integer, b.Elementary(token.Word), nil,
		b.Function("fromInteger", b.Params(b.Var("x", b.Elementary(token.Integer))), b.Params(b.Var("r", b.Elementary(token.Word))), nil))
	w := b.Var("w", b.Elementary(token.Word))
	fn := b.Function("f", nil, nil, b.Block(b.Let(b.Number("1", ast.UnitEther), w)))
	r := analyze(t, b, b.SourceUnit(inst, fn))

	require.NoError(t, r.err)
	assert.True(t, r.ok, "diagnostics: %v", r.rep.Errors())
	assert.Equal(t, "word", r.in.TypeString(w))
}

func TestInfer_LiteralDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		lit  func(b *ast.Builder) *ast.Literal
		code diagnostics.ErrorCode
		msg  string
	}{
		{"string", func(b *ast.Builder) *ast.Literal { return b.String("hi") }, diagnostics.ErrT012, "Only number literals are supported."},
		{"bool", func(b *ast.Builder) *ast.Literal { return b.Bool(true) }, diagnostics.ErrT012, "Only number literals are supported."},
		{"malformed", func(b *ast.Builder) *ast.Literal { return b.Number("1.2.3", ast.UnitNone) }, diagnostics.ErrT010, "Invalid number literals."},
		{"zero mantissa", func(b *ast.Builder) *ast.Literal { return b.Number("0E5", ast.UnitNone) }, diagnostics.ErrT010, "Invalid number literals."},
		{"fraction", func(b *ast.Builder) *ast.Literal { return b.Number("1.5", ast.UnitNone) }, diagnostics.ErrT011, "Only integers are supported."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ast.NewBuilder("unit.sol")
			lit := tt.lit(b)
			fn := b.Function("f", nil, nil, b.Block(b.ExprStmt(lit)))
			r := analyze(t, b, b.SourceUnit(fn))

			require.NoError(t, r.err)
			require.Len(t, r.rep.Errors(), 1)
			assert.Equal(t, tt.code, r.rep.Errors()[0].Code)
			assert.Equal(t, tt.msg, r.rep.Errors()[0].Message)
			_, typed := r.in.TypeOf(lit)
			assert.True(t, typed, "rejected literal still gets a type")
			_, hasValue := r.in.LiteralValue(lit)
			assert.False(t, hasValue)
		})
	}
}

func TestInfer_OperatorWithoutInstance(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	x := b.Var("x", b.Elementary(token.Word))
	y := b.Var("y", b.Elementary(token.Word))
	fn := b.Function("add", b.Params(x, y), b.Params(b.Var("r", b.Elementary(token.Word))),
		b.Block(b.Return(b.Binary(token.Add, b.Ref(x), b.Ref(y)))))
	r := analyze(t, b, b.SourceUnit(fn))

	require.NoError(t, r.err)
	require.NotEmpty(t, r.rep.Errors())
	assert.Equal(t, diagnostics.ErrT003, r.rep.Errors()[0].Code)
	assert.Equal(t, "word does not have sort +", r.rep.Errors()[0].Message)
}

func TestInfer_ContextLegality(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	x := b.Var("x", b.Elementary(token.Word))
	fn := b.Function("f", b.Params(x), nil, b.Block(
		b.ExprStmt(b.Elementary(token.Word)),
		b.ExprStmt(b.Binary(token.Sub, b.Ref(x), b.Ref(x))),
		b.Let(nil, b.Var("a", nil), b.Var("c", nil)),
	))
	r := analyze(t, b, b.SourceUnit(fn))

	require.NoError(t, r.err)
	assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrT001, diagnostics.ErrT007, diagnostics.ErrT007}, codes(r.rep))
	assert.Equal(t, "Elementary type name expression only supported in type context.", r.rep.Errors()[0].Message)
	assert.Equal(t, "Binary operation in term context not yet supported.", r.rep.Errors()[1].Message)
	assert.Equal(t, "Multi variable declaration not supported.", r.rep.Errors()[2].Message)
}

func TestInfer_TypeDefinitionMembers(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	flag := b.TypeDef("Flag", nil, b.Elementary(token.Word))
	p := b.Var("p", b.Elementary(token.Word))
	fn := b.Function("wrap", b.Params(p), b.Params(b.Var("r", b.Ref(flag))),
		b.Block(b.Return(b.Call(b.Member(b.Ref(flag), "abs"), b.Ref(p)))))
	missing := b.Function("bad", nil, nil, b.Block(b.ExprStmt(b.Member(b.Ref(flag), "nope"))))
	r := analyze(t, b, b.SourceUnit(flag, fn, missing))

	require.NoError(t, r.err)
	require.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrT006}, codes(r.rep))
	assert.Equal(t, "Member not found.", r.rep.Errors()[0].Message)
	assert.Equal(t, "word -> Flag", r.in.TypeString(fn))
}

func TestInfer_FatalAborts(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	f := b.Function("f", nil, nil, b.Block())
	g := b.Function("g", nil, nil, b.Block(b.Let(nil, b.Var("v", b.Ref(f)))))
	r := analyze(t, b, b.SourceUnit(f, g))

	assert.False(t, r.ok)
	require.Error(t, r.err)
	assert.True(t, errors.Is(r.err, diagnostics.ErrAborted))
	fatal := r.rep.FatalError()
	require.NotNil(t, fatal)
	assert.Equal(t, diagnostics.ErrF004, fatal.Code)
	assert.Equal(t, "Attempt to type identifier referring to unexpected node.", fatal.Message)
	require.Len(t, fatal.Secondary, 1)
	assert.Equal(t, f.Location(), fatal.Secondary[0].Location)
}

func TestInfer_Idempotent(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	x := b.Var("x", b.Elementary(token.Word))
	fn := b.Function("f", b.Params(x), b.Params(b.Var("r", b.Elementary(token.Bool))), b.Block(b.Return(b.Ref(x))))
	unit := b.SourceUnit(fn)
	r := analyze(t, b, unit)
	before := len(r.rep.Errors())
	typ := r.in.TypeString(fn)

	ok, err := r.in.Analyze(unit)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, r.rep.Errors(), before)
	assert.Equal(t, typ, r.in.TypeString(fn))
}

func TestInfer_EveryNodeTyped(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	flag := b.TypeDef("Flag", nil, b.Elementary(token.Word))
	x := b.Var("x", b.Ref(flag))
	tmp := b.Var("tmp", nil)
	fn := b.Function("f", b.Params(x), b.Params(b.Var("r", b.Ref(flag))), b.Block(
		b.Let(b.Ref(x), tmp),
		b.ExprStmt(b.Assign(b.Ref(tmp), b.Ref(x))),
		b.ExprStmt(b.Tuple(b.Ref(x), b.Ref(tmp))),
		b.Return(b.Ref(tmp)),
	))
	r := analyze(t, b, b.SourceUnit(flag, fn))

	require.NoError(t, r.err)
	require.True(t, r.ok, "diagnostics: %v", r.rep.Errors())
	for _, n := range b.Arena().Nodes() {
		_, typed := r.in.TypeOf(n)
		assert.True(t, typed, "%s at %s has no type", ast.KindName(n), n.Location())
	}
}

func TestInfer_TypeContextExpressions(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	tv := b.Var("T", nil)
	class := b.Class("Eq", tv, b.Function("same", b.Params(b.Var("a", b.Ref(tv))), b.Params(b.Var("r", b.Elementary(token.Bool))), nil))
	pair := b.TypeDef("Pair", b.Params(b.Var("A", nil), b.Var("B", nil)), nil)

	fnVar := b.Var("fn", b.Binary(token.RightArrow, b.Elementary(token.Word), b.Elementary(token.Bool)))
	pairVar := b.Var("pv", b.Call(b.Ref(pair), b.Elementary(token.Word), b.Elementary(token.Bool)))
	free := b.Ident("U", nil)
	sorted := b.Var("s", b.Binary(token.Colon, free, b.Ref(class)))
	fn := b.Function("f", b.Params(fnVar, pairVar, sorted), nil, b.Block())
	r := analyze(t, b, b.SourceUnit(class, pair, fn))

	require.NoError(t, r.err)
	require.True(t, r.ok, "diagnostics: %v", r.rep.Errors())
	assert.Equal(t, "word -> bool", r.in.TypeString(fnVar))
	assert.Equal(t, "Pair(word, bool)", r.in.TypeString(pairVar))

	env := r.in.TypeSystem().Env()
	st, _ := r.in.TypeOf(sorted)
	tc := r.in.Global().TypeClasses[class.ID()]
	assert.True(t, env.Sort(st).Contains(tc), "%s should have sort Eq", env.TypeToString(st))
}

func TestInfer_InlineAssembly(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	p := b.Var("p", b.Elementary(token.Word))
	q := b.Var("q", b.Elementary(token.Bool))
	useP := b.AsmIdent("p", ast.AsmRValue)
	useQ := b.AsmIdent("q", ast.AsmLValue)
	local := b.AsmIdent("tmp", ast.AsmNonExternal)
	useLocal := b.AsmIdent("tmp", ast.AsmRValue)
	unknown := b.AsmIdent("nope", ast.AsmRValue)
	block := b.Assembly(useP, useQ, local, useLocal, unknown)
	b.BindExternal(block, useP, p)
	b.BindExternal(block, useQ, q)
	b.BindExternal(block, local, p)
	fn := b.Function("f", b.Params(p, q), nil, b.Block(block))
	r := analyze(t, b, b.SourceUnit(fn))

	require.NoError(t, r.err)
	assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrT002, diagnostics.ErrA001}, codes(r.rep))
	assert.Equal(t, "Identifier not found.", r.rep.Errors()[1].Message)

	refs := r.in.ExternalReferences(block)
	require.Contains(t, refs, useP.ID())
	assert.Equal(t, ExternalReference{Declaration: p, ValueSize: 1}, refs[useP.ID()])
	assert.NotContains(t, refs, local.ID())
	assert.NotContains(t, block.ExternalReferences, local.ID())
}

func TestInfer_InstantiationResolvedOnDemand(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	tv := b.Var("T", nil)
	class := b.Class("Default", tv, b.Function("make", b.Params(b.Var("x", b.Ref(tv))), b.Params(b.Var("r", b.Ref(tv))), nil))
	flag := b.TypeDef("Flag", nil, nil)

	w := b.Var("w", b.Elementary(token.Word))
	x := b.Var("x", b.Ref(flag))
	flagInst := b.Instantiation(b.Path(class), b.Path(flag), nil,
		b.Function("make", b.Params(x), b.Params(b.Var("r", b.Ref(flag))), b.Block(
			b.Let(b.Number("1", ast.UnitNone), w),
			b.Return(b.Ref(x)),
		)))
	// Declared after its first use.
	wordInst := b.BuiltinInstantiation(token.Integer, b.Elementary(token.Word), nil,
		b.Function("fromInteger", b.Params(b.Var("n", b.Elementary(token.Integer))), b.Params(b.Var("r", b.Elementary(token.Word))), nil))
	r := analyze(t, b, b.SourceUnit(class, flag, flagInst, wordInst))

	require.NoError(t, r.err)
	assert.True(t, r.ok, "diagnostics: %v", r.rep.Errors())
	assert.Equal(t, "word", r.in.TypeString(w))
}

func TestInfer_InstantiationCycle(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	tv1 := b.Var("T", nil)
	c1 := b.Class("C1", tv1, b.Function("f", b.Params(b.Var("x", b.Ref(tv1))), b.Params(b.Var("r", b.Ref(tv1))), nil))
	tv2 := b.Var("T", nil)
	c2 := b.Class("C2", tv2, b.Function("g", b.Params(b.Var("x", b.Ref(tv2))), b.Params(b.Var("r", b.Ref(tv2))), nil))
	t1 := b.TypeDef("T1", nil, nil)
	t2 := b.TypeDef("T2", nil, nil)

	x1 := b.Var("x", b.Ref(t1))
	y := b.Var("y", b.Ref(t2))
	inst1 := b.Instantiation(b.Path(c1), b.Path(t1), nil,
		b.Function("f", b.Params(x1), b.Params(b.Var("r", b.Ref(t1))), b.Block(
			b.Let(nil, y),
			b.ExprStmt(b.Call(b.Member(b.Ref(c2), "g"), b.Ref(y))),
			b.Return(b.Ref(x1)),
		)))
	x2 := b.Var("x", b.Ref(t2))
	z := b.Var("z", b.Ref(t1))
	inst2 := b.Instantiation(b.Path(c2), b.Path(t2), nil,
		b.Function("g", b.Params(x2), b.Params(b.Var("r", b.Ref(t2))), b.Block(
			b.Let(nil, z),
			b.ExprStmt(b.Call(b.Member(b.Ref(c1), "f"), b.Ref(z))),
			b.Return(b.Ref(x2)),
		)))
	r := analyze(t, b, b.SourceUnit(c1, c2, t1, t2, inst1, inst2))

	require.NoError(t, r.err)
	require.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrT005}, codes(r.rep))
	cycle := r.rep.Errors()[0]
	assert.Equal(t, "Recursion during type class instantiation.", cycle.Message)
	assert.False(t, cycle.Fatal)
	require.Len(t, cycle.Secondary, 2)
	assert.Equal(t, inst1.Location(), cycle.Secondary[0].Location)
	assert.Equal(t, inst2.Location(), cycle.Secondary[1].Location)
	assert.Equal(t, "Involved instantiation", cycle.Secondary[0].Message)
}

func TestInfer_InstantiationErrors(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	tv := b.Var("T", nil)
	class := b.Class("Show", tv, b.Function("show", b.Params(b.Var("x", b.Ref(tv))), b.Params(b.Var("r", b.Elementary(token.Word))), nil))
	flag := b.TypeDef("Flag", nil, nil)
	body := func(name string) *ast.FunctionDefinition {
		return b.Function(name, b.Params(b.Var("x", b.Ref(flag))), b.Params(b.Var("r", b.Elementary(token.Word))), nil)
	}
	dup := b.Instantiation(b.Path(class), b.Path(flag), nil, body("show"), body("show"))
	notClass := b.Instantiation(b.Path(flag), b.Path(flag), nil)
	r := analyze(t, b, b.SourceUnit(class, flag, dup, notClass))

	require.NoError(t, r.err)
	assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrT008, diagnostics.ErrT013}, codes(r.rep))
	assert.Equal(t, "Duplicate definition of function show during type class instantiation.", r.rep.Errors()[0].Message)
	assert.Equal(t, "Expected type class.", r.rep.Errors()[1].Message)
}

func TestInfer_ClassMemberMustUseClassVariable(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	tv := b.Var("T", nil)
	class := b.Class("Bad", tv, b.Function("k", nil, b.Params(b.Var("r", b.Elementary(token.Word))), nil))
	r := analyze(t, b, b.SourceUnit(class))

	require.ErrorIs(t, r.err, diagnostics.ErrAborted)
	require.NotNil(t, r.rep.FatalError())
	assert.Equal(t, diagnostics.ErrF002, r.rep.FatalError().Code)
}

func mustType(t *testing.T, in *Inferer, n ast.Node) typesystem.Type {
	t.Helper()
	typ, ok := in.TypeOf(n)
	require.True(t, ok, "%s has no type", ast.KindName(n))
	return typ
}
