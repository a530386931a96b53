package prettyprinter

import (
	"testing"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/token"
)

func TestCodePrinter_Declarations(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	tv := b.Var("T", nil)
	class := b.Class("Eq", tv, b.Function("eq",
		b.Params(b.Var("a", b.Ref(tv)), b.Var("b", b.Ref(tv))),
		b.Params(b.Var("r", b.Elementary(token.Bool))), nil))
	flag := b.TypeDef("Flag", nil, b.Elementary(token.Word))
	inst := b.BuiltinInstantiation(token.Integer, b.Elementary(token.Word), nil)
	x := b.Var("x", nil)
	fn := b.Function("main", b.Params(), nil, b.Block(
		b.Let(b.Number("1", ast.UnitEther), x),
		b.ExprStmt(b.Assign(b.Ref(x), b.Binary(token.Mul, b.Binary(token.Add, b.Ref(x), b.Ref(x)), b.Ref(x)))),
		b.ExprStmt(b.Call(b.Member(b.Ref(flag), "abs"), b.Ref(x))),
		b.Return(nil),
	))
	unit := b.SourceUnit(class, flag, inst, fn)

	p := NewCodePrinter()
	p.Print(unit)
	want := `class T: Eq {
    function eq(a: T, b: T) -> (r: bool);
}

type Flag = word;

instantiation word: integer {}

function main() {
    let x = 1 ether;
    x = (x + x) * x;
    Flag.abs(x);
    return;
}
`
	if got := p.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestCodePrinter_TypeExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr func(b *ast.Builder) ast.Expression
		want string
	}{
		{"arrow is right associative", func(b *ast.Builder) ast.Expression {
			return b.Binary(token.RightArrow, b.Elementary(token.Word),
				b.Binary(token.RightArrow, b.Elementary(token.Word), b.Elementary(token.Bool)))
		}, "word -> word -> bool"},
		{"arrow on the left", func(b *ast.Builder) ast.Expression {
			return b.Binary(token.RightArrow,
				b.Binary(token.RightArrow, b.Elementary(token.Word), b.Elementary(token.Word)), b.Elementary(token.Bool))
		}, "(word -> word) -> bool"},
		{"sort annotation", func(b *ast.Builder) ast.Expression {
			return b.Binary(token.Colon, b.Ident("U", nil), b.Ident("Eq", nil))
		}, "U: Eq"},
		{"tuple", func(b *ast.Builder) ast.Expression {
			return b.Tuple(b.Elementary(token.Word), b.Elementary(token.Bool))
		}, "(word, bool)"},
		{"subtraction is left associative", func(b *ast.Builder) ast.Expression {
			return b.Binary(token.Sub, b.Ident("a", nil), b.Binary(token.Sub, b.Ident("b", nil), b.Ident("c", nil)))
		}, "a - (b - c)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ast.NewBuilder("unit.sol")
			p := NewCodePrinter()
			p.Print(tt.expr(b))
			if got := p.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodePrinter_Annotations(t *testing.T) {
	b := ast.NewBuilder("unit.sol")
	x := b.Var("x", nil)
	fn := b.Function("f", b.Params(), nil, b.Block(b.Let(b.Number("5", ast.UnitNone), x)))

	p := NewAnnotatedPrinter(func(n ast.Node) string {
		switch n {
		case ast.Node(fn):
			return "unit -> unit"
		case ast.Node(x):
			return "'a:integer"
		}
		return ""
	})
	p.Print(fn)
	want := "function f() /* unit -> unit */ {\n    let x = 5; /* 'a:integer */\n}"
	if got := p.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
