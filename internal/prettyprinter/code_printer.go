// Package prettyprinter renders a syntax tree back to source form,
// optionally annotating declarations with their inferred types.
package prettyprinter

import (
	"bytes"
	"strings"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/token"
)

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[token.Kind]int{
	token.Colon:      1,
	token.RightArrow: 2,
	token.Or:         3,
	token.And:        4,
	token.Equal:      5,
	token.NotEqual:   5,
	token.LessThan:   6,
	token.Add:        7,
	token.Sub:        7,
	token.Mul:        8,
	token.Div:        8,
	token.Mod:        8,
	token.Exp:        9,
}

func getPrecedence(op token.Kind) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 10
}

// Right-associative operators
var rightAssoc = map[token.Kind]bool{
	token.RightArrow: true,
	token.Exp:        true,
}

// Annotator returns the text appended as a comment after a declaration,
// or "" for none.
type Annotator func(n ast.Node) string

type CodePrinter struct {
	buf      bytes.Buffer
	indent   int
	annotate Annotator
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// NewAnnotatedPrinter prints the type of every declaration as a comment.
func NewAnnotatedPrinter(annotate Annotator) *CodePrinter {
	return &CodePrinter{annotate: annotate}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeIndent() {
	p.buf.WriteString(strings.Repeat("    ", p.indent))
}

func (p *CodePrinter) comment(n ast.Node) {
	if p.annotate == nil {
		return
	}
	if s := p.annotate(n); s != "" {
		p.write(" /* " + s + " */")
	}
}

// Print renders one node.
func (p *CodePrinter) Print(n ast.Node) {
	switch n := n.(type) {
	case *ast.SourceUnit:
		for i, child := range n.Nodes {
			if i > 0 {
				p.write("\n")
			}
			p.Print(child)
			p.write("\n")
		}
	case *ast.FunctionDefinition:
		p.printFunction(n)
	case *ast.TypeDefinition:
		p.write("type " + n.Name)
		if n.Arguments != nil {
			p.printParams(n.Arguments)
		}
		if n.TypeExpression != nil {
			p.write(" = ")
			p.printExpr(n.TypeExpression, 0, false)
		}
		p.write(";")
		p.comment(n)
	case *ast.TypeClassDefinition:
		p.write("class ")
		if n.TypeVariable != nil {
			p.printVar(n.TypeVariable)
		} else {
			p.write("<???>")
		}
		p.write(": " + n.Name + " {")
		p.comment(n)
		p.printMembers(n.Functions)
		p.write("}")
	case *ast.TypeClassInstantiation:
		p.write("instantiation ")
		p.printExpr(n.TypeConstructor, 0, false)
		if n.ArgumentSorts != nil {
			p.printParams(n.ArgumentSorts)
		}
		p.write(": ")
		if n.TypeClass.IsBuiltin() {
			p.write(n.TypeClass.Builtin.String())
		} else {
			p.write(strings.Join(n.TypeClass.Path.Path, "."))
		}
		p.write(" {")
		p.printMembers(n.Functions)
		p.write("}")
	case *ast.Block:
		p.printBlock(n)
	case *ast.Return:
		p.write("return")
		if n.Expression != nil {
			p.write(" ")
			p.printExpr(n.Expression, 0, false)
		}
		p.write(";")
	case *ast.ExpressionStatement:
		p.printExpr(n.Expression, 0, false)
		p.write(";")
	case *ast.VariableDeclarationStatement:
		p.write("let ")
		for i, d := range n.Declarations {
			if i > 0 {
				p.write(", ")
			}
			p.printVar(d)
		}
		if n.InitialValue != nil {
			p.write(" = ")
			p.printExpr(n.InitialValue, 0, false)
		}
		p.write(";")
		if len(n.Declarations) == 1 {
			p.comment(n.Declarations[0])
		}
	case *ast.InlineAssembly:
		p.write("assembly {")
		for _, id := range n.Identifiers {
			p.write(" ")
			if id.Context == ast.AsmNonExternal {
				p.write("let ")
			}
			p.write(id.Name)
		}
		p.write(" }")
	case ast.Expression:
		p.printExpr(n, 0, false)
	default:
		p.write("<" + ast.KindName(n) + ">")
	}
}

func (p *CodePrinter) printFunction(n *ast.FunctionDefinition) {
	p.write("function " + n.Name)
	if n.Parameters != nil {
		p.printParams(n.Parameters)
	} else {
		p.write("()")
	}
	if n.ReturnParameters != nil {
		p.write(" -> ")
		p.printParams(n.ReturnParameters)
	}
	if !n.IsImplemented() {
		p.write(";")
		p.comment(n)
		return
	}
	p.comment(n)
	p.write(" ")
	p.printBlock(n.Body)
}

func (p *CodePrinter) printMembers(fns []*ast.FunctionDefinition) {
	if len(fns) == 0 {
		return
	}
	p.write("\n")
	p.indent++
	for _, fn := range fns {
		p.writeIndent()
		p.printFunction(fn)
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
}

func (p *CodePrinter) printBlock(b *ast.Block) {
	if len(b.Statements) == 0 {
		p.write("{}")
		return
	}
	p.write("{\n")
	p.indent++
	for _, stmt := range b.Statements {
		p.writeIndent()
		p.Print(stmt)
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) printParams(list *ast.ParameterList) {
	p.write("(")
	for i, v := range list.Parameters {
		if i > 0 {
			p.write(", ")
		}
		p.printVar(v)
	}
	p.write(")")
}

func (p *CodePrinter) printVar(v *ast.VariableDeclaration) {
	p.write(v.Name)
	if v.TypeExpression != nil {
		p.write(": ")
		// Colon binds loosest, so a sort annotation needs no parentheses here.
		p.printExpr(v.TypeExpression, getPrecedence(token.Colon), false)
	}
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	if expr == nil {
		p.write("<???>")
		return
	}
	switch e := expr.(type) {
	case *ast.BinaryOperation:
		prec := getPrecedence(e.Operator)
		needParens := prec < parentPrec || (prec == parentPrec && isRight != rightAssoc[e.Operator])
		if needParens {
			p.write("(")
		}
		p.printExpr(e.Left, prec, false)
		if e.Operator == token.Colon {
			p.write(": ")
		} else {
			p.write(" " + e.Operator.String() + " ")
		}
		p.printExpr(e.Right, prec, true)
		if needParens {
			p.write(")")
		}
	case *ast.Identifier:
		p.write(e.Name)
	case *ast.IdentifierPath:
		p.write(strings.Join(e.Path, "."))
	case *ast.ElementaryTypeNameExpression:
		p.write(e.Type.String())
	case *ast.Literal:
		switch e.Token {
		case token.StringLiteral:
			p.write("\"" + e.Value + "\"")
		default:
			p.write(e.Value)
		}
		if e.Unit != ast.UnitNone {
			p.write(" " + e.Unit.String())
		}
	case *ast.TupleExpression:
		p.write("(")
		p.printExprList(e.Components)
		p.write(")")
	case *ast.FunctionCall:
		p.printExpr(e.Expression, 11, false)
		p.write("(")
		p.printExprList(e.Arguments)
		p.write(")")
	case *ast.MemberAccess:
		p.printExpr(e.Expression, 11, false)
		p.write("." + e.MemberName)
	case *ast.Assignment:
		if parentPrec > 0 {
			p.write("(")
		}
		p.printExpr(e.LeftHandSide, 1, false)
		p.write(" = ")
		p.printExpr(e.RightHandSide, 0, true)
		if parentPrec > 0 {
			p.write(")")
		}
	default:
		p.write("<" + ast.KindName(expr) + ">")
	}
}

func (p *CodePrinter) printExprList(es []ast.Expression) {
	for i, e := range es {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(e, 0, false)
	}
}
