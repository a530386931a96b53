package ast

import (
	"github.com/funvibe/classinfer/internal/token"
)

// Builder allocates nodes into an Arena. Nodes get a synthetic location
// (line 1, column = id+1) unless At was called right before creating them.
type Builder struct {
	arena  *Arena
	source string
	next   *token.Location
}

func NewBuilder(source string) *Builder {
	return &Builder{arena: &Arena{}, source: source}
}

// Arena returns the arena the builder allocates into.
func (b *Builder) Arena() *Arena { return b.arena }

// At sets the location of the next node created.
func (b *Builder) At(line, column int) *Builder {
	b.next = &token.Location{Source: b.source, Line: line, Column: column}
	return b
}

func (b *Builder) add(n Node) {
	var loc token.Location
	if b.next != nil {
		loc = *b.next
		b.next = nil
	} else {
		id := b.arena.Len()
		loc = token.Location{Source: b.source, Start: id, End: id, Line: 1, Column: id + 1}
	}
	b.arena.add(n, loc)
}

func (b *Builder) SourceUnit(nodes ...Node) *SourceUnit {
	n := &SourceUnit{Nodes: nodes}
	b.add(n)
	return n
}

// Function creates a function definition. Pass a nil body for a bodiless member.
func (b *Builder) Function(name string, params, returns *ParameterList, body *Block) *FunctionDefinition {
	n := &FunctionDefinition{Name: name, Parameters: params, ReturnParameters: returns, Body: body}
	b.add(n)
	return n
}

func (b *Builder) Params(params ...*VariableDeclaration) *ParameterList {
	n := &ParameterList{Parameters: params}
	b.add(n)
	return n
}

// Var creates a variable declaration; typeExpr may be nil.
func (b *Builder) Var(name string, typeExpr Expression) *VariableDeclaration {
	n := &VariableDeclaration{Name: name, TypeExpression: typeExpr}
	b.add(n)
	return n
}

func (b *Builder) Block(statements ...Node) *Block {
	n := &Block{Statements: statements}
	b.add(n)
	return n
}

func (b *Builder) Return(expr Expression) *Return {
	n := &Return{Expression: expr}
	b.add(n)
	return n
}

func (b *Builder) ExprStmt(expr Expression) *ExpressionStatement {
	n := &ExpressionStatement{Expression: expr}
	b.add(n)
	return n
}

func (b *Builder) Let(init Expression, decls ...*VariableDeclaration) *VariableDeclarationStatement {
	n := &VariableDeclarationStatement{Declarations: decls, InitialValue: init}
	b.add(n)
	return n
}

func (b *Builder) TypeDef(name string, args *ParameterList, underlying Expression) *TypeDefinition {
	n := &TypeDefinition{Name: name, Arguments: args, TypeExpression: underlying}
	b.add(n)
	return n
}

func (b *Builder) Class(name string, typeVar *VariableDeclaration, functions ...*FunctionDefinition) *TypeClassDefinition {
	n := &TypeClassDefinition{Name: name, TypeVariable: typeVar, Functions: functions}
	b.add(n)
	return n
}

// Instantiation creates an instantiation of a user class referenced by path.
func (b *Builder) Instantiation(class *IdentifierPath, target Expression, argSorts *ParameterList, functions ...*FunctionDefinition) *TypeClassInstantiation {
	n := &TypeClassInstantiation{
		TypeClass:       TypeClassName{Path: class, Loc: class.Location()},
		TypeConstructor: target,
		ArgumentSorts:   argSorts,
		Functions:       functions,
	}
	b.add(n)
	return n
}

// BuiltinInstantiation creates an instantiation of a builtin class named by a token.
func (b *Builder) BuiltinInstantiation(class token.Kind, target Expression, argSorts *ParameterList, functions ...*FunctionDefinition) *TypeClassInstantiation {
	n := &TypeClassInstantiation{
		TypeClass:       TypeClassName{Builtin: class},
		TypeConstructor: target,
		ArgumentSorts:   argSorts,
		Functions:       functions,
	}
	b.add(n)
	n.TypeClass.Loc = n.Location()
	return n
}

// Ident creates an identifier referring to decl; decl may be nil.
func (b *Builder) Ident(name string, decl Declaration) *Identifier {
	n := &Identifier{Name: name, Referenced: decl}
	b.add(n)
	return n
}

// Ref creates an identifier named after decl.
func (b *Builder) Ref(decl Declaration) *Identifier {
	return b.Ident(decl.DeclarationName(), decl)
}

func (b *Builder) Path(decl Declaration, path ...string) *IdentifierPath {
	if len(path) == 0 && decl != nil {
		path = []string{decl.DeclarationName()}
	}
	n := &IdentifierPath{Path: path, Referenced: decl}
	b.add(n)
	return n
}

func (b *Builder) Binary(op token.Kind, left, right Expression) *BinaryOperation {
	n := &BinaryOperation{Operator: op, Left: left, Right: right}
	b.add(n)
	return n
}

func (b *Builder) Tuple(components ...Expression) *TupleExpression {
	n := &TupleExpression{Components: components}
	b.add(n)
	return n
}

func (b *Builder) Call(callee Expression, args ...Expression) *FunctionCall {
	n := &FunctionCall{Expression: callee, Arguments: args}
	b.add(n)
	return n
}

func (b *Builder) Member(expr Expression, name string) *MemberAccess {
	n := &MemberAccess{Expression: expr, MemberName: name}
	b.add(n)
	n.MemberLocation = n.Location()
	return n
}

func (b *Builder) Assign(left, right Expression) *Assignment {
	n := &Assignment{LeftHandSide: left, RightHandSide: right}
	b.add(n)
	return n
}

func (b *Builder) Elementary(kind token.Kind) *ElementaryTypeNameExpression {
	n := &ElementaryTypeNameExpression{Type: kind}
	b.add(n)
	return n
}

func (b *Builder) Number(value string, unit Unit) *Literal {
	n := &Literal{Token: token.Number, Value: value, Unit: unit}
	b.add(n)
	return n
}

func (b *Builder) String(value string) *Literal {
	n := &Literal{Token: token.StringLiteral, Value: value}
	b.add(n)
	return n
}

func (b *Builder) Bool(value bool) *Literal {
	n := &Literal{Token: token.FalseLiteral, Value: "false"}
	if value {
		n.Token, n.Value = token.TrueLiteral, "true"
	}
	b.add(n)
	return n
}

func (b *Builder) Assembly(ids ...*AsmIdentifier) *InlineAssembly {
	n := &InlineAssembly{Identifiers: ids, ExternalReferences: make(map[NodeID]Declaration)}
	b.add(n)
	return n
}

// AsmIdent creates an assembly identifier occurrence.
func (b *Builder) AsmIdent(name string, ctx AsmContext) *AsmIdentifier {
	n := &AsmIdentifier{Name: name, Context: ctx}
	b.add(n)
	return n
}

// BindExternal records that id inside block refers to decl.
func (b *Builder) BindExternal(block *InlineAssembly, id *AsmIdentifier, decl Declaration) {
	block.ExternalReferences[id.ID()] = decl
}
