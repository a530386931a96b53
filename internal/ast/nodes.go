package ast

import (
	"github.com/funvibe/classinfer/internal/token"
)

// NodeID is the stable index of a node inside its Arena.
type NodeID int

// Node is the base interface for all syntax tree nodes.
// The set of implementations is closed: every node embeds nodeHeader.
type Node interface {
	ID() NodeID
	Location() token.Location
	header() *nodeHeader
}

// Expression is a Node that can appear in term, type or sort position.
type Expression interface {
	Node
	expressionNode()
}

// Declaration is a Node that identifiers can refer to.
type Declaration interface {
	Node
	DeclarationName() string
	declarationNode()
}

type nodeHeader struct {
	id  NodeID
	loc token.Location
}

func (h *nodeHeader) ID() NodeID               { return h.id }
func (h *nodeHeader) Location() token.Location { return h.loc }
func (h *nodeHeader) header() *nodeHeader      { return h }

// --- Declarations and statements ---

// SourceUnit is the root of a translation unit.
type SourceUnit struct {
	nodeHeader
	Nodes []Node
}

// FunctionDefinition: function name(params) -> (returns) { body }
// A nil Body marks a declaration without implementation (type class members).
type FunctionDefinition struct {
	nodeHeader
	Name             string
	Parameters       *ParameterList
	ReturnParameters *ParameterList // nil means unit
	Body             *Block
}

func (f *FunctionDefinition) DeclarationName() string { return f.Name }
func (f *FunctionDefinition) declarationNode()        {}
func (f *FunctionDefinition) IsImplemented() bool     { return f.Body != nil }

// ParameterList is a parenthesised list of variable declarations.
type ParameterList struct {
	nodeHeader
	Parameters []*VariableDeclaration
}

// VariableDeclaration: name [: typeExpression]
type VariableDeclaration struct {
	nodeHeader
	Name           string
	TypeExpression Expression
}

func (v *VariableDeclaration) DeclarationName() string { return v.Name }
func (v *VariableDeclaration) declarationNode()        {}

// Block is a braced statement list.
type Block struct {
	nodeHeader
	Statements []Node
}

// Return: return [expression]
type Return struct {
	nodeHeader
	Expression Expression
}

// ExpressionStatement wraps an expression evaluated for its effect.
type ExpressionStatement struct {
	nodeHeader
	Expression Expression
}

// VariableDeclarationStatement: let declarations [= initialValue]
type VariableDeclarationStatement struct {
	nodeHeader
	Declarations []*VariableDeclaration
	InitialValue Expression
}

// TypeDefinition: type Name(arguments) = typeExpression
type TypeDefinition struct {
	nodeHeader
	Name           string
	Arguments      *ParameterList
	TypeExpression Expression
}

func (t *TypeDefinition) DeclarationName() string { return t.Name }
func (t *TypeDefinition) declarationNode()        {}

// TypeClassDefinition: class Self: Name { functions }
type TypeClassDefinition struct {
	nodeHeader
	Name         string
	TypeVariable *VariableDeclaration
	Functions    []*FunctionDefinition
}

func (c *TypeClassDefinition) DeclarationName() string { return c.Name }
func (c *TypeClassDefinition) declarationNode()        {}

// TypeClassName names the class of an instantiation: either a path to a
// user class or a builtin class token.
type TypeClassName struct {
	Path    *IdentifierPath
	Builtin token.Kind
	Loc     token.Location
}

// IsBuiltin reports whether the class is named by a builtin token.
func (n TypeClassName) IsBuiltin() bool { return n.Path == nil }

// TypeClassInstantiation: instantiation TypeConstructor(argumentSorts): Class { functions }
type TypeClassInstantiation struct {
	nodeHeader
	TypeClass       TypeClassName
	TypeConstructor Expression // ElementaryTypeNameExpression or IdentifierPath
	ArgumentSorts   *ParameterList
	Functions       []*FunctionDefinition
}

// --- Expressions ---

// Identifier refers to a declaration resolved by an earlier pass.
// Referenced is nil for free type variable names.
type Identifier struct {
	nodeHeader
	Name       string
	Referenced Declaration
}

// IdentifierPath is a dotted name resolved by an earlier pass.
type IdentifierPath struct {
	nodeHeader
	Path       []string
	Referenced Declaration
}

// BinaryOperation: left op right
type BinaryOperation struct {
	nodeHeader
	Operator token.Kind
	Left     Expression
	Right    Expression
}

// TupleExpression: (components...)
type TupleExpression struct {
	nodeHeader
	Components []Expression
}

// FunctionCall: expression(arguments...)
type FunctionCall struct {
	nodeHeader
	Expression Expression
	Arguments  []Expression
}

// MemberAccess: expression.member
type MemberAccess struct {
	nodeHeader
	Expression     Expression
	MemberName     string
	MemberLocation token.Location
}

// Assignment: left = right
type Assignment struct {
	nodeHeader
	LeftHandSide  Expression
	RightHandSide Expression
}

// ElementaryTypeNameExpression is a builtin type name such as word or bool.
type ElementaryTypeNameExpression struct {
	nodeHeader
	Type token.Kind
}

// Literal is a number, string or boolean literal with an optional unit suffix.
type Literal struct {
	nodeHeader
	Token token.Kind
	Value string
	Unit  Unit
}

// ValueWithoutUnderscores returns the literal text with digit separators removed.
func (l *Literal) ValueWithoutUnderscores() string {
	out := make([]byte, 0, len(l.Value))
	for i := 0; i < len(l.Value); i++ {
		if l.Value[i] != '_' {
			out = append(out, l.Value[i])
		}
	}
	return string(out)
}

// InlineAssembly is an embedded low-level block. Only its identifier
// references are modelled; ExternalReferences maps the identifiers that
// an earlier pass bound to declarations of the enclosing program.
type InlineAssembly struct {
	nodeHeader
	Identifiers        []*AsmIdentifier
	ExternalReferences map[NodeID]Declaration
}

// AsmContext says how an assembly identifier is used.
type AsmContext int

const (
	AsmRValue AsmContext = iota
	AsmLValue
	AsmNonExternal // bound inside the assembly block itself
)

// AsmIdentifier is an identifier occurrence inside an assembly block.
type AsmIdentifier struct {
	nodeHeader
	Name    string
	Context AsmContext
}

func (*Identifier) expressionNode()                   {}
func (*IdentifierPath) expressionNode()               {}
func (*BinaryOperation) expressionNode()              {}
func (*TupleExpression) expressionNode()              {}
func (*FunctionCall) expressionNode()                 {}
func (*MemberAccess) expressionNode()                 {}
func (*Assignment) expressionNode()                   {}
func (*ElementaryTypeNameExpression) expressionNode() {}
func (*Literal) expressionNode()                      {}
