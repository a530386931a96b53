package ast

import (
	"fmt"

	"github.com/funvibe/classinfer/internal/token"
)

// Unit is the denomination suffix of a number literal.
type Unit int

const (
	UnitNone Unit = iota
	UnitWei
	UnitGwei
	UnitEther
	UnitSecond
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitYear
)

var unitNames = []string{"", "wei", "gwei", "ether", "seconds", "minutes", "hours", "days", "weeks", "years"}

func (u Unit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// ParseUnit maps a suffix spelling to its Unit.
func ParseUnit(s string) (Unit, bool) {
	for i, n := range unitNames {
		if n == s {
			return Unit(i), true
		}
	}
	return UnitNone, false
}

// Arena owns every node of a translation unit. NodeIDs index into it.
type Arena struct {
	nodes []Node
}

// Len returns the number of allocated nodes; valid ids are [0, Len).
func (a *Arena) Len() int { return len(a.nodes) }

// Node returns the node with the given id.
func (a *Arena) Node(id NodeID) Node { return a.nodes[id] }

// Nodes returns all nodes in allocation order.
func (a *Arena) Nodes() []Node { return a.nodes }

func (a *Arena) add(n Node, loc token.Location) {
	h := n.header()
	h.id = NodeID(len(a.nodes))
	h.loc = loc
	a.nodes = append(a.nodes, n)
}

// KindName returns a short human readable name for the node variant.
func KindName(n Node) string {
	switch n.(type) {
	case *SourceUnit:
		return "SourceUnit"
	case *FunctionDefinition:
		return "FunctionDefinition"
	case *ParameterList:
		return "ParameterList"
	case *VariableDeclaration:
		return "VariableDeclaration"
	case *Block:
		return "Block"
	case *Return:
		return "Return"
	case *ExpressionStatement:
		return "ExpressionStatement"
	case *VariableDeclarationStatement:
		return "VariableDeclarationStatement"
	case *TypeDefinition:
		return "TypeDefinition"
	case *TypeClassDefinition:
		return "TypeClassDefinition"
	case *TypeClassInstantiation:
		return "TypeClassInstantiation"
	case *Identifier:
		return "Identifier"
	case *IdentifierPath:
		return "IdentifierPath"
	case *BinaryOperation:
		return "BinaryOperation"
	case *TupleExpression:
		return "TupleExpression"
	case *FunctionCall:
		return "FunctionCall"
	case *MemberAccess:
		return "MemberAccess"
	case *Assignment:
		return "Assignment"
	case *ElementaryTypeNameExpression:
		return "ElementaryTypeNameExpression"
	case *Literal:
		return "Literal"
	case *InlineAssembly:
		return "InlineAssembly"
	case *AsmIdentifier:
		return "AsmIdentifier"
	default:
		return fmt.Sprintf("%T", n)
	}
}
