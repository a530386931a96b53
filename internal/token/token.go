package token

import "fmt"

// Kind identifies operators, literal kinds, elementary type names and the
// builtin type class names of the language.
type Kind int

const (
	Illegal Kind = iota

	// Literals
	Number
	StringLiteral
	TrueLiteral
	FalseLiteral

	// Operators
	Colon
	RightArrow
	Assign
	Add
	Sub
	Mul
	Div
	Mod
	Exp
	Equal
	NotEqual
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	And
	Or

	// Elementary type names. Integer doubles as the builtin integer class.
	Void
	Word
	Integer
	Bool
	Unit
)

var names = map[Kind]string{
	Illegal:            "ILLEGAL",
	Number:             "number",
	StringLiteral:      "string",
	TrueLiteral:        "true",
	FalseLiteral:       "false",
	Colon:              ":",
	RightArrow:         "->",
	Assign:             "=",
	Add:                "+",
	Sub:                "-",
	Mul:                "*",
	Div:                "/",
	Mod:                "%",
	Exp:                "**",
	Equal:              "==",
	NotEqual:           "!=",
	LessThan:           "<",
	GreaterThan:        ">",
	LessThanOrEqual:    "<=",
	GreaterThanOrEqual: ">=",
	And:                "&&",
	Or:                 "||",
	Void:               "void",
	Word:               "word",
	Integer:            "integer",
	Bool:               "bool",
	Unit:               "unit",
}

var byName map[string]Kind

func init() {
	byName = make(map[string]Kind, len(names))
	for k, n := range names {
		byName[n] = k
	}
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Lookup returns the token kind spelled as s.
func Lookup(s string) (Kind, bool) {
	k, ok := byName[s]
	return k, ok
}

// IsElementaryTypeName reports whether k names a builtin type.
func (k Kind) IsElementaryTypeName() bool {
	return k >= Void && k <= Unit
}

// Location is a source range. Line and Column are 1-based and refer to Start.
type Location struct {
	Source string
	Start  int
	End    int
	Line   int
	Column int
}

func (l Location) String() string {
	if l.Source == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.Source, l.Line, l.Column)
}

// IsValid reports whether the location points into a source.
func (l Location) IsValid() bool {
	return l.Line > 0
}
