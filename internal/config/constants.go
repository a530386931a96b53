package config

import "math/big"

// OptionsFileName is the options file looked up next to the analyzed unit.
const OptionsFileName = "classinfer.yaml"

// SourceFileExt is the extension of YAML syntax-tree units.
const SourceFileExt = ".yaml"

// DefaultMaxLiteralBits bounds the size of an exact literal value.
const DefaultMaxLiteralBits = 4096

// Built-in type class names
const (
	IntegerClassName = "integer"
	MulClassName     = "*"
	AddClassName     = "+"
	EqualClassName   = "=="
	LessClassName    = "<"
)

// Built-in class member names
const (
	FromIntegerMember = "fromInteger"
	MulMember         = "mul"
	AddMember         = "add"
	EqualMember       = "eq"
	LessMember        = "lt"
)

// Synthetic members of user type definitions
const (
	AbsMember = "abs"
	RepMember = "rep"
)

// Unit multipliers, indexed by suffix spelling.
var UnitMultipliers = map[string]*big.Int{
	"":        big.NewInt(1),
	"wei":     big.NewInt(1),
	"gwei":    big.NewInt(1_000_000_000),
	"ether":   new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
	"seconds": big.NewInt(1),
	"minutes": big.NewInt(60),
	"hours":   big.NewInt(3600),
	"days":    big.NewInt(86400),
	"weeks":   big.NewInt(604800),
	"years":   big.NewInt(31536000),
}
