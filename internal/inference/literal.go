package inference

import (
	"math"
	"math/big"
	"strings"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/config"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/token"
	"github.com/funvibe/classinfer/internal/typesystem"
)

const log2Of10AwayFromZero = 3.3219280948873624

var ten = big.NewInt(10)

func (in *Inferer) visitLiteral(lit *ast.Literal) {
	placeholder := func() { in.setType(lit, in.fresh()) }

	if lit.Token != token.Number {
		in.reporter.TypeError(diagnostics.ErrT012, lit.Location(), "Only number literals are supported.")
		placeholder()
		return
	}
	value, ok := ParseRational(lit.ValueWithoutUnderscores(), lit.Unit, in.maxLiteralBits)
	if !ok {
		in.reporter.TypeError(diagnostics.ErrT010, lit.Location(), "Invalid number literals.")
		placeholder()
		return
	}
	if !value.IsInt() {
		in.reporter.TypeError(diagnostics.ErrT011, lit.Location(), "Only integers are supported.")
		placeholder()
		return
	}
	in.literals[lit.ID()] = value
	in.setType(lit, in.ts.FreshTypeVariable(typesystem.NewSort(in.registry.IntegerClass())))
}

// ParseRational returns the exact value of a number literal scaled by its
// unit. Hex literals are integers; decimal literals may carry a radix
// point and a signed exponent. Values whose exact representation would
// exceed maxBits are rejected.
func ParseRational(text string, unit ast.Unit, maxBits int) (*big.Rat, bool) {
	if maxBits <= 0 {
		maxBits = config.DefaultMaxLiteralBits
	}
	text = strings.ReplaceAll(text, "_", "")

	var value *big.Rat
	switch exp := strings.IndexAny(text, "eE"); {
	case strings.HasPrefix(text, "0x"):
		digits := text[2:]
		if strings.HasPrefix(digits, "+") || strings.HasPrefix(digits, "-") {
			return nil, false
		}
		n, ok := new(big.Int).SetString(digits, 16)
		if !ok {
			return nil, false
		}
		value = new(big.Rat).SetInt(n)

	case exp >= 0:
		mantissa, ok := parseDecimal(text[:exp])
		if !ok || mantissa.Sign() == 0 {
			return nil, false
		}
		e, ok := new(big.Int).SetString(text[exp+1:], 10)
		if !ok || !e.IsInt64() || e.Int64() > math.MaxInt32 || e.Int64() < math.MinInt32 {
			return nil, false
		}
		abs := e.Int64()
		if abs < 0 {
			abs = -abs
		}
		switch {
		case e.Sign() < 0:
			if !fitsPrecision(mantissa.Denom(), abs, maxBits) {
				return nil, false
			}
			value = mantissa.Quo(mantissa, new(big.Rat).SetInt(pow10(abs)))
		case e.Sign() > 0:
			if !fitsPrecision(new(big.Int).Abs(mantissa.Num()), abs, maxBits) {
				return nil, false
			}
			value = mantissa.Mul(mantissa, new(big.Rat).SetInt(pow10(abs)))
		default:
			value = mantissa
		}

	default:
		v, ok := parseDecimal(text)
		if !ok {
			return nil, false
		}
		value = v
	}

	multiplier, ok := config.UnitMultipliers[unit.String()]
	if !ok {
		return nil, false
	}
	return value.Mul(value, new(big.Rat).SetInt(multiplier)), true
}

// parseDecimal parses digits with an optional radix point.
func parseDecimal(s string) (*big.Rat, bool) {
	whole, frac, hasPoint := strings.Cut(s, ".")
	if !allDigits(whole) || !allDigits(frac) || whole+frac == "" {
		return nil, false
	}
	value := new(big.Rat)
	if whole != "" {
		n, _ := new(big.Int).SetString(whole, 10)
		value.SetInt(n)
	}
	if !hasPoint {
		return value, true
	}
	if digits := strings.TrimLeft(frac, "0"); digits != "" {
		num, _ := new(big.Int).SetString(digits, 10)
		den := new(big.Int).Exp(ten, big.NewInt(int64(len(frac))), nil)
		value.Add(value, new(big.Rat).SetFrac(num, den))
	}
	return value, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// fitsPrecision reports whether m * 10^exp fits into maxBits bits.
func fitsPrecision(m *big.Int, exp int64, maxBits int) bool {
	if m.Sign() == 0 {
		return true
	}
	msb := m.BitLen() - 1
	if msb > maxBits {
		return false
	}
	needed := float64(msb) + math.Floor(float64(exp)*log2Of10AwayFromZero)
	return needed <= float64(maxBits)
}

// pow10 must only be called once fitsPrecision has bounded exp.
func pow10(exp int64) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(exp), nil)
}
