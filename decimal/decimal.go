// Package decimal implements a fixed-point decimal type for prices and
// quantities. Floating-point is never used: every value is an arbitrary
// precision integer mantissa paired with a base-10 scale, so
// Decimal{unscaled: 12345, scale: 2} represents 123.45 exactly.
//
// No decimal library appears anywhere in the retrieved reference corpus
// (neither shopspring/decimal nor an equivalent), so this is built directly
// on math/big rather than reaching for a dependency that was never shown.
package decimal

import (
	"encoding/json"
	"fmt"
	"math/big"
)

var ten = big.NewInt(10)

// Decimal is an immutable fixed-point number: value == unscaled / 10^scale.
type Decimal struct {
	unscaled *big.Int
	scale    int32
}

// Zero returns the zero value at the given scale.
func Zero(scale int32) Decimal {
	return Decimal{unscaled: big.NewInt(0), scale: scale}
}

// FromInt64 builds a Decimal from an integer mantissa at the given scale.
func FromInt64(unscaled int64, scale int32) Decimal {
	return Decimal{unscaled: big.NewInt(unscaled), scale: scale}
}

// FromBigInt builds a Decimal from a copy of a big.Int mantissa; the
// caller's value is not retained.
func FromBigInt(unscaled *big.Int, scale int32) Decimal {
	return Decimal{unscaled: new(big.Int).Set(unscaled), scale: scale}
}

// MustFromString parses a base-10 literal (e.g. "123.450") at a scale equal
// to the number of digits after the decimal point, and panics on malformed
// input. Intended for tests and static configuration, not untrusted input.
func MustFromString(s string) Decimal {
	d, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromString parses a base-10 literal such as "123.45" or "-0.5" or "7".
func FromString(s string) (Decimal, error) {
	if s == "" {
		return Decimal{}, fmt.Errorf("decimal: empty string")
	}
	neg := false
	i := 0
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		i = 1
	}
	intPart := ""
	fracPart := ""
	seenDot := false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '.' && !seenDot:
			seenDot = true
		case c >= '0' && c <= '9':
			if seenDot {
				fracPart += string(c)
			} else {
				intPart += string(c)
			}
		default:
			return Decimal{}, fmt.Errorf("decimal: invalid character %q in %q", c, s)
		}
	}
	if intPart == "" && fracPart == "" {
		return Decimal{}, fmt.Errorf("decimal: no digits in %q", s)
	}
	digits := intPart + fracPart
	unscaled, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("decimal: cannot parse %q", s)
	}
	if neg {
		unscaled.Neg(unscaled)
	}
	return Decimal{unscaled: unscaled, scale: int32(len(fracPart))}, nil
}

// Scale returns the number of digits represented after the decimal point.
func (d Decimal) Scale() int32 { return d.scale }

// Sign returns -1, 0, or 1.
func (d Decimal) Sign() int { return d.mantissa().Sign() }

func (d Decimal) mantissa() *big.Int {
	if d.unscaled == nil {
		return big.NewInt(0)
	}
	return d.unscaled
}

// IsZero reports whether the value is exactly zero.
func (d Decimal) IsZero() bool { return d.Sign() == 0 }

// IsNegative reports whether the value is strictly less than zero.
func (d Decimal) IsNegative() bool { return d.Sign() < 0 }

// rescale returns a copy of d expressed at the target scale, which must be
// >= d.scale (widening never loses precision; narrowing is not implemented
// here because the only narrowing operation the engine needs, the rounded
// quote computation, goes through roundTo explicitly).
func (d Decimal) rescale(scale int32) Decimal {
	if scale == d.scale {
		return Decimal{unscaled: new(big.Int).Set(d.mantissa()), scale: scale}
	}
	factor := new(big.Int).Exp(ten, big.NewInt(int64(scale-d.scale)), nil)
	return Decimal{unscaled: new(big.Int).Mul(d.mantissa(), factor), scale: scale}
}

func maxScale(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// Add returns a+b at the wider of the two scales.
func Add(a, b Decimal) Decimal {
	s := maxScale(a.scale, b.scale)
	ar, br := a.rescale(s), b.rescale(s)
	return Decimal{unscaled: new(big.Int).Add(ar.unscaled, br.unscaled), scale: s}
}

// Sub returns a-b at the wider of the two scales.
func Sub(a, b Decimal) Decimal {
	s := maxScale(a.scale, b.scale)
	ar, br := a.rescale(s), b.rescale(s)
	return Decimal{unscaled: new(big.Int).Sub(ar.unscaled, br.unscaled), scale: s}
}

// Neg returns -d.
func Neg(d Decimal) Decimal {
	return Decimal{unscaled: new(big.Int).Neg(d.mantissa()), scale: d.scale}
}

// Min returns the smaller of a and b.
func Min(a, b Decimal) Decimal {
	if Cmp(a, b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Decimal) Decimal {
	if Cmp(a, b) >= 0 {
		return a
	}
	return b
}

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b,
// giving the total order prices and quantities are compared under.
func Cmp(a, b Decimal) int {
	s := maxScale(a.scale, b.scale)
	return a.rescale(s).unscaled.Cmp(b.rescale(s).unscaled)
}

// Equal reports whether a and b represent the same numeric value,
// regardless of scale (1.50 == 1.5).
func Equal(a, b Decimal) bool { return Cmp(a, b) == 0 }

// mulExact returns the exact product a*b at scale a.scale+b.scale, with no
// rounding — safe because big.Int widens without overflow.
func mulExact(a, b Decimal) Decimal {
	return Decimal{unscaled: new(big.Int).Mul(a.mantissa(), b.mantissa()), scale: a.scale + b.scale}
}

// MulRoundHalfAwayFromZero returns a*b rounded to targetScale using
// half-away-from-zero rounding, per the engine's declared quote rounding
// rule (§4.2): the result differs from the exact product by at most half a
// unit at targetScale, in either direction.
func MulRoundHalfAwayFromZero(a, b Decimal, targetScale int32) Decimal {
	exact := mulExact(a, b)
	return exact.roundTo(targetScale)
}

// roundTo rounds d to the target scale using half-away-from-zero rounding.
// If targetScale >= d.scale, this is an exact rescale (widening).
func (d Decimal) roundTo(targetScale int32) Decimal {
	if targetScale >= d.scale {
		return d.rescale(targetScale)
	}
	drop := d.scale - targetScale
	divisor := new(big.Int).Exp(ten, big.NewInt(int64(drop)), nil)

	m := new(big.Int).Set(d.mantissa())
	neg := m.Sign() < 0
	if neg {
		m.Neg(m)
	}

	quotient := new(big.Int)
	remainder := new(big.Int)
	quotient.QuoRem(m, divisor, remainder)

	twiceRemainder := new(big.Int).Lsh(remainder, 1)
	if twiceRemainder.CmpAbs(divisor) >= 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	if neg {
		quotient.Neg(quotient)
	}
	return Decimal{unscaled: quotient, scale: targetScale}
}

// RoundTo rounds d to the given scale using half-away-from-zero rounding.
func (d Decimal) RoundTo(scale int32) Decimal { return d.roundTo(scale) }

// MarshalJSON renders the canonical string form, since the unscaled
// mantissa and scale are unexported and would otherwise marshal to "{}".
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON parses the canonical string form written by MarshalJSON.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// String renders the canonical base-10 representation, e.g. "123.450".
func (d Decimal) String() string {
	m := new(big.Int).Set(d.mantissa())
	neg := m.Sign() < 0
	if neg {
		m.Neg(m)
	}
	digits := m.String()
	if d.scale <= 0 {
		if neg {
			return "-" + digits
		}
		return digits
	}
	for int32(len(digits)) <= d.scale {
		digits = "0" + digits
	}
	intPart := digits[:int32(len(digits))-d.scale]
	fracPart := digits[int32(len(digits))-d.scale:]
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%s", sign, intPart, fracPart)
}
