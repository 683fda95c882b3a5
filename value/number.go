package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNonFinite     = errors.New("value: NaN and infinities have no JSON form")
	ErrNumberSyntax  = errors.New("value: invalid number literal")
	ErrNumberRange   = errors.New("value: number out of range")
	ErrNotIntegral   = errors.New("value: number has a fractional part")
	errEmptyLiteral  = fmt.Errorf("%w: empty", ErrNumberSyntax)
	errLeadingZeroes = fmt.Errorf("%w: leading zero", ErrNumberSyntax)
)

// Number is a JSON number. It keeps the literal text it was built from and
// whether that text denotes an integral or a floating representation.
type Number struct {
	lit      string
	integral bool
}

func (Number) Kind() Kind { return KindNumber }

func (n Number) String() string { return n.Literal() }

// Literal returns the JSON text of n. The zero Number renders as 0.
func (n Number) Literal() string {
	if n.lit == "" {
		return "0"
	}
	return n.lit
}

// IsIntegral reports whether n was built from an integral representation.
func (n Number) IsIntegral() bool { return n.lit == "" || n.integral }

func Int(i int64) Number   { return Number{lit: strconv.FormatInt(i, 10), integral: true} }
func Uint(u uint64) Number { return Number{lit: strconv.FormatUint(u, 10), integral: true} }

// Float builds a Number from f. Integral floats render without a trailing
// ".0" (1.0 renders as 1) and so carry the integral representation, the same
// one ParseNumber gives their text.
func Float(f float64) (Number, error) {
	return formatFloat(f, 64)
}

// Float32 is Float for single precision; it formats with the shortest text
// that round-trips through float32.
func Float32(f float32) (Number, error) {
	return formatFloat(float64(f), 32)
}

func formatFloat(f float64, bits int) (Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}, ErrNonFinite
	}
	if f == 0 {
		// drop the sign of negative zero
		return Number{lit: "0", integral: true}, nil
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs < 1e-6 || abs >= 1e21 {
		format = 'e'
	}
	lit := strconv.FormatFloat(f, format, -1, bits)
	return Number{lit: lit, integral: !strings.ContainsAny(lit, ".eE")}, nil
}

// ParseNumber validates lit against the JSON number grammar.
func ParseNumber(lit string) (Number, error) {
	integral, err := scanNumber(lit)
	if err != nil {
		return Number{}, err
	}
	return Number{lit: lit, integral: integral}, nil
}

// MustNumber is ParseNumber that panics; handy for literals in tests.
func MustNumber(lit string) Number {
	n, err := ParseNumber(lit)
	if err != nil {
		panic(err)
	}
	return n
}

// Int64 returns n as an int64. Floating literals are accepted when they hold an
// integral value in range (1.0, 2e3).
func (n Number) Int64() (int64, error) {
	lit := n.Literal()
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return i, nil
	} else if n.IsIntegral() {
		return 0, fmt.Errorf("%w: %s does not fit int64", ErrNumberRange, lit)
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNumberRange, lit)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s", ErrNotIntegral, lit)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s does not fit int64", ErrNumberRange, lit)
	}
	return int64(f), nil
}

// Uint64 returns n as a uint64 under the same rules as Int64.
func (n Number) Uint64() (uint64, error) {
	lit := n.Literal()
	if u, err := strconv.ParseUint(lit, 10, 64); err == nil {
		return u, nil
	} else if n.IsIntegral() {
		return 0, fmt.Errorf("%w: %s does not fit uint64", ErrNumberRange, lit)
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNumberRange, lit)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s", ErrNotIntegral, lit)
	}
	if f < 0 || f >= math.MaxUint64 {
		return 0, fmt.Errorf("%w: %s does not fit uint64", ErrNumberRange, lit)
	}
	return uint64(f), nil
}

// Float64 returns n as a float64.
func (n Number) Float64() (float64, error) {
	f, err := strconv.ParseFloat(n.Literal(), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNumberRange, n.Literal())
	}
	return f, nil
}

// scanNumber checks the RFC 8259 number grammar:
//
//	[ '-' ] ( '0' | [1-9][0-9]* ) [ '.' [0-9]+ ] [ ('e'|'E') ['+'|'-'] [0-9]+ ]
func scanNumber(s string) (integral bool, err error) {
	if s == "" {
		return false, errEmptyLiteral
	}
	i := 0
	if s[i] == '-' {
		i++
	}
	switch {
	case i < len(s) && s[i] == '0':
		i++
		if i < len(s) && isDigit(s[i]) {
			return false, errLeadingZeroes
		}
	case i < len(s) && s[i] >= '1' && s[i] <= '9':
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return false, fmt.Errorf("%w: %q", ErrNumberSyntax, s)
	}
	integral = true
	if i < len(s) && s[i] == '.' {
		integral = false
		i++
		if i >= len(s) || !isDigit(s[i]) {
			return false, fmt.Errorf("%w: %q", ErrNumberSyntax, s)
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		integral = false
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i >= len(s) || !isDigit(s[i]) {
			return false, fmt.Errorf("%w: %q", ErrNumberSyntax, s)
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i != len(s) {
		return false, fmt.Errorf("%w: %q", ErrNumberSyntax, s)
	}
	return integral, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
