// Package money provides the fixed-point monetary amount used by every
// financial computation in the console.
package money

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for display and storage.
const Scale = 2

// IntegerDigits is the widest integer part a NUMERIC(18,2) column holds.
const IntegerDigits = 16

// Exponents below this are rejected before any rescaling happens.
const minExponent = -40

var (
	// ErrInvalidAmount is returned when an amount cannot be parsed.
	ErrInvalidAmount = errors.New("money: invalid amount")
	// ErrPrecision marks amounts with more than Scale decimal places.
	ErrPrecision = fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, Scale)
	// ErrOutOfRange marks amounts wider than IntegerDigits.
	ErrOutOfRange = fmt.Errorf("%w: more than %d integer digits", ErrInvalidAmount, IntegerDigits)
)

// Amount is a signed decimal monetary value. The zero value is 0.00.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// New returns value × 10^exp, e.g. New(12345, -2) is 123.45.
func New(value int64, exp int32) Amount {
	return Amount{d: decimal.New(value, exp)}
}

// FromInt returns a whole amount.
func FromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// FromCents returns an amount expressed in minor units.
func FromCents(cents int64) Amount {
	return Amount{d: decimal.New(cents, -Scale)}
}

// FromDecimal wraps an existing decimal.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// Parse reads a decimal string such as "1250.50" or "-3". Scientific notation is
// accepted; binary floating point is never involved. Values that would not
// survive a NUMERIC(18,2) column unchanged are rejected.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if err := check(d); err != nil {
		return Amount{}, fmt.Errorf("%w: %q", err, s)
	}
	return Amount{d: d}, nil
}

// Check reports ErrPrecision or ErrOutOfRange for amounts that do not fit
// two decimals and IntegerDigits integer digits.
func (a Amount) Check() error { return check(a.d) }

func check(d decimal.Decimal) error {
	if d.IsZero() {
		return nil
	}
	exp := int64(d.Exponent())
	if exp < -Scale {
		if exp < minExponent || !d.Equal(d.Truncate(Scale)) {
			return ErrPrecision
		}
	}
	if int64(d.NumDigits())+exp > IntegerDigits {
		return ErrOutOfRange
	}
	return nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// Neg flips the sign.
func (a Amount) Neg() Amount { return Amount{d: a.d.Neg()} }

// Abs drops the sign.
func (a Amount) Abs() Amount { return Amount{d: a.d.Abs()} }

// MulInt multiplies by an integer quantity.
func (a Amount) MulInt(n int64) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(n))}
}

// MulRate multiplies by a rate (0.10 for ten percent) without rounding.
func (a Amount) MulRate(rate decimal.Decimal) Amount {
	return Amount{d: a.d.Mul(rate)}
}

// Round rounds half away from zero to two decimals.
func (a Amount) Round() Amount {
	return Amount{d: a.d.Round(Scale)}
}

// Ratio returns a / b × 100 rounded to two decimals. The boolean is false when b is zero.
func (a Amount) Ratio(b Amount) (decimal.Decimal, bool) {
	if b.d.IsZero() {
		return decimal.Zero, false
	}
	return a.d.Mul(decimal.NewFromInt(100)).DivRound(b.d, Scale), true
}

// Cmp returns -1, 0 or 1 as a is below, equal to or above b.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// Equal compares by value, so 1.5 equals 1.50.
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// IsZero reports a == 0.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// IsNegative reports a < 0.
func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// IsPositive reports a > 0.
func (a Amount) IsPositive() bool { return a.d.IsPositive() }

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	return a.d.StringFixed(Scale)
}

// Sum adds every amount in order.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts a decimal string or a bare JSON number literal.
// Rejected values surface as *json.UnmarshalTypeError so the decoder reports
// the offending field.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Zero
		return nil
	}
	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	parsed, err := Parse(raw)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "amount " + string(data), Type: amountType}
	}
	*a = parsed
	return nil
}

var amountType = reflect.TypeOf(Amount{})

// MarshalText lets amounts appear in query strings and map keys.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer for NUMERIC columns.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Zero
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		*a = FromInt(v)
		return nil
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidAmount, src)
	}
}
