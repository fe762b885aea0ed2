// internal/domain/money.go
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxMoney keeps amounts inside NUMERIC(12,2).
var maxMoney = decimal.New(1, 10)

const (
	maxExponent      = 10
	maxIntegerDigits = 12
)

// Money is a fixed-point amount with two decimal places. It never goes
// through float64, so sums do not drift.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

func MoneyFromCents(cents int64) Money {
	return Money{Decimal: decimal.New(cents, -2)}
}

// ParseMoney accepts "12.34" and the decimal comma form "12,34". Extra
// decimals are rounded half away from zero.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, invalid("amount", "amount is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, invalid("amount", "invalid amount "+s)
	}
	// Rounding rescales the coefficient, so bound it before any arithmetic.
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return Money{}, invalid("amount", "amount out of range")
	}
	if d.NumDigits()+int(d.Exponent()) > maxIntegerDigits {
		return Money{}, invalid("amount", "is too large")
	}
	return NewMoney(d), nil
}

// Cents returns the amount in hundredths.
func (m Money) Cents() int64 {
	return m.Decimal.Round(2).Shift(2).IntPart()
}

func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

func (m Money) Sub(o Money) Money {
	return Money{Decimal: m.Decimal.Sub(o.Decimal)}
}

func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

func (m Money) String() string {
	return m.Decimal.StringFixed(2)
}

// MarshalJSON writes a bare JSON number with exactly two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a string in either decimal notation.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*m = Money{}
		return nil
	}
	parsed, err := ParseMoney(strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func validateAmount(field string, m Money) error {
	if !m.Decimal.Round(2).IsPositive() {
		return invalid(field, "must be greater than zero")
	}
	if !m.Decimal.LessThan(maxMoney) {
		return invalid(field, "is too large")
	}
	return nil
}
