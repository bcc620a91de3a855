package models

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for every amount.
const MoneyScale = 2

// Parsed values must fit these bounds before any arithmetic touches them.
const (
	maxMoneyLength   = 64
	maxMoneyDigits   = 24
	minMoneyExponent = -(MoneyScale + 10)
	maxMoneyExponent = 12
)

var ErrMoneyOutOfRange = errors.New("money value out of range")

// Money is a fixed-point amount with two fractional digits. It always
// serializes as "250.00", never "250" or "250.0".
type Money struct {
	d decimal.Decimal
}

// MoneyFromInt returns a whole amount, e.g. MoneyFromInt(250) is 250.00.
func MoneyFromInt(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

func ParseMoney(s string) (Money, error) {
	if len(s) > maxMoneyLength {
		return Money{}, fmt.Errorf("invalid money value: %w", ErrMoneyOutOfRange)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	if err := checkRange(d); err != nil {
		return Money{}, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	return Money{d: d}, nil
}

func checkRange(d decimal.Decimal) error {
	exp := d.Exponent()
	if exp < minMoneyExponent || exp > maxMoneyExponent || d.NumDigits() > maxMoneyDigits {
		return ErrMoneyOutOfRange
	}
	return nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

// HasSubCentPrecision reports whether the value carries more than two
// significant fractional digits.
func (m Money) HasSubCentPrecision() bool {
	return !m.d.Equal(m.d.Round(MoneyScale))
}

func (m Money) String() string {
	return m.d.StringFixed(MoneyScale)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Booleans, null,
// NaN and Infinity are rejected.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch string(raw) {
	case "null", "true", "false", "":
		return fmt.Errorf("invalid money value %s", raw)
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}

	parsed, err := ParseMoney(string(raw))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer for Money
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner for Money
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	if err := checkRange(d); err != nil {
		return err
	}
	m.d = d
	return nil
}
