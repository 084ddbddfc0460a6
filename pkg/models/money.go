package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. It keeps full precision in memory and
// is written as a JSON number with two fractional digits.
type Money struct {
	d decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// ParseMoney parses a decimal string such as "10.125".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustMoney is ParseMoney for literals; it panics on malformed input.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Equal(other Money) bool { return m.d.Equal(other.d) }

func (m Money) String() string { return m.d.StringFixed(2) }

// MarshalJSON writes two decimals; sub-cent precision is not persisted.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(2)), nil
}

// UnmarshalJSON accepts both 12.34 and "12.34" without going through float64.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.d = d
	return nil
}
