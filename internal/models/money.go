package models

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Money is a currency amount with two decimal places. It is stored as integer
// cents so SQL aggregates stay exact.
type Money struct {
	decimal.Decimal
}

var Zero = Money{decimal.Zero}

// NewMoney builds an amount from integer cents.
func NewMoney(cents int64) Money {
	return Money{decimal.New(cents, -2)}
}

// MustMoney parses a decimal string and panics on bad input. Intended for
// constants and tests.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d.Round(2)}, nil
}

func (m Money) Add(o Money) Money { return Money{m.Decimal.Add(o.Decimal)} }

func (m Money) Sub(o Money) Money { return Money{m.Decimal.Sub(o.Decimal)} }

// Times multiplies by a whole quantity, as for a line subtotal.
func (m Money) Times(qty int) Money {
	return Money{m.Decimal.Mul(decimal.NewFromInt(int64(qty)))}
}

// Round normalizes to whole cents.
func (m Money) Round() Money { return Money{m.Decimal.Round(2)} }

// Div splits the amount into n equal parts rounded to cents; zero when n is 0.
func (m Money) Div(n int64) Money {
	if n == 0 {
		return Zero
	}
	return Money{m.Decimal.Div(decimal.NewFromInt(n)).Round(2)}
}

func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }

func (m Money) Cents() int64 { return m.Decimal.Shift(2).Round(0).IntPart() }

func (m Money) String() string { return m.StringFixed(2) }

// Value stores the amount as cents.
func (m Money) Value() (driver.Value, error) {
	return m.Cents(), nil
}

// Scan reads cents from integer columns and from the textual or float forms
// that SUM() returns on some drivers.
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = Zero
	case int64:
		*m = NewMoney(v)
	case float64:
		*m = NewMoney(int64(math.Round(v)))
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}
	return nil
}

func (m *Money) scanString(s string) error {
	if cents, err := strconv.ParseInt(s, 10, 64); err == nil {
		*m = NewMoney(cents)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("cannot scan %q into Money: %w", s, err)
	}
	*m = Money{d.Shift(-2).Round(2)}
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.Decimal = d.Round(2)
	return nil
}
