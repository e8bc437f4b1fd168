// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents so that sums are exact. Parsing and
// formatting go through shopspring/decimal.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents is the largest accepted amount: one trillion in major
// units. Sums over any collection that fits in memory stay inside int64.
const MaxAmountCents int64 = 1_000_000_000_000 * 100

// maxFractionDigits bounds the scale of a parsed amount so rounding and
// comparison work on small numbers.
const maxFractionDigits = 20

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, exponents, negative values, zero
// amounts, more than 20 fraction digits, or amounts above MaxAmountCents.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return decimalToCents(d)
}

func decimalToCents(d decimal.Decimal) (int64, error) {
	if d.Exponent() < -maxFractionDigits {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if d.GreaterThan(decimal.New(MaxAmountCents, -2)) {
		return 0, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2).IntPart()
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseMoney is ParseDecimalToCents wrapped in a Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with two fraction digits, e.g. "25.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// MarshalJSON writes the amount as a bare decimal number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a number or a quoted decimal string. Both go
// through ParseDecimalToCents, so exponent notation is rejected either way.
func (m *Money) UnmarshalJSON(data []byte) error {
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return ErrInvalidAmount
		}
	}
	cents, err := ParseDecimalToCents(text)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}
