// Package types provides common type aliases and utilities.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits used for displayed totals.
const MoneyPlaces int32 = 2

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds to MoneyPlaces, half away from zero.
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}

// NonNegative clamps m at zero.
func NonNegative(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// Amount is a rounded monetary figure that always renders with exactly
// MoneyPlaces fractional digits, as a JSON number.
type Amount struct {
	decimal.Decimal
}

// NewAmount rounds m for display.
func NewAmount(m Money) Amount {
	return Amount{RoundMoney(m)}
}

// String returns the fixed-point representation, e.g. "150.00".
func (a Amount) String() string {
	return a.Decimal.StringFixed(MoneyPlaces)
}

// MarshalJSON encodes Amount as a JSON number token with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	s := string(data)
	if len(data) >= 2 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	a.Decimal = RoundMoney(d)
	return nil
}

// Date is a calendar date rendered as YYYY-MM-DD.
type Date time.Time

// ParseDate parses a YYYY-MM-DD string in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}

// TruncateDay drops the clock part of t, keeping its location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// String formats the date.
func (d Date) String() string {
	return time.Time(d).Format(DateLayout)
}

// MarshalJSON encodes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
