// Package money converts between the decimal amount strings used on the API
// surface and the int64 minor currency units (paise) used everywhere else.
// All arithmetic on amounts is integer fixed-point; binary floats never
// touch a balance.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Parse converts a decimal string like "123.45" to minor units (12345).
// At most two decimal places are accepted; amounts are never rounded
// silently.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q is out of range", s)
	}
	return shifted.IntPart(), nil
}

// ParsePositive is Parse restricted to amounts strictly greater than zero.
func ParsePositive(s string) (int64, error) {
	v, err := Parse(s)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("amount must be greater than zero")
	}
	return v, nil
}

// Format renders minor units as a decimal string with two places.
func Format(v int64) string {
	return decimal.New(v, -2).StringFixed(2)
}
