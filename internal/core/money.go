// Package core holds the domain model of the quarterly ledger: quarters,
// income and expense records, amount parsing and the accrued-tax summary.
//
// This file contains parsing and formatting of monetary amounts. Amounts
// are kept as decimals at full precision; rounding happens only when a
// value is formatted for display.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered amount to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Negative values and explicit signs are rejected; zero is allowed.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseVATRate converts a user-entered VAT rate ("0.10", "0,21", "10%",
// "21") to one of the two modeled rates.
func ParseVATRate(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidVATRate
	}
	// Whole-number percentage form
	if d.Equal(decimal.NewFromInt(10)) || d.Equal(decimal.NewFromInt(21)) {
		d = d.Div(decimal.NewFromInt(100))
	}
	if !ValidVATRate(d) {
		return decimal.Zero, ErrInvalidVATRate
	}
	return d, nil
}

// FormatEuros renders an amount with two decimal places for display.
// Internal arithmetic never uses this; sums are taken first, rounding last.
func FormatEuros(d decimal.Decimal) string {
	return d.StringFixed(2)
}
