// Package money formats decimal amounts for display.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"TRY": "₺",
	"JPY": "¥",
}

// Format renders amount rounded to two places with the currency symbol,
// e.g. "$42.50" or "-$3.00". Unknown currencies are prefixed with their
// ISO code: "CHF 10.00".
func Format(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	value := amount.StringFixedBank(2)
	if sym, ok := symbols[code]; ok {
		return sign + sym + value
	}
	if code == "" {
		return sign + value
	}
	return sign + code + " " + value
}

// String renders amount as a two-place decimal string for JSON payloads.
func String(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// Parse reads a decimal amount.
func Parse(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}
