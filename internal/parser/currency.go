package parser

import (
	"slices"
	"strings"
)

var supportedCurrencies = []string{
	"TWD", "JPY", "USD", "EUR", "GBP", "CNY", "HKD",
	"KRW", "SGD", "AUD", "CAD", "CHF", "SEK", "NZD",
}

// SupportedCurrencies lists the ISO 4217 codes an expense may be recorded in.
func SupportedCurrencies() []string {
	return slices.Clone(supportedCurrencies)
}

// NormalizeCurrency upper-cases code and reports whether it is supported.
func NormalizeCurrency(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return code, slices.Contains(supportedCurrencies, code)
}
