package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Tier identifies which stage of the amount cascade produced a total.
type Tier string

const (
	TierNone     Tier = "none"
	TierStrict   Tier = "strict"
	TierGeneral  Tier = "general"
	TierFallback Tier = "fallback"
)

// amountRule is one labelled pattern of the cascade. The first capture group
// holds the number; it is accepted only when min < amount < max.
type amountRule struct {
	tier    Tier
	pattern *regexp.Regexp
	min     decimal.Decimal
	max     decimal.Decimal
}

var (
	strictMin  = decimal.NewFromInt(50)
	strictMax  = decimal.NewFromInt(10000)
	generalMin = decimal.NewFromInt(10)
	generalMax = decimal.NewFromInt(100000)
)

// RE2 \s is ASCII only; OCR text also separates labels with U+3000 and
// U+00A0, so every \s in a rule also admits Unicode space separators.
func compileRule(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + strings.ReplaceAll(pattern, `\s`, `[\s\p{Z}]`))
}

func strictRule(pattern string) amountRule {
	return amountRule{tier: TierStrict, pattern: compileRule(pattern), min: strictMin, max: strictMax}
}

func generalRule(pattern string) amountRule {
	return amountRule{tier: TierGeneral, pattern: compileRule(pattern), min: generalMin, max: generalMax}
}

// amountRules is evaluated top to bottom; the first in-range match wins.
// Strict rules cover taxi receipts whose fare line names the total outright.
var amountRules = []amountRule{
	strictRule(`車資[（(]Total[，,]\s*\$\s*[）)]\s*[：:]\s*[\n\r]*\s*(\d+)`),
	strictRule(`跳表金額[（(]Fare[，,]\s*\$\s*[）)]\s*[：:]\s*[\n\r]*\s*(\d+)`),

	generalRule(`總[計額]\s*[:：]?\s*\$?\s*([\d,]+\.?\d*)`),
	generalRule(`合\s*計\s*[:：]?\s*\$?\s*([\d,]+\.?\d*)`),
	generalRule(`金\s*額\s*[:：]?\s*\$?\s*([\d,]+\.?\d*)`),
	generalRule(`實付\s*[:：]?\s*\$?\s*([\d,]+\.?\d*)`),
	generalRule(`應付\s*[:：]?\s*\$?\s*([\d,]+\.?\d*)`),
	generalRule(`小\s*計\s*[:：]?\s*\$?\s*([\d,]+\.?\d*)`),
	generalRule(`NT\$?\s*([\d,]+\.?\d*)`),
	generalRule(`TWD\s*([\d,]+\.?\d*)`),
	generalRule(`\$\s*([\d,]+\.?\d*)`),
	generalRule(`([\d,]+)\s*元`),
}

var numberToken = regexp.MustCompile(`[\d,]+\.?\d*`)

// ParseAmount runs the amount cascade over text and reports the tier that
// produced the result. ok is false when no tier yields a plausible amount.
func ParseAmount(text string) (amount decimal.Decimal, tier Tier, ok bool) {
	for _, rule := range amountRules {
		if amount, ok := rule.match(text); ok {
			return amount, rule.tier, true
		}
	}
	if amount, ok := largestReasonableAmount(text); ok {
		return amount, TierFallback, true
	}
	return decimal.Decimal{}, TierNone, false
}

// match only considers the first occurrence of the pattern.
func (r amountRule) match(text string) (decimal.Decimal, bool) {
	m := r.pattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Decimal{}, false
	}
	amount, ok := parseNumber(m[1])
	if !ok || !between(amount, r.min, r.max) {
		return decimal.Decimal{}, false
	}
	return amount, true
}

// largestReasonableAmount returns the biggest number in text between 10 and
// 100000, on the assumption that the total is the largest figure printed.
func largestReasonableAmount(text string) (decimal.Decimal, bool) {
	var (
		largest decimal.Decimal
		found   bool
	)
	for _, token := range numberToken.FindAllString(text, -1) {
		n, ok := parseNumber(token)
		if !ok || !between(n, generalMin, generalMax) {
			continue
		}
		if !found || n.GreaterThan(largest) {
			largest = n
			found = true
		}
	}
	return largest, found
}

// parseNumber reads a numeric token straight into a decimal. Thousands
// separators are dropped and a dangling decimal point is ignored.
func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func between(d, lo, hi decimal.Decimal) bool {
	return d.GreaterThan(lo) && d.LessThan(hi)
}
