package parser

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

const (
	minMerchantLength = 2
	maxMerchantLength = 30
)

// SplitLines breaks text on any line terminator. Empty lines are dropped.
func SplitLines(text string) []string {
	return strings.FieldsFunc(text, isLineBreak)
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// ParseMerchantName picks the first line that looks like a shop name: short,
// not receipt metadata and not just a number.
func ParseMerchantName(lines []string) (string, bool) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isMerchantCandidate(trimmed) {
			return trimmed, true
		}
	}
	return "", false
}

func isMerchantCandidate(line string) bool {
	n := uniseg.GraphemeClusterCount(line)
	if n < minMerchantLength || n > maxMerchantLength {
		return false
	}
	for _, word := range merchantExclusions {
		if strings.Contains(line, word) {
			return false
		}
	}
	return !isNumericLine(line)
}

// isNumericLine reports whether line holds nothing but digits and the
// punctuation used inside numbers and dates.
func isNumericLine(line string) bool {
	for _, r := range line {
		if unicode.IsNumber(r) || r == '.' || r == ',' || r == '-' {
			continue
		}
		return false
	}
	return true
}
