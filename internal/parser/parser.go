// Package parser turns raw OCR text from a receipt into a best guess of the
// merchant, the transaction date and the total amount.
//
// Parsing never fails. A field that cannot be recognised is left nil; callers
// show whatever was found and let the user fill in the rest.
package parser

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency assumed for amounts on a receipt.
const DefaultCurrency = "TWD"

// Result is the structured guess extracted from a receipt's text.
type Result struct {
	Date         *time.Time       `json:"date,omitempty"`
	TotalAmount  *decimal.Decimal `json:"total_amount,omitempty"`
	MerchantName *string          `json:"merchant_name,omitempty"`
	RawText      string           `json:"raw_text"`
	CurrencyCode string           `json:"currency_code"`
	AmountTier   Tier             `json:"amount_tier"`
}

// Parser extracts receipt fields. It holds no mutable state and is safe for
// concurrent use.
type Parser struct {
	currency string
	location *time.Location
}

// Option configures a Parser.
type Option func(*Parser)

// WithCurrency sets the currency code reported on every result.
func WithCurrency(code string) Option {
	return func(p *Parser) {
		if code != "" {
			p.currency = code
		}
	}
}

// WithLocation sets the time zone parsed dates are anchored in.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.location = loc
		}
	}
}

// New creates a Parser. Without options it reports TWD and local dates.
func New(opts ...Option) *Parser {
	p := &Parser{
		currency: DefaultCurrency,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = New()

// Parse extracts fields from rawText using the default parser.
func Parse(rawText string) Result {
	return defaultParser.Parse(rawText)
}

// Parse extracts the merchant name, date and total amount from rawText.
func (p *Parser) Parse(rawText string) Result {
	result := Result{
		RawText:      rawText,
		CurrencyCode: p.currency,
		AmountTier:   TierNone,
	}

	if name, ok := ParseMerchantName(SplitLines(rawText)); ok {
		result.MerchantName = &name
	}
	if date, ok := ParseDate(rawText, p.location); ok {
		result.Date = &date
	}
	if amount, tier, ok := ParseAmount(rawText); ok {
		result.TotalAmount = &amount
		result.AmountTier = tier
	}

	return result
}
