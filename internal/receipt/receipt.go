package receipt

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/travel-receipt/internal/category"
	"github.com/zombor/travel-receipt/internal/parser"
)

// Receipt is a scanned expense: the best guess read from the receipt, or the
// values the user corrected it to.
type Receipt struct {
	ID             string            `json:"id"`
	Merchant       string            `json:"merchant,omitempty"`
	Date           *time.Time        `json:"date,omitempty"`
	Amount         *decimal.Decimal  `json:"amount,omitempty"`
	Currency       string            `json:"currency"`
	Category       category.Category `json:"category"`
	Confidence     float64           `json:"confidence"`
	MatchedKeyword string            `json:"matched_keyword,omitempty"`
	AmountTier     parser.Tier       `json:"amount_tier"`
	RawText        string            `json:"raw_text"`
	Filename       string            `json:"filename,omitempty"`
	ContentType    string            `json:"content_type,omitempty"`
	TripID         string            `json:"trip_id,omitempty"` // trip this receipt is grouped under
	Corrected      bool              `json:"corrected"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Trip groups receipts. Totals are kept per currency and never converted.
type Trip struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	ReceiptIDs []string                   `json:"receipt_ids"`
	Totals     map[string]decimal.Decimal `json:"totals"`
	CreatedAt  time.Time                  `json:"created_at"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

// Analysis is what the parser and classifier make of a receipt's text.
type Analysis struct {
	Parsed         parser.Result   `json:"parsed"`
	Classification category.Result `json:"classification"`
}

// Correction holds the fields a user overrides. Nil fields are left alone.
type Correction struct {
	Merchant *string            `json:"merchant,omitempty"`
	Date     *string            `json:"date,omitempty"` // YYYY-MM-DD
	Amount   *decimal.Decimal   `json:"amount,omitempty"`
	Currency *string            `json:"currency,omitempty"`
	Category *category.Category `json:"category,omitempty"`
}

// tripTotals sums receipt amounts per currency.
func tripTotals(receipts []*Receipt) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, r := range receipts {
		if r.Amount == nil {
			continue
		}
		totals[r.Currency] = totals[r.Currency].Add(*r.Amount)
	}
	return totals
}
