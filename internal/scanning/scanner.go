package scanning

import (
	"context"
	"errors"
)

// ErrNoText is returned when a scanner finds no readable text on the image.
var ErrNoText = errors.New("no text recognised")

// Scanner turns a receipt image into the raw text printed on it, one line
// per printed line, top to bottom.
type Scanner interface {
	// ScanText transcribes the receipt in imageData
	ScanText(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close releases any client resources
	Close() error
}
