package scanning

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// PlainText accepts text that was already recognised on the device, so
// uploads of text/plain skip the remote engines entirely.
type PlainText struct{}

// ScanText returns the uploaded text with blank lines removed.
func (PlainText) ScanText(_ context.Context, data []byte, contentType string) (string, error) {
	if !IsPlainText(contentType) {
		return "", fmt.Errorf("%w %q: expected text/plain", ErrUnsupportedFormat, normalizeMIME(contentType))
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not UTF-8", ErrUnsupportedFormat)
	}
	return normalizeTranscript(string(data))
}

// Close is a no-op.
func (PlainText) Close() error {
	return nil
}

// IsPlainText reports whether contentType names already recognised text.
func IsPlainText(contentType string) bool {
	return strings.HasPrefix(normalizeMIME(contentType), "text/plain")
}

// Router sends plain text uploads to PlainText and images to an engine.
type Router struct {
	Images Scanner
	Text   Scanner
}

// NewRouter wraps images so text uploads bypass it.
func NewRouter(images Scanner) *Router {
	return &Router{Images: images, Text: PlainText{}}
}

// ScanText dispatches on contentType.
func (r *Router) ScanText(ctx context.Context, data []byte, contentType string) (string, error) {
	if IsPlainText(contentType) {
		return r.Text.ScanText(ctx, data, contentType)
	}
	if r.Images == nil {
		return "", fmt.Errorf("%w %q: no OCR engine configured", ErrUnsupportedFormat, normalizeMIME(contentType))
	}
	return r.Images.ScanText(ctx, data, contentType)
}

// Close closes both scanners.
func (r *Router) Close() error {
	var err error
	if r.Images != nil {
		err = r.Images.Close()
	}
	if textErr := r.Text.Close(); err == nil {
		err = textErr
	}
	return err
}
