package scanning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

const retryAttempts = 3

// retryDelay is the base backoff between attempts against a remote engine.
var retryDelay = 2 * time.Second

// statusError is a non-200 answer from an HTTP engine.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// withRetry runs call until it succeeds, fails permanently or ctx ends.
func withRetry(ctx context.Context, engine string, call func() error) error {
	return retry.Do(
		call,
		retry.RetryIf(func(err error) bool {
			if ctx.Err() != nil || !isRetryable(err) {
				return false
			}
			slog.Warn("ocr engine unavailable, will retry", "engine", engine, "error", err)
			return true
		}),
		retry.Context(ctx),
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
	)
}

// isRetryable reports whether err is rate limiting or a server side failure.
func isRetryable(err error) bool {
	var (
		apiErr    *googleapi.Error
		openaiErr *openai.APIError
		reqErr    *openai.RequestError
		statusErr *statusError
	)
	switch {
	case errors.As(err, &apiErr):
		return retryableStatus(apiErr.Code)
	case errors.As(err, &openaiErr):
		return retryableStatus(openaiErr.HTTPStatusCode)
	case errors.As(err, &reqErr):
		return retryableStatus(reqErr.HTTPStatusCode)
	case errors.As(err, &statusErr):
		return retryableStatus(statusErr.code)
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
