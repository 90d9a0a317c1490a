package scanning

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

var _ = Describe("withRetry", func() {
	It("should stop after the configured attempts", func() {
		calls := 0
		err := withRetry(context.Background(), "test", func() error {
			calls++
			return &statusError{code: http.StatusBadGateway}
		})
		Expect(err).To(HaveOccurred())
		Expect(calls).To(Equal(retryAttempts))
	})

	It("should not retry once the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := withRetry(ctx, "test", func() error {
			calls++
			return &statusError{code: http.StatusTooManyRequests}
		})
		Expect(err).To(HaveOccurred())
		Expect(calls).To(BeNumerically("<=", 1))
	})

	When("the context ends during the backoff", func() {
		var savedDelay time.Duration

		BeforeEach(func() {
			savedDelay = retryDelay
			retryDelay = time.Hour
		})

		AfterEach(func() {
			retryDelay = savedDelay
		})

		It("should return without waiting out the delay", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			calls := 0
			start := time.Now()
			err := withRetry(ctx, "test", func() error {
				calls++
				return &statusError{code: http.StatusServiceUnavailable}
			})
			Expect(err).To(HaveOccurred())
			Expect(calls).To(Equal(1))
			Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))
		})
	})

	DescribeTable("isRetryable",
		func(err error, expected bool) {
			Expect(isRetryable(err)).To(Equal(expected))
		},
		Entry("google rate limit", &googleapi.Error{Code: http.StatusTooManyRequests}, true),
		Entry("google bad request", &googleapi.Error{Code: http.StatusBadRequest}, false),
		Entry("openai server error", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, true),
		Entry("openai request error", &openai.RequestError{HTTPStatusCode: http.StatusServiceUnavailable}, true),
		Entry("wrapped status", fmt.Errorf("calling: %w", &statusError{code: http.StatusTooManyRequests}), true),
		Entry("plain error", errors.New("boom"), false),
	)
})
