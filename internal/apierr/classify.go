package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Classify maps a raw provider error onto the package sentinels.
// Errors from go-openai are matched by HTTP status; other errors are
// inspected for deadlines and context-length messages. Unknown errors are
// returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if c := classifyStatus(apiErr.HTTPStatusCode, apiErr.Message); c != nil {
			return c
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if c := classifyStatus(reqErr.HTTPStatusCode, reqErr.Error()); c != nil {
			return c
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", ErrTimeout)
	}

	if isContextLengthMessage(err.Error()) {
		return fmt.Errorf("API rejected: %w", ErrContextLength)
	}

	return err
}

// ClassifyStatus maps an HTTP status code and message to a sentinel error.
// Returns nil when the status carries no classification (e.g. 200).
func ClassifyStatus(status int, msg string) error {
	return classifyStatus(status, msg)
}

func classifyStatus(status int, msg string) error {
	switch status {
	case http.StatusTooManyRequests:
		// A 429 can also mean the account ran out of credit.
		if strings.Contains(msg, "quota") || strings.Contains(msg, "billing") {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", msg, ErrRateLimit)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, ErrAuthFailed)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout,
		http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", msg, ErrTimeout)
	case http.StatusBadRequest:
		if isContextLengthMessage(msg) {
			return fmt.Errorf("API rejected: %w", ErrContextLength)
		}
		return fmt.Errorf("%s: %w", msg, ErrBadRequest)
	case http.StatusForbidden, http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, ErrBadRequest)
	}
	return nil
}

func isContextLengthMessage(msg string) bool {
	return strings.Contains(msg, "context_length") ||
		strings.Contains(msg, "maximum context length")
}

// IsRetryable reports whether a classified error is transient.
// Only rate limits and timeouts are retried; cancellation never is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTimeout)
}
