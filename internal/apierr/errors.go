// Package apierr provides shared error sentinels, classification, and retry
// infrastructure for the text-generation providers. Provider-specific errors
// are mapped onto these sentinels at the adapter boundary.
//
// Providers wrap with fmt.Errorf("%s: %w", msg, sentinel).
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import "errors"

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out or the server was temporarily unavailable.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrContextLength indicates the input exceeded the model's context window.
	// Lowering the chunk budget is the fix, so it is never retried.
	ErrContextLength = errors.New("input exceeds model context length")

	// ErrEmptyResponse indicates the provider answered without any content.
	ErrEmptyResponse = errors.New("empty response from provider")
)
