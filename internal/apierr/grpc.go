package apierr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ClassifyGRPC maps a gRPC status error (as returned by the Vertex AI
// client) onto the package sentinels. Errors without a gRPC status are
// passed to Classify.
func ClassifyGRPC(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Classify(err)
	}

	st, ok := status.FromError(err)
	if !ok {
		return Classify(err)
	}

	msg := st.Message()
	switch st.Code() {
	case codes.ResourceExhausted:
		// Vertex reports per-minute limits as "Quota exceeded", so only a
		// billing problem counts as a hard quota failure here.
		if strings.Contains(strings.ToLower(msg), "billing") {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		return withRetryInfo(st, fmt.Errorf("%s: %w", msg, ErrRateLimit))
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%s: %w", msg, ErrAuthFailed)
	case codes.DeadlineExceeded, codes.Unavailable, codes.Internal:
		return withRetryInfo(st, fmt.Errorf("%s: %w", msg, ErrTimeout))
	case codes.InvalidArgument, codes.NotFound, codes.FailedPrecondition:
		if isContextLengthMessage(msg) {
			return fmt.Errorf("API rejected: %w", ErrContextLength)
		}
		return fmt.Errorf("%s: %w", msg, ErrBadRequest)
	}
	return err
}

// withRetryInfo wraps err in a RetryAfterError when st carries a RetryInfo
// detail.
func withRetryInfo(st *status.Status, err error) error {
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.RetryInfo)
		if !ok || info.GetRetryDelay() == nil {
			continue
		}
		if after := info.GetRetryDelay().AsDuration(); after > 0 {
			return &RetryAfterError{Err: err, After: after}
		}
	}
	return err
}
