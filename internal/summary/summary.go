// Package summary produces a short summary of a translated document.
//
// A summary is a courtesy: callers treat a *SummaryError as a warning and
// still deliver the translation.
package summary

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-translate/internal/lang"
)

// DefaultMaxInputChars caps the text sent for summarization.
const DefaultMaxInputChars = 4000

// Summarizer is implemented by text-generation providers.
type Summarizer interface {
	// Summarize returns a 3-4 sentence summary of text written in target.
	Summarize(ctx context.Context, text string, target lang.Language) (string, error)
}

// SummarizeFunc adapts a function to Summarizer.
type SummarizeFunc func(ctx context.Context, text string, target lang.Language) (string, error)

// Summarize implements Summarizer.
func (f SummarizeFunc) Summarize(ctx context.Context, text string, target lang.Language) (string, error) {
	return f(ctx, text, target)
}

// SummaryError reports a failed summary request.
type SummaryError struct {
	Err error
}

func (e *SummaryError) Error() string {
	return fmt.Sprintf("summary failed: %v", e.Err)
}

func (e *SummaryError) Unwrap() error {
	return e.Err
}

// ErrNoSummarizer is wrapped in a SummaryError when Generate gets a nil Summarizer.
var ErrNoSummarizer = errors.New("no summarizer configured")

// Generate summarizes the first maxInputChars characters of text in target.
// The limit counts runes, so multi-byte text is never cut mid-character;
// maxInputChars <= 0 means DefaultMaxInputChars. Empty text returns an empty
// summary without calling s. The provider's answer is returned verbatim.
func Generate(ctx context.Context, text string, target lang.Language, maxInputChars int, s Summarizer) (string, error) {
	if text == "" {
		return "", nil
	}
	if s == nil {
		return "", &SummaryError{Err: ErrNoSummarizer}
	}
	if maxInputChars <= 0 {
		maxInputChars = DefaultMaxInputChars
	}

	out, err := s.Summarize(ctx, Truncate(text, maxInputChars), target)
	if err != nil {
		return "", &SummaryError{Err: err}
	}
	return out, nil
}

// Truncate returns the first n runes of text.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
