// Package detect guesses the source language of a document.
package detect

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"

	"github.com/alnah/go-translate/internal/summary"
)

// SampleChars is the number of leading characters inspected.
const SampleChars = 2000

// Unknown is reported when detection fails.
const Unknown = "unknown"

// Sentinel errors wrapped by DetectionError.
var (
	ErrNoLetters    = errors.New("sample has no letters")
	ErrUndetermined = errors.New("language could not be determined")
)

// DetectionError reports a failed detection. It is recoverable: callers
// fall back to Unknown.
type DetectionError struct {
	Err error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("language detection failed: %v", e.Err)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

// Detect returns the ISO 639-1 code (ISO 639-3 when no two-letter code
// exists) of the language of the first SampleChars characters of text.
func Detect(text string) (string, error) {
	sample := summary.Truncate(text, SampleChars)
	if strings.IndexFunc(sample, unicode.IsLetter) < 0 {
		return "", &DetectionError{Err: ErrNoLetters}
	}

	info := whatlanggo.Detect(sample)
	if info.Lang < 0 || info.Confidence <= 0 {
		return "", &DetectionError{Err: ErrUndetermined}
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code, nil
	}
	if code := info.Lang.Iso6393(); code != "" {
		return code, nil
	}
	return "", &DetectionError{Err: ErrUndetermined}
}

// DetectOrUnknown is Detect with the failure replaced by Unknown.
func DetectOrUnknown(text string) string {
	code, err := Detect(text)
	if err != nil {
		return Unknown
	}
	return code
}
