// Package tokenizer counts tokens the way the translation models do.
//
// A single Counter must be shared by cost estimation and chunk budgeting:
// mixing two schemes would make chunk boundaries disagree with the cost shown
// to the user.
package tokenizer

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"
)

// ErrUnavailable indicates the tokenizer model could not be loaded.
// It is a setup failure, not a per-document failure.
var ErrUnavailable = errors.New("tokenizer unavailable")

// DefaultEncoding is used for models tiktoken does not know about.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens in a string. Implementations are pure and safe for
// concurrent use.
type Counter interface {
	Count(text string) int
}

// Compile-time interface compliance checks.
var (
	_ Counter = (*Tiktoken)(nil)
	_ Counter = Heuristic{}
)

var loaderOnce sync.Once

// useOfflineLoader makes tiktoken read its BPE ranks from the embedded
// loader instead of downloading them.
func useOfflineLoader() {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	})
}

// Tiktoken counts tokens with a BPE vocabulary.
type Tiktoken struct {
	enc  *tiktoken.Tiktoken
	name string
}

// New returns a Tiktoken counter for model. Unknown models fall back to
// DefaultEncoding. Returns ErrUnavailable if no encoding can be loaded.
func New(model string) (*Tiktoken, error) {
	useOfflineLoader()

	if model != "" {
		if enc, err := tiktoken.EncodingForModel(model); err == nil {
			return &Tiktoken{enc: enc, name: model}, nil
		}
	}

	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("load %s: %v: %w", DefaultEncoding, err, ErrUnavailable)
	}
	return &Tiktoken{enc: enc, name: DefaultEncoding}, nil
}

// NewEncoding returns a counter for a named encoding (e.g. "o200k_base").
func NewEncoding(name string) (*Tiktoken, error) {
	useOfflineLoader()

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %v: %w", name, err, ErrUnavailable)
	}
	return &Tiktoken{enc: enc, name: name}, nil
}

// Count returns the number of BPE tokens in text.
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Name returns the model or encoding the counter was built for.
func (t *Tiktoken) Name() string {
	return t.name
}

// Heuristic estimates tokens as one per three runes, at least one for any
// non-empty text. It overestimates for English, which keeps budgets safe.
type Heuristic struct{}

// Count returns the estimated token count.
func (Heuristic) Count(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return max(n/3, 1)
}
