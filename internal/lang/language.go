// Package lang parses and names translation target languages.
package lang

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// supported lists the ISO 639-1 base codes accepted as targets.
// Regional variants (pt-BR, zh-TW) of these bases are accepted too.
var supported = map[string]bool{
	"af": true, "ar": true, "bg": true, "bn": true, "ca": true, "cs": true,
	"da": true, "de": true, "el": true, "en": true, "es": true, "et": true,
	"fa": true, "fi": true, "fr": true, "gu": true, "he": true, "hi": true,
	"hr": true, "hu": true, "id": true, "it": true, "ja": true, "kn": true,
	"ko": true, "lt": true, "lv": true, "mk": true, "ml": true, "mr": true,
	"ms": true, "nl": true, "no": true, "pa": true, "pl": true, "pt": true,
	"ro": true, "ru": true, "sk": true, "sl": true, "sr": true, "sv": true,
	"sw": true, "ta": true, "te": true, "th": true, "tl": true, "tr": true,
	"uk": true, "ur": true, "vi": true, "zh": true,
}

// Language is a validated target language.
// The zero value means "not set".
type Language struct {
	tag language.Tag
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Language{}

// Parse accepts an ISO 639-1 code ("es"), a locale ("pt-BR", "pt_br") or an
// English language name ("Spanish", "brazilian portuguese").
// Empty input returns the zero Language and no error.
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Language{}, nil
	}

	if tag, ok := byName(s); ok {
		return Language{tag: tag}, nil
	}

	tag, err := language.Parse(Normalize(s))
	if err != nil {
		return Language{}, fmt.Errorf("unknown language %q (use a code like 'es', 'pt-BR' or a name like 'Spanish'): %w", s, ErrInvalid)
	}

	base, _ := tag.Base()
	if !supported[base.String()] {
		return Language{}, fmt.Errorf("unsupported language %q: %w", s, ErrInvalid)
	}
	return Language{tag: tag}, nil
}

// MustParse is like Parse but panics on error. Use only for constants and tests.
func MustParse(s string) Language {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// byName matches s against the English display names of the supported
// bases.
func byName(s string) (language.Tag, bool) {
	namer := display.English.Tags()
	for code := range supported {
		tag := language.Make(code)
		if strings.EqualFold(namer.Name(tag), s) {
			return tag, true
		}
	}
	return language.Tag{}, false
}

// Normalize lowercases a code and converts underscores to hyphens.
// "pt_BR" -> "pt-br"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

// IsZero reports whether the language is unset.
func (l Language) IsZero() bool {
	return l.tag == language.Tag{}
}

// String returns the BCP 47 tag (e.g. "pt-BR"), or "" when unset.
func (l Language) String() string {
	if l.IsZero() {
		return ""
	}
	return l.tag.String()
}

// Base returns the ISO 639-1 base code ("pt" for "pt-BR").
func (l Language) Base() string {
	if l.IsZero() {
		return ""
	}
	base, _ := l.tag.Base()
	return base.String()
}

// DisplayName returns the English name used in prompts,
// e.g. "Spanish" or "Brazilian Portuguese".
func (l Language) DisplayName() string {
	if l.IsZero() {
		return ""
	}
	if name := display.English.Tags().Name(l.tag); name != "" {
		return name
	}
	return l.tag.String()
}

// IsEnglish reports whether the language is any English variant.
func (l Language) IsEnglish() bool {
	return l.Base() == "en"
}

// Supported returns the supported base codes, sorted.
func Supported() []string {
	codes := make([]string, 0, len(supported))
	for code := range supported {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
