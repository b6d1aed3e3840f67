package lang

import "errors"

// ErrInvalid indicates an unknown or unsupported target language.
var ErrInvalid = errors.New("invalid language")
