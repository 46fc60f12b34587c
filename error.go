package sakurs

import (
	"github.com/sog4be/sakurs-go/language"
	"github.com/sog4be/sakurs-go/segmenter"
)

// Error kinds surfaced by Process. I/O failures from streaming sources are
// wrapped with %w and can be unwrapped by the caller.
var (
	ErrInvalidUTF8 = segmenter.ErrInvalidUTF8
	ErrCancelled   = segmenter.ErrCancelled
)

// UnknownLanguageError reports a language code with no embedded rule set.
type UnknownLanguageError = language.UnknownLanguageError

// InvalidRulesError reports a rules file that violates the schema.
type InvalidRulesError = language.InvalidRulesError
