package language

import (
	"unicode"

	"github.com/smasher164/xid"
)

// CharClass is the closed set of character classes used by suppression
// predicates and context rules. Every predicate in a rules file is evaluated
// against this set; there is no user-extensible class mechanism.
type CharClass int

const (
	ClassOther CharClass = iota
	ClassAlpha
	ClassDigit
	ClassWhitespace
	ClassPunct
)

// ClassOf maps a code point to its character class.
func ClassOf(r rune) CharClass {
	switch {
	case unicode.IsLetter(r):
		return ClassAlpha
	case unicode.IsDigit(r):
		return ClassDigit
	case unicode.IsSpace(r):
		return ClassWhitespace
	case unicode.IsPunct(r) || unicode.IsSymbol(r):
		return ClassPunct
	default:
		return ClassOther
	}
}

// MatchClass evaluates a named class predicate from a rules file against a
// code point. Recognized names: alpha, digit, alnum, whitespace, punct,
// other, and the single-letter class "s" (used by the possessive-apostrophe
// heuristic). Unknown names are rejected at rule load time, so this function
// never sees one.
func MatchClass(name string, r rune) bool {
	switch name {
	case "alpha":
		return ClassOf(r) == ClassAlpha
	case "digit":
		return ClassOf(r) == ClassDigit
	case "alnum":
		c := ClassOf(r)
		return c == ClassAlpha || c == ClassDigit
	case "whitespace":
		return ClassOf(r) == ClassWhitespace
	case "punct":
		return ClassOf(r) == ClassPunct
	case "other":
		return ClassOf(r) == ClassOther
	case "s":
		return r == 's' || r == 'S'
	default:
		return false
	}
}

// validClassNames is consulted by rule validation.
var validClassNames = map[string]struct{}{
	"alpha": {}, "digit": {}, "alnum": {}, "whitespace": {},
	"punct": {}, "other": {}, "s": {},
}

// IsWordChar reports whether r can be part of a token for abbreviation and
// sentence-starter lookups. Follows the same identifier classes the scanner
// uses elsewhere (xid covers letters, digits and combining marks).
func IsWordChar(r rune) bool {
	return xid.Continue(r)
}
