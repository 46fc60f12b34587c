package language

import (
	"regexp"
	"unicode/utf8"
)

// Rules is the immutable configuration for one language. A Rules value is
// built once by Load/LoadBytes and shared read-only across all workers.
type Rules struct {
	Code string
	Name string

	Terminators   Terminators
	Ellipsis      Ellipsis
	Enclosures    []EnclosurePair
	Suppression   Suppression
	Abbreviations map[string]struct{}
	Starters      Starters

	// Derived lookup structures, built by finish() after loading.
	enclosureRoles map[rune]enclosureRole
	termMatcher    *matcher // multi-char terminator patterns
	ellipsisM      *matcher // ellipsis patterns
	seamRunes      map[rune]struct{}
	maxAbbrevLen   int
	fastByChar     map[rune][]FastPattern
}

// Terminators holds single code points and ordered multi-code-point patterns.
// Multi-character patterns are tried before single characters, longest match
// first; ties break in declared order.
type Terminators struct {
	Chars    map[rune]struct{}
	Patterns []TerminatorPattern
}

type TerminatorPattern struct {
	Pattern string
	Name    string
}

// Ellipsis configures ellipsis boundary treatment.
type Ellipsis struct {
	TreatAsBoundary bool
	Patterns        []string
	ContextRules    []ContextRule
	Exceptions      []EllipsisException
}

// Condition names the right-context condition of an ellipsis context rule.
type Condition int

const (
	FollowedByCapital Condition = iota
	FollowedByLowercase
)

type ContextRule struct {
	Condition Condition
	Boundary  bool
}

type EllipsisException struct {
	Regex    *regexp.Regexp
	Boundary bool
}

// EnclosurePair declares one enclosure; its index in Rules.Enclosures is the
// pair id used throughout the engine. Symmetric pairs (e.g. plain double
// quotes) use the same rune for open and close and are tracked by parity.
type EnclosurePair struct {
	Open      rune
	Close     rune
	Symmetric bool
}

// Suppression disables depth accounting for enclosure characters in certain
// character contexts, e.g. the apostrophe in "don't".
type Suppression struct {
	Fast  []FastPattern
	Regex []*regexp.Regexp
}

// FastPattern is a single-character suppression predicate. Empty Before/After
// mean "don't care". LineStart, when required, matches if the preceding byte
// is a newline or the character sits at the start of input.
type FastPattern struct {
	Char      rune
	Before    string
	After     string
	LineStart bool
}

// Starters configures sentence-starter confirmation.
type Starters struct {
	RequireFollowingSpace bool
	MinWordLength         int
	Words                 map[string]struct{}
}

type enclosureRole struct {
	PairID  int
	IsOpen  bool
	IsClose bool
}

// EnclosureRole reports whether r opens and/or closes a declared pair.
func (ru *Rules) EnclosureRole(r rune) (pairID int, open, close bool, ok bool) {
	role, found := ru.enclosureRoles[r]
	if !found {
		return 0, false, false, false
	}
	return role.PairID, role.IsOpen, role.IsClose, true
}

// MatchTerminatorPattern returns the byte length of the longest multi-char
// terminator pattern starting at s[0], or 0 when none matches.
func (ru *Rules) MatchTerminatorPattern(s string) int {
	n, _ := ru.termMatcher.matchLongest(s)
	return n
}

// MatchEllipsis returns the byte length of the longest ellipsis pattern
// starting at s[0], or 0 when none matches.
func (ru *Rules) MatchEllipsis(s string) int {
	n, _ := ru.ellipsisM.matchLongest(s)
	return n
}

// IsTerminatorChar reports whether r is a single-character terminator.
func (ru *Rules) IsTerminatorChar(r rune) bool {
	_, ok := ru.Terminators.Chars[r]
	return ok
}

// IsSeamRune reports whether r participates in any terminator or ellipsis
// pattern. Runs of seam runes adjacent to a chunk edge must be re-scanned
// when two chunks are combined, because a pattern may straddle the seam.
func (ru *Rules) IsSeamRune(r rune) bool {
	_, ok := ru.seamRunes[r]
	return ok
}

// IsAbbreviation reports whether token (without its trailing dot) is in the
// abbreviation set. Matching is case-sensitive. A single ASCII upper-case
// letter (A-Z) is treated as an initial ("J. Smith", the first dot of "U.S.").
func (ru *Rules) IsAbbreviation(token string) bool {
	if token == "" {
		return false
	}
	if _, ok := ru.Abbreviations[token]; ok {
		return true
	}
	r, size := utf8.DecodeRuneInString(token)
	return size == len(token) && r >= 'A' && r <= 'Z'
}

// MaxAbbrevLen is the byte length of the longest abbreviation token. Word
// runs carried across chunk seams are capped at this length plus four bytes;
// a run cut by that cap is never matched as an abbreviation.
func (ru *Rules) MaxAbbrevLen() int {
	return ru.maxAbbrevLen
}

// IsStarter reports whether token confirms a boundary as a sentence starter.
// followKnown/followIsSpace describe the code point immediately after the
// token; with RequireFollowingSpace set, an unknown follow position counts as
// end of input and confirms.
func (ru *Rules) IsStarter(token string, followKnown, followIsSpace bool) bool {
	if token == "" {
		return false
	}
	if utf8.RuneCountInString(token) < ru.Starters.MinWordLength {
		return false
	}
	if _, ok := ru.Starters.Words[token]; !ok {
		return false
	}
	if ru.Starters.RequireFollowingSpace && followKnown && !followIsSpace {
		return false
	}
	return true
}

// FastPatternsFor returns the fast suppression patterns declared for r.
func (ru *Rules) FastPatternsFor(r rune) []FastPattern {
	return ru.fastByChar[r]
}

// Suppressed evaluates the fast suppression patterns for an enclosure
// character. A neighbor passed as unknown (hasBefore/hasAfter false) cannot
// satisfy a class requirement; at the real input edges that is the intended
// semantics.
func (ru *Rules) Suppressed(char rune, before rune, hasBefore bool, after rune, hasAfter bool, lineStart bool) bool {
	for _, p := range ru.fastByChar[char] {
		if p.LineStart && !lineStart {
			continue
		}
		if p.Before != "" && (!hasBefore || !MatchClass(p.Before, before)) {
			continue
		}
		if p.After != "" && (!hasAfter || !MatchClass(p.After, after)) {
			continue
		}
		return true
	}
	return false
}

// finish builds the derived lookup structures. Called once after loading.
func (ru *Rules) finish() {
	ru.enclosureRoles = make(map[rune]enclosureRole, len(ru.Enclosures)*2)
	for id, p := range ru.Enclosures {
		or := ru.enclosureRoles[p.Open]
		or.PairID = id
		or.IsOpen = true
		if p.Symmetric {
			or.IsClose = true
		}
		ru.enclosureRoles[p.Open] = or
		if !p.Symmetric {
			cr := ru.enclosureRoles[p.Close]
			cr.PairID = id
			cr.IsClose = true
			ru.enclosureRoles[p.Close] = cr
		}
	}

	ru.termMatcher = newMatcher()
	for _, p := range ru.Terminators.Patterns {
		ru.termMatcher.insert(p.Pattern)
	}
	ru.ellipsisM = newMatcher()
	for _, p := range ru.Ellipsis.Patterns {
		ru.ellipsisM.insert(p)
	}

	ru.seamRunes = make(map[rune]struct{})
	for r := range ru.Terminators.Chars {
		ru.seamRunes[r] = struct{}{}
	}
	for _, p := range ru.Terminators.Patterns {
		for _, r := range p.Pattern {
			ru.seamRunes[r] = struct{}{}
		}
	}
	for _, p := range ru.Ellipsis.Patterns {
		for _, r := range p {
			ru.seamRunes[r] = struct{}{}
		}
	}

	ru.maxAbbrevLen = 1 // single-letter initials always qualify
	for a := range ru.Abbreviations {
		if len(a) > ru.maxAbbrevLen {
			ru.maxAbbrevLen = len(a)
		}
	}

	ru.fastByChar = make(map[rune][]FastPattern)
	for _, p := range ru.Suppression.Fast {
		ru.fastByChar[p.Char] = append(ru.fastByChar[p.Char], p)
	}
}
