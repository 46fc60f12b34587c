package segmenter

import (
	"unicode"
	"unicode/utf8"

	"github.com/sog4be/sakurs-go/language"
)

// lookTokenCap bounds the token collected for sentence-starter lookahead.
// Starter words are short; a longer run can never match one.
const lookTokenCap = 24

// Scan produces the PartialState for one chunk in a single left-to-right
// pass over its code points. Decisions that depend on a neighboring chunk
// (suppression at the first/last code point, right context past the chunk
// end, token runs touching the chunk start) are recorded as pending and
// settled during combine.
func Scan(rules *language.Rules, chunk Chunk) *PartialState {
	text := chunk.Text
	st := &PartialState{
		Length: len(text),
		Pairs:  make([]PairState, len(rules.Enclosures)),
	}

	var prevRune rune
	hasPrev := false
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])

		if pair, isOpen, isClose, ok := rules.EnclosureRole(r); ok {
			st.handleEnclosure(rules, chunk, text, i, size, pair, isOpen, isClose, r, prevRune, hasPrev)
			prevRune, hasPrev = r, true
			i += size
			continue
		}

		if m := rules.MatchEllipsis(text[i:]); m > 0 {
			st.emit(rules, text, Candidate{
				Pos:  Position{chunk.Index, i + m},
				Kind: KindEllipsis,
			})
			prevRune, _ = utf8.DecodeLastRuneInString(text[:i+m])
			hasPrev = true
			i += m
			continue
		}

		if m := rules.MatchTerminatorPattern(text[i:]); m > 0 {
			term, _ := utf8.DecodeLastRuneInString(text[:i+m])
			st.emit(rules, text, Candidate{
				Pos:  Position{chunk.Index, i + m},
				Kind: KindTerminator,
				Term: term,
			})
			prevRune, hasPrev = term, true
			i += m
			continue
		}

		if rules.IsTerminatorChar(r) {
			cand := Candidate{
				Pos:  Position{chunk.Index, i + size},
				Kind: KindTerminator,
				Term: r,
			}
			if r == '.' {
				tok := tokenRunBefore(rules, text, i)
				cand.Token = tok.Text
				cand.TokenTruncated = tok.Truncated
				cand.TokenAtStart = tok.AtStart
				if !tok.AtStart {
					classify(rules, &cand)
				}
			}
			st.emit(rules, text, cand)
			prevRune, hasPrev = r, true
			i += size
			continue
		}

		prevRune, hasPrev = r, true
		i += size
	}

	st.Head = computeHead(rules, chunk)
	st.Tail = computeTail(rules, chunk)
	return st
}

// classify decides Terminator vs Abbreviation for a '.'-terminated candidate
// whose token run has a definite left edge. The raw run is trimmed to the
// longest valid token suffix first.
func classify(rules *language.Rules, cand *Candidate) {
	cand.Token = trimTokenRun(cand.Token)
	cand.TokenAtStart = false
	if cand.Term == '.' && !cand.TokenTruncated && rules.IsAbbreviation(cand.Token) {
		cand.Kind = KindAbbreviation
	} else {
		cand.Kind = KindTerminator
	}
}

func (st *PartialState) emit(rules *language.Rules, text string, cand Candidate) {
	cand.Depth = st.depthSnapshot(rules)
	cand.Look = lookaheadFrom(text, cand.Pos.Offset)
	st.Boundaries = append(st.Boundaries, cand)
}

func (st *PartialState) depthSnapshot(rules *language.Rules) []DepthAt {
	out := make([]DepthAt, len(st.Pairs))
	for i := range st.Pairs {
		if rules.Enclosures[i].Symmetric {
			out[i] = DepthAt{Delta: st.Pairs[i].Parity}
		} else {
			out[i] = DepthAt{Delta: st.Pairs[i].Delta, Min: st.Pairs[i].Min}
		}
	}
	return out
}

func (st *PartialState) handleEnclosure(rules *language.Rules, chunk Chunk, text string, i, size, pair int, isOpen, isClose bool, r, prevRune rune, hasPrev bool) {
	pos := Position{chunk.Index, i}

	if len(rules.FastPatternsFor(r)) > 0 {
		after, _ := utf8.DecodeRuneInString(text[i+size:])
		hasAfter := i+size < len(text)
		if !hasPrev || !hasAfter {
			st.Pendings = append(st.Pendings, PendingEnclosure{
				R: r, Pos: pos, PairID: pair, IsOpen: isOpen, IsClose: isClose,
				AtStart: !hasPrev,
				Before:  prevRune, HasBefore: hasPrev,
				After: after, HasAfter: hasAfter,
			})
			return
		}
		if rules.Suppressed(r, prevRune, true, after, true, prevRune == '\n') {
			return
		}
	}

	for _, re := range rules.Suppression.Regex {
		lo := i - 16
		if lo < 0 {
			lo = 0
		}
		for lo < i && !isRuneStart(text[lo]) {
			lo++
		}
		hi := i + size + 16
		if hi > len(text) {
			hi = len(text)
		}
		for hi < len(text) && !isRuneStart(text[hi]) {
			hi++
		}
		if re.MatchString(text[lo:hi]) {
			return
		}
	}

	st.applyEnclosure(rules, pair, isOpen, isClose, pos)
}

func (st *PartialState) applyEnclosure(rules *language.Rules, pair int, isOpen, isClose bool, pos Position) {
	ps := &st.Pairs[pair]
	if rules.Enclosures[pair].Symmetric {
		ps.Parity ^= 1
		if !ps.HasToggle {
			ps.FirstToggle = pos
			ps.HasToggle = true
		}
		ps.LastToggle = pos
		return
	}
	if isOpen {
		ps.Delta++
		ps.Opens = append(ps.Opens, pos)
		return
	}
	ps.Delta--
	if ps.Delta < ps.Min {
		ps.Min = ps.Delta
	}
	if n := len(ps.Opens); n > 0 {
		ps.Opens = ps.Opens[:n-1]
	} else {
		st.PrefixCloses = append(st.PrefixCloses, CloseEvent{Pair: pair, Pos: pos})
	}
}

// lookaheadFrom computes the right context starting at byte offset pos: skip
// whitespace, note the first non-space code point, and if it starts a word
// run, collect the token and the code point after it. Runs that hit the
// chunk end are left pending for combine.
func lookaheadFrom(text string, pos int) Lookahead {
	look := Lookahead{State: LookNeedRight}
	i := pos
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			look.RightRune, look.HasRight = r, true
			break
		}
		i += size
	}
	if !look.HasRight {
		return look
	}
	if !language.IsWordChar(look.RightRune) {
		look.State = LookDone
		return look
	}
	start := i
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !language.IsWordChar(r) {
			look.NextToken = text[start:i]
			look.Follow, look.HasFollow = r, true
			look.State = LookDone
			return look
		}
		i += size
		if i-start > lookTokenCap {
			look.NextToken, _ = trimHead(text[start:i], lookTokenCap)
			look.Truncated = true
			look.State = LookDone
			return look
		}
	}
	look.NextToken = text[start:]
	look.State = LookNeedToken
	return look
}

// tokenRunBefore walks backward from the byte offset end, collecting the
// word run (with interior dots) that a '.'-terminator's abbreviation lookup
// inspects. A dot whose left neighbor lies outside the chunk is kept
// tentatively; AtStart signals the run may extend into the preceding chunk.
func tokenRunBefore(rules *language.Rules, text string, end int) EdgeToken {
	i := backwardTokenRun(text, end, false)
	run, truncated := trimTail(text[i:end], wordRunCap(rules))
	return EdgeToken{Text: run, Truncated: truncated, AtStart: i == 0}
}

// backwardTokenRun returns the start offset of the token run ending at end.
// trailingDot permits a single dot at the run's right edge whose following
// code point is unknown (used for chunk-tail runs).
func backwardTokenRun(text string, end int, trailingDot bool) int {
	i := end
	lastWasWord := false
	first := trailingDot
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if language.IsWordChar(r) {
			i -= size
			lastWasWord = true
			first = false
			continue
		}
		if r == '.' && (lastWasWord || first) {
			if i-size == 0 {
				// dot at the chunk start; its left neighbor may complete it
				i -= size
				break
			}
			left, _ := utf8.DecodeLastRuneInString(text[:i-size])
			if language.IsWordChar(left) {
				i -= size
				lastWasWord = false
				first = false
				continue
			}
		}
		break
	}
	return i
}

// trimTokenRun reduces a raw run to the longest suffix that is a valid
// token once the left edge is definite: word characters with interior
// single dots, no leading or trailing dot.
func trimTokenRun(s string) string {
	i := len(s)
	lastWasWord := false
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		if language.IsWordChar(r) {
			i -= size
			lastWasWord = true
			continue
		}
		if r == '.' && lastWasWord && i-size > 0 {
			left, _ := utf8.DecodeLastRuneInString(s[:i-size])
			if language.IsWordChar(left) {
				i -= size
				lastWasWord = false
				continue
			}
		}
		break
	}
	return s[i:]
}

func wordRunCap(rules *language.Rules) int {
	return rules.MaxAbbrevLen() + 4
}

func computeHead(rules *language.Rules, chunk Chunk) HeadContext {
	text := chunk.Text
	var h HeadContext
	h.AllSpace = true
	if len(text) == 0 {
		return h
	}
	h.FirstRune, _ = utf8.DecodeRuneInString(text)

	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !rules.IsSeamRune(r) {
			break
		}
		h.PunctRun = append(h.PunctRun, SeamRune{R: r, Pos: Position{chunk.Index, i}})
		i += size
	}
	h.PunctWhole = len(h.PunctRun) > 0 && i == len(text)
	if len(h.PunctRun) > 0 {
		h.AfterPunct = lookaheadFrom(text, i)
	}

	j := 0
	for j < len(text) {
		r, size := utf8.DecodeRuneInString(text[j:])
		if !language.IsWordChar(r) {
			h.AfterWordRune = r
			break
		}
		j += size
	}
	if j > 0 {
		h.WordRun, h.WordTruncated = trimHead(text[:j], wordRunCap(rules))
		h.WordWhole = j == len(text)
	}

	k := 0
	for k < len(text) {
		r, size := utf8.DecodeRuneInString(text[k:])
		if !unicode.IsSpace(r) {
			h.AllSpace = false
			h.First = SeamRune{R: r, Pos: Position{chunk.Index, k}}
			break
		}
		k += size
	}
	if !h.AllSpace && language.IsWordChar(h.First.R) {
		h.TokPresent = true
		look := lookaheadFrom(text, k)
		h.Tok = look.NextToken
		h.TokTruncated = look.Truncated
		h.TokComplete = look.State == LookDone
		h.TokFollow = look.Follow
		h.TokHasFollow = look.HasFollow
	}
	return h
}

func computeTail(rules *language.Rules, chunk Chunk) TailContext {
	text := chunk.Text
	var t TailContext
	t.AllSpace = true
	if len(text) == 0 {
		return t
	}
	t.LastRune, _ = utf8.DecodeLastRuneInString(text)

	i := len(text)
	var rev []SeamRune
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if !rules.IsSeamRune(r) {
			break
		}
		rev = append(rev, SeamRune{R: r, Pos: Position{chunk.Index, i - size}})
		i -= size
	}
	for k := len(rev) - 1; k >= 0; k-- {
		t.PunctRun = append(t.PunctRun, rev[k])
	}
	t.PunctWhole = len(t.PunctRun) > 0 && i == 0
	if t.PunctWhole {
		// the word run before this run, if any, lies in a preceding chunk
		t.PrevToken = EdgeToken{AtStart: true}
	} else if len(t.PunctRun) > 0 {
		t.PrevToken = tokenRunBefore(rules, text, i)
	}

	start := backwardTokenRun(text, len(text), true)
	if start < len(text) {
		t.WordRun, t.WordTruncated = trimTail(text[start:], wordRunCap(rules))
		t.WordWhole = start == 0
	}

	for k := len(text); k > 0; {
		r, size := utf8.DecodeLastRuneInString(text[:k])
		if !unicode.IsSpace(r) {
			t.AllSpace = false
			break
		}
		k -= size
	}
	return t
}
