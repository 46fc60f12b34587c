package segmenter

import (
	"unicode/utf8"

	"github.com/sog4be/sakurs-go/language"
)

// Combiner implements the associative combine over PartialStates. It closes
// over the immutable rule set, which is needed to re-scan punctuation runs
// that straddle a seam and to reclassify tokens joined across one.
//
// Combine consumes its arguments: the returned state may alias and mutate
// them. Callers must not reuse l or r afterwards.
type Combiner struct {
	rules *language.Rules
}

func NewCombiner(rules *language.Rules) *Combiner {
	return &Combiner{rules: rules}
}

// Identity returns the identity element: Combine(Identity(), s) == s on
// either side.
func (c *Combiner) Identity() *PartialState {
	return NewIdentity(len(c.rules.Enclosures))
}

// Combine merges two adjacent folds into one.
func (c *Combiner) Combine(l, r *PartialState) *PartialState {
	if l.Length == 0 {
		return r
	}
	if r.Length == 0 {
		return l
	}

	c.resolvePendings(l, r)

	var rescanned []Candidate
	if len(l.Tail.PunctRun) > 0 && len(r.Head.PunctRun) > 0 {
		rescanned = c.rescanSeam(l, r)
	}

	// Bridge the right context of l's trailing candidates from r's head.
	for i := len(l.Boundaries) - 1; i >= 0; i-- {
		cand := &l.Boundaries[i]
		if cand.Look.State == LookDone {
			break
		}
		cand.Look = c.advanceLook(cand.Look, r.Head)
	}

	// Join token runs that straddle the seam and reclassify.
	for i := range r.Boundaries {
		cand := &r.Boundaries[i]
		if !cand.TokenAtStart {
			break
		}
		c.joinToken(l, cand)
	}

	// Rebase r's candidate depth vectors onto l's end state.
	for i := range r.Boundaries {
		depth := r.Boundaries[i].Depth
		for p := range depth {
			if c.rules.Enclosures[p].Symmetric {
				depth[p].Delta ^= l.Pairs[p].Parity
			} else {
				depth[p].Min = minInt(l.Pairs[p].Min, l.Pairs[p].Delta+depth[p].Min)
				depth[p].Delta += l.Pairs[p].Delta
			}
		}
	}

	m := &PartialState{Length: l.Length + r.Length}
	m.Pairs, m.PrefixCloses = c.combinePairs(l, r)

	m.Boundaries = l.Boundaries
	m.Boundaries = append(m.Boundaries, rescanned...)
	m.Boundaries = append(m.Boundaries, r.Boundaries...)

	m.Head = c.composeHead(l, r)
	m.Tail = c.composeTail(l, r)
	m.Pendings = append(l.Pendings, r.Pendings...)
	return m
}

// resolvePendings settles edge enclosures whose missing neighbor is now
// visible across the seam. Pendings still missing a side (at what is still
// an outer edge of the merged fold) are kept.
func (c *Combiner) resolvePendings(l, r *PartialState) {
	var keep []PendingEnclosure
	for _, p := range l.Pendings {
		if !p.HasAfter {
			p.After, p.HasAfter = r.Head.FirstRune, true
		}
		if p.HasBefore && p.HasAfter {
			c.settlePending(l, p)
		} else {
			keep = append(keep, p)
		}
	}
	l.Pendings = keep

	keep = nil
	for _, p := range r.Pendings {
		if !p.HasBefore {
			p.Before, p.HasBefore = l.Tail.LastRune, true
		}
		if p.HasBefore && p.HasAfter {
			c.settlePending(r, p)
		} else {
			keep = append(keep, p)
		}
	}
	r.Pendings = keep
}

// settlePending evaluates the suppression predicate with both neighbors
// known and, when the character counts, applies its depth effect.
func (c *Combiner) settlePending(st *PartialState, p PendingEnclosure) {
	lineStart := !p.HasBefore || p.Before == '\n'
	if c.rules.Suppressed(p.R, p.Before, p.HasBefore, p.After, p.HasAfter, lineStart) {
		return
	}
	c.applyPendingEvent(st, p)
}

// applyPendingEvent applies a late-counted enclosure event at a fold edge.
// An event at the fold start shifts every candidate's depth entry for its
// pair; an event at the fold end affects only the aggregates.
func (c *Combiner) applyPendingEvent(st *PartialState, p PendingEnclosure) {
	ps := &st.Pairs[p.PairID]
	sym := c.rules.Enclosures[p.PairID].Symmetric
	if p.AtStart {
		for i := range st.Boundaries {
			d := &st.Boundaries[i].Depth[p.PairID]
			switch {
			case sym:
				d.Delta ^= 1
			case p.IsOpen:
				d.Delta++
				d.Min = minInt(0, d.Min+1)
			default:
				d.Delta--
				d.Min = minInt(0, d.Min-1)
			}
		}
		switch {
		case sym:
			ps.Parity ^= 1
			ps.FirstToggle = p.Pos
			if !ps.HasToggle {
				ps.LastToggle = p.Pos
				ps.HasToggle = true
			}
		case p.IsOpen:
			ps.Delta++
			ps.Min = minInt(0, ps.Min+1)
			if idx := firstPrefixClose(st, p.PairID); idx >= 0 {
				st.PrefixCloses = append(st.PrefixCloses[:idx], st.PrefixCloses[idx+1:]...)
			} else {
				ps.Opens = append([]Position{p.Pos}, ps.Opens...)
			}
		default:
			ps.Delta--
			ps.Min = minInt(0, ps.Min-1)
			st.PrefixCloses = append([]CloseEvent{{Pair: p.PairID, Pos: p.Pos}}, st.PrefixCloses...)
		}
		return
	}
	switch {
	case sym:
		ps.Parity ^= 1
		ps.LastToggle = p.Pos
		if !ps.HasToggle {
			ps.FirstToggle = p.Pos
			ps.HasToggle = true
		}
	case p.IsOpen:
		ps.Delta++
		ps.Opens = append(ps.Opens, p.Pos)
	default:
		ps.Delta--
		if ps.Delta < ps.Min {
			ps.Min = ps.Delta
		}
		if n := len(ps.Opens); n > 0 {
			ps.Opens = ps.Opens[:n-1]
		} else {
			st.PrefixCloses = append(st.PrefixCloses, CloseEvent{Pair: p.PairID, Pos: p.Pos})
		}
	}
}

func firstPrefixClose(st *PartialState, pair int) int {
	for i, ev := range st.PrefixCloses {
		if ev.Pair == pair {
			return i
		}
	}
	return -1
}

// rescanSeam re-runs terminator/ellipsis matching over the punctuation run
// formed when l's trailing run meets r's leading run. Candidates previously
// emitted inside either part are dropped (from l and r in place) and the
// joined run's candidates are returned, positioned in their original chunks.
func (c *Combiner) rescanSeam(l, r *PartialState) []Candidate {
	runStart := l.Tail.PunctRun[0].Pos
	n := len(l.Boundaries)
	for n > 0 && runStart.Before(l.Boundaries[n-1].Pos) {
		n--
	}
	l.Boundaries = l.Boundaries[:n]

	rLast := r.Head.PunctRun[len(r.Head.PunctRun)-1]
	rEndPlus := Position{rLast.Pos.Chunk, rLast.Pos.Offset + utf8.RuneLen(rLast.R)}
	k := 0
	for k < len(r.Boundaries) && r.Boundaries[k].Pos.AtOrBefore(rEndPlus) {
		k++
	}
	r.Boundaries = r.Boundaries[k:]

	joined := make([]SeamRune, 0, len(l.Tail.PunctRun)+len(r.Head.PunctRun))
	joined = append(joined, l.Tail.PunctRun...)
	joined = append(joined, r.Head.PunctRun...)

	var sb []byte
	offsets := make([]int, len(joined)+1)
	for i, e := range joined {
		offsets[i] = len(sb)
		sb = utf8.AppendRune(sb, e.R)
	}
	offsets[len(joined)] = len(sb)
	s := string(sb)

	posAfter := func(entry int) Position {
		if entry+1 < len(joined) {
			return joined[entry+1].Pos
		}
		last := joined[len(joined)-1]
		return Position{last.Pos.Chunk, last.Pos.Offset + utf8.RuneLen(last.R)}
	}
	lookAfter := func(entry int) Lookahead {
		if entry < len(joined) {
			return Lookahead{State: LookDone, RightRune: joined[entry].R, HasRight: true}
		}
		return r.Head.AfterPunct
	}
	depthAtSeam := func() []DepthAt {
		out := make([]DepthAt, len(l.Pairs))
		for i := range l.Pairs {
			if c.rules.Enclosures[i].Symmetric {
				out[i] = DepthAt{Delta: l.Pairs[i].Parity}
			} else {
				out[i] = DepthAt{Delta: l.Pairs[i].Delta, Min: l.Pairs[i].Min}
			}
		}
		return out
	}

	var out []Candidate
	entry := 0
	for entry < len(joined) {
		rest := s[offsets[entry]:]
		if m := c.rules.MatchEllipsis(rest); m > 0 {
			n := runesInPrefix(rest, m)
			out = append(out, Candidate{
				Pos:   posAfter(entry + n - 1),
				Kind:  KindEllipsis,
				Depth: depthAtSeam(),
				Look:  lookAfter(entry + n),
			})
			entry += n
			continue
		}
		if m := c.rules.MatchTerminatorPattern(rest); m > 0 {
			n := runesInPrefix(rest, m)
			term, _ := utf8.DecodeLastRuneInString(rest[:m])
			out = append(out, Candidate{
				Pos:   posAfter(entry + n - 1),
				Kind:  KindTerminator,
				Term:  term,
				Depth: depthAtSeam(),
				Look:  lookAfter(entry + n),
			})
			entry += n
			continue
		}
		if c.rules.IsTerminatorChar(joined[entry].R) {
			cand := Candidate{
				Pos:   posAfter(entry),
				Kind:  KindTerminator,
				Term:  joined[entry].R,
				Depth: depthAtSeam(),
				Look:  lookAfter(entry + 1),
			}
			if cand.Term == '.' && entry == 0 {
				prev := l.Tail.PrevToken
				cand.Token = prev.Text
				cand.TokenTruncated = prev.Truncated
				cand.TokenAtStart = prev.AtStart
			}
			if !cand.TokenAtStart {
				if cand.Term == '.' {
					classify(c.rules, &cand)
				}
			}
			out = append(out, cand)
			entry++
			continue
		}
		entry++
	}
	return out
}

func runesInPrefix(s string, bytes int) int {
	return utf8.RuneCountInString(s[:bytes])
}

// advanceLook continues a pending right-context lookahead into the head of
// the next fold.
func (c *Combiner) advanceLook(look Lookahead, rh HeadContext) Lookahead {
	switch look.State {
	case LookNeedRight:
		if rh.AllSpace {
			return look
		}
		look.RightRune, look.HasRight = rh.First.R, true
		if !language.IsWordChar(rh.First.R) {
			look.State = LookDone
			return look
		}
		look.NextToken = rh.Tok
		look.Truncated = rh.TokTruncated
		if rh.TokComplete {
			look.Follow, look.HasFollow = rh.TokFollow, rh.TokHasFollow
			look.State = LookDone
		} else {
			look.State = LookNeedToken
		}
		return c.capLook(look)
	case LookNeedToken:
		if rh.WordRun != "" {
			look.NextToken += rh.WordRun
			if rh.WordTruncated {
				look.Truncated = true
			}
			if rh.WordWhole {
				return c.capLook(look)
			}
			look.Follow, look.HasFollow = rh.AfterWordRune, true
			look.State = LookDone
			return c.capLook(look)
		}
		look.Follow, look.HasFollow = rh.FirstRune, true
		look.State = LookDone
		return look
	default:
		return look
	}
}

func (c *Combiner) capLook(look Lookahead) Lookahead {
	if len(look.NextToken) > lookTokenCap {
		look.NextToken, _ = trimHead(look.NextToken, lookTokenCap)
		look.Truncated = true
		look.HasFollow = false
		look.State = LookDone
	}
	return look
}

// joinToken extends a candidate's token run with the word run ending at the
// previous fold's tail, then classifies it unless it still touches the
// merged fold's start.
func (c *Combiner) joinToken(l *PartialState, cand *Candidate) {
	raw := l.Tail.WordRun + cand.Token
	text, trunc := trimTail(raw, wordRunCap(c.rules))
	cand.Token = text
	cand.TokenTruncated = cand.TokenTruncated || trunc || l.Tail.WordTruncated
	cand.TokenAtStart = l.Tail.WordWhole
	if !cand.TokenAtStart {
		classify(c.rules, cand)
	}
}

func (c *Combiner) combinePairs(l, r *PartialState) ([]PairState, []CloseEvent) {
	pairs := make([]PairState, len(l.Pairs))
	prefix := l.PrefixCloses

	for i := range pairs {
		lp, rp := &l.Pairs[i], &r.Pairs[i]
		p := PairState{}
		if c.rules.Enclosures[i].Symmetric {
			p.Parity = lp.Parity ^ rp.Parity
			p.HasToggle = lp.HasToggle || rp.HasToggle
			if lp.HasToggle {
				p.FirstToggle = lp.FirstToggle
			} else {
				p.FirstToggle = rp.FirstToggle
			}
			if rp.HasToggle {
				p.LastToggle = rp.LastToggle
			} else {
				p.LastToggle = lp.LastToggle
			}
		} else {
			p.Delta = lp.Delta + rp.Delta
			p.Min = minInt(lp.Min, lp.Delta+rp.Min)
			p.Opens = lp.Opens
		}
		pairs[i] = p
	}

	// r's unmatched closes pop l's remaining opens in input order; survivors
	// carry over as unmatched closes of the merged fold.
	for _, ev := range r.PrefixCloses {
		opens := pairs[ev.Pair].Opens
		if n := len(opens); n > 0 {
			pairs[ev.Pair].Opens = opens[:n-1]
		} else {
			prefix = append(prefix, ev)
		}
	}
	for i := range pairs {
		if !c.rules.Enclosures[i].Symmetric {
			pairs[i].Opens = append(pairs[i].Opens, r.Pairs[i].Opens...)
		}
	}
	return pairs, prefix
}

func (c *Combiner) composeHead(l, r *PartialState) HeadContext {
	h := l.Head
	if h.AllSpace && !r.Head.AllSpace {
		h.AllSpace = false
		h.First = r.Head.First
	} else if h.AllSpace {
		// both all-space: nothing more to fill
		return h
	}

	if l.Head.PunctWhole {
		if len(r.Head.PunctRun) > 0 {
			run := make([]SeamRune, 0, len(l.Head.PunctRun)+len(r.Head.PunctRun))
			run = append(run, l.Head.PunctRun...)
			run = append(run, r.Head.PunctRun...)
			h.PunctRun = run
			h.PunctWhole = r.Head.PunctWhole
			h.AfterPunct = r.Head.AfterPunct
		} else {
			h.PunctWhole = false
			h.AfterPunct = c.advanceLook(Lookahead{State: LookNeedRight}, r.Head)
		}
	} else if len(l.Head.PunctRun) > 0 && l.Head.AfterPunct.State != LookDone {
		h.AfterPunct = c.advanceLook(l.Head.AfterPunct, r.Head)
	}

	if l.Head.WordWhole {
		if r.Head.WordRun != "" {
			joined := l.Head.WordRun + r.Head.WordRun
			var trunc bool
			h.WordRun, trunc = trimHead(joined, wordRunCap(c.rules))
			h.WordTruncated = trunc || l.Head.WordTruncated || r.Head.WordTruncated
			h.WordWhole = r.Head.WordWhole
			h.AfterWordRune = r.Head.AfterWordRune
		} else {
			h.WordWhole = false
			h.AfterWordRune = r.Head.FirstRune
		}
	}

	if l.Head.AllSpace {
		h.TokPresent = r.Head.TokPresent
		h.Tok = r.Head.Tok
		h.TokTruncated = r.Head.TokTruncated
		h.TokComplete = r.Head.TokComplete
		h.TokFollow = r.Head.TokFollow
		h.TokHasFollow = r.Head.TokHasFollow
	} else if l.Head.TokPresent && !l.Head.TokComplete {
		look := c.advanceLook(Lookahead{
			State:     LookNeedToken,
			RightRune: l.Head.First.R,
			HasRight:  true,
			NextToken: l.Head.Tok,
			Truncated: l.Head.TokTruncated,
		}, r.Head)
		h.Tok = look.NextToken
		h.TokTruncated = look.Truncated
		h.TokComplete = look.State == LookDone
		h.TokFollow = look.Follow
		h.TokHasFollow = look.HasFollow
	}
	return h
}

func (c *Combiner) composeTail(l, r *PartialState) TailContext {
	t := r.Tail
	t.AllSpace = l.Tail.AllSpace && r.Tail.AllSpace

	if r.Tail.PunctWhole {
		if len(l.Tail.PunctRun) > 0 {
			run := make([]SeamRune, 0, len(l.Tail.PunctRun)+len(r.Tail.PunctRun))
			run = append(run, l.Tail.PunctRun...)
			run = append(run, r.Tail.PunctRun...)
			t.PunctRun = run
			t.PunctWhole = l.Tail.PunctWhole
			t.PrevToken = l.Tail.PrevToken
		} else {
			t.PunctWhole = false
			t.PrevToken = EdgeToken{
				Text:      l.Tail.WordRun,
				Truncated: l.Tail.WordTruncated,
				AtStart:   l.Tail.WordWhole,
			}
		}
	} else if len(r.Tail.PunctRun) > 0 && r.Tail.PrevToken.AtStart {
		joined := l.Tail.WordRun + r.Tail.PrevToken.Text
		text, trunc := trimTail(joined, wordRunCap(c.rules))
		t.PrevToken = EdgeToken{
			Text:      text,
			Truncated: trunc || l.Tail.WordTruncated || r.Tail.PrevToken.Truncated,
			AtStart:   l.Tail.WordWhole,
		}
	}

	if r.Tail.WordWhole {
		joined := l.Tail.WordRun + r.Tail.WordRun
		text, trunc := trimTail(joined, wordRunCap(c.rules))
		t.WordRun = text
		t.WordTruncated = trunc || l.Tail.WordTruncated || r.Tail.WordTruncated
		t.WordWhole = l.Tail.WordWhole
	}
	return t
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
