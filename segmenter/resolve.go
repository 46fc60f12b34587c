package segmenter

import (
	"unicode"

	"github.com/sog4be/sakurs-go/language"
)

// Resolve walks the final combined state and yields the absolute byte
// offsets of confirmed boundaries, in increasing order. bases maps chunk
// index to the chunk's absolute base offset.
//
// Candidates are self-contained by this point: every bridge was filled
// during combine, and whatever is still pending sits against a real input
// edge and resolves as such here.
func Resolve(rules *language.Rules, global *PartialState, bases []int) []int {
	c := NewCombiner(rules)

	// Edge enclosures still pending face the start or end of the input.
	for _, p := range global.Pendings {
		c.settlePending(global, p)
	}
	global.Pendings = nil

	out := make([]int, 0, len(global.Boundaries))
	for i := range global.Boundaries {
		cand := &global.Boundaries[i]
		if cand.TokenAtStart {
			// the run's left edge is the start of input
			classify(rules, cand)
		}
		if insideEnclosure(rules, global, cand) {
			continue
		}
		if !confirmCandidate(rules, cand) {
			continue
		}
		abs := bases[cand.Pos.Chunk] + cand.Pos.Offset
		if len(out) == 0 || abs > out[len(out)-1] {
			out = append(out, abs)
		}
	}
	return out
}

// insideEnclosure reports whether the candidate sits at non-zero enclosure
// depth, discounting opens that never close before the end of input (text
// inside a never-closed quote still produces sentences).
func insideEnclosure(rules *language.Rules, global *PartialState, cand *Candidate) bool {
	for p := range global.Pairs {
		ps := &global.Pairs[p]
		if rules.Enclosures[p].Symmetric {
			if cand.Depth[p].Delta == 0 {
				continue
			}
			// Inside a quote: tolerated only when the covering toggle is the
			// final, never-closed one.
			if ps.Parity == 1 && ps.HasToggle && ps.LastToggle.Before(cand.Pos) {
				continue
			}
			return true
		}
		depth := cand.Depth[p].Delta - cand.Depth[p].Min
		unclosed := 0
		for _, open := range ps.Opens {
			if open.Before(cand.Pos) {
				unclosed++
			}
		}
		if depth-unclosed > 0 {
			return true
		}
	}
	return false
}

func confirmCandidate(rules *language.Rules, cand *Candidate) bool {
	switch cand.Kind {
	case KindEllipsis:
		boundary := rules.Ellipsis.TreatAsBoundary
		if cand.Look.HasRight {
			for _, cr := range rules.Ellipsis.ContextRules {
				if cr.Condition == language.FollowedByCapital && unicode.IsUpper(cand.Look.RightRune) {
					boundary = cr.Boundary
					break
				}
				if cr.Condition == language.FollowedByLowercase && unicode.IsLower(cand.Look.RightRune) {
					boundary = cr.Boundary
					break
				}
			}
		}
		for _, ex := range rules.Ellipsis.Exceptions {
			if cand.Look.NextToken != "" && ex.Regex.MatchString(cand.Look.NextToken) {
				boundary = ex.Boundary
			}
		}
		return boundary

	case KindAbbreviation:
		if !cand.Look.HasRight {
			return true // terminator at end of input is unambiguous
		}
		return starterConfirmed(rules, cand)

	default:
		if cand.Term != '.' {
			return true
		}
		if !cand.Look.HasRight {
			return true
		}
		if unicode.IsUpper(cand.Look.RightRune) {
			return true
		}
		return starterConfirmed(rules, cand)
	}
}

func starterConfirmed(rules *language.Rules, cand *Candidate) bool {
	if cand.Look.Truncated {
		return false
	}
	followIsSpace := cand.Look.HasFollow && unicode.IsSpace(cand.Look.Follow)
	return rules.IsStarter(cand.Look.NextToken, cand.Look.HasFollow, followIsSpace)
}
