package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sog4be/sakurs-go/language"
)

func englishRules(t *testing.T) *language.Rules {
	t.Helper()
	rules, err := language.Load("en")
	require.NoError(t, err)
	return rules
}

func japaneseRules(t *testing.T) *language.Rules {
	t.Helper()
	rules, err := language.Load("ja")
	require.NoError(t, err)
	return rules
}

func scanWhole(rules *language.Rules, text string) *PartialState {
	return Scan(rules, Chunk{Text: text, Base: 0, Index: 0})
}

func TestScan_TerminatorCandidates(t *testing.T) {
	rules := englishRules(t)
	st := scanWhole(rules, "Hello world. How are you?")

	require.Len(t, st.Boundaries, 2)

	first := st.Boundaries[0]
	assert.Equal(t, Position{0, 12}, first.Pos)
	assert.Equal(t, KindTerminator, first.Kind)
	assert.Equal(t, '.', first.Term)
	assert.Equal(t, "world", first.Token)
	assert.Equal(t, LookDone, first.Look.State)
	assert.Equal(t, 'H', first.Look.RightRune)
	assert.Equal(t, "How", first.Look.NextToken)

	second := st.Boundaries[1]
	assert.Equal(t, Position{0, 25}, second.Pos)
	assert.Equal(t, '?', second.Term)
	assert.Equal(t, LookNeedRight, second.Look.State)
	assert.False(t, second.Look.HasRight)
}

func TestScan_AbbreviationCandidate(t *testing.T) {
	rules := englishRules(t)
	st := scanWhole(rules, "Dr. Smith arrived.")

	require.Len(t, st.Boundaries, 2)
	// the token run reaches the chunk start, so classification is deferred
	assert.True(t, st.Boundaries[0].TokenAtStart)
	assert.Equal(t, "Dr", st.Boundaries[0].Token)

	st = scanWhole(rules, "See Dr. Smith.")
	require.Len(t, st.Boundaries, 2)
	assert.Equal(t, KindAbbreviation, st.Boundaries[0].Kind)
	assert.Equal(t, "Dr", st.Boundaries[0].Token)
	assert.Equal(t, "Smith", st.Boundaries[0].Look.NextToken)
}

func TestScan_DottedAbbreviationToken(t *testing.T) {
	rules := englishRules(t)
	st := scanWhole(rules, "Visit the U.S. today.")

	require.Len(t, st.Boundaries, 3)
	assert.Equal(t, KindAbbreviation, st.Boundaries[0].Kind) // "U." initial
	assert.Equal(t, "U", st.Boundaries[0].Token)
	assert.Equal(t, KindAbbreviation, st.Boundaries[1].Kind)
	assert.Equal(t, "U.S", st.Boundaries[1].Token)
	assert.Equal(t, KindTerminator, st.Boundaries[2].Kind)
	assert.Equal(t, "today", st.Boundaries[2].Token)
}

func TestScan_Ellipsis(t *testing.T) {
	rules := englishRules(t)
	st := scanWhole(rules, "Wait... what?")

	require.Len(t, st.Boundaries, 2)
	assert.Equal(t, KindEllipsis, st.Boundaries[0].Kind)
	assert.Equal(t, Position{0, 7}, st.Boundaries[0].Pos)
	assert.Equal(t, 'w', st.Boundaries[0].Look.RightRune)
}

func TestScan_TerminatorPattern(t *testing.T) {
	rules := englishRules(t)
	st := scanWhole(rules, "Really?! Yes.")

	require.Len(t, st.Boundaries, 2)
	assert.Equal(t, KindTerminator, st.Boundaries[0].Kind)
	assert.Equal(t, '!', st.Boundaries[0].Term)
	assert.Equal(t, Position{0, 8}, st.Boundaries[0].Pos)
}

func TestScan_EnclosureDepth(t *testing.T) {
	rules := japaneseRules(t)
	st := scanWhole(rules, "「やあ。」と言った。")

	require.Len(t, st.Boundaries, 2)
	// inside 「」 the depth delta for pair 0 is 1
	assert.Equal(t, 1, st.Boundaries[0].Depth[0].Delta)
	assert.Equal(t, 0, st.Boundaries[1].Depth[0].Delta)
	// balanced by the end of the chunk
	assert.Equal(t, 0, st.Pairs[0].Delta)
	assert.Empty(t, st.Pairs[0].Opens)
}

func TestScan_ApostropheSuppression(t *testing.T) {
	rules := englishRules(t)

	// contraction: no parity toggle for the symmetric ' pair
	st := scanWhole(rules, "It doesn't matter.")
	for i, pair := range rules.Enclosures {
		if pair.Open == '\'' {
			assert.Equal(t, 0, st.Pairs[i].Parity)
			assert.False(t, st.Pairs[i].HasToggle)
		}
	}

	// a real opening quote toggles
	st = scanWhole(rules, "He said 'stop there.")
	for i, pair := range rules.Enclosures {
		if pair.Open == '\'' {
			assert.Equal(t, 1, st.Pairs[i].Parity)
			assert.True(t, st.Pairs[i].HasToggle)
		}
	}
}

func TestScan_PendingEnclosureAtChunkEdge(t *testing.T) {
	rules := englishRules(t)

	// apostrophe at chunk start: before-neighbor unknown, decision deferred
	st := Scan(rules, Chunk{Text: "'t go.", Base: 3, Index: 1})
	require.Len(t, st.Pendings, 1)
	assert.True(t, st.Pendings[0].AtStart)
	assert.False(t, st.Pendings[0].HasBefore)
	assert.True(t, st.Pendings[0].HasAfter)
	assert.Equal(t, 't', st.Pendings[0].After)

	// apostrophe at chunk end: after-neighbor unknown
	st = Scan(rules, Chunk{Text: "don", Base: 0, Index: 0})
	assert.Empty(t, st.Pendings)
	st = Scan(rules, Chunk{Text: "don'", Base: 0, Index: 0})
	require.Len(t, st.Pendings, 1)
	assert.False(t, st.Pendings[0].AtStart)
	assert.True(t, st.Pendings[0].HasBefore)
	assert.False(t, st.Pendings[0].HasAfter)
}

func TestScan_HeadTailContexts(t *testing.T) {
	rules := englishRules(t)

	st := scanWhole(rules, "...")
	assert.True(t, st.Head.PunctWhole)
	assert.True(t, st.Tail.PunctWhole)
	require.Len(t, st.Head.PunctRun, 3)

	st = scanWhole(rules, "word")
	assert.True(t, st.Head.WordWhole)
	assert.True(t, st.Tail.WordWhole)
	assert.Equal(t, "word", st.Tail.WordRun)

	st = scanWhole(rules, "U.")
	assert.Equal(t, "U.", st.Tail.WordRun)
	assert.True(t, st.Tail.WordWhole)

	st = scanWhole(rules, "   ")
	assert.True(t, st.Head.AllSpace)
	assert.True(t, st.Tail.AllSpace)

	st = scanWhole(rules, "x U.S.")
	require.Len(t, st.Tail.PunctRun, 1)
	assert.Equal(t, "U.S", st.Tail.PrevToken.Text)
}

func TestScan_UnmatchedClose(t *testing.T) {
	rules := englishRules(t)
	st := scanWhole(rules, ") ok (")

	require.Len(t, st.PrefixCloses, 1)
	assert.Equal(t, Position{0, 0}, st.PrefixCloses[0].Pos)
	var parenPair int
	for i, p := range rules.Enclosures {
		if p.Open == '(' {
			parenPair = i
		}
	}
	assert.Equal(t, 0, st.Pairs[parenPair].Delta)
	assert.Equal(t, -1, st.Pairs[parenPair].Min)
	require.Len(t, st.Pairs[parenPair].Opens, 1)
	assert.Equal(t, Position{0, 5}, st.Pairs[parenPair].Opens[0])
}
