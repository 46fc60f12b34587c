package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadEnglish(t *testing.T) *Rules {
	t.Helper()
	rules, err := Load("en")
	require.NoError(t, err)
	return rules
}

func TestRules_IsAbbreviation(t *testing.T) {
	rules := loadEnglish(t)

	assert.True(t, rules.IsAbbreviation("Dr"))
	assert.True(t, rules.IsAbbreviation("etc"))
	assert.True(t, rules.IsAbbreviation("U.S"))
	// single upper-case letters count as initials
	assert.True(t, rules.IsAbbreviation("J"))
	assert.True(t, rules.IsAbbreviation("U"))
	// matching is case-sensitive
	assert.False(t, rules.IsAbbreviation("dr"))
	assert.False(t, rules.IsAbbreviation("j"))
	assert.False(t, rules.IsAbbreviation(""))
	assert.False(t, rules.IsAbbreviation("home"))
}

func TestRules_IsStarter(t *testing.T) {
	rules := loadEnglish(t)

	assert.True(t, rules.IsStarter("He", true, true))
	assert.True(t, rules.IsStarter("The", true, true))
	// follow position unknown counts as end of input
	assert.True(t, rules.IsStarter("He", false, false))
	// require_following_space rejects a non-space follow
	assert.False(t, rules.IsStarter("He", true, false))
	assert.False(t, rules.IsStarter("Smith", true, true))
	assert.False(t, rules.IsStarter("", true, true))
}

func TestRules_Suppressed(t *testing.T) {
	rules := loadEnglish(t)

	// contraction: don't
	assert.True(t, rules.Suppressed('\'', 'n', true, 't', true, false))
	// possessive plural: boys'
	assert.True(t, rules.Suppressed('\'', 's', true, ' ', true, false))
	// opening quote after whitespace is counted
	assert.False(t, rules.Suppressed('\'', ' ', true, 'T', true, false))
	// unknown neighbor cannot satisfy a class requirement
	assert.False(t, rules.Suppressed('\'', 0, false, 't', true, true))
}

func TestRules_MatchEllipsis(t *testing.T) {
	rules := loadEnglish(t)

	assert.Equal(t, 3, rules.MatchEllipsis("... and"))
	assert.Equal(t, len("…"), rules.MatchEllipsis("… and"))
	assert.Equal(t, 0, rules.MatchEllipsis(".. and"))
	assert.Equal(t, 0, rules.MatchEllipsis("and"))
}

func TestRules_MatchTerminatorPattern(t *testing.T) {
	rules := loadEnglish(t)

	assert.Equal(t, 2, rules.MatchTerminatorPattern("?! ok"))
	assert.Equal(t, 2, rules.MatchTerminatorPattern("!? ok"))
	assert.Equal(t, 0, rules.MatchTerminatorPattern("? ok"))
}

func TestRules_SeamRunes(t *testing.T) {
	rules := loadEnglish(t)

	for _, r := range []rune{'.', '!', '?', '…'} {
		assert.True(t, rules.IsSeamRune(r), "rune %q", r)
	}
	assert.False(t, rules.IsSeamRune('a'))
	assert.False(t, rules.IsSeamRune('"'))
}

func TestRules_MaxAbbrevLen(t *testing.T) {
	rules := loadEnglish(t)
	// "U.S.A" and "D.D.S" are the longest shipped abbreviations
	assert.Equal(t, 5, rules.MaxAbbrevLen())
}
