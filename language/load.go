package language

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// InvalidRulesError reports a rules file that violates the schema. Each
// problem is one entry in Problems; Error renders all of them.
type InvalidRulesError struct {
	Source   string
	Problems []string
}

func (e InvalidRulesError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "invalid language rules (%s):\n", e.Source)
	for _, p := range e.Problems {
		msg.WriteString("  " + p + "\n")
	}
	return msg.String()
}

// ruleFile is the YAML schema of a rules file. Grouped abbreviation and
// starter sections are organizational only; groups are unioned on load.
type ruleFile struct {
	Metadata struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"metadata"`
	Terminators struct {
		Chars    []string `yaml:"chars"`
		Patterns []struct {
			Pattern string `yaml:"pattern"`
			Name    string `yaml:"name"`
		} `yaml:"patterns"`
	} `yaml:"terminators"`
	Ellipsis struct {
		TreatAsBoundary bool     `yaml:"treat_as_boundary"`
		Patterns        []string `yaml:"patterns"`
		ContextRules    []struct {
			Condition string `yaml:"condition"`
			Boundary  bool   `yaml:"boundary"`
		} `yaml:"context_rules"`
		Exceptions []struct {
			Regex    string `yaml:"regex"`
			Boundary bool   `yaml:"boundary"`
		} `yaml:"exceptions"`
	} `yaml:"ellipsis"`
	Enclosures struct {
		Pairs []struct {
			Open      string `yaml:"open"`
			Close     string `yaml:"close"`
			Symmetric bool   `yaml:"symmetric"`
		} `yaml:"pairs"`
	} `yaml:"enclosures"`
	Suppression struct {
		FastPatterns []struct {
			Char      string `yaml:"char"`
			Before    string `yaml:"before"`
			After     string `yaml:"after"`
			LineStart bool   `yaml:"line_start"`
		} `yaml:"fast_patterns"`
		RegexPatterns []string `yaml:"regex_patterns"`
	} `yaml:"suppression"`
	Abbreviations    map[string][]string `yaml:"abbreviations"`
	SentenceStarters struct {
		RequireFollowingSpace bool                `yaml:"require_following_space"`
		MinWordLength         int                 `yaml:"min_word_length"`
		Groups                map[string][]string `yaml:",inline"`
	} `yaml:"sentence_starters"`
}

// LoadBytes parses and validates a YAML rules document. source is used in
// error messages only.
func LoadBytes(source string, data []byte) (*Rules, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, InvalidRulesError{Source: source, Problems: []string{err.Error()}}
	}

	var problems []string
	rules := &Rules{
		Code:          rf.Metadata.Code,
		Name:          rf.Metadata.Name,
		Abbreviations: make(map[string]struct{}),
	}

	rules.Terminators.Chars = make(map[rune]struct{}, len(rf.Terminators.Chars))
	for _, c := range rf.Terminators.Chars {
		r, ok := singleRune(c)
		if !ok {
			problems = append(problems, fmt.Sprintf("terminators.chars: %q is not a single code point", c))
			continue
		}
		rules.Terminators.Chars[r] = struct{}{}
	}
	for _, p := range rf.Terminators.Patterns {
		if utf8.RuneCountInString(p.Pattern) < 2 {
			problems = append(problems, fmt.Sprintf("terminators.patterns: %q must have at least two code points", p.Pattern))
			continue
		}
		rules.Terminators.Patterns = append(rules.Terminators.Patterns, TerminatorPattern{Pattern: p.Pattern, Name: p.Name})
	}
	if len(rules.Terminators.Chars) == 0 && len(rules.Terminators.Patterns) == 0 {
		problems = append(problems, "terminators: empty terminator set")
	}

	rules.Ellipsis.TreatAsBoundary = rf.Ellipsis.TreatAsBoundary
	rules.Ellipsis.Patterns = rf.Ellipsis.Patterns
	for _, cr := range rf.Ellipsis.ContextRules {
		var cond Condition
		switch cr.Condition {
		case "followed_by_capital":
			cond = FollowedByCapital
		case "followed_by_lowercase":
			cond = FollowedByLowercase
		default:
			problems = append(problems, fmt.Sprintf("ellipsis.context_rules: unknown condition %q", cr.Condition))
			continue
		}
		rules.Ellipsis.ContextRules = append(rules.Ellipsis.ContextRules, ContextRule{Condition: cond, Boundary: cr.Boundary})
	}
	for _, ex := range rf.Ellipsis.Exceptions {
		re, err := regexp.Compile(ex.Regex)
		if err != nil {
			problems = append(problems, fmt.Sprintf("ellipsis.exceptions: %v", err))
			continue
		}
		rules.Ellipsis.Exceptions = append(rules.Ellipsis.Exceptions, EllipsisException{Regex: re, Boundary: ex.Boundary})
	}

	for i, p := range rf.Enclosures.Pairs {
		open, okOpen := singleRune(p.Open)
		closeR, okClose := singleRune(p.Close)
		if !okOpen || !okClose {
			problems = append(problems, fmt.Sprintf("enclosures.pairs[%d]: open/close must be single code points", i))
			continue
		}
		if p.Symmetric && open != closeR {
			problems = append(problems, fmt.Sprintf("enclosures.pairs[%d]: symmetric pair must use the same code point", i))
			continue
		}
		if !p.Symmetric && open == closeR {
			problems = append(problems, fmt.Sprintf("enclosures.pairs[%d]: open equals close but pair is not marked symmetric", i))
			continue
		}
		rules.Enclosures = append(rules.Enclosures, EnclosurePair{Open: open, Close: closeR, Symmetric: p.Symmetric})
	}

	for i, fp := range rf.Suppression.FastPatterns {
		r, ok := singleRune(fp.Char)
		if !ok {
			problems = append(problems, fmt.Sprintf("suppression.fast_patterns[%d]: char must be a single code point", i))
			continue
		}
		for _, cls := range []string{fp.Before, fp.After} {
			if cls == "" {
				continue
			}
			if _, known := validClassNames[cls]; !known {
				problems = append(problems, fmt.Sprintf("suppression.fast_patterns[%d]: unknown character class %q", i, cls))
			}
		}
		rules.Suppression.Fast = append(rules.Suppression.Fast, FastPattern{
			Char: r, Before: fp.Before, After: fp.After, LineStart: fp.LineStart,
		})
	}
	for _, pat := range rf.Suppression.RegexPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			problems = append(problems, fmt.Sprintf("suppression.regex_patterns: %v", err))
			continue
		}
		rules.Suppression.Regex = append(rules.Suppression.Regex, re)
	}

	for _, group := range rf.Abbreviations {
		for _, a := range group {
			rules.Abbreviations[a] = struct{}{}
		}
	}

	rules.Starters.RequireFollowingSpace = rf.SentenceStarters.RequireFollowingSpace
	rules.Starters.MinWordLength = rf.SentenceStarters.MinWordLength
	rules.Starters.Words = make(map[string]struct{})
	for _, group := range rf.SentenceStarters.Groups {
		for _, w := range group {
			rules.Starters.Words[w] = struct{}{}
		}
	}

	// Enclosure characters must not double as terminator or ellipsis runes:
	// the scanner gives enclosure handling precedence per code point.
	punct := make(map[rune]struct{})
	for r := range rules.Terminators.Chars {
		punct[r] = struct{}{}
	}
	for _, p := range rules.Terminators.Patterns {
		for _, r := range p.Pattern {
			punct[r] = struct{}{}
		}
	}
	for _, p := range rules.Ellipsis.Patterns {
		for _, r := range p {
			punct[r] = struct{}{}
		}
	}
	for i, pair := range rules.Enclosures {
		if _, clash := punct[pair.Open]; clash {
			problems = append(problems, fmt.Sprintf("enclosures.pairs[%d]: %q is also a terminator or ellipsis character", i, pair.Open))
		} else if _, clash := punct[pair.Close]; clash {
			problems = append(problems, fmt.Sprintf("enclosures.pairs[%d]: %q is also a terminator or ellipsis character", i, pair.Close))
		}
	}

	if len(problems) > 0 {
		return nil, InvalidRulesError{Source: source, Problems: problems}
	}

	rules.finish()
	return rules, nil
}

// LoadFile loads a rules file from disk.
func LoadFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadBytes(path, data)
}

func singleRune(s string) (rune, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError && size == 1 {
		return 0, false
	}
	return r, true
}
