package language

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed rules/*.yaml
var embeddedRules embed.FS

// UnknownLanguageError is returned when no embedded rule set matches the
// requested language code.
type UnknownLanguageError struct {
	Code string
}

func (e UnknownLanguageError) Error() string {
	return fmt.Sprintf("unknown language %q (available: %s)", e.Code, strings.Join(Available(), ", "))
}

// Load returns the embedded rule set for a language code ("en", "english",
// "ja", "japanese"). The rules are parsed on every call; callers cache the
// result for the lifetime of a run.
func Load(code string) (*Rules, error) {
	name, ok := aliases[strings.ToLower(code)]
	if !ok {
		return nil, UnknownLanguageError{Code: code}
	}
	data, err := embeddedRules.ReadFile("rules/" + name + ".yaml")
	if err != nil {
		return nil, err
	}
	return LoadBytes(name, data)
}

var aliases = map[string]string{
	"en":       "english",
	"eng":      "english",
	"english":  "english",
	"ja":       "japanese",
	"jp":       "japanese",
	"japanese": "japanese",
}

// Available lists the embedded language names.
func Available() []string {
	seen := map[string]struct{}{}
	for _, v := range aliases {
		seen[v] = struct{}{}
	}
	var out []string
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
