package sakurs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sog4be/sakurs-go/language"
)

func TestProcess_English(t *testing.T) {
	out, err := Process(context.Background(), []byte("Dr. Smith went home. He slept."), Config{})
	require.NoError(t, err)
	assert.Equal(t, []int{20, 30}, out.Boundaries)
	assert.Equal(t, 1, out.Metadata.Chunks)
	assert.GreaterOrEqual(t, int64(out.Metadata.Elapsed), int64(0))
}

func TestProcess_Japanese(t *testing.T) {
	out, err := Process(context.Background(), []byte("こんにちは。元気ですか？"), Config{Language: "ja"})
	require.NoError(t, err)
	assert.Equal(t, []int{18, 36}, out.Boundaries)
}

func TestProcess_ModesAgree(t *testing.T) {
	text := []byte(strings.Repeat("One two three. Four five six! ", 500))
	var want []int
	for _, mode := range []Mode{Auto, Sequential, Parallel, Streaming} {
		out, err := Process(context.Background(), text, Config{
			Execution:   mode,
			ChunkSizeKB: 1,
			Workers:     4,
		})
		require.NoError(t, err)
		if want == nil {
			want = out.Boundaries
			assert.NotEmpty(t, want)
		} else {
			assert.Equal(t, want, out.Boundaries)
		}
	}
}

func TestProcess_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Process(ctx, []byte{0xff, 0xfe}, Config{})
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	_, err = Process(ctx, []byte("hi."), Config{Language: "tlh"})
	var unknown UnknownLanguageError
	assert.ErrorAs(t, err, &unknown)

	_, err = Process(ctx, []byte("hi."), Config{Cancel: func() bool { return true }})
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestProcess_CustomRules(t *testing.T) {
	rules, err := language.LoadBytes("custom", []byte(`
metadata: {code: xx, name: Custom}
terminators: {chars: ["!"]}
`))
	require.NoError(t, err)

	out, err := Process(context.Background(), []byte("go! stop! now"), Config{Rules: rules})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 9}, out.Boundaries)
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hello world. How are you?"), 0o644))

	out, err := ProcessFile(context.Background(), path, Config{})
	require.NoError(t, err)
	assert.Equal(t, []int{12, 25}, out.Boundaries)

	_, err = ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), Config{})
	assert.Error(t, err)
}

func TestProcessReader(t *testing.T) {
	out, err := ProcessReader(context.Background(), strings.NewReader("One. Two. Three."), Config{ChunkSizeKB: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 9, 16}, out.Boundaries)
}

func TestSentences(t *testing.T) {
	text := "Hello world. How are you?"
	out, err := Process(context.Background(), []byte(text), Config{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello world.", "How are you?"}, Sentences(text, out.Boundaries))

	// trailing text without a terminator becomes a final sentence
	assert.Equal(t, []string{"a.", "rest"}, Sentences("a. rest", []int{2}))
	assert.Empty(t, Sentences("", nil))
}

func TestProcess_SlicingReconstructsInput(t *testing.T) {
	text := "Dr. Smith went home. He slept. The U.S. is far away... right?"
	out, err := Process(context.Background(), []byte(text), Config{})
	require.NoError(t, err)

	var rebuilt strings.Builder
	prev := 0
	for _, b := range out.Boundaries {
		rebuilt.WriteString(text[prev:b])
		prev = b
	}
	rebuilt.WriteString(text[prev:])
	assert.Equal(t, text, rebuilt.String())
}
