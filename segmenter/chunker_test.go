package segmenter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_PartitionsInput(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		target int
	}{
		{"ascii", "Hello world. How are you?", 4},
		{"multibyte", "こんにちは。元気ですか？", 4},
		{"mixed", "ab「こんにちは」cd", 5},
		{"single chunk", "short", 100},
		{"one byte", strings.Repeat("x", 10), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.text, tt.target)
			var sb strings.Builder
			offset := 0
			for i, ch := range chunks {
				assert.Equal(t, i, ch.Index)
				assert.Equal(t, offset, ch.Base)
				require.True(t, len(ch.Text) == 0 || utf8.RuneStart(ch.Text[0]))
				assert.True(t, utf8.ValidString(ch.Text))
				sb.WriteString(ch.Text)
				offset += len(ch.Text)
			}
			assert.Equal(t, tt.text, sb.String())
		})
	}
}

func TestSplit_TargetInsideCodePoint(t *testing.T) {
	// each rune is 3 bytes; a 4-byte target must advance to the next
	// code-point boundary
	chunks := Split("あいう", 4)
	require.Len(t, chunks, 2)
	assert.Equal(t, "あい", chunks[0].Text)
	assert.Equal(t, "う", chunks[1].Text)
}

func TestSplit_Empty(t *testing.T) {
	chunks := Split("", 16)
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Base)
}

func TestBases(t *testing.T) {
	chunks := Split("abcdef", 2)
	assert.Equal(t, []int{0, 2, 4}, Bases(chunks))
}
