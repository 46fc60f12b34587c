package segmenter

import "unicode/utf8"

// Chunk is one contiguous slice of the input. Chunks partition the input
// with no gaps; every chunk boundary lies between UTF-8 code points.
type Chunk struct {
	Text  string
	Base  int // absolute byte offset of Text[0] in the input
	Index int
}

// Split cuts text into chunks of roughly target bytes. When target lands
// inside a multi-byte code point the cut advances to the next code-point
// boundary. Empty input yields a single empty chunk.
func Split(text string, target int) []Chunk {
	if target <= 0 {
		target = DefaultChunkBytes
	}
	if len(text) == 0 {
		return []Chunk{{Text: "", Base: 0, Index: 0}}
	}
	chunks := make([]Chunk, 0, len(text)/target+1)
	for base := 0; base < len(text); {
		end := base + target
		if end >= len(text) {
			end = len(text)
		} else {
			for end < len(text) && !utf8.RuneStart(text[end]) {
				end++
			}
		}
		chunks = append(chunks, Chunk{Text: text[base:end], Base: base, Index: len(chunks)})
		base = end
	}
	return chunks
}

// Bases returns the base-offset table used by Resolve.
func Bases(chunks []Chunk) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = c.Base
	}
	return out
}

// DefaultChunkBytes is the default chunk size (256 KB).
const DefaultChunkBytes = 256 * 1024
