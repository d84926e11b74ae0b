// Package chunking splits extracted text into overlapping windows for
// embedding, adapted from sivagirish81-LitFlow's rune-based sliding window
// chunker (internal/util/chunker.go) and generalized to preserve the
// rune offsets callers need to recover page spans.
package chunking

import "strings"

// Chunk is one sliding-window slice of a larger text, along with the rune
// offsets of its first and last rune in the source text (end-exclusive).
type Chunk struct {
	Text      string
	StartRune int
	EndRune   int
}

// Split divides text into overlapping chunks of at most chunkSize runes,
// advancing by chunkSize-overlap runes between windows. Empty windows
// (after trimming) are dropped, matching the teacher's ChunkText.
func Split(text string, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	runes := []rune(text)
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	out := make([]Chunk, 0)
	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		part := strings.TrimSpace(string(runes[i:end]))
		if part != "" {
			out = append(out, Chunk{Text: part, StartRune: i, EndRune: end})
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// PageBoundary marks where a page's text begins within a concatenated
// document, in rune offsets.
type PageBoundary struct {
	Page      int
	StartRune int
}

// PageSpan reports which page(s) a rune range [start, end) overlaps,
// given boundaries sorted ascending by StartRune.
func PageSpan(boundaries []PageBoundary, start, end int) (startPage, endPage int) {
	if len(boundaries) == 0 {
		return 1, 1
	}
	startPage = boundaries[0].Page
	endPage = boundaries[0].Page
	for _, b := range boundaries {
		if b.StartRune <= start {
			startPage = b.Page
		}
		if b.StartRune < end {
			endPage = b.Page
		}
	}
	return startPage, endPage
}
