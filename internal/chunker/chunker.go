// Package chunker splits normalized document text into overlapping pieces
// with stable indices. Pure, no I/O.
package chunker

import "strings"

// Default chunking parameters.
const (
	DefaultMaxChunkSize = 800
	DefaultOverlap      = 100
)

// Piece is one chunk of the source text with its sequence position.
type Piece struct {
	Content string
	Index   int
}

// Splitter holds chunking parameters.
type Splitter struct {
	maxChunkSize int
	overlap      int
}

// NewSplitter creates a Splitter. Non-positive maxChunkSize and negative
// overlap fall back to the defaults. Overlap is clamped to maxChunkSize-1
// so the cursor always advances.
func NewSplitter(maxChunkSize, overlap int) Splitter {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize - 1
	}
	return Splitter{maxChunkSize: maxChunkSize, overlap: overlap}
}

// MaxChunkSize returns the chunk size limit.
func (s Splitter) MaxChunkSize() int { return s.maxChunkSize }

// Overlap returns the effective overlap after clamping.
func (s Splitter) Overlap() int { return s.overlap }

// Split chunks text into pieces of at most maxChunkSize characters, cut at
// word boundaries where feasible. Consecutive pieces share up to overlap
// trailing/leading characters; the final piece carries no trailing overlap.
// Empty or all-whitespace text yields no pieces. A Splitter constructed
// without NewSplitter is normalized through it first, so a zero value
// splits with the default chunk size.
func (s Splitter) Split(text string) []Piece {
	if s.maxChunkSize <= 0 {
		s = NewSplitter(s.maxChunkSize, s.overlap)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var pieces []Piece
	n := len(trimmed)
	start := 0
	index := 0

	for start < n {
		end := start + s.maxChunkSize
		if end < n {
			// Prefer cutting at the nearest space at or before the tentative
			// end; keep the hard cut when the window has no space after start.
			window := trimmed[start:min(end+1, n)]
			if sp := strings.LastIndexByte(window, ' '); sp > 0 {
				end = start + sp
			}
		} else {
			end = n
		}

		content := strings.TrimSpace(trimmed[start:end])
		if content != "" {
			pieces = append(pieces, Piece{Content: content, Index: index})
			index++
		}

		if end >= n {
			break
		}

		next := end - s.overlap
		if next <= start {
			// Degenerate window (single space near start): drop the overlap
			// for this step rather than loop forever.
			next = end
		}
		start = next
	}

	return pieces
}

// Split chunks text with the default parameters (800/100).
func Split(text string) []Piece {
	return NewSplitter(DefaultMaxChunkSize, DefaultOverlap).Split(text)
}
