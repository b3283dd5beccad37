package chunker

import (
	"fmt"

	"loanrag/internal/domain"
)

// separatorLevels lists break points from most to least preferred. Separators
// within one level compete on position; the latest one wins.
var separatorLevels = [][]string{
	{"\n\n"},
	{"\n"},
	{". ", "! ", "? "},
	{" "},
}

// Span is a half-open rune range [Start, End) of the input text.
type Span struct {
	Start int
	End   int
}

// RecursiveSplitter cuts text into windows of at most maxSize runes. Each
// window after the first starts exactly overlap runes before the previous
// window's end.
type RecursiveSplitter struct {
	maxSize int
	overlap int
	levels  [][][]rune
}

func NewRecursiveSplitter(maxSize, overlap int) (*RecursiveSplitter, error) {
	if maxSize <= 0 || overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: chunk size %d must exceed overlap %d >= 0", domain.ErrInvalidInput, maxSize, overlap)
	}

	levels := make([][][]rune, len(separatorLevels))
	for i, level := range separatorLevels {
		for _, sep := range level {
			levels[i] = append(levels[i], []rune(sep))
		}
	}

	return &RecursiveSplitter{
		maxSize: maxSize,
		overlap: overlap,
		levels:  levels,
	}, nil
}

func (s *RecursiveSplitter) MaxSize() int { return s.maxSize }

func (s *RecursiveSplitter) Overlap() int { return s.overlap }

// Split returns the chunk texts for text. Empty text yields no chunks.
func (s *RecursiveSplitter) Split(text string) []string {
	runes := []rune(text)
	spans := s.spans(runes)

	chunks := make([]string, len(spans))
	for i, sp := range spans {
		chunks[i] = string(runes[sp.Start:sp.End])
	}
	return chunks
}

// Spans returns the rune ranges Split would produce.
func (s *RecursiveSplitter) Spans(text string) []Span {
	return s.spans([]rune(text))
}

func (s *RecursiveSplitter) spans(runes []rune) []Span {
	n := len(runes)
	if n == 0 {
		return nil
	}

	var spans []Span
	start := 0
	for {
		if n-start <= s.maxSize {
			spans = append(spans, Span{Start: start, End: n})
			return spans
		}

		end := s.cut(runes, start)
		spans = append(spans, Span{Start: start, End: end})

		// cut guarantees end-start > overlap, so start always advances.
		start = end - s.overlap
	}
}

// cut picks the end of the window beginning at start. The window is never
// longer than maxSize and always longer than overlap.
func (s *RecursiveSplitter) cut(runes []rune, start int) int {
	limit := start + s.maxSize

	minLen := s.overlap + 1
	if half := (s.maxSize + 1) / 2; half > minLen {
		minLen = half
	}
	minEnd := start + minLen

	for _, level := range s.levels {
		best := -1
		for _, sep := range level {
			if end := lastSeparatorEnd(runes, sep, minEnd, limit); end > best {
				best = end
			}
		}
		if best > 0 {
			return best
		}
	}
	return limit
}

// lastSeparatorEnd returns the largest e in [minEnd, limit] such that sep
// ends at e, or -1.
func lastSeparatorEnd(runes []rune, sep []rune, minEnd, limit int) int {
	for e := limit; e >= minEnd; e-- {
		i := e - len(sep)
		if i < 0 {
			return -1
		}
		if hasPrefix(runes[i:], sep) {
			return e
		}
	}
	return -1
}

func hasPrefix(runes, prefix []rune) bool {
	if len(runes) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if runes[i] != r {
			return false
		}
	}
	return true
}

// Reconstruct joins chunks produced with the given overlap back into the
// original text by dropping each chunk's leading overlap.
func Reconstruct(chunks []string, overlap int) string {
	var out []rune
	for i, c := range chunks {
		r := []rune(c)
		if i > 0 {
			r = r[overlap:]
		}
		out = append(out, r...)
	}
	return string(out)
}
