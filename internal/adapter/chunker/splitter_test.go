package chunker

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanrag/internal/domain"
)

func mustSplitter(t *testing.T, maxSize, overlap int) *RecursiveSplitter {
	t.Helper()
	s, err := NewRecursiveSplitter(maxSize, overlap)
	require.NoError(t, err)
	return s
}

func TestNewRecursiveSplitter_Invalid(t *testing.T) {
	tests := []struct {
		name             string
		maxSize, overlap int
	}{
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
		{"negative overlap", 10, -1},
		{"zero size", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecursiveSplitter(tt.maxSize, tt.overlap)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSplit_Empty(t *testing.T) {
	s := mustSplitter(t, 500, 50)
	assert.Empty(t, s.Split(""))
}

func TestSplit_ShorterThanWindow(t *testing.T) {
	s := mustSplitter(t, 500, 50)
	text := "Home loans up to 90% of property value."
	chunks := s.Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_ShorterThanOverlap(t *testing.T) {
	s := mustSplitter(t, 500, 50)
	chunks := s.Split("tiny")
	assert.Equal(t, []string{"tiny"}, chunks)
}

func TestSplit_RawCharacterFallback(t *testing.T) {
	s := mustSplitter(t, 500, 50)
	chunks := s.Split(strings.Repeat("x", 1200))

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[1], 500)
	assert.Len(t, chunks[2], 300)
}

func TestSplit_PrefersParagraph(t *testing.T) {
	s := mustSplitter(t, 500, 50)
	text := strings.Repeat("a", 300) + "\n\n" + strings.Repeat("b c ", 75)

	chunks := s.Split(text)
	require.Len(t, chunks, 2)
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"), "first chunk should end at the paragraph break")
	assert.Len(t, chunks[0], 302)
}

func TestSplit_PrefersSentenceOverWord(t *testing.T) {
	s := mustSplitter(t, 500, 50)
	text := strings.Repeat("w", 280) + ". " + strings.Repeat("x y ", 100)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasSuffix(chunks[0], ". "))
	assert.Len(t, chunks[0], 282)
}

func TestSplit_PrefersWordOverRaw(t *testing.T) {
	s := mustSplitter(t, 500, 50)
	text := strings.Repeat("abcdefg ", 150)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], " "))
	assert.LessOrEqual(t, len(chunks[0]), 500)
}

func TestSplit_IgnoresEarlySeparators(t *testing.T) {
	s := mustSplitter(t, 100, 10)
	// A paragraph break in the first few runes would produce a fragment chunk.
	text := "ab\n\n" + strings.Repeat("z", 200)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	assert.Len(t, chunks[0], 100)
}

func TestSplit_CountsRunes(t *testing.T) {
	s := mustSplitter(t, 20, 5)
	text := strings.Repeat("日本é ", 30)

	chunks := s.Split(text)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 20)
		assert.True(t, utf8.ValidString(c))
	}
	assert.Equal(t, text, Reconstruct(chunks, 5))
}

func TestSplit_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []rune("abcdefghij  .!?\n\n é日")

	configs := []struct{ maxSize, overlap int }{
		{10, 0}, {10, 9}, {7, 3}, {50, 5}, {500, 50}, {120, 60},
	}

	for i := 0; i < 200; i++ {
		n := rng.Intn(2000)
		buf := make([]rune, n)
		for j := range buf {
			buf[j] = alphabet[rng.Intn(len(alphabet))]
		}
		text := string(buf)

		for _, cfg := range configs {
			s := mustSplitter(t, cfg.maxSize, cfg.overlap)
			chunks := s.Split(text)

			for _, c := range chunks {
				require.LessOrEqual(t, utf8.RuneCountInString(c), cfg.maxSize)
			}
			require.Equal(t, text, Reconstruct(chunks, cfg.overlap), "reconstruction failed for size=%d overlap=%d", cfg.maxSize, cfg.overlap)
			require.Equal(t, chunks, s.Split(text), "split is not deterministic")

			for k := 1; k < len(chunks); k++ {
				prev := []rune(chunks[k-1])
				next := []rune(chunks[k])
				require.Equal(t, string(prev[len(prev)-cfg.overlap:]), string(next[:cfg.overlap]))
			}
		}
	}
}

func TestSpans_MatchSplit(t *testing.T) {
	s := mustSplitter(t, 30, 4)
	text := strings.Repeat("Rates are fixed. Tenure is long.\n", 8)

	spans := s.Spans(text)
	chunks := s.Split(text)
	require.Len(t, spans, len(chunks))

	runes := []rune(text)
	for i, sp := range spans {
		assert.Equal(t, chunks[i], string(runes[sp.Start:sp.End]))
		if i > 0 {
			assert.Equal(t, spans[i-1].End-4, sp.Start)
		}
	}
	assert.Equal(t, len(runes), spans[len(spans)-1].End)
}
