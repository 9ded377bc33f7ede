package chunk_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertTiles checks the structural guarantees every split must hold.
func assertTiles(t *testing.T, text string, chunks []websum.ContentChunk, maxChars int) {
	t.Helper()

	require.NotEmpty(t, chunks)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndChar)

	var rebuilt strings.Builder
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, len(chunks), c.Total)
		assert.LessOrEqual(t, c.Len(), maxChars, "chunk %d", i)
		assert.Equal(t, text[c.StartChar:c.EndChar], c.Content)
		assert.True(t, utf8.ValidString(c.Content), "chunk %d splits a rune", i)
		if i > 0 {
			assert.Equal(t, chunks[i-1].EndChar, c.StartChar, "chunk %d not contiguous", i)
		}
		rebuilt.WriteString(c.Content)
	}
	assert.Equal(t, text, rebuilt.String())
}

func paragraphs(n, size int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = strings.Repeat("a", size)
	}
	return strings.Join(parts, "\n\n")
}

func TestSplit_ShortText(t *testing.T) {
	t.Parallel()

	chunks := chunk.Split("Hello world.", 4000)

	require.Len(t, chunks, 1)
	assert.Equal(t, websum.ContentChunk{Content: "Hello world.", Index: 0, Total: 1, StartChar: 0, EndChar: 12}, chunks[0])
}

func TestSplit_EmptyText(t *testing.T) {
	t.Parallel()

	chunks := chunk.Split("", 4000)

	require.Len(t, chunks, 1)
	assert.Equal(t, websum.ContentChunk{Total: 1}, chunks[0])
}

func TestSplit_NonPositiveMax(t *testing.T) {
	t.Parallel()

	text := paragraphs(10, 100)
	chunks := chunk.Split(text, 0)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Content)
}

func TestSplit_ExactlyMax(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 4000)

	assert.Len(t, chunk.Split(text, 4000), 1)
}

func TestSplit_FiftyThousandChars(t *testing.T) {
	t.Parallel()

	// 100 paragraphs of 500 chars: seven paragraphs plus separators fit
	// in 4000, an eighth does not.
	text := paragraphs(100, 500)
	require.Greater(t, len(text), 50000)

	chunks := chunk.Split(text, 4000)

	assert.Len(t, chunks, 15)
	assertTiles(t, text, chunks, 4000)
	assert.True(t, strings.HasSuffix(chunks[0].Content, "\n\n"))
}

func TestSplit_Deterministic(t *testing.T) {
	t.Parallel()

	text := paragraphs(37, 321)

	assert.Equal(t, chunk.Split(text, 1000), chunk.Split(text, 1000))
}

func TestSplit_LongParagraphFallsBackToSentences(t *testing.T) {
	t.Parallel()

	sentence := strings.Repeat("word ", 19) + "end. "
	text := "Intro paragraph.\n\n" + strings.Repeat(sentence, 20) + "\n\nOutro."

	chunks := chunk.Split(text, 300)

	assertTiles(t, text, chunks, 300)
	for _, c := range chunks[1 : len(chunks)-1] {
		trimmed := strings.TrimSpace(c.Content)
		assert.True(t, strings.HasSuffix(trimmed, "."), "chunk should end on a sentence: %q", trimmed)
	}
}

func TestSplit_OversizeSentenceIsHardSplit(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("z", 2500)

	chunks := chunk.Split(text, 1000)

	require.Len(t, chunks, 3)
	assertTiles(t, text, chunks, 1000)
}

func TestSplit_MultibyteHardSplit(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("żółw", 300)

	chunks := chunk.Split(text, 101)

	assertTiles(t, text, chunks, 101)
}

func TestSplit_BlankLinesWithSpaces(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("b", 60) + "\n  \n" + strings.Repeat("c", 60)

	chunks := chunk.Split(text, 80)

	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("b", 60)+"\n  \n", chunks[0].Content)
	assertTiles(t, text, chunks, 80)
}

func TestSplit_Properties(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"mixed":     strings.Repeat("Short one. Another sentence here!\n\nA longer paragraph follows? Yes.\n\n\n", 200),
		"no breaks": strings.Repeat("abcdefghij", 1234),
		"crlf":      strings.Repeat("line one.\r\n\r\nline two.\r\n", 400),
	}

	for name, text := range inputs {
		for _, max := range []int{50, 333, 4000} {
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				assertTiles(t, text, chunk.Split(text, max), max)
			})
		}
	}
}
