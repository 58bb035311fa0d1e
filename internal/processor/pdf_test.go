package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapses runs", "a  b\t\tc", "a b c"},
		{"newlines become spaces", "line one\nline two\r\nline three", "line one line two line three"},
		{"trims edges", "  padded  ", "padded"},
		{"empty stays empty", "   \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeWhitespace(tt.input))
		})
	}
}

func TestChunkTextSplitsAtWordBoundaries(t *testing.T) {
	p := NewPDFProcessor(200, 40)
	text := strings.TrimSpace(strings.Repeat("lorem ipsum dolor sit amet ", 40))

	chunks := p.chunkText(text)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.False(t, strings.HasPrefix(chunk, " "))
		assert.False(t, strings.HasSuffix(chunk, " "))
		for _, word := range strings.Fields(chunk) {
			assert.Contains(t, []string{"lorem", "ipsum", "dolor", "sit", "amet"}, word,
				"words must never be split mid-token")
		}
	}
}

func TestChunkTextOverlapCarriesWords(t *testing.T) {
	p := NewPDFProcessor(100, 30)
	text := strings.TrimSpace(strings.Repeat("alpha beta gamma delta ", 20))

	chunks := p.chunkText(text)
	require.Greater(t, len(chunks), 1)

	// The start of each later chunk repeats the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		firstWord := strings.Fields(chunks[i])[0]
		assert.Contains(t, chunks[i-1], firstWord)
	}
}

func TestChunkTextMergesTinyTrailingPiece(t *testing.T) {
	p := NewPDFProcessor(200, 0)
	// 200 chars plus a short tail under the minimum chunk size.
	text := strings.TrimSpace(strings.Repeat("word ", 40)) + " tail"

	chunks := p.chunkText(text)

	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[len(chunks)-1], "tail")
	for _, chunk := range chunks {
		assert.GreaterOrEqual(t, len(chunk), MIN_CHUNK_SIZE)
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	p := NewPDFProcessor(200, 40)

	assert.Empty(t, p.chunkText(""))
	assert.Empty(t, p.chunkText("   \n\t "))
}

func TestChunkTextShortInputIsOneChunk(t *testing.T) {
	p := NewPDFProcessor(800, 100)
	text := "A single short paragraph that easily fits in one chunk and is long enough to stand alone as a chunk of its own."

	chunks := p.chunkText(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestNewPDFProcessorClampsBadParameters(t *testing.T) {
	p := NewPDFProcessor(0, 0)
	assert.Equal(t, 800, p.ChunkSize)

	p = NewPDFProcessor(MAX_CHUNK_SIZE+1, 100)
	assert.Equal(t, 800, p.ChunkSize)

	p = NewPDFProcessor(500, 500)
	assert.Equal(t, 100, p.ChunkOverlap, "overlap must stay below the chunk size")

	p = NewPDFProcessor(500, -1)
	assert.Equal(t, 100, p.ChunkOverlap)
}
