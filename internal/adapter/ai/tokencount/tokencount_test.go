package tokencount

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount(t *testing.T) {
	t.Parallel()

	counter := NewCounter()

	tests := []struct {
		name     string
		text     string
		model    string
		minCount int
		maxCount int
	}{
		{
			name:     "simple text",
			text:     "Hello, world!",
			model:    "text-embedding-3-small",
			minCount: 3,
			maxCount: 5,
		},
		{
			name:     "longer text",
			text:     "The quick brown fox jumps over the lazy dog.",
			model:    "text-embedding-3-small",
			minCount: 8,
			maxCount: 12,
		},
		{
			name:     "empty text",
			text:     "",
			model:    "text-embedding-3-small",
			minCount: 0,
			maxCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := counter.Count(tt.model, tt.text)
			assert.GreaterOrEqual(t, count, tt.minCount)
			assert.LessOrEqual(t, count, tt.maxCount)
		})
	}
}

func TestNormalizeModelName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text-embedding-ada-002", normalizeModelName("text-embedding-3-small"))
	assert.Equal(t, "text-embedding-ada-002", normalizeModelName("Text-Embedding-3-Large"))
	assert.Equal(t, "gpt-4", normalizeModelName("gpt-4"))
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	t.Parallel()

	counter := NewCounter()
	chunks := counter.Chunk("text-embedding-3-small", "a short sentence", 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short sentence", chunks[0])
}

func TestChunk_LongTextSplits(t *testing.T) {
	t.Parallel()

	counter := NewCounter()
	long := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 300)
	chunks := counter.Chunk("text-embedding-3-small", long, 50, 10)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.NotEmpty(t, ch)
	}
}

func TestChunk_ZeroMaxTokens(t *testing.T) {
	t.Parallel()

	counter := NewCounter()
	chunks := counter.Chunk("text-embedding-3-small", "anything", 0, 0)
	require.Len(t, chunks, 1)
}

func TestChunkByChars_Overlap(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteByte(byte('a' + i%26))
	}
	chunks := chunkByChars(sb.String(), 40, 10)
	require.Greater(t, len(chunks), 1)
	// Consecutive chunks share the overlap region.
	assert.Equal(t, chunks[0][len(chunks[0])-10:], chunks[1][:10])
}
