package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeSentence builds a sentence of exactly n characters ending with a period.
func makeSentence(i, n int) string {
	prefix := fmt.Sprintf("sentence%03d ", i)
	filler := strings.Repeat("word ", (n-len(prefix))/5+1)
	s := prefix + filler
	s = s[:n-1]
	return strings.TrimSpace(s) + "."
}

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("", 1000, 100))
	assert.Nil(t, ChunkText("   \n\t ", 1000, 100))
}

func TestChunkText_SingleSentence(t *testing.T) {
	chunks := ChunkText("Keep fire doors closed at all times.", 1000, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Keep fire doors closed at all times.", chunks[0])
}

func TestChunkText_NeverEmitsEmptyChunk(t *testing.T) {
	text := "One. Two! Three? Four. " + strings.Repeat("Alarm panels require weekly testing. ", 60)
	for _, chunks := range [][]string{
		ChunkText(text, 50, 10),
		ChunkText(text, 200, 50),
		ChunkText(text, 1000, 100),
	} {
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.NotEmpty(t, strings.TrimSpace(c))
		}
	}
}

func TestChunkText_Deterministic(t *testing.T) {
	text := strings.Repeat("Sprinkler heads must stay unobstructed. ", 80)
	a := ChunkText(text, 500, 80)
	b := ChunkText(text, 500, 80)
	assert.Equal(t, a, b)
}

func TestChunkText_RespectsSentenceBoundaries(t *testing.T) {
	text := "First rule here. Second rule follows. Third rule closes."
	chunks := ChunkText(text, 40, 0)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.True(t, strings.HasSuffix(c, "."), "chunk %q should end on a sentence boundary", c)
	}
}

func TestChunkText_OverlapSeedsNextChunk(t *testing.T) {
	var sentences []string
	for i := 0; i < 25; i++ {
		sentences = append(sentences, makeSentence(i, 99))
	}
	text := strings.Join(sentences, " ")

	chunks := ChunkText(text, 1000, 100)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		seed := overlapTail(chunks[i-1], 100)
		require.NotEmpty(t, seed)
		assert.True(t, strings.HasPrefix(chunks[i], seed),
			"chunk %d should start with the previous chunk's overlap tail", i)
	}
}

func TestChunkText_OverlapStrippedReconstructsOriginal(t *testing.T) {
	var sentences []string
	for i := 0; i < 25; i++ {
		sentences = append(sentences, makeSentence(i, 99))
	}
	text := strings.Join(sentences, " ")

	chunks := ChunkText(text, 1000, 100)
	require.Greater(t, len(chunks), 1)

	parts := []string{chunks[0]}
	for i := 1; i < len(chunks); i++ {
		seed := overlapTail(chunks[i-1], 100)
		stripped := strings.TrimPrefix(chunks[i], seed)
		parts = append(parts, strings.TrimSpace(stripped))
	}

	assert.Equal(t, text, strings.Join(parts, " "))
}

func TestChunkText_2500CharsYieldsThreeChunks(t *testing.T) {
	var sentences []string
	for i := 0; i < 25; i++ {
		sentences = append(sentences, makeSentence(i, 99))
	}
	text := strings.Join(sentences, " ")
	require.Len(t, text, 2499)

	chunks := ChunkText(text, 1000, 100)
	assert.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 1000)
	}
}

func TestChunkText_OversizedSentenceBecomesOwnChunk(t *testing.T) {
	long := strings.Repeat("x", 500)
	text := "Short lead-in. " + long + ". Short tail."

	chunks := ChunkText(text, 100, 20)
	found := false
	for _, c := range chunks {
		if strings.Contains(c, long) {
			found = true
		}
	}
	assert.True(t, found, "oversized sentence must still be emitted")
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("Check exits. Is the route clear? Evacuate now! Final fragment")
	require.Len(t, sentences, 4)
	assert.Equal(t, "Check exits.", sentences[0])
	assert.Equal(t, "Is the route clear?", sentences[1])
	assert.Equal(t, "Evacuate now!", sentences[2])
	assert.Equal(t, "Final fragment", sentences[3])
}

func TestSplitSentences_AbbreviationMidWord(t *testing.T) {
	// A period not followed by whitespace does not split.
	sentences := splitSentences("See section 4.2 for details. Done.")
	require.Len(t, sentences, 2)
	assert.Equal(t, "See section 4.2 for details.", sentences[0])
}

func TestOverlapTail(t *testing.T) {
	assert.Equal(t, "", overlapTail("alpha beta gamma", 0))
	assert.Equal(t, "gamma", overlapTail("alpha beta gamma", 5))
	assert.Equal(t, "beta gamma", overlapTail("alpha beta gamma", 10))
	assert.Equal(t, "alpha beta gamma", overlapTail("alpha beta gamma", 100))
	assert.Equal(t, "", overlapTail("enormousunbrokenword", 5))
}

func TestEstimateTokenCount(t *testing.T) {
	assert.Equal(t, 0, EstimateTokenCount(""))
	assert.Equal(t, 1, EstimateTokenCount("hi"))
	assert.Equal(t, 25, EstimateTokenCount(strings.Repeat("a", 100)))
}
