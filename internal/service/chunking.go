package service

import (
	"strings"
	"unicode"
)

const (
	// DefaultMaxChunkSize is the character budget per chunk.
	DefaultMaxChunkSize = 1000
	// DefaultOverlapChars is the approximate cross-chunk overlap, carried as
	// trailing words of the previous chunk.
	DefaultOverlapChars = 100
)

// ChunkText splits text into ordered, non-empty chunks on sentence
// boundaries. Sentences accumulate into a buffer until adding the next one
// would exceed maxChunkSize; the buffer is then emitted and a new buffer is
// seeded with the trailing overlapChars-worth of words before the triggering
// sentence is appended. The final partial buffer is always emitted.
// Deterministic for identical input. A single sentence longer than
// maxChunkSize becomes its own oversized chunk.
func ChunkText(text string, maxChunkSize, overlapChars int) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if overlapChars < 0 {
		overlapChars = 0
	}

	sentences := splitSentences(clean)
	chunks := make([]string, 0, len(clean)/maxChunkSize+1)

	current := ""
	for _, sentence := range sentences {
		if current == "" {
			current = sentence
			continue
		}

		if len(current)+1+len(sentence) > maxChunkSize {
			chunks = append(chunks, current)
			seed := overlapTail(current, overlapChars)
			if seed == "" {
				current = sentence
			} else {
				current = seed + " " + sentence
			}
			continue
		}

		current = current + " " + sentence
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// splitSentences splits on terminal punctuation followed by whitespace or end
// of input. Trailing text without terminal punctuation counts as a sentence.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if isSentenceEnd(r) && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// overlapTail returns the trailing words of s whose combined length stays
// within budget, approximating a character overlap on word boundaries.
func overlapTail(s string, budget int) string {
	if budget <= 0 {
		return ""
	}

	words := strings.Fields(s)
	total := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		next := total + len(words[i])
		if total > 0 {
			next++ // joining space
		}
		if next > budget {
			break
		}
		total = next
		start = i
	}

	if start == len(words) {
		return ""
	}
	return strings.Join(words[start:], " ")
}

// EstimateTokenCount approximates the token footprint of a chunk at four
// characters per token.
func EstimateTokenCount(text string) int {
	n := (len(text) + 3) / 4
	if n < 1 && len(text) > 0 {
		n = 1
	}
	return n
}
