package domain

import (
	"fmt"
	"math"
)

// EmbeddingDim is the dimensionality of every embedding in the system.
// Encoding the dimension in the type makes a mismatched vector unrepresentable
// past the adapter boundary.
const EmbeddingDim = 1536

// Embedding is a fixed-length vector representation of text.
type Embedding [EmbeddingDim]float32

// EmbeddingFromSlice converts a raw vector into an Embedding, rejecting any
// vector whose length does not match EmbeddingDim.
func EmbeddingFromSlice(v []float32) (Embedding, error) {
	var e Embedding
	if len(v) != EmbeddingDim {
		return e, fmt.Errorf("embedding has %d dimensions, expected %d", len(v), EmbeddingDim)
	}
	copy(e[:], v)
	return e, nil
}

// Slice returns the embedding as a raw vector for storage and wire use.
func (e Embedding) Slice() []float32 {
	out := make([]float32, EmbeddingDim)
	copy(out, e[:])
	return out
}

// IsZero reports whether the embedding is the zero vector.
func (e Embedding) IsZero() bool {
	for _, v := range e {
		if v != 0 {
			return false
		}
	}
	return true
}

// CosineSimilarity computes the cosine similarity between two embeddings.
// The result is in [-1, 1]; zero vectors yield 0.
func CosineSimilarity(a, b Embedding) float64 {
	var dot, normA, normB float64
	for i := 0; i < EmbeddingDim; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim
}
