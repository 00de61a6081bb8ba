package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingFromSlice(t *testing.T) {
	v := make([]float32, EmbeddingDim)
	v[0] = 1.5
	v[EmbeddingDim-1] = -2.0

	e, err := EmbeddingFromSlice(v)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), e[0])
	assert.Equal(t, float32(-2.0), e[EmbeddingDim-1])
}

func TestEmbeddingFromSlice_WrongDimensions(t *testing.T) {
	_, err := EmbeddingFromSlice(make([]float32, 3))
	assert.Error(t, err)

	_, err = EmbeddingFromSlice(make([]float32, EmbeddingDim+1))
	assert.Error(t, err)

	_, err = EmbeddingFromSlice(nil)
	assert.Error(t, err)
}

func TestEmbeddingSlice_Copies(t *testing.T) {
	var e Embedding
	e[0] = 1

	s := e.Slice()
	s[0] = 42
	assert.Equal(t, float32(1), e[0])
}

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	var v Embedding
	v[0] = 0.3
	v[1] = -0.7
	v[100] = 2.5

	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	var a, b Embedding
	a[0] = 1
	b[1] = 1

	assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	var a, b Embedding
	a[0] = 1
	b[0] = -1

	assert.InDelta(t, -1.0, CosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	var zero, v Embedding
	v[0] = 1

	assert.Equal(t, 0.0, CosineSimilarity(zero, v))
	assert.Equal(t, 0.0, CosineSimilarity(zero, zero))
}

func TestCosineSimilarity_InRange(t *testing.T) {
	var a, b Embedding
	for i := 0; i < EmbeddingDim; i++ {
		a[i] = float32(i%7) - 3
		b[i] = float32(i%5) - 2
	}

	sim := CosineSimilarity(a, b)
	assert.GreaterOrEqual(t, sim, -1.0)
	assert.LessOrEqual(t, sim, 1.0)
}
