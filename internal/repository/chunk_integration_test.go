//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmbedding(t *testing.T, seed float32) domain.Embedding {
	vec := make([]float32, domain.EmbeddingDim)
	vec[0] = seed
	vec[1] = 1 - seed
	embedding, err := domain.EmbeddingFromSlice(vec)
	require.NoError(t, err)
	return embedding
}

func makeChunks(t *testing.T, documentID, revisionID string, n int) []domain.DocumentChunk {
	chunks := make([]domain.DocumentChunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, domain.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			RevisionID: revisionID,
			ChunkIndex: i,
			Content:    fmt.Sprintf("chunk %d content", i),
			TokenCount: 3,
			Embedding:  testEmbedding(t, float32(i%2)),
		})
	}
	return chunks
}

func TestChunkRepository_ReplaceChunks(t *testing.T) {
	ctx := context.Background()
	pc, pool := newIntegrationPool(ctx, t)
	defer pc.Terminate(ctx)
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := seedDocument(ctx, t, docRepo, "Dry riser testing")
	rev1 := seedRevision(ctx, t, docRepo, doc.ID, 1, "v1")

	require.NoError(t, chunkRepo.ReplaceChunks(ctx, doc.ID, makeChunks(t, doc.ID, rev1.ID, 3)))

	count, err := chunkRepo.CountByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Re-ingesting replaces the full chunk set, not just matching indexes.
	rev2 := seedRevision(ctx, t, docRepo, doc.ID, 2, "v2")
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, doc.ID, makeChunks(t, doc.ID, rev2.ID, 2)))

	count, err = chunkRepo.CountByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	total, err := chunkRepo.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestChunkRepository_ReplaceChunks_Empty(t *testing.T) {
	ctx := context.Background()
	pc, pool := newIntegrationPool(ctx, t)
	defer pc.Terminate(ctx)
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := seedDocument(ctx, t, docRepo, "Placeholder")
	rev := seedRevision(ctx, t, docRepo, doc.ID, 1, "content")

	require.NoError(t, chunkRepo.ReplaceChunks(ctx, doc.ID, makeChunks(t, doc.ID, rev.ID, 1)))
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, doc.ID, nil))

	count, err := chunkRepo.CountByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChunkRepository_ListSearchable(t *testing.T) {
	ctx := context.Background()
	pc, pool := newIntegrationPool(ctx, t)
	defer pc.Terminate(ctx)
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	ready := seedDocument(ctx, t, docRepo, "Ready document")
	readyRev := seedRevision(ctx, t, docRepo, ready.ID, 1, "ready")
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, ready.ID, makeChunks(t, ready.ID, readyRev.ID, 2)))
	require.NoError(t, docRepo.UpdateStatus(ctx, ready.ID, domain.DocumentStatusReady))

	pending := seedDocument(ctx, t, docRepo, "Pending document")
	pendingRev := seedRevision(ctx, t, docRepo, pending.ID, 1, "pending")
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, pending.ID, makeChunks(t, pending.ID, pendingRev.ID, 2)))

	archived := seedDocument(ctx, t, docRepo, "Archived document")
	archivedRev := seedRevision(ctx, t, docRepo, archived.ID, 1, "archived")
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, archived.ID, makeChunks(t, archived.ID, archivedRev.ID, 2)))
	require.NoError(t, docRepo.UpdateStatus(ctx, archived.ID, domain.DocumentStatusReady))
	archived.IsActive = false
	require.NoError(t, docRepo.Update(ctx, archived))

	chunks, err := chunkRepo.ListSearchable(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for _, chunk := range chunks {
		assert.Equal(t, ready.ID, chunk.DocumentID)
		assert.False(t, chunk.Embedding.IsZero())
		assert.NotEmpty(t, chunk.Content)
	}
}
