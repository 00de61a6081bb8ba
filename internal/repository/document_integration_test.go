//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocument(ctx context.Context, t *testing.T, repo *DocumentRepository, title string) *domain.KnowledgeDocument {
	doc := domain.NewKnowledgeDocument(uuid.NewString(), title, "", "general", domain.DocumentSourceManual,
		time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Create(ctx, doc))
	return doc
}

func seedRevision(ctx context.Context, t *testing.T, repo *DocumentRepository, documentID string, version int64, content string) *domain.DocumentRevision {
	rev := &domain.DocumentRevision{
		ID:          uuid.NewString(),
		DocumentID:  documentID,
		Version:     version,
		Content:     content,
		ContentHash: "hash-" + uuid.NewString(),
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.CreateRevision(ctx, rev))
	return rev
}

func newIntegrationPool(ctx context.Context, t *testing.T) (*testutil.PostgresContainer, *pgxpool.Pool) {
	pc := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	return pc, pool
}

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc, pool := newIntegrationPool(ctx, t)
	defer pc.Terminate(ctx)
	defer pool.Close()

	repo := NewDocumentRepository(pool)
	doc := seedDocument(ctx, t, repo, "Fire pump maintenance")

	retrieved, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.ID)
	assert.Equal(t, "Fire pump maintenance", retrieved.Title)
	assert.Equal(t, domain.DocumentStatusPending, retrieved.Status)
	assert.Equal(t, int64(1), retrieved.Version)
	assert.True(t, retrieved.IsActive)
}

func TestDocumentRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc, pool := newIntegrationPool(ctx, t)
	defer pc.Terminate(ctx)
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_Revisions(t *testing.T) {
	ctx := context.Background()
	pc, pool := newIntegrationPool(ctx, t)
	defer pc.Terminate(ctx)
	defer pool.Close()

	repo := NewDocumentRepository(pool)
	doc := seedDocument(ctx, t, repo, "Sprinkler layout")

	rev1 := seedRevision(ctx, t, repo, doc.ID, 1, "first draft")
	rev2 := seedRevision(ctx, t, repo, doc.ID, 2, "second draft")

	latest, err := repo.GetLatestRevision(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, rev2.ID, latest.ID)
	assert.Equal(t, int64(2), latest.Version)

	revisions, err := repo.ListRevisions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, revisions, 2)
	assert.Equal(t, rev1.ID, revisions[0].ID)
	assert.Equal(t, rev2.ID, revisions[1].ID)
}

func TestDocumentRepository_DuplicateRevisionVersion(t *testing.T) {
	ctx := context.Background()
	pc, pool := newIntegrationPool(ctx, t)
	defer pc.Terminate(ctx)
	defer pool.Close()

	repo := NewDocumentRepository(pool)
	doc := seedDocument(ctx, t, repo, "Alarm wiring")

	seedRevision(ctx, t, repo, doc.ID, 1, "content")

	dup := &domain.DocumentRevision{
		ID:          uuid.NewString(),
		DocumentID:  doc.ID,
		Version:     1,
		Content:     "other content",
		ContentHash: "other-hash",
		CreatedAt:   time.Now().UTC(),
	}
	assert.Error(t, repo.CreateRevision(ctx, dup))
}

func TestDocumentRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	pc, pool := newIntegrationPool(ctx, t)
	defer pc.Terminate(ctx)
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	jobRepo := NewJobRepository(pool)

	doc := seedDocument(ctx, t, docRepo, "Hydrant spacing")
	rev := seedRevision(ctx, t, docRepo, doc.ID, 1, "content")

	job := domain.NewIngestionJob(uuid.NewString(), doc.ID, rev.ID, domain.IngestionJobTypeUpload, time.Now().UTC())
	require.NoError(t, jobRepo.Create(ctx, job))

	require.NoError(t, docRepo.Delete(ctx, doc.ID))

	_, err := docRepo.GetByID(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, err = docRepo.GetRevision(ctx, rev.ID)
	assert.ErrorIs(t, err, domain.ErrRevisionNotFound)

	_, err = jobRepo.GetByID(ctx, job.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestDocumentRepository_ListStaleActive(t *testing.T) {
	ctx := context.Background()
	pc, pool := newIntegrationPool(ctx, t)
	defer pc.Terminate(ctx)
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	stale := seedDocument(ctx, t, repo, "Old code commentary")
	stale.UpdatedAt = time.Now().UTC().Add(-120 * 24 * time.Hour)
	require.NoError(t, repo.Update(ctx, stale))

	inactive := seedDocument(ctx, t, repo, "Retired document")
	inactive.UpdatedAt = time.Now().UTC().Add(-120 * 24 * time.Hour)
	inactive.IsActive = false
	require.NoError(t, repo.Update(ctx, inactive))

	seedDocument(ctx, t, repo, "Fresh document")

	cutoff := time.Now().UTC().Add(-90 * 24 * time.Hour)
	docs, err := repo.ListStaleActive(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, stale.ID, docs[0].ID)
}

func TestDocumentRepository_ListReadyWithoutChunks(t *testing.T) {
	ctx := context.Background()
	pc, pool := newIntegrationPool(ctx, t)
	defer pc.Terminate(ctx)
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	bare := seedDocument(ctx, t, docRepo, "Ready but empty")
	require.NoError(t, docRepo.UpdateStatus(ctx, bare.ID, domain.DocumentStatusReady))

	covered := seedDocument(ctx, t, docRepo, "Ready with chunks")
	rev := seedRevision(ctx, t, docRepo, covered.ID, 1, "content")
	require.NoError(t, docRepo.UpdateStatus(ctx, covered.ID, domain.DocumentStatusReady))
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, covered.ID, []domain.DocumentChunk{
		{
			ID:         uuid.NewString(),
			DocumentID: covered.ID,
			RevisionID: rev.ID,
			ChunkIndex: 0,
			Content:    "content",
			TokenCount: 2,
		},
	}))

	seedDocument(ctx, t, docRepo, "Still pending")

	ids, err := docRepo.ListReadyWithoutChunks(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, bare.ID, ids[0])
}

func TestDocumentRepository_CountByStatus(t *testing.T) {
	ctx := context.Background()
	pc, pool := newIntegrationPool(ctx, t)
	defer pc.Terminate(ctx)
	defer pool.Close()

	repo := NewDocumentRepository(pool)

	seedDocument(ctx, t, repo, "One")
	seedDocument(ctx, t, repo, "Two")
	ready := seedDocument(ctx, t, repo, "Three")
	require.NoError(t, repo.UpdateStatus(ctx, ready.ID, domain.DocumentStatusReady))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.DocumentStatusPending])
	assert.Equal(t, 1, counts[domain.DocumentStatusReady])
}
