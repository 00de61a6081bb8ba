package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles persistence of embedded document chunks.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx dbtx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceChunks deletes every chunk belonging to the document, across all
// revisions, then inserts the new set. Callers run this inside a transaction
// so a failed insert leaves no partial chunk set behind.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		var metadata []byte
		if len(c.Metadata) > 0 {
			metadata, err = json.Marshal(c.Metadata)
			if err != nil {
				return err
			}
		}

		_, err := r.db.Exec(ctx,
			`INSERT INTO document_chunks
				(id, document_id, revision_id, chunk_index, content, token_count, embedding, metadata, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			c.ID,
			c.DocumentID,
			c.RevisionID,
			c.ChunkIndex,
			c.Content,
			c.TokenCount,
			pgvector.NewVector(c.Embedding.Slice()),
			metadata,
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// ListSearchable returns every chunk belonging to an active, ready document.
// This is the brute-force search candidate set.
func (r *ChunkRepository) ListSearchable(ctx context.Context) ([]*service.SearchableChunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.document_id, c.chunk_index, c.content, c.embedding
		 FROM document_chunks c
		 JOIN knowledge_documents d ON d.id = c.document_id
		 WHERE d.is_active = TRUE AND d.status = $1
		 ORDER BY c.id ASC`,
		domain.DocumentStatusReady,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*service.SearchableChunk
	for rows.Next() {
		var chunk service.SearchableChunk
		var vec pgvector.Vector
		if err := rows.Scan(&chunk.ChunkID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Content, &vec); err != nil {
			return nil, err
		}
		embedding, err := domain.EmbeddingFromSlice(vec.Slice())
		if err != nil {
			return nil, err
		}
		chunk.Embedding = embedding
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// CountByDocument returns the number of chunk rows for one document.
func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`,
		documentID,
	).Scan(&count)
	return count, err
}

// Total returns the total number of chunk rows.
func (r *ChunkRepository) Total(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count)
	return count, err
}
