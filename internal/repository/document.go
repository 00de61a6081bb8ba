package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository handles persistence of knowledge documents and their
// immutable revisions.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.KnowledgeDocument) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO knowledge_documents (id, title, description, category, source_type, status, version, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.Title, d.Description, d.Category, d.SourceType, d.Status, d.Version, d.IsActive, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeDocument, error) {
	var d domain.KnowledgeDocument
	err := r.db.QueryRow(ctx,
		`SELECT id, title, description, category, source_type, status, version, is_active, created_at, updated_at
		 FROM knowledge_documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Title, &d.Description, &d.Category, &d.SourceType, &d.Status, &d.Version, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]*domain.KnowledgeDocument, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, category, source_type, status, version, is_active, created_at, updated_at
		 FROM knowledge_documents
		 ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocumentRows(rows)
}

func (r *DocumentRepository) Update(ctx context.Context, d *domain.KnowledgeDocument) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_documents
		 SET title = $1, description = $2, category = $3, source_type = $4, status = $5, version = $6, is_active = $7, updated_at = $8
		 WHERE id = $9`,
		d.Title, d.Description, d.Category, d.SourceType, d.Status, d.Version, d.IsActive, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_documents SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// Delete removes a document; revisions, chunks, and jobs cascade.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM knowledge_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) CreateRevision(ctx context.Context, rev *domain.DocumentRevision) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO document_revisions (id, document_id, version, content, content_hash, change_reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rev.ID, rev.DocumentID, rev.Version, rev.Content, rev.ContentHash, nullableString(rev.ChangeReason), rev.CreatedAt,
	)
	return err
}

func (r *DocumentRepository) GetRevision(ctx context.Context, id string) (*domain.DocumentRevision, error) {
	var rev domain.DocumentRevision
	var changeReason *string
	err := r.db.QueryRow(ctx,
		`SELECT id, document_id, version, content, content_hash, change_reason, created_at
		 FROM document_revisions WHERE id = $1`,
		id,
	).Scan(&rev.ID, &rev.DocumentID, &rev.Version, &rev.Content, &rev.ContentHash, &changeReason, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRevisionNotFound
		}
		return nil, err
	}
	if changeReason != nil {
		rev.ChangeReason = *changeReason
	}
	return &rev, nil
}

func (r *DocumentRepository) GetLatestRevision(ctx context.Context, documentID string) (*domain.DocumentRevision, error) {
	var rev domain.DocumentRevision
	var changeReason *string
	err := r.db.QueryRow(ctx,
		`SELECT id, document_id, version, content, content_hash, change_reason, created_at
		 FROM document_revisions
		 WHERE document_id = $1
		 ORDER BY version DESC
		 LIMIT 1`,
		documentID,
	).Scan(&rev.ID, &rev.DocumentID, &rev.Version, &rev.Content, &rev.ContentHash, &changeReason, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRevisionNotFound
		}
		return nil, err
	}
	if changeReason != nil {
		rev.ChangeReason = *changeReason
	}
	return &rev, nil
}

func (r *DocumentRepository) ListRevisions(ctx context.Context, documentID string) ([]*domain.DocumentRevision, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, version, content, content_hash, change_reason, created_at
		 FROM document_revisions
		 WHERE document_id = $1
		 ORDER BY version ASC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []*domain.DocumentRevision
	for rows.Next() {
		var rev domain.DocumentRevision
		var changeReason *string
		if err := rows.Scan(&rev.ID, &rev.DocumentID, &rev.Version, &rev.Content, &rev.ContentHash, &changeReason, &rev.CreatedAt); err != nil {
			return nil, err
		}
		if changeReason != nil {
			rev.ChangeReason = *changeReason
		}
		revisions = append(revisions, &rev)
	}
	return revisions, rows.Err()
}

// ListStaleActive returns active documents whose updated_at predates the
// cutoff. Used by the document_freshness audit policy.
func (r *DocumentRepository) ListStaleActive(ctx context.Context, cutoff time.Time) ([]*domain.KnowledgeDocument, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, category, source_type, status, version, is_active, created_at, updated_at
		 FROM knowledge_documents
		 WHERE is_active = TRUE AND updated_at < $1
		 ORDER BY updated_at ASC`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocumentRows(rows)
}

// ListReadyWithoutChunks returns ids of ready documents that have no chunk
// rows, a violation of the readiness invariant. Used by the
// embedding_coverage audit policy.
func (r *DocumentRepository) ListReadyWithoutChunks(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT d.id
		 FROM knowledge_documents d
		 WHERE d.status = $1
		   AND NOT EXISTS (SELECT 1 FROM document_chunks c WHERE c.document_id = d.id)
		 ORDER BY d.id ASC`,
		domain.DocumentStatusReady,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByStatus returns document counts grouped by status.
func (r *DocumentRepository) CountByStatus(ctx context.Context) (map[domain.DocumentStatus]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, COUNT(*) FROM knowledge_documents GROUP BY status`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.DocumentStatus]int)
	for rows.Next() {
		var status domain.DocumentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.KnowledgeDocument, error) {
	var docs []*domain.KnowledgeDocument
	for rows.Next() {
		var d domain.KnowledgeDocument
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.Category, &d.SourceType, &d.Status, &d.Version, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}
