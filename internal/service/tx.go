package service

import (
	"context"

	"github.com/fyreone/firekb/internal/domain"
)

// TxRunner executes a function with repositories bound to a single
// database transaction. The transaction commits if fn returns nil and
// rolls back otherwise.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// TxRepositories exposes the repositories participating in a transaction.
type TxRepositories interface {
	Documents() TxDocumentRepository
	Chunks() TxChunkRepository
	Jobs() TxJobRepository
}

// TxDocumentRepository is the document surface available inside a transaction.
type TxDocumentRepository interface {
	Create(ctx context.Context, d *domain.KnowledgeDocument) error
	Update(ctx context.Context, d *domain.KnowledgeDocument) error
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error
	CreateRevision(ctx context.Context, rev *domain.DocumentRevision) error
}

// TxChunkRepository is the chunk surface available inside a transaction.
type TxChunkRepository interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error
}

// TxJobRepository is the job surface available inside a transaction.
type TxJobRepository interface {
	Create(ctx context.Context, job *domain.IngestionJob) error
	Complete(ctx context.Context, id string) error
}
