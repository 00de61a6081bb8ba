package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/telemetry"
)

// Ingestion progress milestones.
const (
	progressStarted  = 10
	progressChunked  = 30
	progressEmbedded = 50
	progressStoring  = 80
)

// IngestionDocumentStore is the document surface the orchestrator needs.
type IngestionDocumentStore interface {
	GetByID(ctx context.Context, id string) (*domain.KnowledgeDocument, error)
	GetRevision(ctx context.Context, id string) (*domain.DocumentRevision, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error
}

// IngestionJobStore is the job surface the orchestrator needs.
type IngestionJobStore interface {
	UpdateProgress(ctx context.Context, id string, progress int) error
	Fail(ctx context.Context, id string, errMsg string) error
}

// BatchEmbedder embeds a batch of chunk texts in one provider round trip.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error)
}

// IngestionOrchestrator runs one claimed ingestion job end to end: chunk the
// revision content, embed every chunk, and atomically replace the document's
// chunk set. Any failure marks both the job and the document failed; a
// document is never left ready with a partial chunk set.
type IngestionOrchestrator struct {
	docs         IngestionDocumentStore
	jobs         IngestionJobStore
	embedder     BatchEmbedder
	txRunner     TxRunner
	recorder     *EventRecorder
	uuidGen      UUIDGenerator
	maxChunkSize int
	overlapChars int
}

func NewIngestionOrchestrator(docs IngestionDocumentStore, jobs IngestionJobStore, embedder BatchEmbedder, txRunner TxRunner, recorder *EventRecorder) *IngestionOrchestrator {
	return &IngestionOrchestrator{
		docs:         docs,
		jobs:         jobs,
		embedder:     embedder,
		txRunner:     txRunner,
		recorder:     recorder,
		uuidGen:      &DefaultUUIDGenerator{},
		maxChunkSize: DefaultMaxChunkSize,
		overlapChars: DefaultOverlapChars,
	}
}

func NewIngestionOrchestratorWithUUIDGen(docs IngestionDocumentStore, jobs IngestionJobStore, embedder BatchEmbedder, txRunner TxRunner, recorder *EventRecorder, uuidGen UUIDGenerator) *IngestionOrchestrator {
	o := NewIngestionOrchestrator(docs, jobs, embedder, txRunner, recorder)
	o.uuidGen = uuidGen
	return o
}

// Process runs a single claimed job. The job must already be in the
// processing state. A returned error means the job and document were marked
// failed (or that marking them failed itself errored).
func (o *IngestionOrchestrator) Process(ctx context.Context, job *domain.IngestionJob) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestionOrchestrator.Process", telemetry.SpanAttributes{
		DocumentID: job.DocumentID,
		JobID:      job.ID,
		Operation:  "ingest",
	})
	defer span.End()

	if err := o.run(ctx, job); err != nil {
		span.SetError(err)
		o.markFailed(ctx, job, err)
		return err
	}

	o.recorder.Record(ctx, EventIngestionDone, EntityJob, job.ID, "complete", map[string]any{
		"document_id": job.DocumentID,
	})
	return nil
}

func (o *IngestionOrchestrator) run(ctx context.Context, job *domain.IngestionJob) error {
	o.recorder.Record(ctx, EventIngestionStarted, EntityJob, job.ID, "start", map[string]any{
		"document_id": job.DocumentID,
		"job_type":    string(job.JobType),
	})

	if err := o.docs.UpdateStatus(ctx, job.DocumentID, domain.DocumentStatusProcessing); err != nil {
		return fmt.Errorf("mark document processing: %w", err)
	}
	if err := o.jobs.UpdateProgress(ctx, job.ID, progressStarted); err != nil {
		return err
	}

	rev, err := o.docs.GetRevision(ctx, job.RevisionID)
	if err != nil {
		return fmt.Errorf("load revision: %w", err)
	}

	texts := ChunkText(rev.Content, o.maxChunkSize, o.overlapChars)
	if len(texts) == 0 {
		return domain.NewDomainError(domain.ErrCodeInvalidOperation, "revision content produced no chunks")
	}
	if err := o.jobs.UpdateProgress(ctx, job.ID, progressChunked); err != nil {
		return err
	}

	embeddings, err := o.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(texts) {
		return domain.NewDomainError(domain.ErrCodeProvider,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(embeddings)))
	}
	if err := o.jobs.UpdateProgress(ctx, job.ID, progressEmbedded); err != nil {
		return err
	}

	now := time.Now().UTC()
	chunks := make([]domain.DocumentChunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.DocumentChunk{
			ID:         o.uuidGen.NewString(),
			DocumentID: job.DocumentID,
			RevisionID: job.RevisionID,
			ChunkIndex: i,
			Content:    text,
			TokenCount: EstimateTokenCount(text),
			Embedding:  embeddings[i],
			CreatedAt:  now,
		}
	}

	if err := o.jobs.UpdateProgress(ctx, job.ID, progressStoring); err != nil {
		return err
	}

	// Chunk replacement, readiness, and job completion commit together so
	// a ready document always has its full chunk set.
	err = o.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Chunks().ReplaceChunks(ctx, job.DocumentID, chunks); err != nil {
			return err
		}
		if err := repos.Documents().UpdateStatus(ctx, job.DocumentID, domain.DocumentStatusReady); err != nil {
			return err
		}
		return repos.Jobs().Complete(ctx, job.ID)
	})
	if err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	log.Printf("ingestion: job=%s document=%s chunks=%d", job.ID, job.DocumentID, len(chunks))
	return nil
}

// markFailed records the failure on both the job and the document. Errors
// here are logged, not returned; the original failure is what matters.
func (o *IngestionOrchestrator) markFailed(ctx context.Context, job *domain.IngestionJob, cause error) {
	if err := o.jobs.Fail(ctx, job.ID, cause.Error()); err != nil {
		log.Printf("ingestion: failed to mark job %s failed: %v", job.ID, err)
	}
	if err := o.docs.UpdateStatus(ctx, job.DocumentID, domain.DocumentStatusError); err != nil {
		log.Printf("ingestion: failed to mark document %s errored: %v", job.DocumentID, err)
	}
	o.recorder.Record(ctx, EventIngestionFailed, EntityJob, job.ID, "fail", map[string]any{
		"document_id": job.DocumentID,
		"error":       cause.Error(),
	})
}
