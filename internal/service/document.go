package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/telemetry"
)

// DocumentReader is the read-only repository surface the document service
// needs outside a transaction.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.KnowledgeDocument, error)
	List(ctx context.Context) ([]*domain.KnowledgeDocument, error)
	GetLatestRevision(ctx context.Context, documentID string) (*domain.DocumentRevision, error)
	ListRevisions(ctx context.Context, documentID string) ([]*domain.DocumentRevision, error)
	Delete(ctx context.Context, id string) error
}

// JobReader reads ingestion jobs.
type JobReader interface {
	GetByID(ctx context.Context, id string) (*domain.IngestionJob, error)
	ListByDocument(ctx context.Context, documentID string) ([]*domain.IngestionJob, error)
}

// SourceArchive stores raw revision content outside the database. A nil
// archive disables archiving.
type SourceArchive interface {
	PutRevision(ctx context.Context, documentID string, version int64, content string) error
	DeleteDocument(ctx context.Context, documentID string) error
}

// SubmitDocumentInput carries a new document and its first revision.
type SubmitDocumentInput struct {
	Title       string
	Description string
	Category    string
	SourceType  domain.DocumentSourceType
	Content     string
}

// UpdateDocumentInput updates document metadata and optionally its content.
// Empty Content means a metadata-only update that does not create a revision
// or queue re-ingestion.
type UpdateDocumentInput struct {
	DocumentID   string
	Title        string
	Description  string
	Category     string
	Content      string
	ChangeReason string
	IsActive     *bool
}

// SubmitDocumentOutput returns the stored document and the queued job.
type SubmitDocumentOutput struct {
	Document *domain.KnowledgeDocument
	Revision *domain.DocumentRevision
	Job      *domain.IngestionJob
}

// DocumentService handles document lifecycle: submission, revision,
// deactivation, and deletion.
type DocumentService struct {
	docs     DocumentReader
	jobs     JobReader
	txRunner TxRunner
	archive  SourceArchive
	recorder *EventRecorder
	uuidGen  UUIDGenerator
}

func NewDocumentService(docs DocumentReader, jobs JobReader, txRunner TxRunner, archive SourceArchive, recorder *EventRecorder) *DocumentService {
	return &DocumentService{
		docs:     docs,
		jobs:     jobs,
		txRunner: txRunner,
		archive:  archive,
		recorder: recorder,
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

func NewDocumentServiceWithUUIDGen(docs DocumentReader, jobs JobReader, txRunner TxRunner, archive SourceArchive, recorder *EventRecorder, uuidGen UUIDGenerator) *DocumentService {
	s := NewDocumentService(docs, jobs, txRunner, archive, recorder)
	s.uuidGen = uuidGen
	return s
}

// Submit stores a new document with its first revision and queues an upload
// ingestion job. Document, revision, and job are created in one transaction.
func (s *DocumentService) Submit(ctx context.Context, input SubmitDocumentInput) (*SubmitDocumentOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Submit", telemetry.SpanAttributes{
		Operation: "submit",
	})
	defer span.End()

	now := time.Now().UTC()
	doc := domain.NewKnowledgeDocument(s.uuidGen.NewString(), input.Title, input.Description, input.Category, input.SourceType, now)
	if err := domain.ValidateKnowledgeDocument(doc); err != nil {
		return nil, err
	}

	rev := &domain.DocumentRevision{
		ID:          s.uuidGen.NewString(),
		DocumentID:  doc.ID,
		Version:     1,
		Content:     input.Content,
		ContentHash: hashContent(input.Content),
		CreatedAt:   now,
	}
	if err := domain.ValidateDocumentRevision(rev); err != nil {
		return nil, err
	}

	job := domain.NewIngestionJob(s.uuidGen.NewString(), doc.ID, rev.ID, domain.IngestionJobTypeUpload, now)

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Create(ctx, doc); err != nil {
			return err
		}
		if err := repos.Documents().CreateRevision(ctx, rev); err != nil {
			return err
		}
		return repos.Jobs().Create(ctx, job)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	s.archiveRevision(ctx, doc.ID, rev.Version, input.Content)
	s.recorder.Record(ctx, EventDocumentCreated, EntityDocument, doc.ID, "submit", map[string]any{
		"title":   doc.Title,
		"version": 1,
		"job_id":  job.ID,
	})

	return &SubmitDocumentOutput{Document: doc, Revision: rev, Job: job}, nil
}

// Update applies a metadata and/or content update. A content change creates
// the next immutable revision, resets the document to pending, and queues a
// reprocess job. Content updates to inactive documents are rejected.
func (s *DocumentService) Update(ctx context.Context, input UpdateDocumentInput) (*SubmitDocumentOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Update", telemetry.SpanAttributes{
		DocumentID: input.DocumentID,
		Operation:  "update",
	})
	defer span.End()

	doc, err := s.docs.GetByID(ctx, input.DocumentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if input.Title != "" {
		doc.Title = input.Title
	}
	if input.Description != "" {
		doc.Description = input.Description
	}
	if input.Category != "" {
		doc.Category = input.Category
	}
	if input.IsActive != nil {
		doc.IsActive = *input.IsActive
	}
	doc.UpdatedAt = now

	if input.Content == "" {
		if err := domain.ValidateKnowledgeDocument(doc); err != nil {
			return nil, err
		}
		err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			return repos.Documents().Update(ctx, doc)
		})
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		s.recorder.Record(ctx, EventDocumentUpdated, EntityDocument, doc.ID, "update_metadata", nil)
		return &SubmitDocumentOutput{Document: doc}, nil
	}

	if !doc.IsActive {
		return nil, domain.ErrDocumentInactive
	}

	latest, err := s.docs.GetLatestRevision(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	rev := &domain.DocumentRevision{
		ID:           s.uuidGen.NewString(),
		DocumentID:   doc.ID,
		Version:      latest.Version + 1,
		Content:      input.Content,
		ContentHash:  hashContent(input.Content),
		ChangeReason: input.ChangeReason,
		CreatedAt:    now,
	}
	if err := domain.ValidateDocumentRevision(rev); err != nil {
		return nil, err
	}

	doc.Version = rev.Version
	doc.Status = domain.DocumentStatusPending
	if err := domain.ValidateKnowledgeDocument(doc); err != nil {
		return nil, err
	}

	job := domain.NewIngestionJob(s.uuidGen.NewString(), doc.ID, rev.ID, domain.IngestionJobTypeReprocess, now)

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Update(ctx, doc); err != nil {
			return err
		}
		if err := repos.Documents().CreateRevision(ctx, rev); err != nil {
			return err
		}
		return repos.Jobs().Create(ctx, job)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	s.archiveRevision(ctx, doc.ID, rev.Version, input.Content)
	s.recorder.Record(ctx, EventDocumentUpdated, EntityDocument, doc.ID, "update_content", map[string]any{
		"version": rev.Version,
		"job_id":  job.ID,
	})

	return &SubmitDocumentOutput{Document: doc, Revision: rev, Job: job}, nil
}

// Delete removes a document and everything hanging off it.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Delete", telemetry.SpanAttributes{
		DocumentID: id,
		Operation:  "delete",
	})
	defer span.End()

	if err := s.docs.Delete(ctx, id); err != nil {
		span.SetError(err)
		return err
	}

	if s.archive != nil {
		if err := s.archive.DeleteDocument(ctx, id); err != nil {
			log.Printf("document: failed to delete archived sources for %s: %v", id, err)
		}
	}

	s.recorder.Record(ctx, EventDocumentDeleted, EntityDocument, id, "delete", nil)
	return nil
}

// GetByID retrieves a document by ID.
func (s *DocumentService) GetByID(ctx context.Context, id string) (*domain.KnowledgeDocument, error) {
	return s.docs.GetByID(ctx, id)
}

// List returns all documents, most recently updated first.
func (s *DocumentService) List(ctx context.Context) ([]*domain.KnowledgeDocument, error) {
	return s.docs.List(ctx)
}

// ListRevisions returns a document's revision history, oldest first.
func (s *DocumentService) ListRevisions(ctx context.Context, documentID string) ([]*domain.DocumentRevision, error) {
	if _, err := s.docs.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.docs.ListRevisions(ctx, documentID)
}

// GetJob retrieves an ingestion job.
func (s *DocumentService) GetJob(ctx context.Context, id string) (*domain.IngestionJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// ListJobs returns a document's ingestion jobs, newest first.
func (s *DocumentService) ListJobs(ctx context.Context, documentID string) ([]*domain.IngestionJob, error) {
	return s.jobs.ListByDocument(ctx, documentID)
}

func (s *DocumentService) archiveRevision(ctx context.Context, documentID string, version int64, content string) {
	if s.archive == nil {
		return
	}
	if err := s.archive.PutRevision(ctx, documentID, version, content); err != nil {
		log.Printf("document: failed to archive revision %d of %s: %v", version, documentID, err)
	}
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
