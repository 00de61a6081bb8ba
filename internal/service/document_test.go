package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDocumentReader is a mock implementation of DocumentReader
type MockDocumentReader struct {
	mock.Mock
}

func (m *MockDocumentReader) GetByID(ctx context.Context, id string) (*domain.KnowledgeDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeDocument), args.Error(1)
}

func (m *MockDocumentReader) List(ctx context.Context) ([]*domain.KnowledgeDocument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeDocument), args.Error(1)
}

func (m *MockDocumentReader) GetLatestRevision(ctx context.Context, documentID string) (*domain.DocumentRevision, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRevision), args.Error(1)
}

func (m *MockDocumentReader) ListRevisions(ctx context.Context, documentID string) ([]*domain.DocumentRevision, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DocumentRevision), args.Error(1)
}

func (m *MockDocumentReader) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockJobReader is a mock implementation of JobReader
type MockJobReader struct {
	mock.Mock
}

func (m *MockJobReader) GetByID(ctx context.Context, id string) (*domain.IngestionJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionJob), args.Error(1)
}

func (m *MockJobReader) ListByDocument(ctx context.Context, documentID string) ([]*domain.IngestionJob, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IngestionJob), args.Error(1)
}

// MockSourceArchive is a mock implementation of SourceArchive
type MockSourceArchive struct {
	mock.Mock
}

func (m *MockSourceArchive) PutRevision(ctx context.Context, documentID string, version int64, content string) error {
	args := m.Called(ctx, documentID, version, content)
	return args.Error(0)
}

func (m *MockSourceArchive) DeleteDocument(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

func newDocumentService(docs *MockDocumentReader, jobs *MockJobReader, tx *fakeTxRunner, uuids ...string) (*DocumentService, *captureEvents) {
	recorder, capture := newTestRecorder()
	svc := NewDocumentServiceWithUUIDGen(docs, jobs, tx, nil, recorder, NewMockUUIDGenerator(uuids...))
	return svc, capture
}

func TestDocumentService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates document with first revision and queues upload job", func(t *testing.T) {
		docs := new(MockDocumentReader)
		jobs := new(MockJobReader)
		tx := newFakeTxRunner()
		svc, capture := newDocumentService(docs, jobs, tx, "doc-1", "rev-1", "job-1")

		content := "Fire extinguishers must be inspected monthly."
		wantHash := sha256.Sum256([]byte(content))

		tx.docs.On("Create", mock.Anything, mock.MatchedBy(func(d *domain.KnowledgeDocument) bool {
			return d.ID == "doc-1" &&
				d.Status == domain.DocumentStatusPending &&
				d.Version == 1 &&
				d.IsActive
		})).Return(nil)
		tx.docs.On("CreateRevision", mock.Anything, mock.MatchedBy(func(rev *domain.DocumentRevision) bool {
			return rev.ID == "rev-1" &&
				rev.DocumentID == "doc-1" &&
				rev.Version == 1 &&
				rev.Content == content &&
				rev.ContentHash == hex.EncodeToString(wantHash[:])
		})).Return(nil)
		tx.jobs.On("Create", mock.Anything, mock.MatchedBy(func(job *domain.IngestionJob) bool {
			return job.ID == "job-1" &&
				job.DocumentID == "doc-1" &&
				job.RevisionID == "rev-1" &&
				job.JobType == domain.IngestionJobTypeUpload &&
				job.Status == domain.IngestionJobStatusPending &&
				job.Progress == 0
		})).Return(nil)

		out, err := svc.Submit(ctx, SubmitDocumentInput{
			Title:      "Extinguisher inspections",
			Category:   "equipment",
			SourceType: domain.DocumentSourceManual,
			Content:    content,
		})

		require.NoError(t, err)
		assert.Equal(t, "doc-1", out.Document.ID)
		assert.Equal(t, int64(1), out.Revision.Version)
		assert.Equal(t, "job-1", out.Job.ID)
		assert.Contains(t, capture.types(), EventDocumentCreated)

		tx.docs.AssertExpectations(t)
		tx.jobs.AssertExpectations(t)
	})

	t.Run("rejects document without title", func(t *testing.T) {
		docs := new(MockDocumentReader)
		jobs := new(MockJobReader)
		tx := newFakeTxRunner()
		svc, _ := newDocumentService(docs, jobs, tx)

		_, err := svc.Submit(ctx, SubmitDocumentInput{
			Category:   "equipment",
			SourceType: domain.DocumentSourceManual,
			Content:    "some content",
		})
		require.Error(t, err)
		tx.docs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()

	existing := func() *domain.KnowledgeDocument {
		return domain.NewKnowledgeDocument("doc-1", "Evacuation plan", "", "procedures", domain.DocumentSourceManual, time.Now().UTC())
	}

	t.Run("content change creates next revision and queues reprocess job", func(t *testing.T) {
		docs := new(MockDocumentReader)
		jobs := new(MockJobReader)
		tx := newFakeTxRunner()
		svc, _ := newDocumentService(docs, jobs, tx, "rev-2", "job-2")

		doc := existing()
		doc.Status = domain.DocumentStatusReady
		docs.On("GetByID", mock.Anything, "doc-1").Return(doc, nil)
		docs.On("GetLatestRevision", mock.Anything, "doc-1").Return(&domain.DocumentRevision{
			ID: "rev-1", DocumentID: "doc-1", Version: 1, Content: "old", ContentHash: "x",
		}, nil)

		tx.docs.On("Update", mock.Anything, mock.MatchedBy(func(d *domain.KnowledgeDocument) bool {
			return d.Version == 2 && d.Status == domain.DocumentStatusPending
		})).Return(nil)
		tx.docs.On("CreateRevision", mock.Anything, mock.MatchedBy(func(rev *domain.DocumentRevision) bool {
			return rev.ID == "rev-2" && rev.Version == 2 && rev.ChangeReason == "updated exits"
		})).Return(nil)
		tx.jobs.On("Create", mock.Anything, mock.MatchedBy(func(job *domain.IngestionJob) bool {
			return job.ID == "job-2" && job.JobType == domain.IngestionJobTypeReprocess && job.RevisionID == "rev-2"
		})).Return(nil)

		out, err := svc.Update(ctx, UpdateDocumentInput{
			DocumentID:   "doc-1",
			Content:      "new content",
			ChangeReason: "updated exits",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(2), out.Revision.Version)
		assert.Equal(t, domain.DocumentStatusPending, out.Document.Status)
		tx.docs.AssertExpectations(t)
		tx.jobs.AssertExpectations(t)
	})

	t.Run("metadata-only update creates no revision", func(t *testing.T) {
		docs := new(MockDocumentReader)
		jobs := new(MockJobReader)
		tx := newFakeTxRunner()
		svc, _ := newDocumentService(docs, jobs, tx)

		docs.On("GetByID", mock.Anything, "doc-1").Return(existing(), nil)
		tx.docs.On("Update", mock.Anything, mock.MatchedBy(func(d *domain.KnowledgeDocument) bool {
			return d.Title == "Evacuation plan v2" && d.Version == 1
		})).Return(nil)

		out, err := svc.Update(ctx, UpdateDocumentInput{
			DocumentID: "doc-1",
			Title:      "Evacuation plan v2",
		})

		require.NoError(t, err)
		assert.Nil(t, out.Revision)
		assert.Nil(t, out.Job)
		tx.docs.AssertNotCalled(t, "CreateRevision", mock.Anything, mock.Anything)
		tx.jobs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects content update on inactive document", func(t *testing.T) {
		docs := new(MockDocumentReader)
		jobs := new(MockJobReader)
		tx := newFakeTxRunner()
		svc, _ := newDocumentService(docs, jobs, tx)

		doc := existing()
		doc.IsActive = false
		docs.On("GetByID", mock.Anything, "doc-1").Return(doc, nil)

		_, err := svc.Update(ctx, UpdateDocumentInput{DocumentID: "doc-1", Content: "new"})
		assert.ErrorIs(t, err, domain.ErrDocumentInactive)
	})

	t.Run("propagates not found", func(t *testing.T) {
		docs := new(MockDocumentReader)
		jobs := new(MockJobReader)
		tx := newFakeTxRunner()
		svc, _ := newDocumentService(docs, jobs, tx)

		docs.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrDocumentNotFound)

		_, err := svc.Update(ctx, UpdateDocumentInput{DocumentID: "missing", Title: "x"})
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})
}

func TestDocumentService_Archive(t *testing.T) {
	ctx := context.Background()

	t.Run("archives accepted revision content under its version", func(t *testing.T) {
		docs := new(MockDocumentReader)
		jobs := new(MockJobReader)
		tx := newFakeTxRunner()
		archive := new(MockSourceArchive)
		recorder, _ := newTestRecorder()
		svc := NewDocumentServiceWithUUIDGen(docs, jobs, tx, archive, recorder, NewMockUUIDGenerator("doc-1", "rev-1", "job-1"))

		content := "Hydrant caps are torqued to spec plate values."
		tx.docs.On("Create", mock.Anything, mock.Anything).Return(nil)
		tx.docs.On("CreateRevision", mock.Anything, mock.Anything).Return(nil)
		tx.jobs.On("Create", mock.Anything, mock.Anything).Return(nil)
		archive.On("PutRevision", mock.Anything, "doc-1", int64(1), content).Return(nil)

		_, err := svc.Submit(ctx, SubmitDocumentInput{
			Title:      "Hydrant caps",
			Category:   "equipment",
			SourceType: domain.DocumentSourceManual,
			Content:    content,
		})

		require.NoError(t, err)
		archive.AssertExpectations(t)
	})

	t.Run("content update archives the bumped revision version", func(t *testing.T) {
		docs := new(MockDocumentReader)
		jobs := new(MockJobReader)
		tx := newFakeTxRunner()
		archive := new(MockSourceArchive)
		recorder, _ := newTestRecorder()
		svc := NewDocumentServiceWithUUIDGen(docs, jobs, tx, archive, recorder, NewMockUUIDGenerator("rev-2", "job-2"))

		doc := domain.NewKnowledgeDocument("doc-1", "Hydrant caps", "", "equipment", domain.DocumentSourceManual, time.Now().UTC())
		doc.Status = domain.DocumentStatusReady
		docs.On("GetByID", mock.Anything, "doc-1").Return(doc, nil)
		docs.On("GetLatestRevision", mock.Anything, "doc-1").Return(&domain.DocumentRevision{
			ID: "rev-1", DocumentID: "doc-1", Version: 1, Content: "old", ContentHash: "x",
		}, nil)
		tx.docs.On("Update", mock.Anything, mock.Anything).Return(nil)
		tx.docs.On("CreateRevision", mock.Anything, mock.Anything).Return(nil)
		tx.jobs.On("Create", mock.Anything, mock.Anything).Return(nil)
		archive.On("PutRevision", mock.Anything, "doc-1", int64(2), "new caps table").Return(nil)

		_, err := svc.Update(ctx, UpdateDocumentInput{DocumentID: "doc-1", Content: "new caps table"})

		require.NoError(t, err)
		archive.AssertExpectations(t)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes and records event", func(t *testing.T) {
		docs := new(MockDocumentReader)
		jobs := new(MockJobReader)
		tx := newFakeTxRunner()
		svc, capture := newDocumentService(docs, jobs, tx)

		docs.On("Delete", mock.Anything, "doc-1").Return(nil)

		require.NoError(t, svc.Delete(ctx, "doc-1"))
		assert.Contains(t, capture.types(), EventDocumentDeleted)
	})

	t.Run("propagates not found", func(t *testing.T) {
		docs := new(MockDocumentReader)
		jobs := new(MockJobReader)
		tx := newFakeTxRunner()
		svc, _ := newDocumentService(docs, jobs, tx)

		docs.On("Delete", mock.Anything, "missing").Return(domain.ErrDocumentNotFound)

		assert.ErrorIs(t, svc.Delete(ctx, "missing"), domain.ErrDocumentNotFound)
	})
}
