package service

import (
	"context"
	"sync"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockUUIDGenerator returns a fixed sequence of UUIDs
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		uuid := m.uuids[m.callCount]
		m.callCount++
		return uuid
	}
	return "default-uuid"
}

// captureEvents is an in-memory EventAppender for asserting recorded events
type captureEvents struct {
	mu     sync.Mutex
	events []*domain.AuditEvent
}

func (c *captureEvents) Append(_ context.Context, event *domain.AuditEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureEvents) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, len(c.events))
	for i, e := range c.events {
		types[i] = e.EventType
	}
	return types
}

func newTestRecorder() (*EventRecorder, *captureEvents) {
	capture := &captureEvents{}
	return NewEventRecorderWithUUIDGen(capture, NewMockUUIDGenerator()), capture
}

// MockTxDocumentRepository is a mock implementation of TxDocumentRepository
type MockTxDocumentRepository struct {
	mock.Mock
}

func (m *MockTxDocumentRepository) Create(ctx context.Context, d *domain.KnowledgeDocument) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockTxDocumentRepository) Update(ctx context.Context, d *domain.KnowledgeDocument) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockTxDocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockTxDocumentRepository) CreateRevision(ctx context.Context, rev *domain.DocumentRevision) error {
	args := m.Called(ctx, rev)
	return args.Error(0)
}

// MockTxChunkRepository is a mock implementation of TxChunkRepository
type MockTxChunkRepository struct {
	mock.Mock
}

func (m *MockTxChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error {
	args := m.Called(ctx, documentID, chunks)
	return args.Error(0)
}

// MockTxJobRepository is a mock implementation of TxJobRepository
type MockTxJobRepository struct {
	mock.Mock
}

func (m *MockTxJobRepository) Create(ctx context.Context, job *domain.IngestionJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockTxJobRepository) Complete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeTxRunner runs the callback with mock repositories and no real
// transaction. A non-nil err short-circuits WithTx.
type fakeTxRunner struct {
	docs   *MockTxDocumentRepository
	chunks *MockTxChunkRepository
	jobs   *MockTxJobRepository
	err    error
}

func newFakeTxRunner() *fakeTxRunner {
	return &fakeTxRunner{
		docs:   new(MockTxDocumentRepository),
		chunks: new(MockTxChunkRepository),
		jobs:   new(MockTxJobRepository),
	}
}

func (f *fakeTxRunner) WithTx(_ context.Context, fn func(repos TxRepositories) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(f)
}

func (f *fakeTxRunner) Documents() TxDocumentRepository { return f.docs }
func (f *fakeTxRunner) Chunks() TxChunkRepository       { return f.chunks }
func (f *fakeTxRunner) Jobs() TxJobRepository           { return f.jobs }
