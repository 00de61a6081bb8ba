package domain

import (
	"fmt"
	"time"
)

// DocumentStatus represents the lifecycle status of a knowledge document
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusError      DocumentStatus = "error"
)

// DocumentSourceType represents how a document entered the system
type DocumentSourceType string

const (
	DocumentSourceManual DocumentSourceType = "manual"
	DocumentSourceFile   DocumentSourceType = "file"
	DocumentSourceURL    DocumentSourceType = "url"
)

// KnowledgeDocument represents a reference document in the retrieval corpus.
// Status and Version are mutated only by the ingestion orchestrator and by
// edit requests that bump the version.
type KnowledgeDocument struct {
	ID          string
	Title       string
	Description string
	Category    string
	SourceType  DocumentSourceType
	Status      DocumentStatus
	Version     int64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DocumentRevision is an immutable, versioned snapshot of a document's
// content. Revisions are append-only history and are never rewritten.
// ContentHash is recorded for every revision but is not consulted to
// short-circuit re-ingestion of identical content.
type DocumentRevision struct {
	ID           string
	DocumentID   string
	Version      int64
	Content      string
	ContentHash  string
	ChangeReason string
	CreatedAt    time.Time
}

// NewKnowledgeDocument creates a new KnowledgeDocument instance
func NewKnowledgeDocument(
	id, title, description, category string,
	sourceType DocumentSourceType,
	createdAt time.Time,
) *KnowledgeDocument {
	return &KnowledgeDocument{
		ID:          id,
		Title:       title,
		Description: description,
		Category:    category,
		SourceType:  sourceType,
		Status:      DocumentStatusPending,
		Version:     1,
		IsActive:    true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// ValidateKnowledgeDocument validates a KnowledgeDocument instance
func ValidateKnowledgeDocument(d *KnowledgeDocument) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.Title == "" {
		return fmt.Errorf("document Title is required")
	}

	if d.Version <= 0 {
		return fmt.Errorf("document Version must be greater than 0")
	}

	if !isValidDocumentStatus(d.Status) {
		return fmt.Errorf("document Status is invalid: %s", d.Status)
	}

	if !isValidDocumentSourceType(d.SourceType) {
		return fmt.Errorf("document SourceType is invalid: %s", d.SourceType)
	}

	return nil
}

// ValidateDocumentRevision validates a DocumentRevision instance
func ValidateDocumentRevision(r *DocumentRevision) error {
	if r == nil {
		return fmt.Errorf("revision cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("revision ID is required")
	}

	if r.DocumentID == "" {
		return fmt.Errorf("revision DocumentID is required")
	}

	if r.Version <= 0 {
		return fmt.Errorf("revision Version must be greater than 0")
	}

	if r.Content == "" {
		return fmt.Errorf("revision Content is required")
	}

	return nil
}

// isValidDocumentStatus checks if a DocumentStatus is valid
func isValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusPending, DocumentStatusProcessing,
		DocumentStatusReady, DocumentStatusError:
		return true
	}
	return false
}

// isValidDocumentSourceType checks if a DocumentSourceType is valid
func isValidDocumentSourceType(t DocumentSourceType) bool {
	switch t {
	case DocumentSourceManual, DocumentSourceFile, DocumentSourceURL:
		return true
	}
	return false
}
