package domain

import "time"

// DocumentChunk is a bounded, possibly overlapping slice of a document's
// text, the unit of embedding and retrieval. Chunks are created only by the
// ingestion orchestrator for the revision currently being processed; all
// chunks from prior revisions of the same document are deleted first, so
// search always reflects the latest content.
type DocumentChunk struct {
	ID         string
	DocumentID string
	RevisionID string
	ChunkIndex int
	Content    string
	TokenCount int
	Embedding  Embedding
	Metadata   map[string]string
	CreatedAt  time.Time
}
