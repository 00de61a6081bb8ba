package domain

import "time"

// SearchLog records one executed similarity search for later quality
// auditing. TopSimilarity is nil when the search returned no results.
type SearchLog struct {
	ID            string
	Query         string
	ResultCount   int
	TopSimilarity *float64
	LatencyMS     int64
	CreatedAt     time.Time
}

// SearchResult is a single ranked chunk returned from a similarity search.
type SearchResult struct {
	ChunkID    string
	DocumentID string
	ChunkIndex int
	Content    string
	Similarity float64
}
