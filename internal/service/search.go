package service

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/telemetry"
)

const (
	// DefaultSearchLimit is the number of results returned when the caller
	// does not specify one.
	DefaultSearchLimit = 5
	// DefaultSimilarityThreshold filters out weak matches.
	DefaultSimilarityThreshold = 0.7
	// MaxSearchLimit caps the result set size.
	MaxSearchLimit = 50
)

// SearchableChunk is a chunk loaded into the brute-force candidate set.
type SearchableChunk struct {
	ChunkID    string
	DocumentID string
	ChunkIndex int
	Content    string
	Embedding  domain.Embedding
}

// SearchChunkSource loads the candidate set for a search.
type SearchChunkSource interface {
	ListSearchable(ctx context.Context) ([]*SearchableChunk, error)
}

// QueryEmbedder embeds a search query.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) (domain.Embedding, error)
}

// SearchLogStore persists search logs.
type SearchLogStore interface {
	CreateSearchLog(ctx context.Context, log *domain.SearchLog) error
}

// SearchInput carries one search request. Zero Limit and Threshold take the
// defaults; a negative Threshold is passed through so callers can disable
// filtering.
type SearchInput struct {
	Query     string
	Limit     int
	Threshold *float64
}

// SearchOutput is the ranked result set plus the log id feedback refers to.
type SearchOutput struct {
	SearchID string
	Results  []domain.SearchResult
	TookMS   int64
}

// SearchService runs brute-force cosine similarity search over all
// searchable chunks.
type SearchService struct {
	chunks   SearchChunkSource
	embedder QueryEmbedder
	logs     SearchLogStore
	recorder *EventRecorder
	uuidGen  UUIDGenerator
}

func NewSearchService(chunks SearchChunkSource, embedder QueryEmbedder, logs SearchLogStore, recorder *EventRecorder) *SearchService {
	return &SearchService{
		chunks:   chunks,
		embedder: embedder,
		logs:     logs,
		recorder: recorder,
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

func NewSearchServiceWithUUIDGen(chunks SearchChunkSource, embedder QueryEmbedder, logs SearchLogStore, recorder *EventRecorder, uuidGen UUIDGenerator) *SearchService {
	s := NewSearchService(chunks, embedder, logs, recorder)
	s.uuidGen = uuidGen
	return s
}

// Search embeds the query once, scores every searchable chunk, and returns
// the top matches ordered by similarity descending with chunk id as the
// tiebreaker.
func (s *SearchService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "query is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	threshold := DefaultSimilarityThreshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	}

	started := time.Now()

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	candidates, err := s.chunks.ListSearchable(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	results := rankChunks(queryEmbedding, candidates, threshold, limit)
	tookMS := time.Since(started).Milliseconds()

	searchID := s.uuidGen.NewString()
	logEntry := &domain.SearchLog{
		ID:          searchID,
		Query:       query,
		ResultCount: len(results),
		LatencyMS:   tookMS,
		CreatedAt:   time.Now().UTC(),
	}
	if len(results) > 0 {
		top := results[0].Similarity
		logEntry.TopSimilarity = &top
	}
	if err := s.logs.CreateSearchLog(ctx, logEntry); err != nil {
		span.SetError(err)
		return nil, err
	}

	s.recorder.Record(ctx, EventSearchExecuted, EntitySearch, searchID, "search", map[string]any{
		"query":        query,
		"result_count": len(results),
		"latency_ms":   tookMS,
	})
	log.Printf("search: query=%q results=%d latency_ms=%d", query, len(results), tookMS)

	return &SearchOutput{SearchID: searchID, Results: results, TookMS: tookMS}, nil
}

// rankChunks scores candidates against the query embedding, drops matches
// below the threshold, and returns at most limit results. Ordering is
// deterministic: similarity descending, then chunk id ascending.
func rankChunks(query domain.Embedding, candidates []*SearchableChunk, threshold float64, limit int) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		similarity := domain.CosineSimilarity(query, c.Embedding)
		if similarity < threshold {
			continue
		}
		results = append(results, domain.SearchResult{
			ChunkID:    c.ChunkID,
			DocumentID: c.DocumentID,
			ChunkIndex: c.ChunkIndex,
			Content:    c.Content,
			Similarity: similarity,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
