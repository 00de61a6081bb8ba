package service

import (
	"context"
	"time"

	"github.com/fyreone/firekb/internal/domain"
)

// DocumentCounter aggregates document counts.
type DocumentCounter interface {
	CountByStatus(ctx context.Context) (map[domain.DocumentStatus]int, error)
}

// JobCounter aggregates ingestion job counts.
type JobCounter interface {
	CountByStatus(ctx context.Context) (map[domain.IngestionJobStatus]int, error)
}

// ChunkCounter aggregates chunk counts.
type ChunkCounter interface {
	Total(ctx context.Context) (int, error)
}

// SearchCounter aggregates search activity.
type SearchCounter interface {
	CountSearchesSince(ctx context.Context, since time.Time) (int, error)
}

// Stats is an operational snapshot of the knowledge base.
type Stats struct {
	DocumentsByStatus map[domain.DocumentStatus]int     `json:"documents_by_status"`
	JobsByStatus      map[domain.IngestionJobStatus]int `json:"jobs_by_status"`
	TotalChunks       int                               `json:"total_chunks"`
	SearchesLast24h   int                               `json:"searches_last_24h"`
}

// StatsService assembles admin statistics.
type StatsService struct {
	docs     DocumentCounter
	jobs     JobCounter
	chunks   ChunkCounter
	searches SearchCounter
}

func NewStatsService(docs DocumentCounter, jobs JobCounter, chunks ChunkCounter, searches SearchCounter) *StatsService {
	return &StatsService{docs: docs, jobs: jobs, chunks: chunks, searches: searches}
}

// Snapshot collects current counts across the system.
func (s *StatsService) Snapshot(ctx context.Context) (*Stats, error) {
	docCounts, err := s.docs.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	jobCounts, err := s.jobs.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	totalChunks, err := s.chunks.Total(ctx)
	if err != nil {
		return nil, err
	}
	searches, err := s.searches.CountSearchesSince(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	return &Stats{
		DocumentsByStatus: docCounts,
		JobsByStatus:      jobCounts,
		TotalChunks:       totalChunks,
		SearchesLast24h:   searches,
	}, nil
}
