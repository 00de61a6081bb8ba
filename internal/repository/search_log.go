package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SearchLogRepository records executed searches and the feedback left
// against them.
type SearchLogRepository struct {
	db dbtx
}

func NewSearchLogRepository(pool *pgxpool.Pool) *SearchLogRepository {
	return &SearchLogRepository{db: pool}
}

func (r *SearchLogRepository) CreateSearchLog(ctx context.Context, log *domain.SearchLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO search_logs (id, query, result_count, top_similarity, latency_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		log.ID, log.Query, log.ResultCount, log.TopSimilarity, log.LatencyMS, log.CreatedAt,
	)
	return err
}

func (r *SearchLogRepository) GetSearchLog(ctx context.Context, id string) (*domain.SearchLog, error) {
	var log domain.SearchLog
	err := r.db.QueryRow(ctx,
		`SELECT id, query, result_count, top_similarity, latency_ms, created_at
		 FROM search_logs WHERE id = $1`,
		id,
	).Scan(&log.ID, &log.Query, &log.ResultCount, &log.TopSimilarity, &log.LatencyMS, &log.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSearchLogNotFound
		}
		return nil, err
	}
	return &log, nil
}

func (r *SearchLogRepository) CreateFeedback(ctx context.Context, fb *domain.SearchFeedback) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO search_feedback (id, search_log_id, rating, note, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		fb.ID, fb.SearchID, fb.Rating, nullableString(fb.Note), fb.CreatedAt,
	)
	return err
}

// CountNegativeSince counts negative feedback entries recorded on or after
// the cutoff. Used by the feedback_quality audit policy.
func (r *SearchLogRepository) CountNegativeSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM search_feedback
		 WHERE rating = $1 AND created_at >= $2`,
		domain.FeedbackRatingNegative, since,
	).Scan(&count)
	return count, err
}

// CountSearchesSince counts searches executed on or after the cutoff.
func (r *SearchLogRepository) CountSearchesSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM search_logs WHERE created_at >= $1`,
		since,
	).Scan(&count)
	return count, err
}
