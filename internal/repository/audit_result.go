package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditResultRepository handles persistence of audit results.
type AuditResultRepository struct {
	db dbtx
}

func NewAuditResultRepository(pool *pgxpool.Pool) *AuditResultRepository {
	return &AuditResultRepository{db: pool}
}

func (r *AuditResultRepository) Create(ctx context.Context, result *domain.AuditResult) error {
	details, err := json.Marshal(result.Details)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO audit_results
			(id, policy_id, status, summary, details, affected_documents, recommendations, resolved_at, resolved_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		result.ID, result.PolicyID, result.Status, result.Summary, details,
		result.AffectedDocuments, result.Recommendations,
		result.ResolvedAt, nullableString(result.ResolvedBy), result.CreatedAt,
	)
	return err
}

func (r *AuditResultRepository) GetByID(ctx context.Context, id string) (*domain.AuditResult, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, policy_id, status, summary, details, affected_documents, recommendations, resolved_at, resolved_by, created_at
		 FROM audit_results WHERE id = $1`,
		id,
	)
	result, err := scanAuditResult(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuditResultNotFound
		}
		return nil, err
	}
	return result, nil
}

// List returns results matching the optional filters, newest first.
func (r *AuditResultRepository) List(ctx context.Context, filters service.AuditResultFilters) ([]*domain.AuditResult, error) {
	query := `SELECT id, policy_id, status, summary, details, affected_documents, recommendations, resolved_at, resolved_by, created_at
		 FROM audit_results WHERE 1=1`
	args := []any{}

	if filters.PolicyID != "" {
		args = append(args, filters.PolicyID)
		query += ` AND policy_id = $` + strconv.Itoa(len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filters.From != nil {
		args = append(args, *filters.From)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		query += ` AND created_at <= $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY created_at DESC`
	limit := filters.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.AuditResult
	for rows.Next() {
		result, err := scanAuditResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// Resolve marks an unresolved result resolved. Resolving twice is rejected.
func (r *AuditResultRepository) Resolve(ctx context.Context, id, resolvedBy string, resolvedAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE audit_results
		 SET resolved_at = $1, resolved_by = $2
		 WHERE id = $3 AND resolved_at IS NULL`,
		resolvedAt, resolvedBy, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return domain.ErrResultResolved
	}
	return nil
}

func scanAuditResult(row pgx.Row) (*domain.AuditResult, error) {
	var result domain.AuditResult
	var details []byte
	var resolvedBy *string
	err := row.Scan(&result.ID, &result.PolicyID, &result.Status, &result.Summary, &details,
		&result.AffectedDocuments, &result.Recommendations, &result.ResolvedAt, &resolvedBy, &result.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &result.Details); err != nil {
			return nil, err
		}
	}
	if resolvedBy != nil {
		result.ResolvedBy = *resolvedBy
	}
	return &result, nil
}
