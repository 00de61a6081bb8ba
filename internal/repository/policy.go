package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PolicyRepository handles persistence of audit policies.
type PolicyRepository struct {
	db dbtx
}

func NewPolicyRepository(pool *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{db: pool}
}

func (r *PolicyRepository) Create(ctx context.Context, p *domain.AuditPolicy) error {
	config, err := marshalConfig(p.Config)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO audit_policies (id, name, policy_type, schedule, config, is_active, last_run_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.PolicyType, nullableString(p.Schedule), config, p.IsActive, p.LastRunAt, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *PolicyRepository) GetByID(ctx context.Context, id string) (*domain.AuditPolicy, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, name, policy_type, schedule, config, is_active, last_run_at, created_at, updated_at
		 FROM audit_policies WHERE id = $1`,
		id,
	)
	p, err := scanPolicy(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPolicyNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PolicyRepository) List(ctx context.Context) ([]*domain.AuditPolicy, error) {
	return r.list(ctx, false)
}

func (r *PolicyRepository) ListActive(ctx context.Context) ([]*domain.AuditPolicy, error) {
	return r.list(ctx, true)
}

func (r *PolicyRepository) list(ctx context.Context, activeOnly bool) ([]*domain.AuditPolicy, error) {
	query := `SELECT id, name, policy_type, schedule, config, is_active, last_run_at, created_at, updated_at
		 FROM audit_policies`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []*domain.AuditPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

func (r *PolicyRepository) Update(ctx context.Context, p *domain.AuditPolicy) error {
	config, err := marshalConfig(p.Config)
	if err != nil {
		return err
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE audit_policies
		 SET name = $1, policy_type = $2, schedule = $3, config = $4, is_active = $5, updated_at = $6
		 WHERE id = $7`,
		p.Name, p.PolicyType, nullableString(p.Schedule), config, p.IsActive, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrPolicyNotFound
	}
	return nil
}

// UpdateLastRun records the evaluation time regardless of outcome.
func (r *PolicyRepository) UpdateLastRun(ctx context.Context, id string, ranAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE audit_policies SET last_run_at = $1 WHERE id = $2`,
		ranAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrPolicyNotFound
	}
	return nil
}

func scanPolicy(row pgx.Row) (*domain.AuditPolicy, error) {
	var p domain.AuditPolicy
	var schedule *string
	var config []byte
	err := row.Scan(&p.ID, &p.Name, &p.PolicyType, &schedule, &config, &p.IsActive, &p.LastRunAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if schedule != nil {
		p.Schedule = *schedule
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &p.Config); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func marshalConfig(config map[string]any) ([]byte, error) {
	if len(config) == 0 {
		return []byte(`{}`), nil
	}
	return json.Marshal(config)
}
