package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JobRepository handles persistence of ingestion jobs.
type JobRepository struct {
	db dbtx
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: pool}
}

func NewJobRepositoryWithTx(tx pgx.Tx) *JobRepository {
	return &JobRepository{db: tx}
}

const jobColumns = `id, document_id, revision_id, job_type, status, progress, error_message, created_at, started_at, completed_at`

func (r *JobRepository) Create(ctx context.Context, job *domain.IngestionJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ingestion_jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.DocumentID, job.RevisionID, job.JobType, job.Status, job.Progress,
		nullableString(job.ErrorMessage), job.CreatedAt, job.StartedAt, job.CompletedAt,
	)
	return err
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.IngestionJob, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM ingestion_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *JobRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.IngestionJob, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+`
		 FROM ingestion_jobs
		 WHERE document_id = $1
		 ORDER BY created_at DESC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.IngestionJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ClaimPending atomically claims up to limit pending jobs and marks them
// processing. At most one job per document is claimed per round, and a
// document with a job already processing is skipped entirely, so ingestion
// runs for one document are serialized in submission order.
func (r *JobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.IngestionJob, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`WITH ranked AS (
			 SELECT id, document_id,
			        ROW_NUMBER() OVER (PARTITION BY document_id ORDER BY created_at ASC, id ASC) AS rn
			 FROM ingestion_jobs
			 WHERE status = $1
		 ),
		 pick AS (
			 SELECT r.id
			 FROM ranked r
			 WHERE r.rn = 1
			   AND NOT EXISTS (
				   SELECT 1 FROM ingestion_jobs p
				   WHERE p.document_id = r.document_id AND p.status = $2
			   )
			 LIMIT $3
		 )
		 UPDATE ingestion_jobs
		 SET status = $2, started_at = $4
		 WHERE id IN (SELECT id FROM pick) AND status = $1
		 RETURNING `+jobColumns,
		domain.IngestionJobStatusPending, domain.IngestionJobStatusProcessing, limit, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.IngestionJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateProgress advances a processing job's progress. Progress never
// decreases and terminal jobs are never touched.
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE ingestion_jobs
		 SET progress = $1
		 WHERE id = $2 AND status = $3 AND progress <= $1`,
		progress, id, domain.IngestionJobStatusProcessing,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return r.explainProgressFailure(ctx, id, progress)
	}
	return nil
}

func (r *JobRepository) explainProgressFailure(ctx context.Context, id string, progress int) error {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return domain.ErrJobTerminal
	}
	if job.Progress > progress {
		return domain.ErrProgressDecreased
	}
	return domain.ErrJobNotFound
}

// Complete marks a processing job completed at progress 100.
func (r *JobRepository) Complete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE ingestion_jobs
		 SET status = $1, progress = 100, completed_at = $2
		 WHERE id = $3 AND status = $4`,
		domain.IngestionJobStatusCompleted, time.Now().UTC(), id, domain.IngestionJobStatusProcessing,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrJobTerminal
	}
	return nil
}

// Fail marks a non-terminal job failed with the captured error message.
func (r *JobRepository) Fail(ctx context.Context, id string, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE ingestion_jobs
		 SET status = $1, error_message = $2, completed_at = $3
		 WHERE id = $4 AND status IN ($5, $6)`,
		domain.IngestionJobStatusFailed, errMsg, time.Now().UTC(), id,
		domain.IngestionJobStatusPending, domain.IngestionJobStatusProcessing,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrJobTerminal
	}
	return nil
}

// CountByStatus returns job counts grouped by status.
func (r *JobRepository) CountByStatus(ctx context.Context) (map[domain.IngestionJobStatus]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, COUNT(*) FROM ingestion_jobs GROUP BY status`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.IngestionJobStatus]int)
	for rows.Next() {
		var status domain.IngestionJobStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanJob(row pgx.Row) (*domain.IngestionJob, error) {
	var job domain.IngestionJob
	var errMsg pgtype.Text
	err := row.Scan(&job.ID, &job.DocumentID, &job.RevisionID, &job.JobType, &job.Status,
		&job.Progress, &errMsg, &job.CreatedAt, &job.StartedAt, &job.CompletedAt)
	if err != nil {
		return nil, err
	}
	if errMsg.Valid {
		job.ErrorMessage = errMsg.String
	}
	return &job, nil
}
