package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"postpilot/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, kind, status, input_json, result_json, error_message)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.Kind,
		job.Status,
		job.InputJSON,
		nullableBytes(job.ResultJSON),
		job.ErrorMessage,
	)
	return err
}

// Transition conditionally moves a job between statuses. The WHERE clause on
// the expected prior status is what makes concurrent updates safe: whichever
// caller loses the race affects zero rows and gets ErrInvalidTransition.
func (r *JobRepositoryPG) Transition(ctx context.Context, jobID string, from, to domain.JobStatus, resultJSON []byte, errMsg string) error {
	if !from.CanTransition(to) {
		return domain.ErrInvalidTransition
	}
	query := `
UPDATE jobs
SET status = $3,
    result_json = $4,
    error_message = $5,
    updated_at = NOW()
WHERE id = $1 AND status = $2;
`
	tag, err := r.pool.Exec(ctx, query, jobID, from, to, nullableBytes(resultJSON), errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, jobID); errors.Is(getErr, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT id, kind, status, input_json, result_json, error_message, created_at, updated_at
FROM jobs
WHERE id = $1;
`
	return scanJob(r.pool.QueryRow(ctx, query, jobID))
}

// List returns jobs newest first, optionally filtered by status.
func (r *JobRepositoryPG) List(ctx context.Context, status domain.JobStatus, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT id, kind, status, input_json, result_json, error_message, created_at, updated_at
FROM jobs
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// ClaimPending claims the oldest pending job of the given kind and moves it to
// running in one statement, so concurrent workers never share a claim.
func (r *JobRepositoryPG) ClaimPending(ctx context.Context, kind domain.JobKind) (*domain.Job, error) {
	query := `
WITH next_job AS (
    SELECT id
    FROM jobs
    WHERE status = 'pending' AND kind = $1
    ORDER BY created_at ASC
    FOR UPDATE SKIP LOCKED
    LIMIT 1
),
claimed AS (
    UPDATE jobs
    SET status = 'running', updated_at = NOW()
    WHERE id IN (SELECT id FROM next_job)
    RETURNING id, kind, status, input_json, result_json, error_message, created_at, updated_at
)
SELECT * FROM claimed;
`
	return scanJob(r.pool.QueryRow(ctx, query, kind))
}

// FailStuck terminates jobs left running since before the cutoff.
func (r *JobRepositoryPG) FailStuck(ctx context.Context, cutoff time.Time, errMsg string) ([]string, error) {
	query := `
UPDATE jobs
SET status = 'failed', error_message = $2, updated_at = NOW()
WHERE status = 'running' AND updated_at < $1
RETURNING id;
`
	rows, err := r.pool.Query(ctx, query, cutoff, errMsg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.Kind,
		&job.Status,
		&job.InputJSON,
		&job.ResultJSON,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
