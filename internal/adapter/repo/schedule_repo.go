package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"postpilot/internal/domain"
)

// ScheduleRepositoryPG implements domain.ScheduleRepository on PostgreSQL.
type ScheduleRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository creates a new schedule repository backed by PostgreSQL.
func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepositoryPG {
	return &ScheduleRepositoryPG{pool: pool}
}

// Create inserts a pending schedule entry.
func (r *ScheduleRepositoryPG) Create(ctx context.Context, s *domain.Schedule) error {
	query := `
INSERT INTO schedules (id, job_id, fire_at, status)
VALUES ($1, $2, $3, $4);
`
	_, err := r.pool.Exec(ctx, query, s.ID, s.JobID, s.FireAt, s.Status)
	return err
}

// Cancel flips a pending entry to cancelled. An entry already fired (or
// already cancelled) is left alone without error; an unknown ID reports
// ErrNotFound.
func (r *ScheduleRepositoryPG) Cancel(ctx context.Context, scheduleID string) error {
	query := `
UPDATE schedules
SET status = 'cancelled', updated_at = NOW()
WHERE id = $1 AND status = 'pending';
`
	tag, err := r.pool.Exec(ctx, query, scheduleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, scheduleID); getErr != nil {
			return getErr
		}
	}
	return nil
}

// ClaimDue marks one due pending entry as fired and returns it. Claiming is a
// single conditional UPDATE, so an entry fires at most once even with several
// scheduler processes running.
func (r *ScheduleRepositoryPG) ClaimDue(ctx context.Context, now time.Time) (*domain.Schedule, error) {
	query := `
WITH due AS (
    SELECT id
    FROM schedules
    WHERE status = 'pending' AND fire_at <= $1
    ORDER BY fire_at ASC
    FOR UPDATE SKIP LOCKED
    LIMIT 1
),
claimed AS (
    UPDATE schedules
    SET status = 'fired', updated_at = NOW()
    WHERE id IN (SELECT id FROM due)
    RETURNING id, job_id, fire_at, status, created_at, updated_at
)
SELECT * FROM claimed;
`
	return scanSchedule(r.pool.QueryRow(ctx, query, now))
}

// GetByID fetches a schedule entry.
func (r *ScheduleRepositoryPG) GetByID(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	query := `
SELECT id, job_id, fire_at, status, created_at, updated_at
FROM schedules
WHERE id = $1;
`
	return scanSchedule(r.pool.QueryRow(ctx, query, scheduleID))
}

func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var s domain.Schedule
	if err := row.Scan(&s.ID, &s.JobID, &s.FireAt, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

var _ domain.ScheduleRepository = (*ScheduleRepositoryPG)(nil)
