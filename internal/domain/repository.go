package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for job entities. Transition is the only
// mutation after Create: it must atomically verify the expected prior status
// so concurrent request-path and scheduler-path updates cannot race a job into
// an inconsistent state.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	// Transition moves a job from the expected status to the next one,
	// attaching the result payload (completed) or error message (failed).
	// It returns ErrInvalidTransition when the row is not in the expected
	// status, and ErrNotFound when no such job exists.
	Transition(ctx context.Context, jobID string, from, to JobStatus, resultJSON []byte, errMsg string) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	// List returns jobs ordered by creation time descending. An empty status
	// filter returns everything.
	List(ctx context.Context, status JobStatus, limit int) ([]Job, error)
	// ClaimPending atomically claims the oldest pending job of the given kind
	// and moves it to running. Returns ErrNotFound when nothing is pending.
	ClaimPending(ctx context.Context, kind JobKind) (*Job, error)
	// FailStuck fails jobs left running since before the cutoff, recording
	// the given error message. Returns the IDs it terminated.
	FailStuck(ctx context.Context, cutoff time.Time, errMsg string) ([]string, error)
}

// AssetRepository handles persistence for generated media artifacts.
type AssetRepository interface {
	Save(ctx context.Context, asset *MediaAsset) error
	ListByJobID(ctx context.Context, jobID string) ([]MediaAsset, error)
}

// TokenRepository stores long-lived Instagram tokens, one per account.
type TokenRepository interface {
	Upsert(ctx context.Context, token *OAuthToken) error
	GetByIGUserID(ctx context.Context, igUserID string) (*OAuthToken, error)
	// Latest returns the most recently refreshed token, for single-account
	// deployments where the caller does not name an account.
	Latest(ctx context.Context) (*OAuthToken, error)
}

// ScheduleRepository stores durable publish triggers.
type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	// Cancel flips a pending entry to cancelled. It has no effect on an entry
	// already fired and returns ErrNotFound for unknown IDs.
	Cancel(ctx context.Context, scheduleID string) error
	// ClaimDue atomically marks one due pending entry as fired and returns
	// it. Returns ErrNotFound when nothing is due.
	ClaimDue(ctx context.Context, now time.Time) (*Schedule, error)
	GetByID(ctx context.Context, scheduleID string) (*Schedule, error)
}
