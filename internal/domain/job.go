package domain

import "time"

// JobKind enumerates the request categories tracked as jobs.
type JobKind string

const (
	JobKindGeneration       JobKind = "generation"
	JobKindScheduledPublish JobKind = "scheduled_publish"
	JobKindImmediatePublish JobKind = "immediate_publish"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transition is permitted.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step. The ordering is one-directional: pending -> running -> completed|failed.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusRunning
	case JobStatusRunning:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// Job tracks one generation or publish request through its lifecycle. Rows are
// append-only history: retries create new jobs instead of rewriting old ones.
type Job struct {
	ID           string
	Kind         JobKind
	Status       JobStatus
	InputJSON    []byte
	ResultJSON   []byte
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasResult reports whether a completed result payload is attached.
func (j *Job) HasResult() bool {
	return len(j.ResultJSON) > 0
}
