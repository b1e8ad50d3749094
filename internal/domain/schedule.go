package domain

import "time"

// ScheduleStatus enumerates schedule entry states. An entry fires at most
// once: claiming it flips pending -> fired before any publish work starts.
type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "pending"
	ScheduleStatusFired     ScheduleStatus = "fired"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
)

// Schedule is a durable "run this publish at time T" entry.
type Schedule struct {
	ID        string
	JobID     string
	FireAt    time.Time
	Status    ScheduleStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
