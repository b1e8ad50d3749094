package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from JobStatus
		to   JobStatus
		want bool
	}{
		{name: "pending to running", from: JobStatusPending, to: JobStatusRunning, want: true},
		{name: "pending to completed skips running", from: JobStatusPending, to: JobStatusCompleted, want: false},
		{name: "pending to failed skips running", from: JobStatusPending, to: JobStatusFailed, want: false},
		{name: "running to completed", from: JobStatusRunning, to: JobStatusCompleted, want: true},
		{name: "running to failed", from: JobStatusRunning, to: JobStatusFailed, want: true},
		{name: "running back to pending", from: JobStatusRunning, to: JobStatusPending, want: false},
		{name: "completed is terminal", from: JobStatusCompleted, to: JobStatusFailed, want: false},
		{name: "completed cannot restart", from: JobStatusCompleted, to: JobStatusRunning, want: false},
		{name: "failed is terminal", from: JobStatusFailed, to: JobStatusRunning, want: false},
		{name: "failed cannot complete", from: JobStatusFailed, to: JobStatusCompleted, want: false},
		{name: "self transition rejected", from: JobStatusRunning, to: JobStatusRunning, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransition(tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	if JobStatusPending.Terminal() || JobStatusRunning.Terminal() {
		t.Fatal("pending and running must not be terminal")
	}
	if !JobStatusCompleted.Terminal() || !JobStatusFailed.Terminal() {
		t.Fatal("completed and failed must be terminal")
	}
}
