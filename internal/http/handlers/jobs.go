package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"postpilot/internal/domain"
)

const defaultListLimit = 50

type jobView struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Status       string          `json:"status"`
	Input        json.RawMessage `json:"input,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func newJobView(job *domain.Job) jobView {
	return jobView{
		ID:           job.ID,
		Kind:         string(job.Kind),
		Status:       string(job.Status),
		Input:        json.RawMessage(job.InputJSON),
		Result:       json.RawMessage(job.ResultJSON),
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}

// GetJob returns one job snapshot.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newJobView(job))
}

// ListJobs returns recent jobs, optionally filtered by status.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	status := domain.JobStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.JobStatusPending, domain.JobStatusRunning, domain.JobStatusCompleted, domain.JobStatusFailed:
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unknown status filter")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	jobs, err := a.Jobs.List(r.Context(), status, limit)
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	views := make([]jobView, 0, len(jobs))
	for i := range jobs {
		views = append(views, newJobView(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": views})
}
