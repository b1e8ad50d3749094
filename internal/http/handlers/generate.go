package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"postpilot/internal/domain"
	"postpilot/internal/middleware"
)

type generateRequest struct {
	Kind        domain.MediaType `json:"kind"`
	Prompt      string           `json:"prompt"`
	Style       string           `json:"style"`
	AspectRatio string           `json:"aspect_ratio"`
	DurationSec int              `json:"duration_sec"`
	Locale      string           `json:"locale"`
}

type jobAcceptedResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Generate enqueues a content generation job and returns immediately. The
// worker picks it up; clients poll the job resource for the result.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	in := domain.GenerateInput{
		Prompt:      req.Prompt,
		MediaType:   req.Kind,
		Style:       req.Style,
		AspectRatio: req.AspectRatio,
		DurationSec: req.DurationSec,
		Locale:      req.Locale,
	}
	if in.Locale == "" {
		in.Locale = middleware.LocaleFromContext(r.Context())
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		a.respondError(w, r, err)
		return
	}

	job := &domain.Job{
		ID:        uuid.NewString(),
		Kind:      domain.JobKindGeneration,
		Status:    domain.JobStatusPending,
		InputJSON: domain.MustMarshal(in),
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.respondError(w, r, err)
		return
	}

	a.Logger.Info().
		Str("job_id", job.ID).
		Str("kind", string(in.MediaType)).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("handler: generation enqueued")
	a.json(w, http.StatusAccepted, jobAcceptedResponse{JobID: job.ID, Status: string(job.Status)})
}
