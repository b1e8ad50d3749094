package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"postpilot/internal/domain"
)

type scheduleRequest struct {
	FireAt   time.Time `json:"fire_at"`
	IGUserID string    `json:"ig_user_id"`
	Caption  string    `json:"caption"`
}

type scheduleResponse struct {
	ScheduleID string    `json:"schedule_id"`
	JobID      string    `json:"job_id"`
	FireAt     time.Time `json:"fire_at"`
	Status     string    `json:"status"`
}

type publishRequest struct {
	IGUserID string `json:"ig_user_id"`
	Caption  string `json:"caption"`
}

// ScheduleJob records a future publish of a completed generation job's media.
func (a *App) ScheduleJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.FireAt.IsZero() {
		a.error(w, http.StatusBadRequest, "bad_request", "fire_at is required")
		return
	}

	in, err := a.buildPublishInput(r.Context(), jobID, req.IGUserID, req.Caption)
	if err != nil {
		a.respondPublishBuildError(w, r, err)
		return
	}

	job, sched, err := a.Scheduler.Schedule(r.Context(), *in, req.FireAt)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, scheduleResponse{
		ScheduleID: sched.ID,
		JobID:      job.ID,
		FireAt:     sched.FireAt,
		Status:     string(sched.Status),
	})
}

// CancelSchedule withdraws a pending schedule entry.
func (a *App) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "id")
	if err := a.Scheduler.Cancel(r.Context(), scheduleID); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"schedule_id": scheduleID, "status": "cancelled"})
}

// PublishJob publishes a completed generation job's media right away. The
// attempt runs in the background; the response carries the publish job to
// poll.
func (a *App) PublishJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	var req publishRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
	}

	in, err := a.buildPublishInput(r.Context(), jobID, req.IGUserID, req.Caption)
	if err != nil {
		a.respondPublishBuildError(w, r, err)
		return
	}

	job, err := a.Scheduler.Dispatch(r.Context(), *in)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, jobAcceptedResponse{JobID: job.ID, Status: string(job.Status)})
}

var errNoPublishableMedia = errors.New("job has no publishable media")

// buildPublishInput derives the publish parameters from a completed
// generation job: its stored media, its generated caption and hashtags, and
// the target account. An explicit caption overrides the generated one.
func (a *App) buildPublishInput(ctx context.Context, jobID, igUserID, captionOverride string) (*domain.PublishInput, error) {
	job, err := a.Jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusCompleted {
		return nil, fmt.Errorf("%w: job %s is %s, want completed", domain.ErrInvalidTransition, job.ID, job.Status)
	}
	if !job.HasResult() {
		return nil, errNoPublishableMedia
	}

	var result domain.GenerationResult
	if err := json.Unmarshal(job.ResultJSON, &result); err != nil {
		return nil, fmt.Errorf("decode job result: %w", err)
	}
	if result.Media == nil || result.Media.URL == "" {
		return nil, errNoPublishableMedia
	}

	mediaType := domain.MediaTypeImage
	if strings.HasPrefix(result.Media.MIME, "video/") {
		mediaType = domain.MediaTypeVideo
	}

	mediaURL := result.Media.URL
	if strings.HasPrefix(mediaURL, "/") {
		mediaURL = strings.TrimRight(a.PublicBaseURL, "/") + mediaURL
	}

	caption := captionOverride
	var hashtags []string
	if result.Content != nil {
		if caption == "" {
			caption = result.Content.PrimaryCaption()
		}
		hashtags = result.Content.Hashtags
	}

	if igUserID == "" {
		token, err := a.Tokens.Latest(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: no Instagram account connected", domain.ErrAuthExpired)
			}
			return nil, err
		}
		igUserID = token.IGUserID
	}

	return &domain.PublishInput{
		SourceJobID: job.ID,
		IGUserID:    igUserID,
		MediaType:   mediaType,
		MediaURL:    mediaURL,
		Caption:     caption,
		Hashtags:    hashtags,
	}, nil
}

func (a *App) respondPublishBuildError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errNoPublishableMedia) {
		a.error(w, http.StatusUnprocessableEntity, "no_media", err.Error())
		return
	}
	a.respondError(w, r, err)
}
