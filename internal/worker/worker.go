package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"postpilot/internal/domain"
	"postpilot/internal/infra"
	"postpilot/internal/providers/caption"
	"postpilot/internal/providers/image"
	"postpilot/internal/providers/video"
	"postpilot/internal/storage"
)

// Options wires the generation worker's collaborators.
type Options struct {
	Jobs     domain.JobRepository
	Assets   domain.AssetRepository
	Captions caption.Generator
	Images   image.Generator
	Videos   video.Generator
	Store    *storage.FileStore
	Logger   *infra.Logger

	PublicBaseURL     string
	DefaultLocale     string
	Tick              time.Duration
	GenerationTimeout time.Duration
}

// Worker drains pending generation jobs: it claims the oldest pending job,
// runs the content and media adapters under a bounded deadline, persists any
// produced artifact, and moves the job to a terminal state.
type Worker struct {
	jobs     domain.JobRepository
	assets   domain.AssetRepository
	captions caption.Generator
	images   image.Generator
	videos   video.Generator
	store    *storage.FileStore
	logger   *infra.Logger

	publicBaseURL string
	defaultLocale string
	tick          time.Duration
	genTimeout    time.Duration
}

// New constructs a generation worker. Zero durations use safe defaults.
func New(opts Options) *Worker {
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	genTimeout := opts.GenerationTimeout
	if genTimeout <= 0 {
		genTimeout = 3 * time.Minute
	}
	defaultLocale := opts.DefaultLocale
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	return &Worker{
		jobs:          opts.Jobs,
		assets:        opts.Assets,
		captions:      opts.Captions,
		images:        opts.Images,
		videos:        opts.Videos,
		store:         opts.Store,
		logger:        opts.Logger,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		defaultLocale: defaultLocale,
		tick:          tick,
		genTimeout:    genTimeout,
	}
}

// Run polls for pending generation jobs until the context is cancelled. Each
// tick drains everything currently pending before sleeping again.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info().
		Dur("tick", w.tick).
		Dur("generation_timeout", w.genTimeout).
		Msg("worker: loop started")

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker: loop stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		job, err := w.jobs.ClaimPending(ctx, domain.JobKindGeneration)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				w.logger.Error().Err(err).Msg("worker: claim failed")
			}
			return
		}
		w.Process(ctx, job)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// Process runs one claimed generation job to a terminal state. The job must
// already be in running status.
func (w *Worker) Process(ctx context.Context, job *domain.Job) {
	logger := w.logger.With().Str("job_id", job.ID).Logger()

	var in domain.GenerateInput
	if err := json.Unmarshal(job.InputJSON, &in); err != nil {
		w.failJob(ctx, job.ID, fmt.Sprintf("malformed generation input: %v", err))
		return
	}
	in.Normalize()

	genCtx, cancel := context.WithTimeout(ctx, w.genTimeout)
	result, err := w.generate(genCtx, job.ID, in)
	cancel()
	if err != nil {
		logger.Error().
			Err(err).
			Str("media_type", string(in.MediaType)).
			Bool("transient", domain.Transient(err)).
			Msg("worker: generation failed")
		w.failJob(ctx, job.ID, err.Error())
		return
	}

	resultJSON := domain.MustMarshal(result)
	if err := w.jobs.Transition(ctx, job.ID, domain.JobStatusRunning, domain.JobStatusCompleted, resultJSON, ""); err != nil {
		logger.Error().Err(err).Msg("worker: could not complete job")
		return
	}
	logger.Info().Str("media_type", string(in.MediaType)).Msg("worker: generation completed")
}

// generate produces the content payload and, for visual kinds, the stored
// media artifact. The text adapter always runs: every post needs a caption.
func (w *Worker) generate(ctx context.Context, jobID string, in domain.GenerateInput) (*domain.GenerationResult, error) {
	locale := in.Locale
	if locale == "" {
		locale = w.defaultLocale
	}

	content, err := w.captions.Generate(ctx, caption.Request{
		Prompt:    in.Prompt,
		MediaType: in.MediaType,
		Locale:    locale,
		RequestID: jobID,
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	result := &domain.GenerationResult{Content: content}

	switch in.MediaType {
	case domain.MediaTypeText:
		return result, nil
	case domain.MediaTypeImage, domain.MediaTypeAll:
		res, err := w.images.Generate(ctx, image.Request{
			Prompt:      in.Prompt,
			Style:       in.Style,
			AspectRatio: in.AspectRatio,
			Locale:      locale,
			RequestID:   jobID,
		})
		if err != nil {
			return nil, fmt.Errorf("generate image: %w", err)
		}
		ref, err := w.storeAsset(ctx, &domain.MediaAsset{
			JobID:  jobID,
			Kind:   domain.AssetKindImage,
			MIME:   res.MIME,
			Width:  res.Width,
			Height: res.Height,
			Bytes:  int64(len(res.Data)),
		}, res.Data)
		if err != nil {
			return nil, err
		}
		result.Media = ref
	case domain.MediaTypeVideo:
		res, err := w.videos.Generate(ctx, video.Request{
			Prompt:      in.Prompt,
			Style:       in.Style,
			AspectRatio: in.AspectRatio,
			DurationSec: in.DurationSec,
			Locale:      locale,
			RequestID:   jobID,
		})
		if err != nil {
			return nil, fmt.Errorf("generate video: %w", err)
		}
		ref, err := w.storeAsset(ctx, &domain.MediaAsset{
			JobID:       jobID,
			Kind:        domain.AssetKindVideo,
			MIME:        res.MIME,
			DurationSec: res.DurationSec,
			Bytes:       int64(len(res.Data)),
		}, res.Data)
		if err != nil {
			return nil, err
		}
		result.Media = ref
	}
	return result, nil
}

// storeAsset writes the artifact bytes, records the asset row, and returns
// the reference embedded in the job result.
func (w *Worker) storeAsset(ctx context.Context, asset *domain.MediaAsset, data []byte) (*domain.MediaRef, error) {
	asset.ID = uuid.NewString()
	key := asset.ID + storage.ExtensionForMIME(asset.MIME)

	storedKey, err := w.store.Write(ctx, key, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	asset.StorageKey = storedKey

	if err := w.assets.Save(ctx, asset); err != nil {
		return nil, fmt.Errorf("save asset: %w", err)
	}

	return &domain.MediaRef{
		AssetID:     asset.ID,
		URL:         w.publicBaseURL + "/media/" + storedKey,
		MIME:        asset.MIME,
		Width:       asset.Width,
		Height:      asset.Height,
		DurationSec: asset.DurationSec,
	}, nil
}

func (w *Worker) failJob(ctx context.Context, jobID, errMsg string) {
	ctx = context.WithoutCancel(ctx)
	if err := w.jobs.Transition(ctx, jobID, domain.JobStatusRunning, domain.JobStatusFailed, nil, errMsg); err != nil {
		w.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: could not fail job")
	}
}
