package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"postpilot/internal/domain"
	"postpilot/internal/infra"
	"postpilot/internal/instagram"
)

// Publisher is the slice of the Instagram client the scheduler needs.
type Publisher interface {
	Publish(ctx context.Context, token *domain.OAuthToken, req instagram.PublishRequest) (*domain.PublishResult, error)
}

// Options wires the scheduler's collaborators and timing knobs.
type Options struct {
	Jobs      domain.JobRepository
	Schedules domain.ScheduleRepository
	Tokens    domain.TokenRepository
	Publisher Publisher
	Logger    *infra.Logger

	Tick           time.Duration
	StuckAfter     time.Duration
	PublishTimeout time.Duration
}

// Scheduler owns publish execution: it creates publish jobs, fires durable
// schedule entries when they come due, and sweeps jobs abandoned mid-run.
// Each publish is attempted exactly once; a failed attempt stays failed and
// the caller decides whether to submit a new job.
type Scheduler struct {
	jobs      domain.JobRepository
	schedules domain.ScheduleRepository
	tokens    domain.TokenRepository
	publisher Publisher
	logger    *infra.Logger

	tick           time.Duration
	stuckAfter     time.Duration
	publishTimeout time.Duration
	now            func() time.Time
}

// New constructs a scheduler. Zero durations fall back to safe defaults.
func New(opts Options) *Scheduler {
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	stuckAfter := opts.StuckAfter
	if stuckAfter <= 0 {
		stuckAfter = 15 * time.Minute
	}
	publishTimeout := opts.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = 2 * time.Minute
	}
	return &Scheduler{
		jobs:           opts.Jobs,
		schedules:      opts.Schedules,
		tokens:         opts.Tokens,
		publisher:      opts.Publisher,
		logger:         opts.Logger,
		tick:           tick,
		stuckAfter:     stuckAfter,
		publishTimeout: publishTimeout,
		now:            time.Now,
	}
}

// Schedule records a publish to run at fireAt. The trigger and its job are
// both durable rows, so a pending schedule survives restarts. A fire time in
// the past is rejected rather than fired immediately.
func (s *Scheduler) Schedule(ctx context.Context, in domain.PublishInput, fireAt time.Time) (*domain.Job, *domain.Schedule, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	if !fireAt.After(s.now()) {
		return nil, nil, fmt.Errorf("%w: fire_at must be in the future", domain.ErrInvalidInput)
	}
	if in.SourceJobID != "" {
		source, err := s.jobs.GetByID(ctx, in.SourceJobID)
		if err != nil {
			return nil, nil, fmt.Errorf("source job: %w", err)
		}
		if source.Status != domain.JobStatusCompleted {
			return nil, nil, fmt.Errorf("%w: source job %s is %s, want completed", domain.ErrInvalidInput, source.ID, source.Status)
		}
	}

	in.ScheduledAt = &fireAt
	job := &domain.Job{
		ID:        uuid.NewString(),
		Kind:      domain.JobKindScheduledPublish,
		Status:    domain.JobStatusPending,
		InputJSON: domain.MustMarshal(in),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("create publish job: %w", err)
	}

	sched := &domain.Schedule{
		ID:     uuid.NewString(),
		JobID:  job.ID,
		FireAt: fireAt.UTC(),
		Status: domain.ScheduleStatusPending,
	}
	if err := s.schedules.Create(ctx, sched); err != nil {
		return nil, nil, fmt.Errorf("create schedule: %w", err)
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("schedule_id", sched.ID).
		Time("fire_at", sched.FireAt).
		Msg("scheduler: publish scheduled")
	return job, sched, nil
}

// Cancel withdraws a pending schedule entry. An entry that already fired is
// past cancelling and the call is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, scheduleID string) error {
	if err := s.schedules.Cancel(ctx, scheduleID); err != nil {
		return err
	}
	s.logger.Info().Str("schedule_id", scheduleID).Msg("scheduler: schedule cancelled")
	return nil
}

// Dispatch publishes immediately. The attempt is tracked as a job like any
// scheduled publish; the returned job is already running and the caller polls
// it for the outcome.
func (s *Scheduler) Dispatch(ctx context.Context, in domain.PublishInput) (*domain.Job, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	job := &domain.Job{
		ID:        uuid.NewString(),
		Kind:      domain.JobKindImmediatePublish,
		Status:    domain.JobStatusPending,
		InputJSON: domain.MustMarshal(in),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create publish job: %w", err)
	}
	if err := s.jobs.Transition(ctx, job.ID, domain.JobStatusPending, domain.JobStatusRunning, nil, ""); err != nil {
		return nil, fmt.Errorf("start publish job: %w", err)
	}
	job.Status = domain.JobStatusRunning

	// Detach from the request so the attempt outlives the HTTP exchange.
	go s.executePublish(context.WithoutCancel(ctx), job.ID, in)
	return job, nil
}

// Run drives the fire loop until the context is cancelled. Each tick claims
// due schedule entries one at a time and sweeps stuck jobs.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().
		Dur("tick", s.tick).
		Dur("stuck_after", s.stuckAfter).
		Msg("scheduler: loop started")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler: loop stopped")
			return
		case <-ticker.C:
			s.fireDue(ctx)
			s.sweepStuck(ctx)
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context) {
	for {
		sched, err := s.schedules.ClaimDue(ctx, s.now())
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.logger.Error().Err(err).Msg("scheduler: claim due failed")
			}
			return
		}
		s.fireOne(ctx, sched)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// fireOne runs one claimed schedule entry to a terminal job state. The entry
// is already marked fired, so a crash between claim and publish loses the
// attempt rather than duplicating the post; the stuck sweep then fails the
// orphaned job.
func (s *Scheduler) fireOne(ctx context.Context, sched *domain.Schedule) {
	logger := s.logger.With().
		Str("schedule_id", sched.ID).
		Str("job_id", sched.JobID).
		Logger()

	err := s.jobs.Transition(ctx, sched.JobID, domain.JobStatusPending, domain.JobStatusRunning, nil, "")
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: could not start fired job")
		return
	}

	job, err := s.jobs.GetByID(ctx, sched.JobID)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: fired job vanished")
		return
	}

	var in domain.PublishInput
	if err := json.Unmarshal(job.InputJSON, &in); err != nil {
		s.failJob(ctx, job.ID, fmt.Sprintf("malformed publish input: %v", err))
		return
	}

	logger.Info().Time("fire_at", sched.FireAt).Msg("scheduler: firing publish")
	s.executePublish(ctx, job.ID, in)
}

// executePublish performs the single publish attempt and records the terminal
// state on the job.
func (s *Scheduler) executePublish(ctx context.Context, jobID string, in domain.PublishInput) {
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	token, err := s.lookupToken(ctx, in.IGUserID)
	if err != nil {
		s.failJob(ctx, jobID, err.Error())
		return
	}

	result, err := s.publisher.Publish(ctx, token, instagram.PublishRequest{
		IGUserID:  in.IGUserID,
		MediaKind: in.MediaType,
		MediaURL:  in.MediaURL,
		Caption:   in.FullCaption(),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("job_id", jobID).
			Bool("transient", domain.Transient(err)).
			Msg("scheduler: publish failed")
		s.failJob(ctx, jobID, err.Error())
		return
	}

	resultJSON := domain.MustMarshal(result)
	if err := s.jobs.Transition(ctx, jobID, domain.JobStatusRunning, domain.JobStatusCompleted, resultJSON, ""); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("scheduler: could not complete job")
		return
	}
	s.logger.Info().
		Str("job_id", jobID).
		Str("post_id", result.PostID).
		Msg("scheduler: publish completed")
}

func (s *Scheduler) lookupToken(ctx context.Context, igUserID string) (*domain.OAuthToken, error) {
	var (
		token *domain.OAuthToken
		err   error
	)
	if igUserID != "" {
		token, err = s.tokens.GetByIGUserID(ctx, igUserID)
	} else {
		token, err = s.tokens.Latest(ctx)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no stored token for account %q", domain.ErrAuthExpired, igUserID)
		}
		return nil, fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func (s *Scheduler) failJob(ctx context.Context, jobID, errMsg string) {
	// The parent context may already be cancelled or past its deadline;
	// recording the failure still has to go through.
	ctx = context.WithoutCancel(ctx)
	if err := s.jobs.Transition(ctx, jobID, domain.JobStatusRunning, domain.JobStatusFailed, nil, errMsg); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("scheduler: could not fail job")
	}
}

func (s *Scheduler) sweepStuck(ctx context.Context) {
	cutoff := s.now().Add(-s.stuckAfter)
	ids, err := s.jobs.FailStuck(ctx, cutoff, "job exceeded running deadline")
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduler: stuck sweep failed")
		return
	}
	for _, id := range ids {
		s.logger.Warn().Str("job_id", id).Msg("scheduler: failed stuck job")
	}
}
