package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"postpilot/internal/domain"
)

// MemoryJobStore is an in-memory domain.JobRepository with the same transition
// semantics as the PostgreSQL implementation. It backs tests and keeps the
// lifecycle contract verifiable without a database.
type MemoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*domain.Job)}
}

// Create inserts a new job record.
func (m *MemoryJobStore) Create(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	clone := *job
	m.jobs[job.ID] = &clone
	return nil
}

// Transition conditionally moves a job between statuses under the store lock,
// mirroring the conditional UPDATE used against PostgreSQL.
func (m *MemoryJobStore) Transition(ctx context.Context, jobID string, from, to domain.JobStatus, resultJSON []byte, errMsg string) error {
	if !from.CanTransition(to) {
		return domain.ErrInvalidTransition
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status != from {
		return domain.ErrInvalidTransition
	}
	job.Status = to
	job.ResultJSON = resultJSON
	job.ErrorMessage = errMsg
	job.UpdatedAt = time.Now()
	return nil
}

// GetByID fetches a job snapshot.
func (m *MemoryJobStore) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *job
	return &clone, nil
}

// List returns jobs newest first, optionally filtered by status.
func (m *MemoryJobStore) List(ctx context.Context, status domain.JobStatus, limit int) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var jobs []domain.Job
	for _, job := range m.jobs {
		if status != "" && job.Status != status {
			continue
		}
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// ClaimPending claims the oldest pending job of the given kind.
func (m *MemoryJobStore) ClaimPending(ctx context.Context, kind domain.JobKind) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *domain.Job
	for _, job := range m.jobs {
		if job.Status != domain.JobStatusPending || job.Kind != kind {
			continue
		}
		if oldest == nil || job.CreatedAt.Before(oldest.CreatedAt) {
			oldest = job
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	oldest.Status = domain.JobStatusRunning
	oldest.UpdatedAt = time.Now()
	clone := *oldest
	return &clone, nil
}

// FailStuck terminates jobs left running since before the cutoff.
func (m *MemoryJobStore) FailStuck(ctx context.Context, cutoff time.Time, errMsg string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, job := range m.jobs {
		if job.Status == domain.JobStatusRunning && job.UpdatedAt.Before(cutoff) {
			job.Status = domain.JobStatusFailed
			job.ErrorMessage = errMsg
			job.UpdatedAt = time.Now()
			ids = append(ids, job.ID)
		}
	}
	return ids, nil
}

// MemoryScheduleStore is an in-memory domain.ScheduleRepository.
type MemoryScheduleStore struct {
	mu      sync.Mutex
	entries map[string]*domain.Schedule
}

// NewMemoryScheduleStore creates an empty in-memory schedule store.
func NewMemoryScheduleStore() *MemoryScheduleStore {
	return &MemoryScheduleStore{entries: make(map[string]*domain.Schedule)}
}

// Create inserts a pending schedule entry.
func (m *MemoryScheduleStore) Create(ctx context.Context, s *domain.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	clone := *s
	m.entries[s.ID] = &clone
	return nil
}

// Cancel flips a pending entry to cancelled; fired entries are left alone.
func (m *MemoryScheduleStore) Cancel(ctx context.Context, scheduleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.entries[scheduleID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.Status == domain.ScheduleStatusPending {
		s.Status = domain.ScheduleStatusCancelled
		s.UpdatedAt = time.Now()
	}
	return nil
}

// ClaimDue marks the earliest due pending entry as fired and returns it.
func (m *MemoryScheduleStore) ClaimDue(ctx context.Context, now time.Time) (*domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due *domain.Schedule
	for _, s := range m.entries {
		if s.Status != domain.ScheduleStatusPending || s.FireAt.After(now) {
			continue
		}
		if due == nil || s.FireAt.Before(due.FireAt) {
			due = s
		}
	}
	if due == nil {
		return nil, domain.ErrNotFound
	}
	due.Status = domain.ScheduleStatusFired
	due.UpdatedAt = time.Now()
	clone := *due
	return &clone, nil
}

// GetByID fetches a schedule entry.
func (m *MemoryScheduleStore) GetByID(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.entries[scheduleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

// MemoryAssetStore is an in-memory domain.AssetRepository.
type MemoryAssetStore struct {
	mu     sync.Mutex
	assets []domain.MediaAsset
}

// NewMemoryAssetStore creates an empty in-memory asset store.
func NewMemoryAssetStore() *MemoryAssetStore {
	return &MemoryAssetStore{}
}

// Save appends a media asset record.
func (m *MemoryAssetStore) Save(ctx context.Context, asset *domain.MediaAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now()
	}
	m.assets = append(m.assets, *asset)
	return nil
}

// ListByJobID returns the assets produced by a job, oldest first.
func (m *MemoryAssetStore) ListByJobID(ctx context.Context, jobID string) ([]domain.MediaAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MediaAsset
	for _, a := range m.assets {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out, nil
}

// MemoryTokenStore is an in-memory domain.TokenRepository.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*domain.OAuthToken
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]*domain.OAuthToken)}
}

// Upsert stores or refreshes the token for an account.
func (m *MemoryTokenStore) Upsert(ctx context.Context, token *domain.OAuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if existing, ok := m.tokens[token.IGUserID]; ok {
		token.CreatedAt = existing.CreatedAt
	} else if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now
	clone := *token
	m.tokens[token.IGUserID] = &clone
	return nil
}

// GetByIGUserID fetches the token for one account.
func (m *MemoryTokenStore) GetByIGUserID(ctx context.Context, igUserID string) (*domain.OAuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[igUserID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

// Latest returns the most recently refreshed token.
func (m *MemoryTokenStore) Latest(ctx context.Context) (*domain.OAuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.OAuthToken
	for _, t := range m.tokens {
		if latest == nil || t.UpdatedAt.After(latest.UpdatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

var (
	_ domain.JobRepository      = (*MemoryJobStore)(nil)
	_ domain.ScheduleRepository = (*MemoryScheduleStore)(nil)
	_ domain.AssetRepository    = (*MemoryAssetStore)(nil)
	_ domain.TokenRepository    = (*MemoryTokenStore)(nil)
)
