package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"genstudio/internal/domain"
)

const jobCleanupInterval = 10 * time.Minute

// JobRepositoryMemory implements domain.JobRepository on an expiring
// in-process cache. Records disappear after ttl.
type JobRepositoryMemory struct {
	mu    sync.Mutex
	items *cache.Cache
}

// NewJobRepository creates a new in-memory job repository.
func NewJobRepository(ttl time.Duration) *JobRepositoryMemory {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JobRepositoryMemory{items: cache.New(ttl, jobCleanupInterval)}
}

// Create inserts a new job record.
func (r *JobRepositoryMemory) Create(ctx context.Context, job *domain.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job == nil || job.ID == "" {
		return errors.New("repo: job id is required")
	}
	now := time.Now().UTC()
	stored := *job
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	return r.items.Add(stored.ID, &stored, cache.DefaultExpiration)
}

// Update applies mutate to the stored record and returns a copy of the result.
func (r *JobRepositoryMemory) Update(ctx context.Context, jobID string, mutate func(*domain.Job)) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	value, ok := r.items.Get(jobID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := *value.(*domain.Job)
	mutate(&next)
	next.UpdatedAt = time.Now().UTC()
	r.items.SetDefault(jobID, &next)
	return cloneJob(&next), nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryMemory) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, ok := r.items.Get(jobID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneJob(value.(*domain.Job)), nil
}

func cloneJob(job *domain.Job) *domain.Job {
	out := *job
	if job.Result != nil {
		result := *job.Result
		out.Result = &result
	}
	return &out
}
