package domain

import "context"

// JobRepository keeps job records for as long as callers may ask about them.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	Update(ctx context.Context, jobID string, mutate func(*Job)) (*Job, error)
	GetByID(ctx context.Context, jobID string) (*Job, error)
}
