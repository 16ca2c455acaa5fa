package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genstudio/internal/domain"
)

func TestJobRepositoryLifecycle(t *testing.T) {
	repo := NewJobRepository(time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Job{ID: "job-1", Kind: domain.RequestVideo, State: domain.JobStateSubmitting}))
	assert.Error(t, repo.Create(ctx, &domain.Job{ID: "job-1"}), "duplicate ids are rejected")

	updated, err := repo.Update(ctx, "job-1", func(job *domain.Job) {
		job.State = domain.JobStateSucceeded
		job.Result = &domain.JobResult{BlobID: "b1"}
	})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStateSucceeded, updated.State)

	updated.Result.BlobID = "mutated"
	got, err := repo.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.Result.BlobID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestJobRepositoryMissing(t *testing.T) {
	repo := NewJobRepository(0)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.Update(ctx, "nope", func(*domain.Job) {})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Error(t, repo.Create(ctx, &domain.Job{}))
}
