// Package worker runs video jobs in the background and mirrors their
// progress into the job repository and the event hub.
package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"genstudio/internal/domain"
	"genstudio/internal/videojob"
)

const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

// Starter prepares video jobs.
type Starter interface {
	Start(ctx context.Context, cred domain.Credential, req domain.GenerationRequest) (*videojob.Job, error)
}

// Publisher delivers job events to subscribers keyed by job id.
type Publisher interface {
	Publish(topic, name string, payload any) error
	Close(topic, name string, payload any) error
}

// Tracker is told when a job starts running.
type Tracker interface {
	JobStarted()
}

// ProgressEvent is published for every progress update.
type ProgressEvent struct {
	JobID   string          `json:"job_id"`
	State   domain.JobState `json:"state"`
	Stage   videojob.Stage  `json:"stage"`
	Message string          `json:"message"`
	Poll    int             `json:"poll"`
}

// OutcomeEvent is the last event of a job.
type OutcomeEvent struct {
	JobID  string            `json:"job_id"`
	State  domain.JobState   `json:"state"`
	Polls  int               `json:"polls"`
	Result *domain.JobResult `json:"result,omitempty"`
	Error  *ErrorPayload     `json:"error,omitempty"`
}

type ErrorPayload struct {
	Code    domain.ErrorKind `json:"code"`
	Message string           `json:"message"`
}

type Runner struct {
	base    context.Context
	starter Starter
	jobs    domain.JobRepository
	events  Publisher
	tracker Tracker
	logger  zerolog.Logger

	wg sync.WaitGroup
}

// NewRunner creates a runner whose jobs live as long as base. Cancelling base
// abandons every running job.
func NewRunner(base context.Context, starter Starter, jobs domain.JobRepository, events Publisher, tracker Tracker, logger zerolog.Logger) *Runner {
	return &Runner{
		base:    base,
		starter: starter,
		jobs:    jobs,
		events:  events,
		tracker: tracker,
		logger:  logger.With().Str("component", "worker").Logger(),
	}
}

// Submit validates req, records a new job and starts it in the background.
// Validation and credential errors are returned before anything is recorded.
func (r *Runner) Submit(ctx context.Context, cred domain.Credential, req domain.GenerationRequest) (*domain.Job, error) {
	job, err := r.starter.Start(r.base, cred, req)
	if err != nil {
		return nil, err
	}
	validated := job.Request()
	record := &domain.Job{
		ID:          job.ID(),
		Kind:        validated.Kind,
		State:       domain.JobStateSubmitting,
		AspectRatio: validated.AspectRatio,
		LastMessage: videojob.StartMessage,
	}
	if err := r.jobs.Create(ctx, record); err != nil {
		return nil, err
	}
	if r.tracker != nil {
		r.tracker.JobStarted()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.drive(job)
	}()

	r.logger.Info().Str("job_id", record.ID).Str("aspect_ratio", string(record.AspectRatio)).Msg("video job submitted")
	return r.jobs.GetByID(ctx, record.ID)
}

// Wait blocks until every job started by Submit has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) drive(job *videojob.Job) {
	// Records outlive the request that created them; updates use a detached context.
	ctx := context.WithoutCancel(r.base)
	id := job.ID()

	for u := range job.Updates() {
		s := job.Snapshot()
		if _, err := r.jobs.Update(ctx, id, func(j *domain.Job) {
			j.State = s.State
			j.Polls = s.Polls
			j.LastMessage = u.Message
		}); err != nil {
			r.logger.Warn().Err(err).Str("job_id", id).Msg("failed to record job progress")
		}
		r.publish(id, EventProgress, ProgressEvent{JobID: id, State: s.State, Stage: u.Stage, Message: u.Message, Poll: u.Poll})
	}

	result, err := job.Result()
	s := job.Snapshot()
	outcome := OutcomeEvent{JobID: id, State: s.State, Polls: s.Polls}
	if err == nil {
		outcome.Result = &result
	} else {
		outcome.Error = &ErrorPayload{Code: domain.KindOf(err), Message: err.Error()}
	}

	if _, uerr := r.jobs.Update(ctx, id, func(j *domain.Job) {
		j.State = s.State
		j.Polls = s.Polls
		j.Result = outcome.Result
		if outcome.Error != nil {
			j.ErrorKind = outcome.Error.Code
			j.ErrorMessage = outcome.Error.Message
		}
	}); uerr != nil {
		r.logger.Warn().Err(uerr).Str("job_id", id).Msg("failed to record job outcome")
	}

	name := EventResult
	if outcome.Error != nil {
		name = EventError
	}
	if err := r.events.Close(id, name, outcome); err != nil {
		r.logger.Debug().Err(err).Str("job_id", id).Msg("job outcome not published")
	}
}

func (r *Runner) publish(id, name string, payload any) {
	if err := r.events.Publish(id, name, payload); err != nil {
		r.logger.Debug().Err(err).Str("job_id", id).Msg("job event not published")
	}
}
