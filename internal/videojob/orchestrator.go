package videojob

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"genstudio/internal/domain"
	"genstudio/internal/storage"
)

// DefaultPollInterval is the wait between two status checks.
const DefaultPollInterval = 10 * time.Second

const defaultVideoMIME = "video/mp4"

// ErrAbandoned is wrapped by the failure of a job whose caller stopped
// consuming progress before it finished.
var ErrAbandoned = errors.New("videojob: abandoned before completion")

// Service is the remote side of a video job.
type Service interface {
	SubmitVideo(ctx context.Context, cred domain.Credential, prompt string, image domain.ReferenceImage, aspect domain.AspectRatio) (*domain.Operation, error)
	PollVideo(ctx context.Context, cred domain.Credential, op *domain.Operation) (*domain.Operation, error)
	FetchBytes(ctx context.Context, cred domain.Credential, uri string) ([]byte, string, error)
}

// BlobStore holds downloaded media.
type BlobStore interface {
	Put(ctx context.Context, data []byte, mimeType string) (storage.Blob, error)
}

// Sleeper suspends the job between polls.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// ContextSleeper waits on a timer and returns early when ctx is done.
var ContextSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
})

// Observer is told about every terminal failure. The credential gate uses it
// to reset itself after an invalid key.
type Observer interface {
	Observe(err error)
}

// Metrics receives job telemetry.
type Metrics interface {
	ObservePoll()
	ObserveJob(state domain.JobState, kind domain.ErrorKind, polls int, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObservePoll() {}

func (noopMetrics) ObserveJob(domain.JobState, domain.ErrorKind, int, time.Duration) {}

// Options tunes an Orchestrator. Zero values select the defaults.
type Options struct {
	Interval time.Duration
	// MaxPolls caps status checks; 0 polls until the remote side finishes.
	MaxPolls int
	Sleeper  Sleeper
	Observer Observer
	Metrics  Metrics
	Logger   zerolog.Logger
}

// Orchestrator runs long-running video jobs. It holds no per-job state and
// can start any number of independent jobs.
type Orchestrator struct {
	service  Service
	blobs    BlobStore
	interval time.Duration
	maxPolls int
	sleeper  Sleeper
	observer Observer
	metrics  Metrics
	logger   zerolog.Logger
}

func New(service Service, blobs BlobStore, opts Options) *Orchestrator {
	o := &Orchestrator{
		service:  service,
		blobs:    blobs,
		interval: opts.Interval,
		maxPolls: opts.MaxPolls,
		sleeper:  opts.Sleeper,
		observer: opts.Observer,
		metrics:  opts.Metrics,
		logger:   opts.Logger.With().Str("component", "videojob").Logger(),
	}
	if o.interval <= 0 {
		o.interval = DefaultPollInterval
	}
	if o.maxPolls < 0 {
		o.maxPolls = 0
	}
	if o.sleeper == nil {
		o.sleeper = ContextSleeper
	}
	if o.metrics == nil {
		o.metrics = noopMetrics{}
	}
	return o
}

// Start validates req and prepares a job. Nothing is sent to the remote
// service until the caller ranges over Job.Updates or calls Job.Wait.
func (o *Orchestrator) Start(ctx context.Context, cred domain.Credential, req domain.GenerationRequest) (*Job, error) {
	if req.Kind == "" {
		req.Kind = domain.RequestVideo
	}
	if req.Kind != domain.RequestVideo {
		return nil, domain.Validationf("unsupported request kind %q for a video job", req.Kind)
	}
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := cred.Require(); err != nil {
		return nil, err
	}
	return &Job{
		id:       uuid.NewString(),
		o:        o,
		ctx:      ctx,
		cred:     cred,
		req:      req,
		snapshot: Initial(),
	}, nil
}

// Job is a single video generation. Its progress stream can be consumed once.
type Job struct {
	id   string
	o    *Orchestrator
	ctx  context.Context
	cred domain.Credential
	req  domain.GenerationRequest

	started atomic.Bool

	mu       sync.Mutex
	snapshot Snapshot
}

// ID identifies the job in logs and registries.
func (j *Job) ID() string {
	return j.id
}

// Request returns the validated request the job was started with.
func (j *Job) Request() domain.GenerationRequest {
	return j.req
}

// Snapshot returns the current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshot
}

// Updates returns the lazy progress stream. The job advances only while the
// caller pulls from it; stopping early abandons the job. Ranging a second
// time yields nothing.
func (j *Job) Updates() iter.Seq[Update] {
	return func(yield func(Update) bool) {
		if !j.started.CompareAndSwap(false, true) {
			return
		}
		j.run(yield)
	}
}

// Wait drives the job to completion, discarding progress, and returns its
// outcome. It returns at once if the stream was already consumed.
func (j *Job) Wait() (domain.JobResult, error) {
	for range j.Updates() {
	}
	return j.Result()
}

// Result returns the final outcome. Before the job resolves it reports an
// error of kind unknown.
func (j *Job) Result() (domain.JobResult, error) {
	s := j.Snapshot()
	switch {
	case s.State == domain.JobStateFailed:
		return domain.JobResult{}, s.Err
	case s.Resolved():
		return *s.Result, nil
	default:
		return domain.JobResult{}, domain.NewJobError(domain.ErrorUnknown, "video job has not finished", nil)
	}
}

func (j *Job) apply(e Event) Snapshot {
	j.mu.Lock()
	prev := j.snapshot.State
	j.snapshot = Next(j.snapshot, e)
	s := j.snapshot
	j.mu.Unlock()

	if prev != s.State {
		j.o.logger.Debug().
			Str("job_id", j.id).
			Str("event", e.Kind.String()).
			Str("from", string(prev)).
			Str("state", string(s.State)).
			Int("poll", s.Polls).
			Msg("job transition")
	}
	return s
}

func (j *Job) run(yield func(Update) bool) {
	o := j.o
	ctx := j.ctx
	started := time.Now()
	defer func() { j.finish(started) }()

	// The first round trip can take several seconds; report before it.
	if !yield(Update{Stage: StageStarting, Message: StartMessage}) {
		j.apply(Event{Kind: EventAbandoned, Err: ErrAbandoned})
		return
	}

	op, err := o.service.SubmitVideo(ctx, j.cred, j.req.Prompt, *j.req.ReferenceImage, j.req.AspectRatio)
	var s Snapshot
	if err != nil {
		s = j.apply(Event{Kind: EventSubmitFailed, Err: err})
	} else {
		s = j.apply(Event{Kind: EventSubmitted, Operation: op})
	}

	for s.State == domain.JobStatePolling {
		if o.maxPolls > 0 && s.Polls >= o.maxPolls {
			s = j.apply(Event{Kind: EventPollLimitReached})
			break
		}
		if err := o.sleeper.Sleep(ctx, o.interval); err != nil {
			s = j.apply(Event{Kind: EventAbandoned, Err: err})
			break
		}
		if !yield(Update{Stage: StagePolling, Message: PollMessage(s.Polls), Poll: s.Polls + 1}) {
			s = j.apply(Event{Kind: EventAbandoned, Err: ErrAbandoned})
			break
		}
		o.metrics.ObservePoll()
		next, err := o.service.PollVideo(ctx, j.cred, s.Operation)
		if err != nil {
			s = j.apply(Event{Kind: EventPollFailed, Err: err})
		} else {
			s = j.apply(Event{Kind: EventPolled, Operation: next})
		}
	}

	if s.State != domain.JobStateSucceeded || s.Resolved() {
		return
	}
	if !yield(Update{Stage: StageFinalizing, Message: FinalizeMessage, Poll: s.Polls}) {
		j.apply(Event{Kind: EventAbandoned, Err: ErrAbandoned})
		return
	}
	j.apply(j.download(ctx, s.VideoURI))
}

func (j *Job) download(ctx context.Context, uri string) Event {
	data, mimeType, err := j.o.service.FetchBytes(ctx, j.cred, uri)
	if err != nil {
		return Event{Kind: EventDownloadFailed, Err: err}
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = defaultVideoMIME
	}
	blob, err := j.o.blobs.Put(ctx, data, mimeType)
	if err != nil {
		return Event{Kind: EventDownloadFailed, Err: err}
	}
	return Event{Kind: EventDownloaded, Result: domain.JobResult{
		ResourceLocator: blob.Locator(),
		BlobID:          blob.ID,
		MIMEType:        blob.MIMEType,
		Size:            len(blob.Data),
	}}
}

func (j *Job) finish(started time.Time) {
	s := j.Snapshot()
	var kind domain.ErrorKind
	if s.Err != nil {
		kind = s.Err.Kind
		if j.o.observer != nil {
			j.o.observer.Observe(s.Err)
		}
	}
	j.o.metrics.ObserveJob(s.State, kind, s.Polls, time.Since(started))

	event := j.o.logger.Info()
	if s.Err != nil {
		event = j.o.logger.Warn().Str("error_kind", string(kind)).Err(s.Err)
	}
	event.
		Str("job_id", j.id).
		Str("state", string(s.State)).
		Int("poll", s.Polls).
		Dur("elapsed", time.Since(started)).
		Msg("video job finished")
}
