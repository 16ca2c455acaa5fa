package videojob

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genstudio/internal/domain"
	"genstudio/internal/storage"
)

type fakeService struct {
	mu          sync.Mutex
	submitOp    *domain.Operation
	submitErr   error
	polls       []pollResult
	fetchData   []byte
	fetchMIME   string
	fetchErr    error
	submits     int
	pollCalls   int
	fetchedURIs []string
	lastAspect  domain.AspectRatio
}

type pollResult struct {
	op  *domain.Operation
	err error
}

func (f *fakeService) SubmitVideo(_ context.Context, _ domain.Credential, _ string, _ domain.ReferenceImage, aspect domain.AspectRatio) (*domain.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	f.lastAspect = aspect
	return f.submitOp, f.submitErr
}

func (f *fakeService) PollVideo(_ context.Context, _ domain.Credential, _ *domain.Operation) (*domain.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollCalls >= len(f.polls) {
		return nil, errors.New("unexpected poll")
	}
	res := f.polls[f.pollCalls]
	f.pollCalls++
	return res.op, res.err
}

func (f *fakeService) FetchBytes(_ context.Context, _ domain.Credential, uri string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchedURIs = append(f.fetchedURIs, uri)
	return f.fetchData, f.fetchMIME, f.fetchErr
}

type fakeSleeper struct {
	durations []time.Duration
	err       error
}

func (s *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	return s.err
}

type recordingObserver struct{ errs []error }

func (r *recordingObserver) Observe(err error) { r.errs = append(r.errs, err) }

var (
	testCred = domain.NewCredential("test-key")
	testRef  = &domain.ReferenceImage{Data: []byte("png"), MIMEType: "image/png"}
)

func videoRequest() domain.GenerationRequest {
	return domain.GenerationRequest{Kind: domain.RequestVideo, Prompt: "a drone shot over rice fields", ReferenceImage: testRef}
}

func newTestOrchestrator(svc *fakeService, sleeper *fakeSleeper, opts Options) (*Orchestrator, *storage.MemoryStore) {
	blobs := storage.NewMemoryStore(time.Minute)
	opts.Sleeper = sleeper
	opts.Logger = zerolog.Nop()
	return New(svc, blobs, opts), blobs
}

func collect(job *Job) []Update {
	var updates []Update
	for u := range job.Updates() {
		updates = append(updates, u)
	}
	return updates
}

func TestJobThreePendingPollsThenSuccess(t *testing.T) {
	svc := &fakeService{
		submitOp: pending(),
		polls: []pollResult{
			{op: pending()},
			{op: pending()},
			{op: finished("https://files/video-1")},
		},
		fetchData: []byte("mp4-bytes"),
		fetchMIME: "video/mp4",
	}
	sleeper := &fakeSleeper{}
	orch, blobs := newTestOrchestrator(svc, sleeper, Options{})

	job, err := orch.Start(context.Background(), testCred, videoRequest())
	require.NoError(t, err)

	updates := collect(job)
	require.Len(t, updates, 5)
	assert.Equal(t, []time.Duration{DefaultPollInterval, DefaultPollInterval, DefaultPollInterval}, sleeper.durations)

	progress := updates[:4]
	assert.Equal(t, Update{Stage: StageStarting, Message: StartMessage}, progress[0])
	for i, u := range progress[1:] {
		assert.Equal(t, StagePolling, u.Stage)
		assert.Equal(t, PollMessages[i], u.Message)
		assert.Equal(t, i+1, u.Poll)
	}
	assert.Equal(t, StageFinalizing, updates[4].Stage)
	assert.Equal(t, FinalizeMessage, updates[4].Message)

	result, err := job.Result()
	require.NoError(t, err)
	blob, err := blobs.Resolve(context.Background(), result.ResourceLocator)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4-bytes"), blob.Data)
	assert.Equal(t, "video/mp4", result.MIMEType)
	assert.Equal(t, []string{"https://files/video-1"}, svc.fetchedURIs)
	assert.Equal(t, domain.AspectLandscape, svc.lastAspect, "video defaults to 16:9")
}

func TestJobInvalidCredentialDuringPolling(t *testing.T) {
	svc := &fakeService{
		submitOp: pending(),
		polls: []pollResult{
			{op: pending()},
			{err: fmt.Errorf("%w: Requested entity was not found.", domain.ErrEntityNotFound)},
		},
	}
	observer := &recordingObserver{}
	orch, _ := newTestOrchestrator(svc, &fakeSleeper{}, Options{Observer: observer})

	job, err := orch.Start(context.Background(), testCred, videoRequest())
	require.NoError(t, err)
	_, err = job.Wait()

	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	assert.Equal(t, domain.JobStateFailed, job.Snapshot().State)
	require.Len(t, observer.errs, 1)
	assert.ErrorIs(t, observer.errs[0], domain.ErrInvalidCredential)
	assert.Empty(t, svc.fetchedURIs)
}

func TestJobDoneWithoutVideos(t *testing.T) {
	svc := &fakeService{submitOp: pending(), polls: []pollResult{{op: finished()}}}
	orch, _ := newTestOrchestrator(svc, &fakeSleeper{}, Options{})

	job, err := orch.Start(context.Background(), testCred, videoRequest())
	require.NoError(t, err)
	updates := collect(job)

	_, err = job.Result()
	assert.ErrorIs(t, err, domain.ErrNoOutput)
	for _, u := range updates {
		assert.NotEqual(t, StageFinalizing, u.Stage)
	}
}

func TestJobDownloadFailure(t *testing.T) {
	svc := &fakeService{submitOp: finished("https://files/v"), fetchErr: statusErr{text: "Not Found"}}
	sleeper := &fakeSleeper{}
	orch, _ := newTestOrchestrator(svc, sleeper, Options{})

	job, err := orch.Start(context.Background(), testCred, videoRequest())
	require.NoError(t, err)
	_, err = job.Wait()

	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Equal(t, "Failed to fetch video file: Not Found", err.Error())
	assert.Empty(t, sleeper.durations, "an operation done on submit is never polled")
}

func TestStartRejectsInvalidRequestsWithoutNetwork(t *testing.T) {
	svc := &fakeService{submitOp: pending()}
	orch, _ := newTestOrchestrator(svc, &fakeSleeper{}, Options{})
	ctx := context.Background()

	tests := []struct {
		name string
		cred domain.Credential
		req  domain.GenerationRequest
		want error
	}{
		{name: "blank prompt", cred: testCred, req: domain.GenerationRequest{Kind: domain.RequestVideo, Prompt: "  ", ReferenceImage: testRef}, want: domain.ErrValidation},
		{name: "missing image", cred: testCred, req: domain.GenerationRequest{Kind: domain.RequestVideo, Prompt: "pan"}, want: domain.ErrValidation},
		{name: "bad aspect", cred: testCred, req: domain.GenerationRequest{Kind: domain.RequestVideo, Prompt: "pan", ReferenceImage: testRef, AspectRatio: "1:1"}, want: domain.ErrValidation},
		{name: "image kind", cred: testCred, req: domain.GenerationRequest{Kind: domain.RequestImage, Prompt: "pan"}, want: domain.ErrValidation},
		{name: "no credential", cred: domain.Credential{}, req: videoRequest(), want: domain.ErrMissingCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := orch.Start(ctx, tt.cred, tt.req)
			assert.Nil(t, job)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, svc.submits)
}

func TestUpdatesAreNotRestartable(t *testing.T) {
	svc := &fakeService{submitOp: finished("https://files/v"), fetchData: []byte("v")}
	orch, _ := newTestOrchestrator(svc, &fakeSleeper{}, Options{})

	job, err := orch.Start(context.Background(), testCred, videoRequest())
	require.NoError(t, err)

	assert.Len(t, collect(job), 2)
	assert.Empty(t, collect(job))
	assert.Equal(t, 1, svc.submits)
}

func TestUpdatesAreLazy(t *testing.T) {
	svc := &fakeService{submitOp: pending()}
	orch, _ := newTestOrchestrator(svc, &fakeSleeper{}, Options{})

	job, err := orch.Start(context.Background(), testCred, videoRequest())
	require.NoError(t, err)
	assert.Zero(t, svc.submits, "nothing is sent before the stream is pulled")

	_, err = job.Result()
	assert.ErrorIs(t, err, domain.ErrUnknown)
}

func TestStoppingEarlyAbandonsJob(t *testing.T) {
	svc := &fakeService{submitOp: pending(), polls: []pollResult{{op: pending()}, {op: pending()}}}
	orch, _ := newTestOrchestrator(svc, &fakeSleeper{}, Options{})

	job, err := orch.Start(context.Background(), testCred, videoRequest())
	require.NoError(t, err)
	for u := range job.Updates() {
		if u.Stage == StagePolling {
			break
		}
	}

	_, err = job.Result()
	assert.ErrorIs(t, err, ErrAbandoned)
	assert.Equal(t, domain.ErrorUnknown, domain.KindOf(err))
	assert.Zero(t, svc.pollCalls)
}

func TestContextCancellationDuringWait(t *testing.T) {
	svc := &fakeService{submitOp: pending()}
	orch, _ := newTestOrchestrator(svc, &fakeSleeper{err: context.Canceled}, Options{})

	job, err := orch.Start(context.Background(), testCred, videoRequest())
	require.NoError(t, err)
	_, err = job.Wait()

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, domain.ErrUnknown)
}

func TestMaxPolls(t *testing.T) {
	svc := &fakeService{submitOp: pending(), polls: []pollResult{{op: pending()}, {op: pending()}, {op: pending()}}}
	sleeper := &fakeSleeper{}
	orch, _ := newTestOrchestrator(svc, sleeper, Options{MaxPolls: 2, Interval: time.Second})

	job, err := orch.Start(context.Background(), testCred, videoRequest())
	require.NoError(t, err)
	_, err = job.Wait()

	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.ErrorIs(t, err, ErrPollLimit)
	assert.Equal(t, 2, svc.pollCalls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, sleeper.durations)
}

func TestIdenticalRequestsSubmitTwice(t *testing.T) {
	svc := &fakeService{submitOp: finished("https://files/v"), fetchData: []byte("v")}
	orch, _ := newTestOrchestrator(svc, &fakeSleeper{}, Options{})
	ctx := context.Background()

	first, err := orch.Start(ctx, testCred, videoRequest())
	require.NoError(t, err)
	second, err := orch.Start(ctx, testCred, videoRequest())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())

	r1, err := first.Wait()
	require.NoError(t, err)
	r2, err := second.Wait()
	require.NoError(t, err)

	assert.Equal(t, 2, svc.submits)
	assert.NotEqual(t, r1.BlobID, r2.BlobID)
}

func TestContextSleeperHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ContextSleeper.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, ContextSleeper.Sleep(context.Background(), time.Millisecond))
}
