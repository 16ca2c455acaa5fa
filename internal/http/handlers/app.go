package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"genstudio/internal/domain"
	"genstudio/internal/storage"
)

// ImageGenerator produces single-shot images.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, cred domain.Credential, prompt string) (domain.JobResult, error)
	EditImage(ctx context.Context, cred domain.Credential, prompt string, image *domain.ReferenceImage) (domain.JobResult, error)
}

// VideoSubmitter starts background video jobs.
type VideoSubmitter interface {
	Submit(ctx context.Context, cred domain.Credential, req domain.GenerationRequest) (*domain.Job, error)
}

// CredentialGate decides whether billable calls may proceed.
type CredentialGate interface {
	Available() bool
	Check(ctx context.Context) bool
	Request(ctx context.Context) bool
	Credential(ctx context.Context) (domain.Credential, error)
	Observe(err error)
	Err() error
}

// KeySelector stores a key chosen by the local UI.
type KeySelector interface {
	Select(key string)
}

type BlobReader interface {
	Get(ctx context.Context, id string) (storage.Blob, error)
}

type EventStreamer interface {
	Stream(w http.ResponseWriter, r *http.Request, topic string) error
}

type GenerationRecorder interface {
	RecordGeneration(kind domain.RequestKind, err error)
}

// App carries handler dependencies. Keys and Metrics are optional.
type App struct {
	Images  ImageGenerator
	Videos  VideoSubmitter
	Jobs    domain.JobRepository
	Blobs   BlobReader
	Events  EventStreamer
	Gate    CredentialGate
	Keys    KeySelector
	Metrics GenerationRecorder
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) record(kind domain.RequestKind, err error) {
	if a.Metrics != nil {
		a.Metrics.RecordGeneration(kind, err)
	}
}

// credential resolves the selected key, answering the request itself when
// none is available.
func (a *App) credential(w http.ResponseWriter, r *http.Request) (domain.Credential, bool) {
	cred, err := a.Gate.Credential(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return domain.Credential{}, false
	}
	return cred, true
}
