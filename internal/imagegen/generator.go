package imagegen

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"genstudio/internal/domain"
	"genstudio/internal/providers/genai"
	"genstudio/internal/storage"
)

const (
	NoImageMessage     = "No image was generated."
	NoEditImageMessage = "No image was generated in the response."
)

// Service is the remote side of single-shot generation.
type Service interface {
	GenerateImages(ctx context.Context, cred domain.Credential, prompt string) ([]genai.Image, error)
	EditImage(ctx context.Context, cred domain.Credential, prompt string, image domain.ReferenceImage) ([]genai.Image, error)
}

// BlobStore holds produced media for later retrieval.
type BlobStore interface {
	Put(ctx context.Context, data []byte, mimeType string) (storage.Blob, error)
}

// Generator runs one request per call and keeps no state between calls.
type Generator struct {
	service Service
	blobs   BlobStore
	logger  zerolog.Logger
}

func NewGenerator(service Service, blobs BlobStore, logger zerolog.Logger) *Generator {
	return &Generator{
		service: service,
		blobs:   blobs,
		logger:  logger.With().Str("component", "imagegen").Logger(),
	}
}

// GenerateImage produces a single square image for prompt.
func (g *Generator) GenerateImage(ctx context.Context, cred domain.Credential, prompt string) (domain.JobResult, error) {
	req := domain.GenerationRequest{Kind: domain.RequestImage, Prompt: prompt}
	if err := req.Validate(); err != nil {
		return domain.JobResult{}, err
	}
	if err := cred.Require(); err != nil {
		return domain.JobResult{}, err
	}
	req = req.WithDefaults()

	images, err := g.service.GenerateImages(ctx, cred, req.Prompt)
	if err != nil {
		return domain.JobResult{}, domain.ClassifyRemote(err)
	}
	if len(images) == 0 {
		return domain.JobResult{}, domain.NewJobError(domain.ErrorNoOutput, NoImageMessage, nil)
	}
	return g.store(ctx, req.Kind, images[0])
}

// EditImage applies prompt to image and returns the first image part produced.
func (g *Generator) EditImage(ctx context.Context, cred domain.Credential, prompt string, image *domain.ReferenceImage) (domain.JobResult, error) {
	req := domain.GenerationRequest{Kind: domain.RequestImageEdit, Prompt: prompt, ReferenceImage: image}
	if err := req.Validate(); err != nil {
		return domain.JobResult{}, err
	}
	if err := cred.Require(); err != nil {
		return domain.JobResult{}, err
	}
	req = req.WithDefaults()

	images, err := g.service.EditImage(ctx, cred, req.Prompt, *req.ReferenceImage)
	if err != nil {
		return domain.JobResult{}, domain.ClassifyRemote(err)
	}
	if len(images) == 0 {
		return domain.JobResult{}, domain.NewJobError(domain.ErrorNoOutput, NoEditImageMessage, nil)
	}
	return g.store(ctx, req.Kind, images[0])
}

func (g *Generator) store(ctx context.Context, kind domain.RequestKind, image genai.Image) (domain.JobResult, error) {
	blob, err := g.blobs.Put(ctx, image.Data, image.MIMEType)
	if err != nil {
		return domain.JobResult{}, fmt.Errorf("imagegen: store result: %w", err)
	}
	g.logger.Info().
		Str("kind", string(kind)).
		Str("blob_id", blob.ID).
		Int("bytes", len(blob.Data)).
		Msg("image generated")
	return domain.JobResult{
		ResourceLocator: blob.Locator(),
		BlobID:          blob.ID,
		MIMEType:        blob.MIMEType,
		Size:            len(blob.Data),
	}, nil
}
