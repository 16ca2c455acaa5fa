package genai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	sdk "google.golang.org/genai"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
)

const (
	DefaultImageModel      = "imagen-4.0-generate-001"
	DefaultEditModel       = "gemini-2.5-flash-image"
	DefaultVideoModel      = "veo-3.1-fast-generate-preview"
	DefaultVideoResolution = "720p"

	clientCacheTTL     = 30 * time.Minute
	clientCacheCleanup = time.Hour
)

// Options controls how the Gemini client is configured.
type Options struct {
	BaseURL         string
	ImageModel      string
	EditModel       string
	VideoModel      string
	VideoResolution string
	HTTPClient      *http.Client
	Logger          *infra.Logger
}

// Client is a facade over the Gemini SDK exposing the remote operations the
// generators depend on. SDK clients are built lazily per credential.
type Client struct {
	baseURL         string
	imageModel      string
	editModel       string
	videoModel      string
	videoResolution string
	httpClient      *http.Client
	logger          *infra.Logger
	sdkClients      *cache.Cache
	maxDownload     int64
}

// Image is one generated picture.
type Image struct {
	Data     []byte
	MIMEType string
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		baseURL:         strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		imageModel:      firstNonEmpty(opts.ImageModel, DefaultImageModel),
		editModel:       firstNonEmpty(opts.EditModel, DefaultEditModel),
		videoModel:      firstNonEmpty(opts.VideoModel, DefaultVideoModel),
		videoResolution: firstNonEmpty(opts.VideoResolution, DefaultVideoResolution),
		httpClient:      client,
		logger:          logger,
		sdkClients:      cache.New(clientCacheTTL, clientCacheCleanup),
		maxDownload:     maxDownloadBytes,
	}, nil
}

// Models returns the configured model identifiers (image, edit, video).
func (c *Client) Models() (string, string, string) {
	return c.imageModel, c.editModel, c.videoModel
}

// GenerateImages requests one square PNG for prompt.
func (c *Client) GenerateImages(ctx context.Context, cred domain.Credential, prompt string) ([]Image, error) {
	sdkClient, err := c.clientFor(ctx, cred)
	if err != nil {
		return nil, err
	}
	resp, err := sdkClient.Models.GenerateImages(ctx, c.imageModel, prompt, &sdk.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/png",
		AspectRatio:    "1:1",
	})
	if err != nil {
		return nil, tagError(fmt.Errorf("genai: generate images: %w", err))
	}

	var images []Image
	if resp != nil {
		for _, generated := range resp.GeneratedImages {
			if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
				continue
			}
			images = append(images, Image{
				Data:     generated.Image.ImageBytes,
				MIMEType: firstNonEmpty(generated.Image.MIMEType, "image/png"),
			})
		}
	}

	c.logger.Debug().
		Str("model", c.imageModel).
		Int("images", len(images)).
		Msg("genai: generated images")
	return images, nil
}

// EditImage sends prompt and image and returns the inline image parts of the
// first candidate.
func (c *Client) EditImage(ctx context.Context, cred domain.Credential, prompt string, image domain.ReferenceImage) ([]Image, error) {
	sdkClient, err := c.clientFor(ctx, cred)
	if err != nil {
		return nil, err
	}
	parts := []*sdk.Part{
		{InlineData: &sdk.Blob{MIMEType: image.MIMEType, Data: image.Data}},
		sdk.NewPartFromText(prompt),
	}
	contents := []*sdk.Content{sdk.NewContentFromParts(parts, sdk.RoleUser)}
	res, err := sdkClient.Models.GenerateContent(ctx, c.editModel, contents, &sdk.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return nil, tagError(fmt.Errorf("genai: edit image: %w", err))
	}

	images := inlineImages(res)
	c.logger.Debug().
		Str("model", c.editModel).
		Int("images", len(images)).
		Msg("genai: edited image")
	return images, nil
}

// SubmitVideo starts an image-conditioned video job and returns its handle.
func (c *Client) SubmitVideo(ctx context.Context, cred domain.Credential, prompt string, image domain.ReferenceImage, aspect domain.AspectRatio) (*domain.Operation, error) {
	sdkClient, err := c.clientFor(ctx, cred)
	if err != nil {
		return nil, err
	}
	op, err := sdkClient.Models.GenerateVideos(ctx, c.videoModel, prompt,
		&sdk.Image{ImageBytes: image.Data, MIMEType: image.MIMEType},
		&sdk.GenerateVideosConfig{
			NumberOfVideos: 1,
			Resolution:     c.videoResolution,
			AspectRatio:    string(aspect),
		})
	if err != nil {
		return nil, tagError(fmt.Errorf("genai: submit video: %w", err))
	}
	c.logger.Debug().
		Str("model", c.videoModel).
		Str("operation", op.Name).
		Msg("genai: video operation submitted")
	return toOperation(op), nil
}

// PollVideo re-fetches the status of a handle returned by SubmitVideo.
func (c *Client) PollVideo(ctx context.Context, cred domain.Credential, op *domain.Operation) (*domain.Operation, error) {
	native, ok := op.Native.(*sdk.GenerateVideosOperation)
	if !ok || native == nil {
		return nil, errors.New("genai: operation handle was not issued by this client")
	}
	sdkClient, err := c.clientFor(ctx, cred)
	if err != nil {
		return nil, err
	}
	next, err := sdkClient.Operations.GetVideosOperation(ctx, native, nil)
	if err != nil {
		return nil, tagError(fmt.Errorf("genai: poll video: %w", err))
	}
	return toOperation(next), nil
}

func (c *Client) clientFor(ctx context.Context, cred domain.Credential) (*sdk.Client, error) {
	if err := cred.Require(); err != nil {
		return nil, err
	}
	key := credentialKey(cred)
	if cached, ok := c.sdkClients.Get(key); ok {
		return cached.(*sdk.Client), nil
	}
	cfg := &sdk.ClientConfig{
		APIKey:     cred.APIKey,
		Backend:    sdk.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = sdk.HTTPOptions{BaseURL: c.baseURL + "/"}
	}
	sdkClient, err := sdk.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}
	c.sdkClients.SetDefault(key, sdkClient)
	return sdkClient, nil
}

func credentialKey(cred domain.Credential) string {
	sum := sha256.Sum256([]byte(cred.APIKey))
	return hex.EncodeToString(sum[:])
}

func inlineImages(res *sdk.GenerateContentResponse) []Image {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0] == nil || res.Candidates[0].Content == nil {
		return nil
	}
	var images []Image
	for _, part := range res.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		images = append(images, Image{
			Data:     part.InlineData.Data,
			MIMEType: firstNonEmpty(part.InlineData.MIMEType, "image/png"),
		})
	}
	return images
}

func toOperation(op *sdk.GenerateVideosOperation) *domain.Operation {
	if op == nil {
		return &domain.Operation{}
	}
	out := &domain.Operation{Name: op.Name, Done: op.Done, Native: op}
	if len(op.Error) > 0 {
		out.Err = operationError(op.Error)
	}
	if op.Response != nil {
		for _, generated := range op.Response.GeneratedVideos {
			if generated == nil || generated.Video == nil {
				continue
			}
			out.VideoURIs = append(out.VideoURIs, generated.Video.URI)
		}
	}
	return out
}

func operationError(raw map[string]any) error {
	message, _ := raw["message"].(string)
	if message == "" {
		message = "video operation failed"
	}
	code := 0
	switch v := raw["code"].(type) {
	case float64:
		code = int(v)
	case int:
		code = v
	case int32:
		code = int(v)
	case int64:
		code = int(v)
	}
	return tagError(sdk.APIError{Code: code, Message: message})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
