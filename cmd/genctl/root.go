package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"genstudio/internal/domain"
	"genstudio/internal/i18n"
	"genstudio/internal/imagegen"
	"genstudio/internal/infra"
	"genstudio/internal/infra/credentials"
	"genstudio/internal/providers/genai"
	"genstudio/internal/storage"
	"genstudio/internal/videojob"
)

type cliOptions struct {
	key          string
	out          string
	locale       string
	envFile      string
	pollInterval time.Duration
	maxPolls     int
}

// cliApp holds the core components for one command invocation.
type cliApp struct {
	cfg    *infra.Config
	logger zerolog.Logger
	gate   *credentials.Gate
	blobs  *storage.MemoryStore
	images *imagegen.Generator
	videos *videojob.Orchestrator
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "genctl",
		Short:         "Generate images and videos with Gemini from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.key, "key", "", "Gemini API key (defaults to GEMINI_API_KEY, prompts when unset)")
	root.PersistentFlags().StringVarP(&opts.out, "out", "o", "", "output file (defaults to a generated name in the working directory)")
	root.PersistentFlags().StringVar(&opts.locale, "locale", "en", "language for progress and error messages (en, id)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional dotenv file")

	root.AddCommand(newImageCmd(opts), newEditCmd(opts), newVideoCmd(opts))
	return root
}

func buildApp(cmd *cobra.Command, opts *cliOptions) (*cliApp, error) {
	if err := infra.LoadDotEnv(opts.envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.envFile, err)
	}
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	if opts.pollInterval > 0 {
		cfg.PollInterval = opts.pollInterval
	}
	if opts.maxPolls > 0 {
		cfg.MaxPolls = opts.maxPolls
	}
	logger := infra.NewLoggerTo(cmd.ErrOrStderr(), cfg.AppEnv).Level(zerolog.WarnLevel)

	client, err := genai.NewClient(genai.Options{
		BaseURL:         cfg.GeminiBaseURL,
		ImageModel:      cfg.ImageModel,
		EditModel:       cfg.EditModel,
		VideoModel:      cfg.VideoModel,
		VideoResolution: cfg.VideoResolution,
		Logger:          &logger,
	})
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(opts.key)
	if key == "" {
		key = cfg.GeminiAPIKey
	}
	gate := credentials.NewGate(credentials.NewPromptHost(cmd.InOrStdin(), cmd.ErrOrStderr(), key), logger)
	blobs := storage.NewMemoryStore(cfg.BlobTTL)

	return &cliApp{
		cfg:    cfg,
		logger: logger,
		gate:   gate,
		blobs:  blobs,
		images: imagegen.NewGenerator(client, blobs, logger),
		videos: videojob.New(client, blobs, videojob.Options{
			Interval: cfg.PollInterval,
			MaxPolls: cfg.MaxPolls,
			Observer: gate,
			Logger:   logger,
		}),
	}, nil
}

// credential prompts for a key when none is configured.
func (a *cliApp) credential(ctx context.Context) (domain.Credential, error) {
	if !a.gate.Check(ctx) && !a.gate.Request(ctx) {
		return domain.Credential{}, a.gate.Err()
	}
	return a.gate.Credential(ctx)
}

// localize renders err for the terminal in the chosen locale.
func localize(locale string, err error) error {
	if err == nil {
		return nil
	}
	jobErr := domain.AsJobError(err)
	return fmt.Errorf("%s: %s", jobErr.Kind, i18n.TranslateLocale(locale, jobErr.Error()))
}

// writeResult copies the blob behind res to path, or to a name derived from
// the blob id when path is empty, and returns the path written.
func writeResult(ctx context.Context, blobs *storage.MemoryStore, res domain.JobResult, path string) (string, error) {
	blob, err := blobs.Resolve(ctx, res.ResourceLocator)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = defaultOutputName(blob)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	return path, nil
}

func defaultOutputName(blob storage.Blob) string {
	ext := ".bin"
	if m := mimetype.Lookup(blob.MIMEType); m != nil {
		ext = m.Extension()
	}
	id := blob.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return "genstudio-" + id + ext
}

func readReferenceImage(path string) (*domain.ReferenceImage, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reference image: %w", err)
	}
	if info.Size() > domain.MaxReferenceImageBytes {
		return nil, domain.Validationf("File size must be less than 4MB.")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reference image: %w", err)
	}
	image, err := domain.NewReferenceImage(data)
	if err != nil {
		return nil, err
	}
	return &image, nil
}
