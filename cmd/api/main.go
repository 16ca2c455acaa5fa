package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"genstudio/internal/adapter/repo"
	"genstudio/internal/http/handlers"
	httpapi "genstudio/internal/http/httpapi"
	"genstudio/internal/imagegen"
	"genstudio/internal/infra"
	"genstudio/internal/infra/credentials"
	"genstudio/internal/infra/geoip"
	"genstudio/internal/metrics"
	"genstudio/internal/providers/genai"
	"genstudio/internal/sse"
	"genstudio/internal/storage"
	"genstudio/internal/videojob"
	"genstudio/internal/worker"
)

func main() {
	if err := infra.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := genai.NewClient(genai.Options{
		BaseURL:         cfg.GeminiBaseURL,
		ImageModel:      cfg.ImageModel,
		EditModel:       cfg.EditModel,
		VideoModel:      cfg.VideoModel,
		VideoResolution: cfg.VideoResolution,
		Logger:          &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure gemini client")
	}
	imageModel, editModel, videoModel := client.Models()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	collector := metrics.NewCollector(cfg.MetricsNamespace)
	blobs := storage.NewMemoryStore(cfg.BlobTTL)
	jobs := repo.NewJobRepository(cfg.JobTTL)
	hub := sse.NewHub(cfg.JobTTL)

	session := credentials.NewSessionHost(cfg.GeminiAPIKey)
	gate := credentials.NewGate(session, logger)

	orchestrator := videojob.New(client, blobs, videojob.Options{
		Interval: cfg.PollInterval,
		MaxPolls: cfg.MaxPolls,
		Observer: gate,
		Metrics:  collector,
		Logger:   logger,
	})
	runner := worker.NewRunner(ctx, orchestrator, jobs, hub, collector, logger)

	app := &handlers.App{
		Images:  imagegen.NewGenerator(client, blobs, logger),
		Videos:  runner,
		Jobs:    jobs,
		Blobs:   blobs,
		Events:  hub,
		Gate:    gate,
		Keys:    session,
		Metrics: collector,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		Metrics:         collector,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   resolver.Lookup(),
	})
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		logger.Info().
			Str("addr", server.Addr()).
			Str("image_model", imageModel).
			Str("edit_model", editModel).
			Str("video_model", videoModel).
			Bool("key_configured", cfg.GeminiAPIKey != "").
			Msg("API listening")
		return server.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server stopped with error")
	}
	stop()
	runner.Wait()
	logger.Info().Msg("server stopped")
}
