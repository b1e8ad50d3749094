package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"postpilot/internal/adapter/repo"
	"postpilot/internal/infra"
	"postpilot/internal/providers/caption"
	"postpilot/internal/providers/genai"
	"postpilot/internal/providers/image"
	"postpilot/internal/providers/video"
	"postpilot/internal/storage"
	"postpilot/internal/worker"
)

// Standalone generation worker, for deployments that scale generation
// independently of the API. The API binary runs the same loop in-process, so
// running this is optional; claims are exclusive either way.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if err := repo.EnsureSchema(ctx, dbpool); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize media store")
	}

	genaiClient, err := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize generation client")
	}
	if !genaiClient.Keyed() {
		logger.Warn().Msg("GEMINI_API_KEY not set, media generation runs in synthetic mode")
	}

	gen := worker.New(worker.Options{
		Jobs:              repo.NewJobRepository(dbpool),
		Assets:            repo.NewAssetRepository(dbpool),
		Captions:          caption.NewGeminiGenerator(genaiClient, caption.NewStaticGenerator()),
		Images:            image.NewGeminiGenerator(genaiClient),
		Videos:            video.NewGeminiGenerator(genaiClient),
		Store:             store,
		Logger:            &logger,
		PublicBaseURL:     cfg.PublicBaseURL,
		DefaultLocale:     cfg.DefaultLocale,
		Tick:              cfg.SchedulerTick,
		GenerationTimeout: cfg.GenerationTimeout,
	})

	logger.Info().Msg("generation worker started")
	gen.Run(ctx)
	logger.Info().Msg("generation worker stopped")
}
