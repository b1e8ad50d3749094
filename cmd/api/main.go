package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"postpilot/internal/adapter/repo"
	"postpilot/internal/http/handlers"
	"postpilot/internal/http/httpapi"
	"postpilot/internal/infra"
	"postpilot/internal/infra/geoip"
	"postpilot/internal/instagram"
	"postpilot/internal/middleware"
	"postpilot/internal/providers/caption"
	"postpilot/internal/providers/genai"
	"postpilot/internal/providers/image"
	"postpilot/internal/providers/video"
	"postpilot/internal/scheduler"
	"postpilot/internal/storage"
	"postpilot/internal/worker"
)

func main() {
	// Load .env (optional)
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

	jobs := repo.NewJobRepository(dbpool)
	assets := repo.NewAssetRepository(dbpool)
	tokens := repo.NewTokenRepository(dbpool)
	schedules := repo.NewScheduleRepository(dbpool)

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
	captions := caption.NewGeminiGenerator(genaiClient, caption.NewStaticGenerator())
	images := image.NewGeminiGenerator(genaiClient)
	videos := video.NewGeminiGenerator(genaiClient)

	igClient := instagram.NewClient(instagram.ClientOptions{Logger: &logger})
	oauth := instagram.NewOAuth(instagram.OAuthOptions{
		AppID:       cfg.MetaAppID,
		AppSecret:   cfg.MetaAppSecret,
		RedirectURI: cfg.MetaRedirectURI,
	})
	if !oauth.Configured() {
		logger.Warn().Msg("Meta app credentials not set, publishing is disabled until an account connects")
	}

	sched := scheduler.New(scheduler.Options{
		Jobs:           jobs,
		Schedules:      schedules,
		Tokens:         tokens,
		Publisher:      igClient,
		Logger:         &logger,
		Tick:           cfg.SchedulerTick,
		StuckAfter:     cfg.SchedulerStuckAfter,
		PublishTimeout: cfg.PublishTimeout,
	})
	go sched.Run(ctx)

	gen := worker.New(worker.Options{
		Jobs:              jobs,
		Assets:            assets,
		Captions:          captions,
		Images:            images,
		Videos:            videos,
		Store:             store,
		Logger:            &logger,
		PublicBaseURL:     cfg.PublicBaseURL,
		DefaultLocale:     cfg.DefaultLocale,
		Tick:              cfg.SchedulerTick,
		GenerationTimeout: cfg.GenerationTimeout,
	})
	go gen.Run(ctx)

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := &handlers.App{
		Jobs:          jobs,
		Assets:        assets,
		Tokens:        tokens,
		Scheduler:     sched,
		Store:         store,
		OAuth:         oauth,
		Instagram:     igClient,
		Logger:        &logger,
		PublicBaseURL: cfg.PublicBaseURL,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   countryLookup,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
