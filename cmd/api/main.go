package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"neogen/internal/adapter/repo"
	"neogen/internal/domain"
	"neogen/internal/generate"
	"neogen/internal/http/handlers"
	httpapi "neogen/internal/http/httpapi"
	"neogen/internal/infra"
	"neogen/internal/infra/geoip"
	"neogen/internal/middleware"
	"neogen/internal/observability"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fallback := infra.NewLogger(os.Getenv("APP_ENV"))
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)
	ctx := context.Background()

	metrics, metricsHandler, err := observability.NewMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init metrics")
	}

	// Generation history is optional.
	var history domain.GenerationRepository
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if dbpool != nil {
		defer dbpool.Close()
		generations := repo.NewGenerationRepository(infra.NewSQLRunner(dbpool, logger))
		if err := generations.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare generations table")
		}
		history = generations
	} else {
		logger.Info().Msg("DATABASE_URL not set, generation history disabled")
	}

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.Lookup
	}

	svcOpts := []generate.Option{generate.WithRecorder(metrics)}
	if history != nil {
		svcOpts = append(svcOpts, generate.WithHistory(history))
	}
	svc, err := generate.FromConfig(cfg, &logger, metrics, svcOpts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build generate service")
	}

	app := handlers.NewApp(svc, history, &logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Recorder:        metrics,
		Metrics:         metricsHandler,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("model_version", cfg.ReplicateModelVersion).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	// In-flight generate calls hold their request open for a full poll budget.
	drain := cfg.PollInterval*time.Duration(cfg.PollMaxAttempts) + 5*time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to flush metrics")
	}
	logger.Info().Msg("server stopped")
}
