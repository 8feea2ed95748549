package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storygen/internal/domain"
	"storygen/internal/facts"
	"storygen/internal/generator"
	"storygen/internal/http/handlers"
	"storygen/internal/http/httpapi"
	"storygen/internal/infra"
	"storygen/internal/infra/geoip"
	"storygen/internal/jobs"
	"storygen/internal/middleware"
	"storygen/internal/storage"
)

const shutdownDrain = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("storyapid: failed to configure storage")
	}

	catalog, err := facts.Load(cfg.FactsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("storyapid: failed to load fact catalog")
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("storyapid: geoip lookups disabled")
	} else if resolver != nil {
		defer resolver.Close()
		countryLookup = resolver.CountryCode
	}

	var store domain.JobStore
	storeKind := "memory"
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("storyapid: db connection failed")
		}
		defer pool.Close()

		pg := jobs.NewPostgresStore(infra.NewSQLRunner(pool, logger))
		if err := pg.Bootstrap(ctx); err != nil {
			logger.Fatal().Err(err).Msg("storyapid: schema bootstrap failed")
		}
		store = pg
		storeKind = "postgres"
	} else {
		store = jobs.NewMemoryStore()
	}

	events := jobs.NewEventBus(0)
	runner, err := jobs.NewRunner(jobs.RunnerOptions{
		Store:           store,
		Gen:             generator.New(generator.Options{Logger: &logger}),
		Files:           fileStore,
		Events:          events,
		AssetBaseURL:    cfg.StorageBaseURL,
		Workers:         cfg.WorkerCount,
		GenerationDelay: cfg.GenerationDelay,
		Logger:          &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("storyapid: failed to configure runner")
	}
	runner.Start(ctx)

	app := handlers.NewApp(store, catalog, events, fileStore, logger)
	app.StoreKind = storeKind

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:        logger,
		DefaultLocale: "en",
		CountryLookup: countryLookup,
		CORSOrigins:   cfg.CORSOrigins,
		StaticDir:     fileStore.BasePath(),
	})

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().
		Str("addr", server.Addr()).
		Str("store", storeKind).
		Int("workers", cfg.WorkerCount).
		Msg("storyapid: listening")

	if err := server.Run(ctx, shutdownDrain); err != nil {
		logger.Error().Err(err).Msg("storyapid: http server failed")
	}
	stop()
	runner.Wait()
	logger.Info().Msg("storyapid: stopped")
}
