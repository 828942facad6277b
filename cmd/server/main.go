package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/config"
	"github.com/stemsi/handbook/internal/database"
	"github.com/stemsi/handbook/internal/handler"
	"github.com/stemsi/handbook/internal/logger"
	"github.com/stemsi/handbook/internal/reconcile"
	"github.com/stemsi/handbook/internal/repository"
	"github.com/stemsi/handbook/internal/router"
	"github.com/stemsi/handbook/internal/schema"
	"github.com/stemsi/handbook/internal/scraper"
	"github.com/stemsi/handbook/internal/service"
	"github.com/stemsi/handbook/internal/validator"
	"github.com/stemsi/handbook/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("database", cfg.DatabaseDriver).
		Msg("Starting handbook service")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Database and Ensure Schema ───────────────────────────────
	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := schema.Ensure(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure schema")
	}

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	majorRepo := repository.NewMajorRepository(db)
	unitRepo := repository.NewUnitRepository(db)

	// ─── Initialize Services ──────────────────────────────────────────
	engine := reconcile.NewEngine(db, majorRepo, unitRepo, log)
	handbook := scraper.NewClient(cfg.HandbookURL, cfg.ScrapeTimeout, log)

	authService := service.NewAuthService(cfg)
	catalogService := service.NewCatalogService(majorRepo, unitRepo, rdb, cfg, log)
	syncService := service.NewSyncService(handbook, engine, rdb, cfg, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Catalog: handler.NewCatalogHandler(catalogService, log),
		Sync:    handler.NewSyncHandler(syncService, log),
		System:  handler.NewSystemHandler(db, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	if cfg.SyncInterval > 0 {
		syncWorker := worker.NewSyncWorker(syncService, cfg.SyncInterval, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			syncWorker.Start(workerCtx)
		}()
	} else {
		log.Info().Msg("Periodic sync disabled")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r, limiter := router.SetupRouter(authService, handlers, cfg, log)
	defer limiter.Stop()

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the sync worker; an in-flight reconciliation rolls back.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
