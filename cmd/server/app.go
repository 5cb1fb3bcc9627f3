package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/stickerforge/sticker-api/internal/config"
	"github.com/stickerforge/sticker-api/internal/platform/gemini"
	"github.com/stickerforge/sticker-api/internal/platform/postgres"
	"github.com/stickerforge/sticker-api/internal/platform/storage"
	"github.com/stickerforge/sticker-api/internal/ratelimit"
	"github.com/stickerforge/sticker-api/internal/service"
	"github.com/stickerforge/sticker-api/internal/store"
	"github.com/stickerforge/sticker-api/internal/task"
	"github.com/stickerforge/sticker-api/internal/usage"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	taskStore  task.TaskStore
	imageStore store.GeneratedImageStore
	usageStore store.UsageStatsStore

	// Platform services
	generator  *gemini.StickerGenerator
	localStore *storage.LocalImageStore

	// Core services
	recorder    *usage.Recorder
	lifecycle   *task.LifecycleManager
	generations *service.GenerationService

	// Request gating
	limiter *ratelimit.Limiter
}

// newApplication creates a new application instance with all dependencies
// initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize stores
	app.taskStore = postgres.NewPostgresTaskStore(db)
	app.imageStore = postgres.NewPostgresImageStore(db)
	app.usageStore = postgres.NewPostgresUsageStore(db)

	// Create the image generation backend
	var err error
	app.generator, err = gemini.NewStickerGenerator(
		ctx,
		logger.With("component", "generator"),
		cfg.Generation,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sticker generator: %w", err)
	}
	logger.Info("Sticker generator initialized", "model", cfg.Generation.Model)

	// Local image storage for generated stickers and uploads
	app.localStore, err = storage.NewLocalImageStore(logger.With("component", "storage"), cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image storage: %w", err)
	}

	// Daily usage accounting
	app.recorder, err = usage.NewRecorder(app.usageStore, logger.With("component", "usage"))
	if err != nil {
		return nil, fmt.Errorf("failed to create usage recorder: %w", err)
	}

	// Task lifecycle manager drives the asynchronous pipeline
	app.lifecycle, err = task.NewLifecycleManager(
		app.taskStore,
		app.generator,
		app.localStore,
		app.imageStore,
		app.recorder,
		logger.With("component", "lifecycle"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lifecycle manager: %w", err)
	}

	// Generation service ties both paths together
	app.generations, err = service.NewGenerationService(
		app.lifecycle,
		app.generator,
		app.localStore,
		app.imageStore,
		app.recorder,
		logger.With("component", "generation_service"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	// Per-client request gate
	app.limiter = ratelimit.NewLimiter(ratelimit.DefaultWindow, ratelimit.DefaultMaxRequests)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources. In-flight
// generation tasks are drained so their terminal states get recorded.
func (app *application) cleanup() {
	if app.lifecycle != nil {
		app.logger.Info("Draining in-flight tasks")
		app.lifecycle.Drain()
	}

	if app.limiter != nil {
		app.limiter.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
