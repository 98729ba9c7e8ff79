package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/stashsuite/stashweb/internal/backend"
	"github.com/stashsuite/stashweb/internal/config"
	"github.com/stashsuite/stashweb/internal/events"
	"github.com/stashsuite/stashweb/internal/platform/postgres"
	"github.com/stashsuite/stashweb/internal/sched"
	"github.com/stashsuite/stashweb/internal/service/auth"
	"github.com/stashsuite/stashweb/internal/store"
	"github.com/stashsuite/stashweb/internal/task"
	"github.com/stashsuite/stashweb/internal/webcache"
	"github.com/stashsuite/stashweb/internal/ws"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore    store.UserStore
	sessionStore store.SessionStore
	recordStore  store.TaskRecordStore
	prefsStore   store.PrefsStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier

	// Backup engine access
	backend backend.Backend

	// Task subsystem
	registry   *task.Registry
	dispatcher *task.Dispatcher
	runner     *task.Runner

	// Event system
	eventEmitter events.EventEmitter
	hub          *ws.Hub

	// Aggregate cache
	cache       *webcache.Cache
	invalidator *webcache.Invalidator
	scheduler   *sched.Scheduler
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize password verifier
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Initialize stores
	app.userStore = postgres.NewUserStore(db)
	app.sessionStore = postgres.NewSessionStore(db)
	app.recordStore = postgres.NewTaskRecordStore(db)
	app.prefsStore = postgres.NewPrefsStore(db)

	// Initialize engine access
	app.backend = backend.NewClient(cfg.Backend, logger)

	// Initialize aggregate cache
	cacheSize := cfg.Cache.Size
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	app.cache = webcache.New(cacheSize, cacheTTL)

	if cfg.Cache.RefreshSeconds > 0 {
		app.scheduler = sched.New(
			time.Duration(cfg.Cache.RefreshSeconds)*time.Second,
			app.refreshAggregates,
			logger,
		)
		app.scheduler.Start()
	}

	var kicker webcache.Kicker
	if app.scheduler != nil {
		kicker = app.scheduler
	}
	app.invalidator = webcache.NewInvalidator(app.cache, app.sessionStore, kicker, logger)

	// Initialize event system and notification hub
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.hub = ws.NewHub(logger)
	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(app.hub)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register notification hub")
	}

	// Initialize task subsystem
	app.registry = task.NewRegistry()
	app.dispatcher = task.NewDispatcher(app.registry, cfg.Task.QueueSize, app.recordStore, logger)
	executor := task.NewExecutor(app.backend, cfg.Task.SpoolDir, logger)
	app.runner = task.NewRunner(
		app.registry,
		app.dispatcher,
		executor,
		app.eventEmitter,
		task.RunnerConfig{WorkerCount: cfg.Task.WorkerCount},
		logger,
	)
	app.runner.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup. It
// returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// refreshAggregates repopulates the cached engine views for the local node.
func (app *application) refreshAggregates(ctx context.Context) error {
	running, err := app.backend.IsOneBackupRunning(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to refresh backup-running flag: %w", err)
	}
	app.cache.Set(webcache.KeyBackupRunning+":", running)

	report, err := app.backend.ClientsReport(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to refresh clients report: %w", err)
	}
	app.cache.Set(webcache.KeyClientsReport+":", report)
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.runner != nil {
		app.runner.Stop()
	}
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
