// Package main implements the entry point for the stashweb console server,
// the web management surface over the stash backup engine.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/stashsuite/stashweb/internal/config"
	"github.com/stashsuite/stashweb/internal/platform/logger"
)

func main() {
	cfg, err := loadAppConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// loadAppConfig loads the application configuration from environment
// variables or config file. Returns the loaded config and any loading error.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	if cfg.Database.URL != "" {
		slog.Debug("Database configuration", "url_present", true)
	}
	if len(cfg.Backend.Nodes) > 0 {
		slog.Debug("Multi-node backend configuration", "node_count", len(cfg.Backend.Nodes))
	}

	return cfg, nil
}
