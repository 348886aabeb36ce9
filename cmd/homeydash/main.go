// homeydash is a self-hosted dashboard server for the Homey smart home
// hub. It serves a REST API for building wall-mounted dashboards:
// pinned devices and flows on a grid, device groups with live state,
// and hub connection management.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/vstoms/homeydash/migrations"

	"github.com/vstoms/homeydash/internal/api"
	"github.com/vstoms/homeydash/internal/dashboard"
	"github.com/vstoms/homeydash/internal/homey"
	"github.com/vstoms/homeydash/internal/hubsettings"
	"github.com/vstoms/homeydash/internal/infrastructure/config"
	"github.com/vstoms/homeydash/internal/infrastructure/database"
	"github.com/vstoms/homeydash/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting homeydash",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	server, err := api.New(api.Deps{
		Config:      cfg,
		Logger:      log,
		Dashboards:  dashboard.NewSQLiteRepository(db.DB),
		Groups:      dashboard.NewSQLiteGroupRepository(db.DB),
		HubSettings: hubsettings.NewRepository(db, cfg.Security.EncryptionKey),
		Cache:       homey.NewCache(cfg.GetHubCacheTTL()),
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("homeydash stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HOMEYDASH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HOMEYDASH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
