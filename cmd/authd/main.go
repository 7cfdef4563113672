// authd - Multi-tenant authentication service
//
// authd issues RS256 access tokens and HS256 refresh tokens, tracks refresh
// token records server-side so they can be revoked, and exposes tenant and
// user management over a REST API. Tokens travel in httpOnly cookies.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "authd/migrations"

	"authd/internal/api"
	"authd/internal/audit"
	"authd/internal/auth"
	"authd/internal/infrastructure/config"
	"authd/internal/infrastructure/database"
	"authd/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting authd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Load signing material before touching the database; a token service
	// without its keys must not start.
	privateKey, err := auth.LoadPrivateKey(cfg.Security.JWT.PrivateKeyFile)
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}
	signer, err := auth.NewSigner(privateKey, []byte(cfg.Security.JWT.RefreshSecret), cfg.Security.JWT.Issuer)
	if err != nil {
		return fmt.Errorf("creating token signer: %w", err)
	}
	log.Info("token signer initialised", "issuer", cfg.Security.JWT.Issuer)

	// Open database
	db, err := database.Open(ctx, database.Config{
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories and service
	userRepo := auth.NewUserRepository(db.DB)
	tenantRepo := auth.NewTenantRepository(db.DB)
	tokenRepo := auth.NewTokenRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	authService := auth.NewService(userRepo, tokenRepo, signer, log.Logger)

	// Seed the initial admin on first boot (if configured)
	if cfg.Security.Seed.AdminEmail != "" {
		if _, seedErr := auth.SeedAdmin(ctx, userRepo, cfg.Security.Seed.AdminEmail, log.Logger); seedErr != nil {
			return fmt.Errorf("seeding admin: %w", seedErr)
		}
	}

	// Purge expired refresh token records left over from previous runs.
	// Expired records are already rejected by the JWT expiry check, this
	// just stops the table growing without bound.
	if deleted, sweepErr := tokenRepo.DeleteExpired(ctx); sweepErr != nil {
		log.Warn("expired token sweep failed", "error", sweepErr)
	} else if deleted > 0 {
		log.Info("expired token records purged", "count", deleted)
	}

	// Start API server
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Security:   cfg.Security,
		Logger:     log,
		Auth:       authService,
		Signer:     signer,
		UserRepo:   userRepo,
		TenantRepo: tenantRepo,
		TokenRepo:  tokenRepo,
		AuditRepo:  auditRepo,
		DevMode:    cfg.IsDevelopment(),
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("authd stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AUTHD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AUTHD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
