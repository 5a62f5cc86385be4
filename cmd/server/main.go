package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlexTLDR/intltel/internal/config"
	"github.com/AlexTLDR/intltel/internal/database"
	"github.com/AlexTLDR/intltel/internal/logger"
	"github.com/AlexTLDR/intltel/internal/phone"
	"github.com/AlexTLDR/intltel/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (ignore error if a file doesn't exist)
	// Use Overload to force to overwrite any existing environment variables
	envErr := godotenv.Overload()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.Logger)
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("no .env file loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := phone.LoadRegistry()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load country dataset")
	}
	normalizer := phone.NewNormalizer(phone.LibPlan{}, phone.WithLogger(logger.Component("phone")))

	// Initialize database
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close database")
		}
	}()

	// Run migrations
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	srv := server.New(cfg, db, registry, normalizer)

	logger.Info().
		Str("port", cfg.Port).
		Str("dialect", db.Dialect()).
		Int("countries", registry.Len()).
		Msg("starting server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		_ = db.Close()
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}
