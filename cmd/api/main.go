package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrolinq/internal/auth"
	"agrolinq/internal/catalog"
	"agrolinq/internal/config"
	"agrolinq/internal/database"
	"agrolinq/internal/events"
	"agrolinq/internal/handler"
	"agrolinq/internal/repository"
	"agrolinq/internal/router"
	"agrolinq/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger, cfg.Telemetry.ServiceName)
	logger.Info().Msg("starting agrolinq API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool and schema
	pool, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	sealRepo := repository.NewSealRepository(pool, logger)
	proposalRepo := repository.NewProposalRepository(pool, logger)

	// Token revocation, Redis when configured
	revocations := auth.NewNopRevocationStore(logger)
	if cfg.Redis.URL != "" {
		client, err := auth.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to initialize revocation store: %w", err)
		}
		defer client.Close()
		revocations = auth.NewRedisRevocationStore(client, logger)
	} else {
		logger.Warn().Msg("REDIS_URL not set, logout will not revoke tokens")
	}

	// Domain events, Kafka when configured
	publisher := events.NewNopPublisher(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	catalogLoader := newCatalogLoader(ctx, cfg, logger)

	// Initialize services
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	accountService := service.NewAccountService(accountRepo, tokens, revocations, logger)
	productService := service.NewProductService(productRepo, catalogLoader, logger)
	producerService := service.NewProducerService(accountRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, publisher, logger)
	sealService := service.NewSealService(sealRepo, accountRepo, publisher, logger)
	proposalService := service.NewProposalService(proposalRepo, publisher, cfg.Proposal.TTL, logger)

	if cfg.Auth.AdminEmail != "" {
		if err := accountService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			return fmt.Errorf("failed to bootstrap admin account: %w", err)
		}
	}

	// Initialize router
	mux := router.New(router.Handlers{
		Auth:     handler.NewAuthHandler(accountService, logger),
		Product:  handler.NewProductHandler(productService, logger),
		Producer: handler.NewProducerHandler(producerService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Seal:     handler.NewSealHandler(sealService, logger),
		Proposal: handler.NewProposalHandler(proposalService, logger),
	}, accountService, cfg.Telemetry.ServiceName, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newCatalogLoader reads import files from S3 when enabled, falling back to
// the local catalog directory.
func newCatalogLoader(ctx context.Context, cfg *config.Config, logger zerolog.Logger) catalog.Loader {
	fileLoader := catalog.NewFileLoader(cfg.Catalog.Dir, logger)
	if !cfg.S3.Enabled {
		logger.Info().Msg("using local file system for catalog files (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := catalog.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}

	return catalog.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger)
}
