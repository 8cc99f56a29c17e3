package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"redeemly/internal/config"
	"redeemly/internal/coupon"
	"redeemly/internal/database"
	"redeemly/internal/handler"
	"redeemly/internal/notification"
	"redeemly/internal/repository"
	"redeemly/internal/router"
	"redeemly/internal/service"

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
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("store", cfg.Store.Driver).Msg("starting redeemly API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, closeRepos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepos()

	publisher := newPublisher(ctx, cfg.Push, logger)
	dispatcher := notification.NewDispatcher(repos.Stores, repos.Notifications, publisher, cfg.Redemption.NotifyTimeout, logger)

	// Initialize services
	redemptionService := service.NewRedemptionService(repos, coupon.NewValidator(), dispatcher, cfg.Redemption.MaxAttempts, logger)
	couponService := service.NewCouponService(repos, logger)
	storeService := service.NewStoreService(repos.Stores, logger)
	notificationService := service.NewNotificationService(dispatcher, repos.Notifications, logger)

	if len(cfg.Catalogue.Files) > 0 {
		catalogue := service.NewCatalogueService(newCatalogueLoader(ctx, cfg.S3, logger), repos.Coupons, logger)
		result, err := catalogue.Import(ctx, cfg.Catalogue.Files)
		if err != nil {
			return fmt.Errorf("failed to import coupon catalogue: %w", err)
		}
		logger.Info().
			Int("files", result.Files).
			Int("created", result.Created).
			Int("skipped", result.Skipped).
			Int("invalid", result.Invalid).
			Msg("coupon catalogue imported")
	}

	// Initialize router
	mux := router.New(router.Handlers{
		Redemptions:   handler.NewRedemptionHandler(redemptionService, time.Now, logger),
		Coupons:       handler.NewCouponHandler(couponService, time.Now, logger),
		Stores:        handler.NewStoreHandler(storeService, logger),
		Notifications: handler.NewNotificationHandler(notificationService, logger),
	}, routerOptions(cfg), logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	return serve(server, dispatcher, shutdown, cfg.Server.ShutdownTimeout, logger)
}

// serve runs server until it fails or a signal arrives on shutdown. Either way
// in-flight merchant notifications finish before it returns.
func serve(server *http.Server, dispatcher interface{ Wait() }, shutdown <-chan os.Signal, timeout time.Duration, logger zerolog.Logger) error {
	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", server.Addr).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		dispatcher.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
		}

		dispatcher.Wait()

		if err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// openRepositories builds the configured storage backend. The returned func
// releases it.
func openRepositories(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Repositories, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return repository.NewMemoryRepositories(logger), func() {}, nil
	}

	if cfg.Database.MigrateOnStart {
		if err := database.MigrateUp(cfg.Database.ConnectionString(), logger); err != nil {
			return repository.Repositories{}, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return repository.Repositories{}, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repository.NewPostgresRepositories(pool, logger), pool.Close, nil
}

// newPublisher returns the FCM publisher when push is enabled, falling back
// to logging when Firebase cannot be initialised.
func newPublisher(ctx context.Context, cfg config.PushConfig, logger zerolog.Logger) notification.Publisher {
	if !cfg.Enabled {
		logger.Info().Msg("push notifications disabled, notifications will be logged only")
		return notification.NewLogPublisher(logger)
	}

	publisher, err := notification.NewFCMPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise FCM publisher, falling back to log publisher")
		return notification.NewLogPublisher(logger)
	}
	return publisher
}

// newCatalogueLoader reads catalogue files from S3 with a local fallback, or
// from the local file system only when S3 is disabled.
func newCatalogueLoader(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) coupon.Loader {
	fileLoader := coupon.NewFileLoader(logger)
	if !cfg.Enabled {
		logger.Info().Msg("using local file system for catalogue files (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := coupon.NewS3Loader(ctx, cfg.Bucket, cfg.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}
	return coupon.NewFallbackLoader(s3Loader, fileLoader, cfg.Prefix, true, logger)
}

func routerOptions(cfg *config.Config) router.Options {
	opts := router.Options{JWTSecret: cfg.Auth.JWTSecret}
	if cfg.RateLimit.Enabled {
		opts.RequestsPerMinute = cfg.RateLimit.RequestsPerMinute
	}
	return opts
}
