// Package main is the entry point for the Hemolink server.
// Hemolink coordinates blood donors, emergency requests, donation
// records, and blood bank inventory behind a JSON HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/auth"
	cachememory "github.com/hemolink/hemolink/internal/cache/memory"
	cacheredis "github.com/hemolink/hemolink/internal/cache/redis"
	"github.com/hemolink/hemolink/internal/config"
	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/handler"
	"github.com/hemolink/hemolink/internal/lock"
	"github.com/hemolink/hemolink/internal/metrics"
	"github.com/hemolink/hemolink/internal/realtime"
	"github.com/hemolink/hemolink/internal/repository"
	"github.com/hemolink/hemolink/internal/repository/factory"
	"github.com/hemolink/hemolink/internal/service"
	"github.com/hemolink/hemolink/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("driver", cfg.Database.Driver).
		Msg("Starting Hemolink server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}

	logger.Info().Msg("Server stopped")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	result, err := factory.New(cfg.Database, logger).Open(ctx)
	if err != nil {
		return fmt.Errorf("initializing repositories: %w", err)
	}
	if result.Partial {
		result.Close()
		// Refusing at startup beats failing on the first request that
		// touches a missing repository.
		return fmt.Errorf("the %s driver does not cover every repository yet; use memory or sqlite", cfg.Database.Driver)
	}
	repos := result.Repos
	defer func() {
		if err := result.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing database")
		}
	}()

	// Cache and distributed lock. Redis when configured, otherwise the
	// process-local implementations.
	var (
		cache  repository.Cache
		locker lock.Locker
	)
	if cfg.Redis.Enabled {
		client := goredis.NewClient(&goredis.Options{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr(), err)
		}
		defer client.Close()

		cache = cacheredis.NewCacheWithClient(client)
		locker = lock.NewRedisLocker(cacheredis.NewLock(client))
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("Redis connected")
	} else {
		cache = cachememory.NewCache()
		locker = lock.NewMemoryLocker()
	}

	// Document file storage
	backend, err := buildStorageBackend(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}
	logger.Info().Str("backend", cfg.Storage.Backend).Msg("Storage backend ready")

	// Realtime feeds and metrics
	store := realtime.NewMemoryStore()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Services
	userService := service.NewUserService(repos.User, logger)
	donorService := service.NewDonorService(repos.DonorProfile, repos.User, store, m, logger)
	requestService := service.NewRequestService(repos.Request, repos.DonorProfile, store, m, logger)
	donationService := service.NewDonationService(repos.Donation, repos.DonorProfile, locker, store, m, logger, service.DonationConfig{
		MinInterval:      time.Duration(cfg.Donation.MinIntervalDays) * 24 * time.Hour,
		Thresholds:       domain.BadgeThresholds{Silver: cfg.Donation.BadgeSilver, Gold: cfg.Donation.BadgeGold},
		LivesPerDonation: cfg.Donation.LivesPerDonation,
	})
	documentService := service.NewDocumentService(repos.Document, repos.User, backend, logger)
	deletionService := service.NewDeletionService(repos.DeletionRequest, repos.User, locker, m, logger)
	notificationService := service.NewNotificationService(repos.Notification, store, m, logger)
	bankService := service.NewBloodBankService(repos.BloodBank, logger)

	// Bridge the collection feeds into stored notifications
	notifier := service.NewEventNotifier(notificationService, repos.DonorProfile, repos.Request, logger)
	notifier.Start(store)
	defer notifier.Close()

	// Authentication
	tokenService, err := auth.NewHMACTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("initializing token service: %w", err)
	}
	lookup := auth.NewCachedLookup(userService, cache, cfg.Auth.PermissionCacheTTL)
	resolver := auth.NewResolver(lookup, cfg.Auth.PermissionCacheTTL)
	authMiddleware := auth.Middleware(tokenService, resolver, auth.DefaultConfig())

	// Expiry sweeper
	sweeper := service.NewExpirySweeper(repos.Request, store, locker, m, logger, service.SweepConfig{
		Enabled:   cfg.Expiry.Enabled,
		Interval:  cfg.Expiry.Interval,
		BatchSize: cfg.Expiry.BatchSize,
		DryRun:    cfg.Expiry.DryRun,
	})
	if cfg.Expiry.Enabled {
		sweeper.Start()
		defer sweeper.Stop()
	}

	// HTTP surface
	router := handler.NewRouter(handler.RouterConfig{
		UserHandler:         handler.NewUserHandler(userService, logger),
		DonorHandler:        handler.NewDonorHandler(donorService, logger),
		RequestHandler:      handler.NewRequestHandler(requestService, logger),
		DonationHandler:     handler.NewDonationHandler(donationService, logger),
		DocumentHandler:     handler.NewDocumentHandler(documentService, logger),
		DeletionHandler:     handler.NewDeletionHandler(deletionService, logger),
		BloodBankHandler:    handler.NewBloodBankHandler(bankService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		AuthMiddleware:      authMiddleware,
		Metrics:             m,
		Logger:              logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// buildStorageBackend creates the document file store.
func buildStorageBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "", "filesystem":
		return storage.NewFilesystemBackend(cfg.DataDir)
	case "s3":
		return storage.NewS3Backend(ctx, storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// newLogger builds the root logger from configuration.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat

	var out *os.File
	switch cfg.Output {
	case "stdout":
		out = os.Stdout
	default:
		out = os.Stderr
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(out)
	}

	return logger.Level(level).With().Timestamp().Logger()
}
