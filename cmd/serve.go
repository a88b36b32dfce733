package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/event-management/internal/auth"
	"github.com/Shivanand-hulikatti/event-management/internal/config"
	"github.com/Shivanand-hulikatti/event-management/internal/database"
	"github.com/Shivanand-hulikatti/event-management/internal/handler"
	"github.com/Shivanand-hulikatti/event-management/internal/notify"
	"github.com/Shivanand-hulikatti/event-management/internal/repository"
	"github.com/Shivanand-hulikatti/event-management/internal/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server and begin accepting API requests.

With STORAGE_DRIVER=postgres the server connects (retrying while the database
starts) and migrates the schema before accepting requests.
The server shuts down gracefully on SIGINT/SIGTERM, draining queued
notifications before exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides PORT)")
}

func runServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().
		Str("storage", cfg.StorageDriver).
		Str("environment", cfg.Environment).
		Msg("starting event management server")

	// ── 1. Storage ────────────────────────────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// ── 2. Notifications ──────────────────────────────────────────────────
	var sender notify.Sender = notify.NewLogSender(logger)
	if cfg.Email.ResendAPIKey != "" {
		sender = notify.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, logger)
		logger.Info().Msg("email notifications enabled")
	}
	dispatcher := notify.NewDispatcher(sender, notify.Options{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		SendTimeout: cfg.Notify.SendTimeout,
	}, logger)

	// ── 3. Wire up layers ─────────────────────────────────────────────────
	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	h := handler.New(
		service.NewEventService(store, store, dispatcher, logger),
		service.NewRegistrationService(store, store, dispatcher, logger),
		service.NewAccountService(store, hasher, tokens, dispatcher, logger),
		logger,
	)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.NewRouter(h, handler.RouterConfig{
			Tokens:            tokens,
			AuthRatePerMinute: cfg.Auth.RatePerMinute,
			Logger:            logger,
		}),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// ── 4. Serve until signalled, then shut down ──────────────────────────
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
		if err := dispatcher.Close(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("notification queue not drained")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// Replaced in tests.
var (
	connectDB = database.NewPool
	migrateDB = database.MigrateUp
)

// openStore builds the configured store and returns a function releasing it.
func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	// Connect first so the pool's retry covers a database that is still starting.
	pool, err := connectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	logger.Info().Msg("connected to PostgreSQL")

	if err := migrateDB(cfg.Database.DSN()); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("database migrations: %w", err)
	}
	return repository.NewPostgresStore(pool), pool.Close, nil
}
