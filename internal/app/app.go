// Package app wires the journal together: configuration, logging, database,
// migrations, services, and the HTTP server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql (migrations)
	"github.com/pressly/goose/v3"

	"github.com/avolkova/journal/internal/adapter/postgres"
	"github.com/avolkova/journal/internal/adapter/postgres/entry"
	"github.com/avolkova/journal/internal/auth"
	"github.com/avolkova/journal/internal/config"
	"github.com/avolkova/journal/internal/service/journal"
	"github.com/avolkova/journal/internal/service/session"
	"github.com/avolkova/journal/internal/transport/middleware"
	"github.com/avolkova/journal/internal/transport/web"
	"github.com/avolkova/journal/migrations"
)

// Run is the application entry point. It loads configuration, applies
// migrations, builds the services and the router, and serves until ctx is
// cancelled, then shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting journal",
		slog.String("version", BuildVersion()),
		slog.String("env", cfg.Env),
		slog.String("log_level", cfg.Log.Level),
	)

	if err := Migrate(ctx, cfg.Database.DSN); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	entryRepo := entry.New(pool)

	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.Issuer)
	journalSvc := journal.NewService(logger, entryRepo, txm)
	sessionSvc := session.NewService(logger, tokens, cfg.Auth)

	handler, err := web.NewHandler(journalSvc, sessionSvc, logger)
	if err != nil {
		return fmt.Errorf("build web handler: %w", err)
	}

	limiter := middleware.NewRateLimiter(5 * time.Minute)
	defer limiter.Stop()

	router := web.NewRouter(web.RouterDeps{
		Handler:        handler,
		Health:         web.NewHealthHandler(pool, BuildVersion()),
		Resolver:       sessionSvc,
		Limiter:        limiter,
		LoginRateLimit: cfg.Server.LoginRateLimit,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// Migrate applies the embedded goose migrations to the database behind dsn.
// It is idempotent; already-applied migrations are skipped.
func Migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
