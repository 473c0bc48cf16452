// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point of the Keyra identity server.
//
// It loads configuration, connects the selected storage engine, wires the
// IAM service behind the HTTP composition root, and runs until interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/keyra/internal/api"
	"github.com/taibuivan/keyra/internal/iam"
	"github.com/taibuivan/keyra/internal/platform/config"
	"github.com/taibuivan/keyra/internal/platform/constants"
	"github.com/taibuivan/keyra/internal/platform/migration"
	"github.com/taibuivan/keyra/internal/platform/postgres"
	redisplatform "github.com/taibuivan/keyra/internal/platform/redis"
	"github.com/taibuivan/keyra/internal/platform/sec"
)

func main() {

	// ── 1. Structured Logging ─────────────────────────────────────────────
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With(slog.String("app", constants.AppName))
	slog.SetDefault(logger)

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(logger, "config_load_failed", err)

	if cfg.Debug {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})).With(slog.String("app", constants.AppName))
		slog.SetDefault(logger)
	}

	// baseCtx owns every background goroutine (rate limiter cleanup, pools).
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	startupCtx, cancelStartup := context.WithTimeout(baseCtx, 30*time.Second)
	defer cancelStartup()

	// ── 3. Storage Engine ─────────────────────────────────────────────────
	var (
		store         iam.UserStore
		checkDatabase api.DependencyCheck
		checkCache    api.DependencyCheck
	)

	switch cfg.StorageEngine {
	case constants.EnginePostgres:
		must(logger, "migration_failed", migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger))

		pool, err := postgres.NewPool(startupCtx, cfg.DatabaseURL, logger)
		must(logger, "postgres_connect_failed", err)
		defer pool.Close()

		store = iam.NewPostgresUserStore(pool)
		checkDatabase = func(ctx context.Context) error { return postgres.Ping(ctx, pool) }

	case constants.EngineRedis:
		client, err := redisplatform.NewClient(startupCtx, cfg.RedisURL, logger)
		must(logger, "redis_connect_failed", err)
		defer func() { _ = client.Close() }()

		store = iam.NewRedisUserStore(client)
		checkCache = func(ctx context.Context) error { return redisplatform.Ping(ctx, client) }

	case constants.EngineMemory:
		logger.Warn("memory storage engine selected, data will not survive a restart")
		store = iam.NewMemoryUserStore()
	}

	logger.Info("storage engine ready", slog.String("engine", cfg.StorageEngine))

	// ── 4. Security Services ──────────────────────────────────────────────
	tokenService, err := sec.NewTokenService(sec.TokenConfig{
		Secret:     cfg.JWTSecret,
		Algorithm:  cfg.JWTAlgorithm,
		Issuer:     constants.AuthIssuer,
		DefaultTTL: cfg.AccessTokenTTL(),
	})
	must(logger, "token_service_init_failed", err)

	// ── 5. IAM Domain Wiring ──────────────────────────────────────────────
	verifier := iam.NewCredentialVerifier(store)
	service := iam.NewService(store, verifier, tokenService, logger)
	gate := iam.NewGate(store)

	handlers := api.Handlers{
		Health: api.NewHealthHandler(checkDatabase, checkCache),
		IAM:    iam.NewHandler(service, gate),
	}

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(baseCtx, cfg, logger, tokenService, handlers)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_failed", slog.Any("error", err))
			os.Exit(1)
		}

	case sig := <-shutdownSignal:
		logger.Info("shutdown_signal_received", slog.String("signal", sig.String()))

		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown_failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	logger.Info("server_exited_cleanly")
}

// must terminates the process when a startup step fails. Only used before
// the server starts accepting traffic.
func must(logger *slog.Logger, event string, err error) {
	if err != nil {
		logger.Error(event, slog.Any("error", err))
		os.Exit(1)
	}
}
