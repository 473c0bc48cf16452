// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api is the HTTP composition root for the Keyra server.

It assembles the middleware chain, mounts the domain routers, and owns the
lifecycle of the underlying [http.Server]. No business logic lives here; the
package only wires verified building blocks together.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/keyra/internal/iam"
	"github.com/taibuivan/keyra/internal/platform/config"
	"github.com/taibuivan/keyra/internal/platform/constants"
	"github.com/taibuivan/keyra/internal/platform/middleware"
)

// Handlers groups every HTTP handler the server mounts.
type Handlers struct {
	Health *HealthHandler
	IAM    *iam.Handler
}

// Server wraps the HTTP server with its router and graceful shutdown support.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

/*
NewServer builds the fully wired HTTP server.

Parameters:
  - baseContext: context.Context (owns background middleware goroutines)
  - cfg: *config.Config
  - logger: *slog.Logger
  - verifier: middleware.TokenVerifier (token signature verification)
  - handlers: Handlers

Returns:
  - *Server: Ready to ListenAndServe
*/
func NewServer(
	baseContext context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	verifier middleware.TokenVerifier,
	handlers Handlers,
) *Server {
	router := chi.NewRouter()

	// ── 1. Cross-Cutting Middleware ───────────────────────────────────────
	// Order matters: tracing and logging first so every later stage (and
	// every rejection) is correlated; token verification before any route
	// so the gate stages can rely on claims being present or absent.
	router.Use(chimw.CleanPath)
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.RateLimit(baseContext))
	router.Use(middleware.PanicRecovery(logger))
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.Authenticate(verifier))

	// ── 2. Operational Probes ─────────────────────────────────────────────
	router.Get("/health", handlers.Health.Liveness)
	router.Get("/ready", handlers.Health.Readiness)

	// ── 3. Versioned API Surface ──────────────────────────────────────────
	router.Route("/api/v1", func(apiRouter chi.Router) {
		apiRouter.Mount("/auth", handlers.IAM.AuthRoutes())
		apiRouter.Mount("/users", handlers.IAM.UserRoutes())
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
		},
		logger: logger,
	}
}

// ListenAndServe starts the HTTP server. It blocks until the server stops.
func (server *Server) ListenAndServe() error {
	server.logger.Info("http server listening", slog.String("addr", server.httpServer.Addr))
	return server.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests before stopping.
func (server *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
	defer cancel()

	startTime := time.Now()
	err := server.httpServer.Shutdown(shutdownCtx)
	server.logger.Info("http server stopped", slog.Duration("drain_time", time.Since(startTime)))

	return err
}
