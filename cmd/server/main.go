// Package main is the entrypoint for the DeepScan API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deepscan/deepscan/internal/api"
	"github.com/deepscan/deepscan/internal/api/handler"
	mw "github.com/deepscan/deepscan/internal/api/middleware"
	"github.com/deepscan/deepscan/internal/api/response"
	"github.com/deepscan/deepscan/internal/cache"
	"github.com/deepscan/deepscan/internal/config"
	"github.com/deepscan/deepscan/internal/detector"
	"github.com/deepscan/deepscan/internal/reconcile"
	"github.com/deepscan/deepscan/internal/scan"
	"github.com/deepscan/deepscan/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "detector", cfg.Detector.BaseURL, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create detector client
	detectorClient := detector.NewHTTPClient(cfg.Detector.BaseURL, cfg.Detector.Timeout)
	if err := detectorClient.Health(ctx); err != nil {
		// The service degrades to synthesized results while the detector is
		// down, so this is a warning, not a startup failure.
		slog.Warn("detector not reachable at startup", "error", err)
	}

	// 6. Create store and scan service
	pgStore := store.NewPostgresStore(pool)
	svc := scan.NewService(detectorClient, redisCache, pgStore, reconcile.New(), cfg.Scan.SlotTTL)

	// 7. Build router with dependencies
	rateLimit := mw.NewRateLimit(redisCache, cfg.Scan.RateLimit, cfg.Scan.RateWindow)

	deps := api.Dependencies{
		RateLimit: rateLimit,

		HealthHandler:    healthHandler(pgStore, redisCache, detectorClient),
		AnalyzeHandler:   handler.NewAnalyzeHandler(svc, cfg.Scan.MaxUploadBytes),
		ResultsHandler:   handler.NewResultsHandler(svc),
		ListScansHandler: handler.NewListScansHandler(svc),
		GetScanHandler:   handler.NewGetScanHandler(svc),
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database, cache and detector connectivity. Database
// and cache failures mark the service degraded; the detector is reported but
// does not degrade the service, since analysis falls back to synthesized
// results without it.
func healthHandler(s store.Store, c cache.Cache, d detector.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
			"detector": "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}
		if err := d.Health(r.Context()); err != nil {
			checks["detector"] = "unavailable"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
