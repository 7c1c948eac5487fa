/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the InvoicePatch payroll calculator server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, PAYROLL_* environment, flags)
  2. Build the zap logger
  3. Open the SQLite holiday store (migrations run on open)
  4. Create API handler, metrics and router
  5. Start server with graceful shutdown

CONFIGURATION:
  --port / PAYROLL_PORT                 HTTP server port (default: 8080)
  --db / PAYROLL_DB_PATH                SQLite database path (default: payroll.db)
                                        Use ":memory:" for in-memory database
  PAYROLL_LOG_LEVEL                     debug|info|warn|error (default: info)
  PAYROLL_LOG_FORMAT                    json|console (default: json)
  PAYROLL_ENVIRONMENT                   development|testing|production
  PAYROLL_CORS_ALLOWED_ORIGINS          Comma or pipe separated origins
  PAYROLL_RATE_LIMIT_PER_MINUTE         Per-IP budget for /api (default: 120)
  PAYROLL_SHUTDOWN_TIMEOUT              Drain time on shutdown (default: 30s)
  PAYROLL_DEFAULT_PERIODS               Periods when a request omits them (default: 26)

  Run with --help for the full list.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (ShutdownTimeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - config/config.go: Configuration fields
*/
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

	"go.uber.org/zap"

	"github.com/invoicepatch/payroll-engine/api"
	"github.com/invoicepatch/payroll-engine/config"
	"github.com/invoicepatch/payroll-engine/logger"
	"github.com/invoicepatch/payroll-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, config.ErrHelpWanted) {
			return
		}
		fmt.Fprintf(os.Stderr, "payroll server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, log, api.NewMetrics())
	handler.DefaultPeriods = cfg.DefaultPeriods

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins:     cfg.AllowedOrigins(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Production:         cfg.IsProduction(),
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("db", cfg.DBPath),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
