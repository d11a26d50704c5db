// Command server runs the shortlink HTTP API.
//
// Startup flow: config -> logger -> store -> service -> handler -> server.
// SIGINT or SIGTERM drains in-flight requests before the store is closed.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shortlink/internal/codegen"
	"shortlink/internal/config"
	httpHandler "shortlink/internal/handler/http"
	"shortlink/internal/service"
	"shortlink/internal/storage"
	"shortlink/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ========================================================================
	// STEP 1: CONFIGURATION AND LOGGER
	// ========================================================================
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.App.LogLevel)
	appLogger.Info("Starting shortlink",
		"environment", cfg.App.Environment,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
	)

	// ========================================================================
	// STEP 2: STORE
	// ========================================================================
	// Built once; the repository owns the connection pool for the life of
	// the process. The schema is created if missing.
	ctx := context.Background()
	repo, err := storage.OpenAndMigrate(ctx, cfg)
	if err != nil {
		appLogger.Error("Failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	appLogger.Info("Store ready", "driver", cfg.Store.Driver)

	// ========================================================================
	// STEP 3: DEPENDENCY GRAPH
	// ========================================================================
	// Store -> LinkService -> Handler
	linkService := service.NewLinkService(
		repo,
		codegen.New(),
		appLogger.Logger,
		service.WithCodeLength(cfg.App.ShortCodeLength),
		service.WithMaxAttempts(cfg.App.MaxCodeAttempts),
	)
	handler := httpHandler.NewHandler(linkService, appLogger.Logger, cfg.App.BaseURL)

	// ========================================================================
	// STEP 4: ROUTES AND MIDDLEWARE
	// ========================================================================
	mux := http.NewServeMux()
	handler.Register(mux)
	if cfg.App.EnableMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Request -> Recovery -> Logging -> RequestID -> CORS -> Metrics -> Timeout -> mux
	finalHandler := httpHandler.Chain(
		httpHandler.RecoveryMiddleware(appLogger.Logger),
		httpHandler.LoggingMiddleware(appLogger.Logger),
		httpHandler.RequestIDMiddleware,
		httpHandler.CORSMiddleware,
		httpHandler.MetricsMiddleware,
		httpHandler.TimeoutMiddleware(cfg.Server.WriteTimeout),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// ========================================================================
	// STEP 5: SERVE AND SHUT DOWN GRACEFULLY
	// ========================================================================
	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Server starting", "address", server.Addr, "base_url", cfg.App.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", "signal", sig.String())
	case err := <-serverErr:
		appLogger.Error("Server failed", "error", err)
		repo.Close()
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server exited gracefully")
}
