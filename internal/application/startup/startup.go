// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/application/container"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/cleanup"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/presentation/http/server"
	"github.com/ForesightHQ/foresight-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `

  ▄████▄  ▄████▄  ▄████▄  ▄████▄  ▄████▄  ▄████▄
  ██      ██  ██  ██  ██  ██      ██      ▀▀  ██
  ██▀▀▀▀  ██  ██  ██▀█▄   ██▀▀▀▀  ▀████▄  ██▀▀▀
  ██      ▀████▀  ██ ▀█▄  ▀████▄  ▄▄  ██  ██ ▄▄
  ▀▀                           ▀  ▀████▀  ▀████▀
` + "\033[97m" + `
  foresight - privacy-first forecasting backend
` + "\033[0m")

	// Step 1: Create dependency injection container
	log.Println("Initializing dependency injection container...")
	appContainer, err := container.NewContainer()
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	log.Println("✓ Dependency injection container created with singleton services.")

	logger := appContainer.Logger
	logger.Startup().Info("Container initialization complete - switching to channeled logging")

	// Step 2: Verify forecasting backend reachability (non-fatal; the
	// backend may still be starting).
	logger.Startup().Info("Checking forecasting backend...", "url", config.ProphetAPIURL)
	healthCtx, healthCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := appContainer.ProphetClient.Health(healthCtx); err != nil {
		logger.Startup().Warn("Forecasting backend not reachable yet", "error", err.Error())
	} else {
		logger.Startup().Info("Forecasting backend is healthy")
	}
	healthCancel()

	// Step 3: Start background session sweep worker
	logger.Startup().Info("Starting session sweep worker...")
	startWorkerTime := time.Now()

	cleanupConfig := cleanup.NewConfig()
	sweepWorker := cleanup.NewWorker(
		appContainer.StoreManager.Sessions(),
		cleanupConfig,
		expiryNotifier(appContainer),
		logger,
	)
	go sweepWorker.Start(ctx)

	logger.Startup().Info("Session sweep worker started", "duration", time.Since(startWorkerTime))

	// Step 4: Start ops dashboard broadcaster
	logger.Startup().Info("Starting ops broadcaster...")
	go appContainer.OpsBroadcaster.Run()

	// Step 5: Start HTTP server
	logger.Startup().Info("Starting HTTP server...")
	startServerTime := time.Now()

	port := config.Port
	httpServer := server.New(port, appContainer)

	logger.Startup().Info("HTTP server initialized", "port", port, "duration", time.Since(startServerTime))

	// Step 6: Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	totalStartupTime := time.Since(start)
	logger.Startup().Info("Application startup complete",
		"totalDuration", totalStartupTime,
		"maxSessions", config.MaxSessions,
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	// Cancel background tasks
	cancelBackgroundTasks()

	// Stop server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	// Final sweep so clients of already-expired sessions are notified
	// before the process exits; live sessions die with the process anyway.
	logger.Shutdown().Info("Sweeping expired sessions...")
	cleared := sweepWorker.Sweep(shutdownCtx)
	logger.Shutdown().Info("Expired session sweep complete", "expiredRemoved", cleared)

	logger.Shutdown().Info("Closing model registry...")
	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing model registry", "error", err.Error())
	} else {
		logger.Shutdown().Info("Model registry closed successfully")
	}

	elapsed := time.Since(start)
	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", elapsed,
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// expiryNotifier builds the callback the sweep worker invokes for each
// expired session: abort any running forecast, purge registered models,
// then tell connected browsers the session is gone.
func expiryNotifier(c *container.Container) cleanup.ExpiryNotifier {
	return func(sessionID string) {
		c.ForecastService.DropRun(sessionID)

		purgeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := c.RegistryRepo.PurgeSession(purgeCtx, sessionID); err != nil {
			c.Logger.LogError(logging.ChannelRegistry, "purge_session", err, sessionID)
		}

		c.SSEBroadcaster.NotifySessionExpired(sessionID)
	}
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
