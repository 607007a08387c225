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

	"github.com/caseboardhq/caseboard-go/internal/application/container"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/cleanup"
	"github.com/caseboardhq/caseboard-go/internal/presentation/http/server"
	"github.com/caseboardhq/caseboard-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[36m" + `
   ___                _                         _
  / __|__ _ ___ ___  | |__  ___  __ _  _ _  __| |
 | (__/ _` + "`" + ` (_-</ -_) | '_ \/ _ \/ _` + "`" + ` || '_|/ _` + "`" + ` |
  \___\__,_/__/\___| |_.__/\___/\__,_||_|  \__,_|
` + "\033[0m")

	// Step 1: Create dependency injection container
	log.Println("Initializing dependency injection container...")
	appContainer, err := container.NewContainer()
	if err != nil {
		return fmt.Errorf("container initialization failed: %w", err)
	}

	logger := appContainer.Logger
	logger.Startup().Info("Container initialization complete - switching to channeled logging")

	// Step 2: Start the sync pipeline (coordinator + reconnection supervisor)
	logger.Startup().Info("Starting sync pipeline...")
	appContainer.SyncService.Start(ctx)

	// Step 3: Start broadcasters
	logger.Startup().Info("Starting broadcasters...")
	go appContainer.OpsBroadcaster.Run()

	// Step 4: Start background cleanup worker
	logger.Startup().Info("Starting background cleanup worker...")
	cleanupConfig := cleanup.NewConfig()
	cleanupWorker := cleanup.NewWorker(appContainer.CacheManager, cleanupConfig)
	go cleanupWorker.Start(ctx)

	// Step 5: Start HTTP server
	logger.Startup().Info("Starting HTTP server...")
	port := config.Port
	httpServer := server.New(port, appContainer)

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
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	// Cancel background tasks
	cancelBackgroundTasks()

	// Stop server with a bounded grace period
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("HTTP server shutdown failed", "error", err.Error())
	}

	if err := appContainer.DB.Close(); err != nil {
		logger.Shutdown().Error("Record store close failed", "error", err.Error())
	}

	logger.Shutdown().Info("Graceful shutdown complete", "duration", time.Since(shutdownStart))
	_ = logger.Close()
	return nil
}

func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
