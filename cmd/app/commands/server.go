package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/allisson/playready-proxy/internal/app"
	"github.com/allisson/playready-proxy/internal/config"
)

// RunServer starts the API and metrics servers and blocks until SIGINT/SIGTERM
// or a server failure. Shutdown stops the servers, closes every live CDM
// session and releases the store, bounded by SHUTDOWN_TIMEOUT_SECONDS.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	// Get HTTP server from container (this initializes all dependencies)
	server, err := container.HTTPServer()
	if err != nil {
		closeContainer(context.Background(), container, logger)
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		closeContainer(context.Background(), container, logger)
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	if err := container.StartAPIKeyWatcher(); err != nil {
		closeContainer(context.Background(), container, logger)
		return fmt.Errorf("failed to watch api key file: %w", err)
	}

	catalogue, err := container.DeviceCatalogue()
	if err != nil {
		closeContainer(context.Background(), container, logger)
		return err
	}
	if catalogue.Len() == 0 {
		logger.Warn("no cdm devices configured, every device route will answer 404")
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serverErr := make(chan error, 2)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("api server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", runErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, err)
	}

	logger.Info("server stopped")
	return runErr
}
