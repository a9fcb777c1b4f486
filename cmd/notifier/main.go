package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/localpro/marketplace/internal/config"
	"github.com/localpro/marketplace/internal/notifier"
	"github.com/localpro/marketplace/pkg/logger"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger.
	log := logger.New("marketplace-notifier", cfg.LogLevel)
	log.Info("starting marketplace notifier",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.NotifierHTTPPort),
	)

	// Create the application with all dependencies wired.
	application, err := notifier.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize notifier", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create a context that is canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run the notifier. This blocks until shutdown.
	if err := application.Run(ctx); err != nil {
		log.Error("notifier error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("marketplace notifier stopped")
}
