// ABOUTME: Main entry point for the budget simulator HTTP API
// ABOUTME: Loads config, builds the service and serves the gin router until interrupted
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/harper/budget-simulator/internal/api"
	"github.com/harper/budget-simulator/internal/config"
	"github.com/harper/budget-simulator/internal/logging"
	"github.com/harper/budget-simulator/internal/service"
)

func main() {
	// Load .env file if it exists (for API keys)
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "error", "text").Fatal("invalid configuration", "err", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		logger.Debug("no .env file found", "err", envErr)
	}

	svc, err := service.New(cfg, service.Options{Logger: logger})
	if err != nil {
		logger.Fatal("failed to initialize service", "err", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(svc, cfg.CORSOrigins, logger)
	if err := server.ListenAndServe(ctx, cfg.Addr()); err != nil {
		logger.Error("server error", "err", err)
		stop()
		_ = svc.Close()
		os.Exit(1)
	}
}
