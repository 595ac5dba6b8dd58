package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nursing-narrative-mcp-server/internal/api"
	"github.com/nursing-narrative-mcp-server/internal/bootstrap"
	"github.com/nursing-narrative-mcp-server/internal/config"
	"github.com/nursing-narrative-mcp-server/internal/logging"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	components, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize services")
	}
	defer components.Close()

	server, err := api.NewServer(configManager, components.Narratives, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create server")
	}
	for name, check := range components.Checks {
		server.AddHealthCheck(name, api.HealthCheck(check))
	}

	logger.WithField("environment", cfg.Environment).Infof("Starting nursing narrative server on %s:%d", cfg.Server.Host, cfg.Server.Port)

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		return
	}

	logger.Info("Server stopped")
}
