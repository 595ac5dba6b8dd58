package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nursing-narrative-mcp-server/internal/bootstrap"
	"github.com/nursing-narrative-mcp-server/internal/config"
	"github.com/nursing-narrative-mcp-server/internal/logging"
	"github.com/nursing-narrative-mcp-server/internal/mcp"
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

	// stdout carries protocol frames
	logger := logging.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down MCP server...")
		cancel()
	}()

	components, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize services")
	}
	defer components.Close()

	mcpServer, err := mcp.NewServer(cfg.MCP, components.Narratives, cfg.MCP.ExportDir, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}

	if err := mcpServer.Run(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("Nursing narrative MCP server stopped")
}
