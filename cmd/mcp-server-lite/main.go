// Package main provides the lightweight entry point for the nursing narrative MCP server.
// This version requires no external databases - uses in-memory caching and SQLite.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nursing-narrative-mcp-server/internal/config"
	"github.com/nursing-narrative-mcp-server/internal/logging"
	"github.com/nursing-narrative-mcp-server/internal/mcp"
	"github.com/nursing-narrative-mcp-server/internal/setup"
)

func main() {
	// Check for setup subcommand
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.NewCLI(os.Stdout).Run(os.Args[2:]); err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		return
	}

	cfg := config.LoadLiteConfig()

	// stdout carries protocol frames
	logger := logging.NewWithOutput(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logger.WithFields(map[string]interface{}{
		"transport": cfg.Transport,
		"data_dir":  cfg.DataDir,
	}).Info("Starting nursing narrative MCP server (lite)")

	server, err := mcp.NewLiteServer(cfg, mcp.WithLogger(logger))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("Nursing narrative MCP server (lite) stopped")
}
