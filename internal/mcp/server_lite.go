// Package mcp provides the MCP server implementation.
// This file contains the lightweight server that requires no external databases.
package mcp

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/cache"
	litecfg "github.com/nursing-narrative-mcp-server/internal/config"
	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/feedback"
	"github.com/nursing-narrative-mcp-server/internal/logging"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
	"github.com/nursing-narrative-mcp-server/internal/service"
	"github.com/nursing-narrative-mcp-server/pkg/external"
)

// dictionaryCacheSize bounds the terminology lookup LRU.
const dictionaryCacheSize = 512

// LiteServer is a lightweight MCP server that requires no external databases.
// It uses in-memory caching and SQLite for persistence.
type LiteServer struct {
	config        *litecfg.LiteConfig
	server        *Server
	narratives    *service.NarrativeService
	feedbackStore feedback.Store
	completion    domain.CompletionService
	cache         *cache.MemoryCache
	logger        *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithFeedbackStore sets a custom feedback store.
func WithFeedbackStore(store feedback.Store) LiteServerOption {
	return func(s *LiteServer) error {
		s.feedbackStore = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// WithCompletion replaces the completion backend derived from the config.
func WithCompletion(completion domain.CompletionService) LiteServerOption {
	return func(s *LiteServer) error {
		s.completion = completion
		return nil
	}
}

// NewLiteServer creates a new lightweight MCP server instance.
func NewLiteServer(cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	server := &LiteServer{config: cfg}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if server.logger == nil {
		server.logger = logging.New(cfg.LogLevel, cfg.LogFormat)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	server.cache = cache.NewMemoryCache(cfg.CacheMaxItems, cfg.CacheTTL)

	if server.feedbackStore == nil {
		store, err := feedback.NewSQLiteStore(cfg.FeedbackDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create feedback store: %w", err)
		}
		server.feedbackStore = store
	}

	if server.completion == nil {
		server.completion = external.NewCompletionService(cfg.CompletionConfig(), server.logger)
	}

	lookup, err := external.NewCachedLookup(external.NewStaticDictionary(nil), dictionaryCacheSize, server.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create terminology lookup: %w", err)
	}

	drafting := service.NewDraftingService(server.logger, patterns.Default(), nil)
	drafter := service.NewCachedDrafter(drafting, server.cache, cfg.CacheTTL, server.logger)
	composer := service.NewNoteComposer(
		server.logger,
		drafting,
		server.completion,
		external.NewPatternRedactor(),
		service.NewTermEnricher(lookup, server.logger),
	)
	server.narratives = service.NewNarrativeService(server.logger, drafter, composer, server.feedbackStore)

	mcpServer, err := NewServer(domain.MCPConfig{
		ServerName:    "nursing-narrative-mcp-server-lite",
		ServerVersion: "v0.1.0",
		TransportType: cfg.Transport,
	}, server.narratives, cfg.ExportDir(), server.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	server.server = mcpServer

	server.logger.WithFields(logrus.Fields{
		"data_dir":   cfg.DataDir,
		"completion": server.completion != nil,
	}).Info("Lite server initialized successfully")
	return server, nil
}

// Start runs the lite MCP server until ctx is cancelled.
func (s *LiteServer) Start(ctx context.Context) error {
	return s.server.Run(ctx)
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.feedbackStore != nil {
		if err := s.feedbackStore.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close feedback store")
			return err
		}
	}
	return nil
}

// Narratives returns the service behind the tools.
func (s *LiteServer) Narratives() *service.NarrativeService {
	return s.narratives
}

// GetFeedbackStore returns the feedback store for external access.
func (s *LiteServer) GetFeedbackStore() feedback.Store {
	return s.feedbackStore
}

// GetCache returns the memory cache for external access.
func (s *LiteServer) GetCache() *cache.MemoryCache {
	return s.cache
}
