// Package bootstrap assembles the narrative service from the full configuration. It backs
// both the HTTP server and the full MCP server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/cache"
	"github.com/nursing-narrative-mcp-server/internal/database"
	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
	"github.com/nursing-narrative-mcp-server/internal/service"
	"github.com/nursing-narrative-mcp-server/pkg/external"
)

const dictionaryCacheSize = 512

// Check tests one dependency.
type Check func(ctx context.Context) error

// Components holds the wired service and the dependencies behind it.
type Components struct {
	Narratives *service.NarrativeService
	Checks     map[string]Check

	closers []func()
	logger  *logrus.Logger
}

// New opens the feedback store, the draft cache tiers and the completion backend described by
// cfg and wires them into a NarrativeService. Call Close when done.
func New(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (*Components, error) {
	c := &Components{Checks: make(map[string]Check), logger: logger}

	store, closeStore, err := database.OpenFeedbackStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("opening feedback store: %w", err)
	}
	c.closers = append(c.closers, closeStore)
	c.Checks["feedback_store"] = func(ctx context.Context) error {
		_, err := store.Count(ctx)
		return err
	}

	draftCache, err := c.draftCache(cfg.Cache)
	if err != nil {
		c.Close()
		return nil, err
	}

	completion := external.NewCompletionService(cfg.Completion, logger)
	if resilient, ok := completion.(*external.ResilientCompletionClient); ok {
		c.Checks["completion"] = func(context.Context) error {
			if state := resilient.State(); state == "open" {
				return errors.New("circuit breaker open")
			}
			return nil
		}
	}

	lookup, err := external.NewCachedLookup(external.NewStaticDictionary(nil), dictionaryCacheSize, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("creating terminology lookup: %w", err)
	}

	drafting := service.NewDraftingService(logger, patterns.Default(), nil)
	drafter := service.NewCachedDrafter(drafting, draftCache, cfg.Cache.DefaultTTL, logger)
	composer := service.NewNoteComposer(logger, drafting, completion, external.NewPatternRedactor(), service.NewTermEnricher(lookup, logger))
	c.Narratives = service.NewNarrativeService(logger, drafter, composer, store)

	logger.WithFields(logrus.Fields{
		"driver":     cfg.Database.Driver,
		"redis":      cfg.Cache.RedisURL != "",
		"completion": completion != nil,
	}).Info("Narrative service wired")

	return c, nil
}

// draftCache returns the memory tier, fronting Redis when a URL is configured.
func (c *Components) draftCache(cfg domain.CacheConfig) (domain.DraftCache, error) {
	memory := cache.NewMemoryCache(cfg.MaxItems, cfg.DefaultTTL)
	if cfg.RedisURL == "" {
		return memory, nil
	}

	shared, err := cache.NewRedisCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting draft cache: %w", err)
	}
	c.closers = append(c.closers, func() {
		if err := shared.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close Redis client")
		}
	})
	c.Checks["redis"] = shared.Ping

	return cache.NewTieredCache(memory, shared, c.logger), nil
}

// Close releases every dependency in reverse order of opening.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
