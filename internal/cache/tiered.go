package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// Stats counts cache traffic per tier.
type Stats struct {
	MemoryHits    int64     `json:"memory_hits"`
	MemoryMisses  int64     `json:"memory_misses"`
	RedisHits     int64     `json:"redis_hits"`
	RedisMisses   int64     `json:"redis_misses"`
	Writes        int64     `json:"writes"`
	WriteErrors   int64     `json:"write_errors"`
	TotalRequests int64     `json:"total_requests"`
	LastReset     time.Time `json:"last_reset"`
}

// TieredCache checks an in-process tier first and a shared Redis tier second. A Redis hit is
// copied into the memory tier.
type TieredCache struct {
	memory *MemoryCache      // Tier 1: hot drafts
	redis  domain.DraftCache // Tier 2: shared, optional

	logger  *logrus.Logger
	stats   Stats
	statsMu sync.RWMutex
}

// NewTieredCache builds a cache over memory and an optional shared tier (nil disables it).
func NewTieredCache(memory *MemoryCache, shared domain.DraftCache, logger *logrus.Logger) *TieredCache {
	return &TieredCache{
		memory: memory,
		redis:  shared,
		logger: logger,
		stats:  Stats{LastReset: time.Now()},
	}
}

// Get looks in memory, then in the shared tier.
func (c *TieredCache) Get(ctx context.Context, key string) (*domain.StructuredDraft, bool) {
	c.incrementStat(func(s *Stats) { s.TotalRequests++ })

	if draft, ok := c.memory.Get(ctx, key); ok {
		c.incrementStat(func(s *Stats) { s.MemoryHits++ })
		c.logger.WithFields(logrus.Fields{"key": key, "cache_tier": "memory"}).Debug("Draft cache hit")
		return draft, true
	}
	c.incrementStat(func(s *Stats) { s.MemoryMisses++ })

	if c.redis == nil {
		return nil, false
	}
	draft, ok := c.redis.Get(ctx, key)
	if !ok {
		c.incrementStat(func(s *Stats) { s.RedisMisses++ })
		return nil, false
	}
	c.incrementStat(func(s *Stats) { s.RedisHits++ })
	c.logger.WithFields(logrus.Fields{"key": key, "cache_tier": "redis"}).Debug("Draft cache hit")

	_ = c.memory.Set(ctx, key, draft, 0)
	return draft, true
}

// Set writes both tiers. A shared-tier failure is logged and returned; the memory write stands.
func (c *TieredCache) Set(ctx context.Context, key string, draft *domain.StructuredDraft, ttl time.Duration) error {
	c.incrementStat(func(s *Stats) { s.Writes++ })
	_ = c.memory.Set(ctx, key, draft, ttl)

	if c.redis == nil {
		return nil
	}
	if err := c.redis.Set(ctx, key, draft, ttl); err != nil {
		c.incrementStat(func(s *Stats) { s.WriteErrors++ })
		c.logger.WithError(err).WithField("key", key).Warn("Failed to write draft to shared cache")
		return err
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (c *TieredCache) Stats() Stats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

// ResetStats zeroes the counters.
func (c *TieredCache) ResetStats() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats = Stats{LastReset: time.Now()}
}

func (c *TieredCache) incrementStat(update func(*Stats)) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	update(&c.stats)
}
