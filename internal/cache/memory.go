// Package cache stores finished drafts keyed by a fingerprint of their inputs. Drafting is
// deterministic for a given rule set, so a cached draft is interchangeable with a fresh one.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

type memoryEntry struct {
	draft     *domain.StructuredDraft
	expiresAt time.Time
}

// MemoryCache is a size-bounded in-process draft cache. Entries expire after the cache TTL or the
// per-entry TTL passed to Set, whichever comes first.
type MemoryCache struct {
	lru *expirable.LRU[string, memoryEntry]
	ttl time.Duration
	now func() time.Time
}

// NewMemoryCache creates a cache holding at most size drafts for at most ttl each.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1000
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, ttl),
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns a copy of the cached draft.
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.StructuredDraft, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return entry.draft.Clone(), true
}

// Set stores a copy of draft. A zero ttl means the cache TTL.
func (c *MemoryCache) Set(_ context.Context, key string, draft *domain.StructuredDraft, ttl time.Duration) error {
	if ttl <= 0 || ttl > c.ttl {
		ttl = c.ttl
	}
	c.lru.Add(key, memoryEntry{draft: draft.Clone(), expiresAt: c.now().Add(ttl)})
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *MemoryCache) Purge() {
	c.lru.Purge()
}
