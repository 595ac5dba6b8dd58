package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/cache"
	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// CachedDrafter serves repeated narratives from a draft cache. Drafts that used the medication
// listing fallback carry the clock time and are still cached; the cache TTL bounds how stale
// that time can get.
type CachedDrafter struct {
	drafting *DraftingService
	cache    domain.DraftCache
	ttl      time.Duration
	logger   *logrus.Logger
}

// NewCachedDrafter wraps drafting with cache. A nil cache disables caching.
func NewCachedDrafter(drafting *DraftingService, draftCache domain.DraftCache, ttl time.Duration, logger *logrus.Logger) *CachedDrafter {
	return &CachedDrafter{drafting: drafting, cache: draftCache, ttl: ttl, logger: logger}
}

// Draft returns a draft for narrative in format (detected when empty) and whether it came from
// the cache. The caller owns the returned draft.
func (d *CachedDrafter) Draft(ctx context.Context, narrative string, format domain.FormatID, opts domain.ClassifyOptions) (*domain.StructuredDraft, bool) {
	if !format.IsValid() {
		format = ""
	}
	key := cache.Fingerprint(narrative, format, opts)

	if d.cache != nil {
		if draft, ok := d.cache.Get(ctx, key); ok {
			return draft, true
		}
	}

	var draft *domain.StructuredDraft
	if format != "" {
		draft = d.drafting.DraftAs(narrative, format, opts)
	} else {
		draft = d.drafting.Draft(narrative, opts)
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, key, draft, d.ttl); err != nil {
			d.logger.WithError(err).WithField("draft_id", draft.ID).Warn("Failed to cache draft")
		}
	}
	return draft, false
}

// Service returns the uncached pipeline.
func (d *CachedDrafter) Service() *DraftingService { return d.drafting }
