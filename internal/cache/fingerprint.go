package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
)

// Fingerprint derives the cache key for a draft request. The rule set version is part of the key
// so a library upgrade never serves drafts built by older rules.
func Fingerprint(narrative string, format domain.FormatID, opts domain.ClassifyOptions) string {
	h := sha256.New()
	for _, part := range []string{patterns.Version, string(format), string(opts.UnitType), narrative} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "draft:" + hex.EncodeToString(h.Sum(nil))
}

// NarrativeFingerprint identifies a narrative on its own, for keying reviewer feedback.
func NarrativeFingerprint(narrative string) string {
	sum := sha256.Sum256([]byte(narrative))
	return hex.EncodeToString(sum[:])
}
