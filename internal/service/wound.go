package service

import (
	"regexp"
	"strings"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
)

// WoundExtractor captures the first documented wound. Each attribute takes its first match.
type WoundExtractor struct {
	rules patterns.WoundRules
}

// NewWoundExtractor creates an extractor bound to the library's wound rules.
func NewWoundExtractor(lib *patterns.Library) *WoundExtractor {
	return &WoundExtractor{rules: lib.Wound}
}

// Extract returns nil when no wound cue is present or no attribute could be captured.
func (x *WoundExtractor) Extract(narrative string) *domain.WoundInfo {
	if !x.rules.Cue.MatchString(narrative) {
		return nil
	}
	info := &domain.WoundInfo{
		Location: firstGroup(x.rules.Location, narrative),
		Stage:    firstGroup(x.rules.Stage, narrative),
		Size:     firstGroup(x.rules.Size, narrative),
		Drainage: firstGroup(x.rules.Drainage, narrative),
	}
	if info.IsEmpty() {
		return nil
	}
	return info
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
