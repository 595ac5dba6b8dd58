package service

import (
	"strconv"
	"strings"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
)

// IntakeOutputExtractor builds the fluid ledger from dictated volumes. Each volume is attributed
// to the nearest source term in its clause, looking after the number first ("240 mL PO") and then
// before it ("urine output 400 mL"). The first volume seen for a source wins.
type IntakeOutputExtractor struct {
	rules patterns.IntakeOutputRules
}

// NewIntakeOutputExtractor creates an extractor bound to the library's fluid rules.
func NewIntakeOutputExtractor(lib *patterns.Library) *IntakeOutputExtractor {
	return &IntakeOutputExtractor{rules: lib.IntakeOutput}
}

// Extract returns nil when the narrative has no attributable fluid volume.
func (x *IntakeOutputExtractor) Extract(narrative string) *domain.IntakeOutput {
	intake := map[string]int{}
	output := map[string]int{}

	for _, loc := range x.rules.Volume.FindAllStringSubmatchIndex(narrative, -1) {
		volume, err := strconv.Atoi(narrative[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		source, ok := x.attribute(narrative, loc[0], loc[1])
		if !ok {
			continue
		}
		ledger := intake
		if source.Direction == patterns.Output {
			ledger = output
		}
		if _, exists := ledger[source.Name]; !exists {
			ledger[source.Name] = volume
		}
	}

	if len(intake) == 0 && len(output) == 0 {
		return nil
	}
	return domain.NewIntakeOutput(intake, output)
}

func (x *IntakeOutputExtractor) attribute(narrative string, start, end int) (patterns.FluidSource, bool) {
	after := clauseAfter(narrative[end:], x.rules.Window)
	if src, ok := x.nearest(after, true); ok {
		return src, true
	}
	before := clauseBefore(narrative[:start], x.rules.Window)
	return x.nearest(before, false)
}

// nearest picks the source whose term is closest to the volume: the earliest match in text that
// follows the volume, or the latest match in text that precedes it. Table order breaks ties.
func (x *IntakeOutputExtractor) nearest(text string, following bool) (patterns.FluidSource, bool) {
	best := -1
	var found patterns.FluidSource
	for _, src := range x.rules.Sources {
		locs := src.Pattern.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		var pos int
		if following {
			pos = locs[0][0]
		} else {
			pos = len(text) - locs[len(locs)-1][1]
		}
		if best == -1 || pos < best {
			best = pos
			found = src
		}
	}
	return found, best != -1
}

const clauseBreaks = ".,;\n"

func clauseAfter(s string, window int) string {
	if i := strings.IndexAny(s, clauseBreaks); i >= 0 {
		s = s[:i]
	}
	if len(s) > window {
		s = s[:window]
	}
	return s
}

func clauseBefore(s string, window int) string {
	if i := strings.LastIndexAny(s, clauseBreaks); i >= 0 {
		s = s[i+1:]
	}
	if len(s) > window {
		s = s[len(s)-window:]
	}
	return s
}
