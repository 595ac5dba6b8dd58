package service

import (
	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
)

// FormatDescriptor is the public description of one format table row.
type FormatDescriptor struct {
	ID              domain.FormatID   `json:"id"`
	Name            string            `json:"name"`
	Specialized     bool              `json:"specialized"`
	Threshold       int               `json:"threshold,omitempty"`
	Keywords        map[string]int    `json:"keywords"`
	Cues            []string          `json:"cues,omitempty"`
	Units           []domain.UnitType `json:"units,omitempty"`
	Sections        []string          `json:"sections"`
	OverflowSection string            `json:"overflow_section"`
}

// FormatCatalog describes every format in lib in evaluation order.
func FormatCatalog(lib *patterns.Library) []FormatDescriptor {
	out := make([]FormatDescriptor, 0, len(lib.Formats))
	for i := range lib.Formats {
		spec := &lib.Formats[i]
		d := FormatDescriptor{
			ID:              spec.ID,
			Name:            spec.Name,
			Specialized:     spec.Specialized(),
			Keywords:        make(map[string]int, len(spec.Keywords)),
			Units:           append([]domain.UnitType(nil), spec.Units...),
			Sections:        append([]string(nil), spec.Sections...),
			OverflowSection: spec.OverflowSection,
		}
		if d.Specialized {
			d.Threshold = spec.Threshold
		}
		for _, kw := range spec.Keywords {
			d.Keywords[kw.Term] = kw.Weight
		}
		for _, cue := range spec.Cues {
			d.Cues = append(d.Cues, cue.Name)
		}
		out = append(out, d)
	}
	return out
}
