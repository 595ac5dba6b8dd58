// Package feedback stores reviewer verdicts on detected documentation formats. A reviewer either
// confirms the classifier's format or records the format the note should have used.
package feedback

import (
	"context"
	"io"
	"time"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// Feedback is one reviewer verdict on a classified narrative.
type Feedback struct {
	ID               int64           `json:"id,omitempty"`
	Fingerprint      string          `json:"fingerprint"`                 // SHA-256 of the narrative
	NarrativeExcerpt string          `json:"narrative_excerpt,omitempty"` // Leading characters, for review screens
	UnitType         domain.UnitType `json:"unit_type,omitempty"`         // Clinical context
	DetectedFormat   domain.FormatID `json:"detected_format"`             // Classifier's choice
	CorrectedFormat  domain.FormatID `json:"corrected_format"`            // Reviewer's choice
	Agreed           bool            `json:"agreed"`                      // Reviewer kept the detected format
	Confidence       float64         `json:"confidence"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// MaxExcerptLength bounds NarrativeExcerpt.
const MaxExcerptLength = 120

// Excerpt trims a narrative to MaxExcerptLength runes.
func Excerpt(narrative string) string {
	r := []rune(narrative)
	if len(r) <= MaxExcerptLength {
		return narrative
	}
	return string(r[:MaxExcerptLength]) + "..."
}

// Validate checks the fields every store requires and derives Agreed.
func (f *Feedback) Validate() error {
	if f.Fingerprint == "" {
		return domain.NewValidationError("fingerprint", "fingerprint is required", f.Fingerprint)
	}
	if !f.DetectedFormat.IsValid() {
		return domain.NewValidationError("detected_format", "unknown format", f.DetectedFormat)
	}
	if !f.CorrectedFormat.IsValid() {
		return domain.NewValidationError("corrected_format", "unknown format", f.CorrectedFormat)
	}
	if f.UnitType != domain.UnitUnknown && !f.UnitType.IsValid() {
		return domain.NewValidationError("unit_type", "unknown unit type", f.UnitType)
	}
	f.Agreed = f.DetectedFormat == f.CorrectedFormat
	return nil
}

// FormatAgreement summarizes reviewer agreement for one detected format.
type FormatAgreement struct {
	Format domain.FormatID `json:"format"`
	Total  int64           `json:"total"`
	Agreed int64           `json:"agreed"`
}

// Rate is the share of verdicts that kept the detected format.
func (a FormatAgreement) Rate() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.Agreed) / float64(a.Total)
}

// Store defines the interface for feedback storage operations.
type Store interface {
	// Save stores or updates a verdict. A verdict for the same fingerprint and unit type is
	// replaced.
	Save(ctx context.Context, feedback *Feedback) error

	// Get returns the verdict for a narrative, or nil when there is none.
	Get(ctx context.Context, fingerprint string, unitType domain.UnitType) (*Feedback, error)

	// List returns verdicts newest first.
	List(ctx context.Context, limit, offset int) ([]*Feedback, error)

	// Count returns the total number of verdicts.
	Count(ctx context.Context) (int64, error)

	// Agreement returns per-format agreement counts ordered by format.
	Agreement(ctx context.Context) ([]FormatAgreement, error)

	// Delete removes a verdict by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all verdicts to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports verdicts, skipping ones already present.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// FeedbackExport represents the JSON export format.
type FeedbackExport struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Feedback   []*Feedback `json:"feedback"`
}

// exportVersion is bumped when the export layout changes.
const exportVersion = "1.0"

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000
