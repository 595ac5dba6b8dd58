package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/cache"
	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/feedback"
)

// ErrFeedbackDisabled is returned by feedback operations when no store is configured.
var ErrFeedbackDisabled = errors.New("feedback store not configured")

// NarrativeService is the surface shared by the HTTP API and the MCP tools. It validates
// caller input and fans out to the pipeline, the composer and the feedback store.
type NarrativeService struct {
	drafter  *CachedDrafter
	composer *NoteComposer
	feedback feedback.Store
	catalog  []FormatDescriptor
	logger   *logrus.Logger
}

// NewNarrativeService wires the surface. composer and store may be nil.
func NewNarrativeService(logger *logrus.Logger, drafter *CachedDrafter, composer *NoteComposer, store feedback.Store) *NarrativeService {
	return &NarrativeService{
		drafter:  drafter,
		composer: composer,
		feedback: store,
		catalog:  FormatCatalog(drafter.Service().Library()),
		logger:   logger,
	}
}

// DraftRequest is the caller input shared by classify, extract, draft and compose.
type DraftRequest struct {
	Narrative string `json:"narrative"`
	Format    string `json:"format,omitempty"`
	UnitType  string `json:"unit_type,omitempty"`
}

// DraftResult wraps a draft with its cache provenance.
type DraftResult struct {
	Draft  *domain.StructuredDraft `json:"draft"`
	Cached bool                    `json:"cached"`
}

// FeedbackRequest records a reviewer verdict on the format detected for a narrative.
type FeedbackRequest struct {
	Narrative       string `json:"narrative"`
	UnitType        string `json:"unit_type,omitempty"`
	CorrectedFormat string `json:"corrected_format"`
	Notes           string `json:"notes,omitempty"`
}

func (r DraftRequest) parse() (domain.FormatID, domain.ClassifyOptions, error) {
	if strings.TrimSpace(r.Narrative) == "" {
		return "", domain.ClassifyOptions{}, domain.ErrEmptyNarrative
	}
	opts, err := parseOptions(r.UnitType)
	if err != nil {
		return "", opts, err
	}
	if r.Format == "" {
		return "", opts, nil
	}
	format, err := domain.ParseFormatID(strings.ToLower(strings.TrimSpace(r.Format)))
	if err != nil {
		return "", opts, fmt.Errorf("%w: %q", domain.ErrInvalidFormat, r.Format)
	}
	return format, opts, nil
}

func parseOptions(unit string) (domain.ClassifyOptions, error) {
	u := domain.UnitType(strings.ToLower(strings.TrimSpace(unit)))
	if !u.IsValid() {
		return domain.ClassifyOptions{}, domain.NewValidationError("unit_type", "unknown unit type", unit)
	}
	return domain.ClassifyOptions{UnitType: u}, nil
}

// Classify detects the documentation format of a narrative.
func (s *NarrativeService) Classify(req DraftRequest) (*domain.DetectedFormat, error) {
	_, opts, err := req.parse()
	if err != nil {
		return nil, err
	}
	return s.drafter.Service().Classifier().Classify(req.Narrative, opts), nil
}

// Extract pulls the clinical fields out of a narrative.
func (s *NarrativeService) Extract(req DraftRequest) (*domain.ExtractedFields, error) {
	if _, _, err := req.parse(); err != nil {
		return nil, err
	}
	return s.drafter.Service().Extractor().Extract(req.Narrative), nil
}

// Draft runs the full pipeline, serving repeats from the draft cache.
func (s *NarrativeService) Draft(ctx context.Context, req DraftRequest) (*DraftResult, error) {
	format, opts, err := req.parse()
	if err != nil {
		return nil, err
	}
	draft, cached := s.drafter.Draft(ctx, req.Narrative, format, opts)
	return &DraftResult{Draft: draft, Cached: cached}, nil
}

// Compose drafts the narrative and asks the completion backend for the finished note.
func (s *NarrativeService) Compose(ctx context.Context, req DraftRequest) (*domain.ComposedNote, error) {
	format, opts, err := req.parse()
	if err != nil {
		return nil, err
	}
	if s.composer == nil {
		return nil, fmt.Errorf("%w: composer not configured", domain.ErrUpstreamUnavailable)
	}
	return s.composer.Compose(ctx, req.Narrative, format, opts)
}

// Formats lists the documentation formats in evaluation order.
func (s *NarrativeService) Formats() []FormatDescriptor {
	return s.catalog
}

// RecordFeedback classifies the narrative again and stores the reviewer's verdict against it.
func (s *NarrativeService) RecordFeedback(ctx context.Context, req FeedbackRequest) (*feedback.Feedback, error) {
	if s.feedback == nil {
		return nil, ErrFeedbackDisabled
	}
	if strings.TrimSpace(req.Narrative) == "" {
		return nil, domain.ErrEmptyNarrative
	}
	opts, err := parseOptions(req.UnitType)
	if err != nil {
		return nil, err
	}

	detected := s.drafter.Service().Classifier().Classify(req.Narrative, opts)
	fb := &feedback.Feedback{
		Fingerprint:      cache.NarrativeFingerprint(req.Narrative),
		NarrativeExcerpt: feedback.Excerpt(req.Narrative),
		UnitType:         opts.UnitType,
		DetectedFormat:   detected.Format,
		CorrectedFormat:  domain.FormatID(strings.ToLower(strings.TrimSpace(req.CorrectedFormat))),
		Confidence:       detected.Confidence,
		Notes:            req.Notes,
	}
	if err := s.feedback.Save(ctx, fb); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"feedback_id": fb.ID,
		"detected":    fb.DetectedFormat,
		"corrected":   fb.CorrectedFormat,
		"agreed":      fb.Agreed,
	}).Info("Recorded format feedback")

	return fb, nil
}

// LookupFeedback returns the stored verdict for a narrative, or ErrNotFound.
func (s *NarrativeService) LookupFeedback(ctx context.Context, narrative, unitType string) (*feedback.Feedback, error) {
	if s.feedback == nil {
		return nil, ErrFeedbackDisabled
	}
	opts, err := parseOptions(unitType)
	if err != nil {
		return nil, err
	}
	fb, err := s.feedback.Get(ctx, cache.NarrativeFingerprint(narrative), opts.UnitType)
	if err != nil {
		return nil, err
	}
	if fb == nil {
		return nil, domain.ErrNotFound
	}
	return fb, nil
}

// ListFeedback pages through stored verdicts, newest first.
func (s *NarrativeService) ListFeedback(ctx context.Context, limit, offset int) ([]*feedback.Feedback, int64, error) {
	if s.feedback == nil {
		return nil, 0, ErrFeedbackDisabled
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.feedback.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.feedback.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	if list == nil {
		list = []*feedback.Feedback{}
	}
	return list, total, nil
}

// FeedbackAgreement reports per-format reviewer agreement.
func (s *NarrativeService) FeedbackAgreement(ctx context.Context) ([]feedback.FormatAgreement, error) {
	if s.feedback == nil {
		return nil, ErrFeedbackDisabled
	}
	return s.feedback.Agreement(ctx)
}

// ExportFeedback writes every stored verdict as JSON.
func (s *NarrativeService) ExportFeedback(ctx context.Context, w io.Writer) error {
	if s.feedback == nil {
		return ErrFeedbackDisabled
	}
	return s.feedback.ExportJSON(ctx, w)
}

// ImportFeedback loads verdicts exported by ExportFeedback, skipping ones already stored.
func (s *NarrativeService) ImportFeedback(ctx context.Context, r io.Reader) (imported, skipped int, err error) {
	if s.feedback == nil {
		return 0, 0, ErrFeedbackDisabled
	}
	return s.feedback.ImportJSON(ctx, r)
}
