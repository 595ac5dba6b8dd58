package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
)

// DraftingService runs classify, extract, assemble and the readiness gate over one narrative.
// It holds no mutable state and is safe for concurrent use.
type DraftingService struct {
	logger     *logrus.Logger
	lib        *patterns.Library
	clock      Clock
	classifier *FormatClassifier
	extractor  *FieldExtractor
	assembler  *SectionAssembler
}

// NewDraftingService wires the pipeline around one library. A nil clock means time.Now.
func NewDraftingService(logger *logrus.Logger, lib *patterns.Library, clock Clock) *DraftingService {
	if clock == nil {
		clock = time.Now
	}
	return &DraftingService{
		logger:     logger,
		lib:        lib,
		clock:      clock,
		classifier: NewFormatClassifier(logger, lib),
		extractor:  NewFieldExtractor(logger, lib, clock),
		assembler:  NewSectionAssembler(logger, lib),
	}
}

// Draft classifies narrative and assembles a draft in the detected format.
func (s *DraftingService) Draft(narrative string, opts domain.ClassifyOptions) *domain.StructuredDraft {
	return s.draft(narrative, "", opts)
}

// DraftAs assembles the draft in a caller-chosen format. Classification still runs and is
// reported so reviewers can see when the choice disagrees with the narrative.
func (s *DraftingService) DraftAs(narrative string, format domain.FormatID, opts domain.ClassifyOptions) *domain.StructuredDraft {
	return s.draft(narrative, format, opts)
}

func (s *DraftingService) draft(narrative string, target domain.FormatID, opts domain.ClassifyOptions) *domain.StructuredDraft {
	detected := s.classifier.Classify(narrative, opts)
	fields := s.extractor.Extract(narrative)

	format := detected.Format
	if target.IsValid() {
		format = target
	}
	sections := s.assembler.Assemble(format, fields)

	draft := &domain.StructuredDraft{
		ID:              uuid.New().String(),
		Format:          format,
		DetectedFormat:  detected,
		ExtractedFields: fields,
		Sections:        sections,
		SectionOrder:    s.assembler.SectionNames(format),
		ReadyForReview:  IsReady(sections, fields),
		Analysis:        Analyze(format, detected, fields),
		CreatedAt:       s.clock().UTC(),
	}

	s.logger.WithFields(logrus.Fields{
		"draft_id":         draft.ID,
		"detected_format":  detected.Format,
		"rendered_format":  format,
		"confidence":       detected.Confidence,
		"ready_for_review": draft.ReadyForReview,
	}).Info("Draft assembled")

	return draft
}

// Classifier exposes the classifier stage.
func (s *DraftingService) Classifier() *FormatClassifier { return s.classifier }

// Extractor exposes the extraction stage.
func (s *DraftingService) Extractor() *FieldExtractor { return s.extractor }

// Assembler exposes the assembly stage.
func (s *DraftingService) Assembler() *SectionAssembler { return s.assembler }

// Library returns the rule set the pipeline was built with.
func (s *DraftingService) Library() *patterns.Library { return s.lib }
