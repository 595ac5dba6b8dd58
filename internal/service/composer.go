package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// FallbackNoticeFormat labels a note that was produced without the completion backend.
const FallbackNoticeFormat = "[Draft generated without AI assistance: %s]"

// NoteComposer turns a narrative into a finished note: optional redaction, drafting, term
// enrichment, then completion. Any upstream failure yields the assembled draft with a notice.
type NoteComposer struct {
	drafting   *DraftingService
	completion domain.CompletionService
	redactor   domain.Redactor
	enricher   *TermEnricher
	logger     *logrus.Logger
}

// NewNoteComposer wires a composer. completion, redactor and enricher may be nil.
func NewNoteComposer(logger *logrus.Logger, drafting *DraftingService, completion domain.CompletionService, redactor domain.Redactor, enricher *TermEnricher) *NoteComposer {
	return &NoteComposer{
		drafting:   drafting,
		completion: completion,
		redactor:   redactor,
		enricher:   enricher,
		logger:     logger,
	}
}

// Compose drafts narrative in format (the detected format when format is empty) and asks the
// completion backend for prose. Only an empty narrative is an error.
func (c *NoteComposer) Compose(ctx context.Context, narrative string, format domain.FormatID, opts domain.ClassifyOptions) (*domain.ComposedNote, error) {
	if strings.TrimSpace(narrative) == "" {
		return nil, domain.ErrEmptyNarrative
	}

	note := &domain.ComposedNote{}
	text := narrative
	var failure string

	if c.redactor != nil {
		res, err := c.redactor.Redact(ctx, narrative)
		if err != nil {
			failure = fmt.Sprintf("redaction failed (%v)", err)
		} else if res != nil {
			text = res.RedactedText
			note.Redacted = true
		}
	}

	if format.IsValid() {
		note.Draft = c.drafting.DraftAs(text, format, opts)
	} else {
		note.Draft = c.drafting.Draft(text, opts)
	}
	note.Definitions = c.enricher.Enrich(ctx, note.Draft.ExtractedFields)

	if failure == "" && c.completion == nil {
		failure = "completion service not configured"
	}
	if failure == "" {
		body, err := c.completion.Complete(ctx, BuildNotePrompt(note.Draft, note.Definitions))
		switch {
		case err != nil:
			failure = fmt.Sprintf("%v", err)
		case strings.TrimSpace(body) == "":
			failure = "completion service returned an empty response"
		default:
			note.Body = strings.TrimSpace(body)
		}
	}

	if failure != "" {
		note.Degraded = true
		note.Notice = fmt.Sprintf(FallbackNoticeFormat, failure)
		note.Body = note.Notice + "\n\n" + note.Draft.Render()

		c.logger.WithFields(logrus.Fields{
			"draft_id": note.Draft.ID,
			"reason":   failure,
		}).Warn("Composed note without completion")
		return note, nil
	}

	c.logger.WithFields(logrus.Fields{
		"draft_id": note.Draft.ID,
		"format":   note.Draft.Format,
		"redacted": note.Redacted,
	}).Info("Composed note")

	return note, nil
}
