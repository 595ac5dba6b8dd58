package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
)

type fakeCompletion struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompletion) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

type fakeRedactor struct {
	err error
}

func (f *fakeRedactor) Redact(_ context.Context, text string) (*domain.RedactionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.RedactionResult{
		RedactedText: strings.ReplaceAll(text, "John Smith", "[NAME]"),
		Findings:     []domain.RedactionFinding{{Category: "name"}},
	}, nil
}

type fakeLookup map[string]string

func (f fakeLookup) LookupTerm(_ context.Context, word string) (string, bool) {
	def, ok := f[strings.ToLower(word)]
	return def, ok
}

func newTestComposer(completion domain.CompletionService, redactor domain.Redactor, lookup domain.KnowledgeLookup) *NoteComposer {
	logger := newTestLogger()
	var enricher *TermEnricher
	if lookup != nil {
		enricher = NewTermEnricher(lookup, logger)
	}
	return NewNoteComposer(logger, newTestDraftingService(), completion, redactor, enricher)
}

func TestNoteComposer_Success(t *testing.T) {
	completion := &fakeCompletion{response: "  Subjective: Patient reports chest pain.\n"}
	composer := newTestComposer(completion, nil, fakeLookup{"chest pain": "Discomfort in the chest."})

	note, err := composer.Compose(context.Background(), scenarioA, "", domain.ClassifyOptions{})
	require.NoError(t, err)

	assert.False(t, note.Degraded)
	assert.Empty(t, note.Notice)
	assert.Equal(t, "Subjective: Patient reports chest pain.", note.Body)
	assert.Equal(t, map[string]string{"chest pain": "Discomfort in the chest."}, note.Definitions)

	require.Len(t, completion.prompts, 1)
	prompt := completion.prompts[0]
	assert.Contains(t, prompt, "Subjective, Objective, Assessment, Plan")
	assert.Contains(t, prompt, "140/90")
	assert.Contains(t, prompt, "- chest pain: Discomfort in the chest.")
	assert.NotContains(t, prompt, scenarioA)
}

func TestNoteComposer_UpstreamFailureFallsBack(t *testing.T) {
	tests := []struct {
		name       string
		completion domain.CompletionService
		reason     string
	}{
		{"Error", &fakeCompletion{err: errors.New("503 service unavailable")}, "503 service unavailable"},
		{"Empty response", &fakeCompletion{response: "   "}, "empty response"},
		{"Not configured", nil, "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := newTestComposer(tt.completion, nil, nil).Compose(context.Background(), scenarioA, "", domain.ClassifyOptions{})
			require.NoError(t, err)

			assert.True(t, note.Degraded)
			assert.True(t, strings.HasPrefix(note.Body, "[Draft generated without AI assistance: "))
			assert.Contains(t, note.Notice, tt.reason)
			assert.Contains(t, note.Body, "Subjective:\n")
			assert.Contains(t, note.Body, "140/90")
		})
	}
}

func TestNoteComposer_Redaction(t *testing.T) {
	narrative := `BP 120/80. Patient states "my son John Smith visited today"`
	completion := &fakeCompletion{response: "note"}

	note, err := newTestComposer(completion, &fakeRedactor{}, nil).Compose(context.Background(), narrative, "", domain.ClassifyOptions{})
	require.NoError(t, err)

	assert.True(t, note.Redacted)
	assert.Equal(t, []string{"my son [NAME] visited today"}, note.Draft.ExtractedFields.PatientStatements)
	require.Len(t, completion.prompts, 1)
	assert.NotContains(t, completion.prompts[0], "John Smith")
}

func TestNoteComposer_RedactionFailureSkipsCompletion(t *testing.T) {
	completion := &fakeCompletion{response: "note"}

	note, err := newTestComposer(completion, &fakeRedactor{err: errors.New("redactor down")}, nil).
		Compose(context.Background(), scenarioA, "", domain.ClassifyOptions{})
	require.NoError(t, err)

	assert.True(t, note.Degraded)
	assert.False(t, note.Redacted)
	assert.Contains(t, note.Notice, "redaction failed")
	assert.Empty(t, completion.prompts)
}

func TestNoteComposer_FormatOverride(t *testing.T) {
	note, err := newTestComposer(&fakeCompletion{response: "ok"}, nil, nil).
		Compose(context.Background(), scenarioB, domain.FormatSBAR, domain.ClassifyOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.FormatSBAR, note.Draft.Format)
}

func TestNoteComposer_EmptyNarrative(t *testing.T) {
	_, err := newTestComposer(nil, nil, nil).Compose(context.Background(), "  \n", "", domain.ClassifyOptions{})
	assert.ErrorIs(t, err, domain.ErrEmptyNarrative)
}

func TestTermEnricher(t *testing.T) {
	fields := domain.NewExtractedFields()
	fields.Symptoms = []string{"nausea", "vertigo"}
	fields.Medications = []domain.Medication{{Name: "Ondansetron"}, {Name: "Ondansetron"}}

	enricher := NewTermEnricher(fakeLookup{"nausea": "Urge to vomit.", "ondansetron": "Antiemetic."}, newTestLogger())
	got := enricher.Enrich(context.Background(), fields)

	assert.Equal(t, map[string]string{"nausea": "Urge to vomit.", "Ondansetron": "Antiemetic."}, got)

	var nilEnricher *TermEnricher
	assert.Empty(t, nilEnricher.Enrich(context.Background(), fields))
}

func TestFormatCatalog(t *testing.T) {
	catalog := FormatCatalog(patterns.Default())
	require.Len(t, catalog, len(domain.AllFormats))

	for i, d := range catalog {
		assert.Equal(t, domain.AllFormats[i], d.ID)
		assert.NotEmpty(t, d.Sections)
		assert.Contains(t, d.Sections, d.OverflowSection)
	}

	mar := catalog[1]
	assert.True(t, mar.Specialized)
	assert.Equal(t, 3, mar.Threshold)
	assert.Equal(t, 2, mar.Keywords["administered"])

	soap := catalog[4]
	assert.False(t, soap.Specialized)
	assert.Zero(t, soap.Threshold)
	assert.Equal(t, []string{"subjective/objective labels"}, soap.Cues)
}
