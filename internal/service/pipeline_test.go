package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
)

func newTestDraftingService() *DraftingService {
	return NewDraftingService(newTestLogger(), patterns.Default(), fixedClock)
}

func TestDraftingService_ScenarioA(t *testing.T) {
	draft := newTestDraftingService().Draft(scenarioA, domain.ClassifyOptions{})

	_, err := uuid.Parse(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatSOAP, draft.Format)
	assert.Equal(t, draft.DetectedFormat.Format, draft.Format)
	assert.Equal(t, []string{"Subjective", "Objective", "Assessment", "Plan"}, draft.SectionOrder)
	assert.True(t, draft.ReadyForReview)
	assert.Equal(t, fixedClock(), draft.CreatedAt)
	assert.Equal(t, domain.GenericAnalysis{Format: domain.FormatSOAP}, draft.Analysis)
}

func TestDraftingService_ScenarioB_AsMAR(t *testing.T) {
	draft := newTestDraftingService().DraftAs(scenarioB, domain.FormatMedicationAdministration, domain.ClassifyOptions{})

	require.Len(t, draft.ExtractedFields.Medications, 1)
	assert.Equal(t, domain.FormatMedicationAdministration, draft.Format)
	assert.NotEmpty(t, draft.Sections["Administration"])
	assert.NotEmpty(t, draft.Sections["Response"])
	assert.False(t, draft.ReadyForReview, "no vitals and no symptoms")

	analysis, ok := draft.Analysis.(domain.MedicationAnalysis)
	require.True(t, ok, "got %T", draft.Analysis)
	assert.Equal(t, "Lisinopril", analysis.Medications[0].Name)
}

func TestDraftingService_DraftAsDisagreesWithDetection(t *testing.T) {
	draft := newTestDraftingService().DraftAs(scenarioB, domain.FormatWoundCare, domain.ClassifyOptions{})

	assert.Equal(t, domain.FormatWoundCare, draft.Format)
	assert.Equal(t, domain.FormatMedicationAdministration, draft.DetectedFormat.Format)
	assert.IsType(t, domain.WoundAnalysis{}, draft.Analysis)
	assert.Contains(t, draft.SectionOrder, "Measurements")
}

func TestDraftingService_DraftAsInvalidFormatUsesDetection(t *testing.T) {
	draft := newTestDraftingService().DraftAs(scenarioB, domain.FormatID("poem"), domain.ClassifyOptions{})
	assert.Equal(t, domain.FormatMedicationAdministration, draft.Format)
}

func TestDraftingService_ScenarioC(t *testing.T) {
	draft := newTestDraftingService().Draft(scenarioC, domain.ClassifyOptions{})

	assert.Equal(t, domain.FormatShiftAssessment, draft.Format)
	analysis, ok := draft.Analysis.(domain.ShiftAnalysis)
	require.True(t, ok, "got %T", draft.Analysis)
	assert.Equal(t, domain.ShiftPhaseStart, analysis.Phase)
	assert.Equal(t, []string{"neuro", "cardiovascular", "respiratory"}, analysis.SystemsCovered)
	assert.Contains(t, draft.Sections["Systems Assessment"], "neuro")
	assert.False(t, draft.ReadyForReview, "no vitals documented")
}

func TestDraftingService_ScenarioD(t *testing.T) {
	draft := newTestDraftingService().Draft(scenarioD, domain.ClassifyOptions{})

	assert.Equal(t, domain.DefaultFormat, draft.Format)
	assert.Equal(t, NeutralConfidence, draft.DetectedFormat.Confidence)
	assert.True(t, draft.ExtractedFields.IsEmpty())
	assert.False(t, draft.ReadyForReview)
	assert.Len(t, draft.Sections, 4)
}

func TestDraftingService_Deterministic(t *testing.T) {
	svc := newTestDraftingService()
	for _, n := range []string{scenarioA, scenarioB, scenarioC, scenarioD} {
		first := svc.Draft(n, domain.ClassifyOptions{})
		second := svc.Draft(n, domain.ClassifyOptions{})

		assert.NotEqual(t, first.ID, second.ID)
		second.ID = first.ID
		assert.Equal(t, first, second)
	}
}

func TestDraftingService_CloneIsIndependent(t *testing.T) {
	draft := newTestDraftingService().Draft(scenarioA, domain.ClassifyOptions{})
	edited := draft.Clone()

	edited.Sections["Plan"] = "Edited by reviewer."
	edited.ExtractedFields.Symptoms[0] = "edited"
	edited.DetectedFormat.Indicators = append(edited.DetectedFormat.Indicators, "edited")

	assert.NotEqual(t, "Edited by reviewer.", draft.Sections["Plan"])
	assert.Equal(t, "chest pain", draft.ExtractedFields.Symptoms[0])
	assert.NotContains(t, draft.DetectedFormat.Indicators, "edited")
}

func TestDraftingService_JSONRoundTrip(t *testing.T) {
	draft := newTestDraftingService().DraftAs(scenarioB, domain.FormatMedicationAdministration, domain.ClassifyOptions{})

	data, err := json.Marshal(draft)
	require.NoError(t, err)

	var decoded domain.StructuredDraft
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, draft.Sections, decoded.Sections)
	assert.IsType(t, domain.MedicationAnalysis{}, decoded.Analysis)
	assert.True(t, draft.CreatedAt.Equal(decoded.CreatedAt))
}

func TestDraftingService_NilClockUsesNow(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	draft := NewDraftingService(newTestLogger(), patterns.Default(), nil).Draft(scenarioD, domain.ClassifyOptions{})
	assert.True(t, draft.CreatedAt.After(before))
}

func TestAnalyze(t *testing.T) {
	fields := domain.NewExtractedFields()
	fields.VitalSigns[domain.MeanArterialPressure] = "65"
	fields.VitalSigns[domain.OxygenSaturation] = "94"

	critical, ok := Analyze(domain.FormatCriticalCare, nil, fields).(domain.CriticalCareAnalysis)
	require.True(t, ok)
	assert.Equal(t, map[domain.VitalSign]string{domain.MeanArterialPressure: "65"}, critical.Hemodynamics)
	assert.Nil(t, critical.IntakeOutput)

	wound, ok := Analyze(domain.FormatWoundCare, nil, nil).(domain.WoundAnalysis)
	require.True(t, ok)
	assert.Nil(t, wound.Wound)

	assert.Equal(t, domain.GenericAnalysis{Format: domain.FormatSBAR}, Analyze(domain.FormatSBAR, nil, fields))
}
