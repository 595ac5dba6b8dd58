package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
)

func newTestAssembler() *SectionAssembler {
	return NewSectionAssembler(newTestLogger(), patterns.Default())
}

func fullFields() *domain.ExtractedFields {
	f := domain.NewExtractedFields()
	f.VitalSigns[domain.BloodPressure] = "132/84"
	f.VitalSigns[domain.HeartRate] = "96"
	f.VitalSigns[domain.CentralVenousPressure] = "11"
	f.Medications = []domain.Medication{
		{Name: "heparin", Dose: "5000 units", Route: "SQ", Time: "0800", Site: "right abdomen"},
		{Name: "acetaminophen", Dose: "650 mg", Route: "PO", Time: "1015"},
	}
	f.Interventions = []string{"repositioned to left side"}
	f.Symptoms = []string{"nausea"}
	f.AssessmentFindings = []string{"crackles"}
	f.PatientStatements = []string{"my back hurts"}
	f.TimeStamps = []string{"1400 hours"}
	f.Allergies = []string{"latex"}
	f.IntakeOutput = domain.NewIntakeOutput(map[string]int{"oral": 360}, map[string]int{"urine": 275})
	f.WoundInfo = &domain.WoundInfo{Location: "left heel", Stage: "stage 3", Size: "2 x 1.5 cm", Drainage: "purulent"}
	f.AssessmentSystems = []string{"respiratory", "integumentary"}
	f.SafetyChecks = []string{"fall precautions"}
	return f
}

func allValues(f *domain.ExtractedFields) []string {
	values := []string{
		"132/84", "96", "11",
		"heparin", "5000 units", "SQ", "0800", "right abdomen",
		"acetaminophen", "650 mg", "PO", "1015",
		"repositioned to left side", "nausea", "crackles", "my back hurts", "1400 hours", "latex",
		"oral", "360", "urine", "275",
		"left heel", "stage 3", "2 x 1.5 cm", "purulent",
		"respiratory", "integumentary", "fall precautions",
	}
	return values
}

func TestSectionAssembler_ScenarioA_SOAP(t *testing.T) {
	fields := newTestExtractor().Extract(scenarioA)
	sections := newTestAssembler().Assemble(domain.FormatSOAP, fields)

	require.Len(t, sections, 4)
	assert.Contains(t, sections["Subjective"], "chest pain")
	assert.Contains(t, sections["Objective"], "140/90")
	assert.Contains(t, sections["Objective"], "HR 88")
	assert.Contains(t, sections["Objective"], "SpO2 98%")
}

func TestSectionAssembler_ScenarioB_MAR(t *testing.T) {
	fields := newTestExtractor().Extract(scenarioB)
	sections := newTestAssembler().Assemble(domain.FormatMedicationAdministration, fields)

	assert.Contains(t, sections["Medications"], "Lisinopril 10mg PO at 0900")
	assert.Contains(t, sections["Administration"], "Lisinopril administered PO at 0900")
	assert.NotEmpty(t, sections["Response"])
	assert.Contains(t, sections["Response"], "tolerated well")
	assert.Equal(t, "Allergies not documented.", sections["Allergies"])
}

func TestSectionAssembler_RoundTrip(t *testing.T) {
	assembler := newTestAssembler()
	fields := fullFields()

	for _, format := range domain.AllFormats {
		t.Run(string(format), func(t *testing.T) {
			sections := assembler.Assemble(format, fields)
			joined := ""
			for _, text := range sections {
				joined += text + "\n"
			}
			for _, v := range allValues(fields) {
				assert.Contains(t, joined, v, "value %q missing from %s", v, format)
			}
		})
	}
}

func TestSectionAssembler_Idempotent(t *testing.T) {
	assembler := newTestAssembler()
	extractor := newTestExtractor()

	for _, n := range []string{scenarioA, scenarioB, scenarioC, scenarioD} {
		fields := extractor.Extract(n)
		for _, format := range domain.AllFormats {
			assert.Equal(t, assembler.Assemble(format, fields), assembler.Assemble(format, fields))
		}
	}
}

func TestSectionAssembler_Boilerplate(t *testing.T) {
	sections := newTestAssembler().Assemble(domain.FormatSOAP, domain.NewExtractedFields())

	assert.Equal(t, "No subjective complaints documented.", sections["Subjective"])
	assert.Equal(t, "Vital signs and physical findings not documented.", sections["Objective"])
	assert.True(t, strings.HasPrefix(sections["Plan"], "Continue to monitor"))
	assert.NotContains(t, sections["Objective"], "Additional documented details")
}

func TestSectionAssembler_OverflowReplacesBoilerplate(t *testing.T) {
	fields := domain.NewExtractedFields()
	fields.Allergies = []string{"latex"}

	sections := newTestAssembler().Assemble(domain.FormatDAR, fields)
	assert.Equal(t, "Additional documented details: latex.", sections["Data"])
}

func TestSectionAssembler_OverflowKeepsRecordsWhole(t *testing.T) {
	fields := domain.NewExtractedFields()
	fields.Medications = []domain.Medication{{Name: "acetaminophen", Dose: "650mg", Route: "PO", Time: "0900"}}
	fields.IntakeOutput = domain.NewIntakeOutput(map[string]int{"iv": 1000}, map[string]int{"urine": 400})
	fields.WoundInfo = &domain.WoundInfo{Location: "sacrum", Stage: "stage 2"}

	assembler := newTestAssembler()
	tests := []struct {
		format domain.FormatID
		want   []string
	}{
		{domain.FormatSOAP, []string{"acetaminophen 650mg PO at 0900", "Intake: iv 1000 mL", "Wound: location sacrum, stage 2"}},
		{domain.FormatSBAR, []string{"acetaminophen 650mg PO at 0900", "Intake: iv 1000 mL (total 1000 mL). Output: urine 400 mL", "Balance: +600 mL"}},
		{domain.FormatDAR, []string{"acetaminophen 650mg PO at 0900", "Output: urine 400 mL"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			joined := ""
			for _, text := range assembler.Assemble(tt.format, fields) {
				joined += text + "\n"
			}
			for _, w := range tt.want {
				assert.Contains(t, joined, w)
			}
			assert.NotContains(t, joined, "acetaminophen; 650mg")
			assert.NotContains(t, joined, "iv; 1000")
			assert.NotContains(t, joined, "..")
		})
	}
}

func TestSectionAssembler_UnknownFormatFallsBack(t *testing.T) {
	assembler := newTestAssembler()
	sections := assembler.Assemble(domain.FormatID("haiku"), nil)

	assert.Len(t, sections, 4)
	assert.Contains(t, sections, "Narrative Summary")
	assert.Equal(t, []string{"Narrative Summary", "Vital Signs", "Medications", "Interventions"}, assembler.SectionNames("haiku"))
}

func TestIsReady(t *testing.T) {
	withAll := domain.NewExtractedFields()
	withAll.VitalSigns[domain.HeartRate] = "88"
	withAll.Symptoms = []string{"nausea"}

	three := domain.Sections{"A": "a", "B": "b", "C": "c"}
	two := domain.Sections{"A": "a", "B": "b"}

	noSymptoms := withAll.Clone()
	noSymptoms.Symptoms = []string{}

	noVitals := withAll.Clone()
	noVitals.VitalSigns = map[domain.VitalSign]string{}

	assert.True(t, IsReady(three, withAll))
	assert.False(t, IsReady(two, withAll))
	assert.False(t, IsReady(three, noSymptoms))
	assert.False(t, IsReady(three, noVitals))
	assert.False(t, IsReady(three, nil))
}
