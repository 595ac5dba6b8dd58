package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

func TestVitalRules(t *testing.T) {
	lib := Default()

	tests := []struct {
		name  string
		vital domain.VitalSign
		text  string
		want  string
		found bool
	}{
		{"BP with label", domain.BloodPressure, "BP 140/90, HR 88", "140/90", true},
		{"BP spelled out", domain.BloodPressure, "blood pressure: 118/76", "118/76", true},
		{"BP inverted pair dropped", domain.BloodPressure, "BP 60/120", "", false},
		{"Heart rate", domain.HeartRate, "HR 88, O2 sat 98%", "88", true},
		{"Pulse", domain.HeartRate, "pulse of 102 and regular", "102", true},
		{"Respiratory rate", domain.RespiratoryRate, "RR 18 unlabored", "18", true},
		{"Temperature decimal", domain.Temperature, "Temp 98.6 oral", "98.6", true},
		{"O2 sat", domain.OxygenSaturation, "O2 sat 98% on room air", "98", true},
		{"SpO2", domain.OxygenSaturation, "SpO2: 94%", "94", true},
		{"Saturation out of range dropped", domain.OxygenSaturation, "sat 140", "", false},
		{"Pain score", domain.PainLevel, "pain 7/10", "7", true},
		{"Pain level out of range dropped", domain.PainLevel, "pain level 15", "", false},
		{"Pain without number", domain.PainLevel, "chest pain for 2 hours", "", false},
		{"Weight with unit", domain.Weight, "weight 72.5 kg", "72.5 kg", true},
		{"MAP", domain.MeanArterialPressure, "MAP 65 on levophed", "65", true},
		{"CVP", domain.CentralVenousPressure, "CVP 8", "8", true},
		{"Absent", domain.HeartRate, "no vitals dictated", "", false},
		{"Temperature with attached F", domain.Temperature, "Temp 98.6F, HR 88", "98.6", true},
		{"Temperature with attached C", domain.Temperature, "Temp 37.2C axillary", "37.2", true},
		{"Temperature with degree sign", domain.Temperature, "temp 38.1°C", "38.1", true},
		{"Heart rate with attached bpm", domain.HeartRate, "HR 88bpm", "88", true},
		{"BP with attached mmHg", domain.BloodPressure, "BP 120/80mmHg", "120/80", true},
		{"CVP with attached unit", domain.CentralVenousPressure, "CVP 8cmH2O", "8", true},
		{"Temperature end of sentence", domain.Temperature, "Afebrile, temp 98.", "98", true},
		{"Overlong number dropped", domain.HeartRate, "HR 8888", "", false},
		{"Too many decimals dropped", domain.Temperature, "Temp 98.655", "", false},
		{"Unknown unit skipped", domain.OxygenSaturation, "O2 10L via nasal cannula, sat 95%", "95", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := lib.Vital(tt.vital)
			require.True(t, ok)

			got, found := rule.Match(tt.text)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVocabularyMatches(t *testing.T) {
	lib := Default()

	assert.Equal(t, []string{"chest pain", "nausea"}, lib.Symptoms.Matches("Patient reports chest pain and nausea"))
	assert.Equal(t, []string{"tender"}, lib.Findings.Matches("Abdomen tenderness on palpation"))
	assert.Empty(t, lib.Symptoms.Matches("The weather was pleasant"))

	word := NewVocabulary("test", MatchWord, "gi")
	assert.True(t, word.Contains("GI: soft, nontender"))
	assert.False(t, word.Contains("giving report"))
}

func TestCategories(t *testing.T) {
	lib := Default()

	count := 0
	for _, sys := range lib.BodySystems {
		if sys.Terms.Contains("Neuro: alert. Cardiac: regular rhythm. Respiratory: lungs clear.") {
			count++
		}
	}
	assert.Equal(t, 3, count)

	assert.True(t, lib.ShiftPhases[0].Terms.Contains("Start of shift assessment"))
	assert.Equal(t, string(domain.ShiftPhaseEnd), lib.ShiftPhases[2].Name)
	assert.True(t, lib.Units[0].Terms.Contains("Patient remains on the ventilator in the ICU"))
}

func TestMedicationRules(t *testing.T) {
	rules := Default().Medications

	m := rules.Administration.FindStringSubmatch("Administered Lisinopril 10mg PO at 0900.")
	require.Len(t, m, 4)
	assert.Equal(t, "Lisinopril", m[1])
	assert.Equal(t, "10mg", m[2])
	assert.Equal(t, "PO", m[3])

	tm := rules.TimeAfter.FindStringSubmatch(" PO at 0900. Later at 1300.")
	require.Len(t, tm, 2)
	assert.Equal(t, "0900", tm[1])

	r := rules.RouteOnly.FindStringSubmatch("gave Tylenol PO with water")
	require.Len(t, r, 3)
	assert.Equal(t, "Tylenol", r[1])

	site := rules.Site.FindStringSubmatch("given IM in the left deltoid")
	require.Len(t, site, 2)
	assert.Equal(t, "left deltoid", site[1])

	list := rules.Listing.FindStringSubmatch("Medications: aspirin, metoprolol and heparin.")
	require.Len(t, list, 2)
	assert.Equal(t, "aspirin, metoprolol and heparin", list[1])
}

func TestInterventionRules(t *testing.T) {
	rules := Default().Interventions
	require.NotEmpty(t, rules)

	var repositioned InterventionRule
	for _, r := range rules {
		if r.Verb == "repositioned" {
			repositioned = r
		}
	}
	require.NotNil(t, repositioned.Pattern)
	assert.Equal(t, "repositioned to left side", repositioned.Pattern.FindString("Patient repositioned to left side. Tolerated well."))
}

func TestAllergyRules(t *testing.T) {
	rules := Default().Allergies

	m := rules.Phrase.FindStringSubmatch("Allergic to penicillin and sulfa. Denies pain.")
	require.Len(t, m, 2)
	assert.Equal(t, "penicillin and sulfa", m[1])

	assert.True(t, rules.None.MatchString("NKDA"))
	assert.True(t, rules.None.MatchString("no known drug allergies"))
}

func TestIntakeOutputRules(t *testing.T) {
	rules := Default().IntakeOutput

	matches := rules.Volume.FindAllStringSubmatch("Intake 240 mL PO, output 400cc urine", -1)
	require.Len(t, matches, 2)
	assert.Equal(t, "240", matches[0][1])
	assert.Equal(t, "400", matches[1][1])

	names := map[string]FluidDirection{}
	for _, s := range rules.Sources {
		names[s.Name] = s.Direction
	}
	assert.Equal(t, Intake, names["oral"])
	assert.Equal(t, Output, names["urine"])
}

func TestWoundRules(t *testing.T) {
	rules := Default().Wound
	text := "Stage II pressure injury to sacrum measures 3 x 2 cm with scant serous drainage."

	assert.True(t, rules.Cue.MatchString(text))
	assert.Equal(t, "sacrum", rules.Location.FindStringSubmatch(text)[1])
	assert.Equal(t, "Stage II", rules.Stage.FindStringSubmatch(text)[1])
	assert.Equal(t, "3 x 2 cm", rules.Size.FindStringSubmatch(text)[1])
	assert.Equal(t, "scant serous drainage", rules.Drainage.FindStringSubmatch(text)[1])
}

func TestStatementAndTimestampPatterns(t *testing.T) {
	lib := Default()

	m := lib.Statements.FindAllStringSubmatch(`Patient states "I feel dizzy" and “my chest hurts”`, -1)
	require.Len(t, m, 2)
	assert.Equal(t, "I feel dizzy", m[0][1])
	assert.Equal(t, "my chest hurts", m[1][2])

	assert.Equal(t, []string{"9:30 am", "1400 hours"}, lib.Timestamps.FindAllString("Seen at 9:30 am and again at 1400 hours", -1))
}

func TestFormatTable(t *testing.T) {
	lib := Default()

	require.Len(t, lib.Formats, len(domain.AllFormats))
	for i, f := range lib.Formats {
		assert.Equal(t, domain.AllFormats[i], f.ID, "format table order")
		assert.NotEmpty(t, f.Sections, f.ID)
		assert.Contains(t, f.Sections, f.OverflowSection, f.ID)
		if f.Specialized() {
			assert.Positive(t, f.Threshold, f.ID)
			assert.Equal(t, SpecializedBonus, f.Bonus, f.ID)
		}
	}

	assert.Len(t, lib.Specialized(), 4)
	assert.Len(t, lib.Generic(), 6)
}

func TestFormatSpecEvaluate(t *testing.T) {
	lib := Default()

	mar, ok := lib.Format(domain.FormatMedicationAdministration)
	require.True(t, ok)
	ev := mar.Evaluate("Administered Lisinopril 10mg PO at 0900. Patient tolerated well.")
	assert.Equal(t, []string{"administered", "mg", "route", "tolerated"}, ev.Hits)
	assert.Equal(t, 5, ev.Score())
	assert.True(t, mar.Qualifies(ev))

	soap, ok := lib.Format(domain.FormatSOAP)
	require.True(t, ok)
	ev = soap.Evaluate("Subjective: reports nausea. Objective: afebrile.")
	assert.Equal(t, []string{"subjective", "objective", "reports"}, ev.Hits)
	assert.Equal(t, []string{"subjective/objective labels"}, ev.Cues)
	assert.Equal(t, 8, ev.Score())

	pie, ok := lib.Format(domain.FormatPIE)
	require.True(t, ok)
	assert.Empty(t, pie.Evaluate("Intervention before problem").Cues)
	assert.NotEmpty(t, pie.Evaluate("Problem: anxiety. Intervention: reassurance").Cues)
}

func TestWithFormatsSortsByOrder(t *testing.T) {
	lib := Default().WithFormats(
		FormatSpec{ID: domain.FormatSBAR, Order: 2, Sections: []string{"Situation"}},
		FormatSpec{ID: domain.FormatSOAP, Order: 1, Sections: []string{"Subjective"}},
	)

	require.Len(t, lib.Formats, 2)
	assert.Equal(t, domain.FormatSOAP, lib.Formats[0].ID)
	_, ok := lib.Format(domain.FormatWoundCare)
	assert.False(t, ok)

	_, ok = Default().Format(domain.FormatWoundCare)
	assert.True(t, ok)
}

func TestMedicationRules_IsRoute(t *testing.T) {
	rules := Default().Medications

	for _, word := range []string{"PO", "iv", "SubQ", "sl"} {
		assert.True(t, rules.IsRoute(word), word)
	}
	for _, word := range []string{"morphine", "pain", ""} {
		assert.False(t, rules.IsRoute(word), word)
	}
}
