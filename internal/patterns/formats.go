package patterns

import (
	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// Fixed scoring constants shared by the format table and the classifier.
const (
	// SpecializedBonus is added to a specialized format that cleared its threshold.
	SpecializedBonus = 10
	// UnitAffinityBonus is added when the care unit maps to a specialized format.
	UnitAffinityBonus = 2
	// CueBonus is the standard structural cue bonus.
	CueBonus = 3
)

// FormatSpec is one row of the format table.
type FormatSpec struct {
	ID       domain.FormatID
	Name     string
	Keywords []Keyword
	Cues     []StructuralCue
	// Threshold is the minimum number of distinct keyword hits before a specialized format is a
	// candidate. Generic formats ignore it.
	Threshold int
	Bonus     int
	Units     []domain.UnitType
	Sections  []string
	// OverflowSection receives extracted values that no other section rendered.
	OverflowSection string
	// Order breaks score ties; lower wins.
	Order int
}

// Evaluation is the raw scoring of one format against one narrative.
type Evaluation struct {
	Format       domain.FormatID
	KeywordScore int
	CueScore     int
	Hits         []string
	Cues         []string
}

// Score is the keyword score plus structural cue bonuses.
func (e Evaluation) Score() int {
	return e.KeywordScore + e.CueScore
}

// Indicators returns keyword hits followed by cue names.
func (e Evaluation) Indicators() []string {
	out := make([]string, 0, len(e.Hits)+len(e.Cues))
	out = append(out, e.Hits...)
	return append(out, e.Cues...)
}

// Specialized reports whether the row belongs to the specialized pass.
func (f *FormatSpec) Specialized() bool {
	return f.ID.IsSpecialized()
}

// Evaluate scores text against the row. Each distinct keyword counts once.
func (f *FormatSpec) Evaluate(text string) Evaluation {
	ev := Evaluation{Format: f.ID, Hits: []string{}, Cues: []string{}}
	for _, kw := range f.Keywords {
		if kw.Matches(text) {
			ev.KeywordScore += kw.Weight
			ev.Hits = append(ev.Hits, kw.Term)
		}
	}
	for _, cue := range f.Cues {
		if cue.Matches(text) {
			ev.CueScore += cue.Bonus
			ev.Cues = append(ev.Cues, cue.Name)
		}
	}
	return ev
}

// Qualifies reports whether a specialized evaluation met the row's threshold.
func (f *FormatSpec) Qualifies(ev Evaluation) bool {
	return f.Threshold > 0 && len(ev.Hits) >= f.Threshold
}

// HasUnit reports whether the care unit maps to this format.
func (f *FormatSpec) HasUnit(unit domain.UnitType) bool {
	if unit == domain.UnitUnknown {
		return false
	}
	for _, u := range f.Units {
		if u == unit {
			return true
		}
	}
	return false
}

const routePattern = `\b(?:po|iv|im|sq|sc|sl|pr|subq|subcutaneous|intravenous|by mouth)\b`

func defaultFormats() []FormatSpec {
	return []FormatSpec{
		{
			ID:   domain.FormatShiftAssessment,
			Name: "Comprehensive Shift Assessment",
			Keywords: []Keyword{
				NewKeyword("shift assessment", 3),
				NewPatternKeyword("head-to-toe", 2, `\bhead[- ]to[- ]toe\b`),
				NewKeyword("start of shift", 2),
				NewKeyword("end of shift", 2),
				NewKeyword("handoff", 2),
				NewKeyword("reassessment", 1),
				NewKeyword("systems", 1),
				NewKeyword("bed alarm", 1),
				NewKeyword("fall precautions", 1),
				NewKeyword("call light", 1),
			},
			Threshold:       3,
			Bonus:           SpecializedBonus,
			Units:           []domain.UnitType{domain.UnitMedSurg},
			Sections:        []string{"Shift Summary", "Vital Signs", "Systems Assessment", "Safety", "Interventions", "Plan"},
			OverflowSection: "Shift Summary",
			Order:           1,
		},
		{
			ID:   domain.FormatMedicationAdministration,
			Name: "Medication Administration Record",
			Keywords: []Keyword{
				NewKeyword("administered", 2),
				NewKeyword("gave", 1),
				NewKeyword("given", 1),
				NewPatternKeyword("medication", 1, `\bmedications?\b`),
				NewPatternKeyword("dose", 1, `\bdos(?:e|es|ed|age)\b`),
				NewPatternKeyword("mg", 1, `\d\s*(?:mg|mcg|meq|units?)\b`),
				NewPatternKeyword("route", 1, routePattern),
				NewKeyword("tolerated", 1),
				NewKeyword("five rights", 2),
				NewKeyword("mar", 1),
			},
			Threshold:       3,
			Bonus:           SpecializedBonus,
			Sections:        []string{"Medications", "Administration", "Allergies", "Response"},
			OverflowSection: "Administration",
			Order:           2,
		},
		{
			ID:   domain.FormatWoundCare,
			Name: "Wound Care",
			Keywords: []Keyword{
				NewPatternKeyword("wound", 2, `\bwounds?\b`),
				NewPatternKeyword("pressure injury", 2, `\bpressure (?:injury|injuries|ulcer|sore)\b`),
				NewPatternKeyword("dressing", 1, `\bdressings?\b`),
				NewKeyword("drainage", 1),
				NewPatternKeyword("stage", 1, `\bstage\s*(?:[1-4]|iv|iii|ii|i)\b`),
				NewPatternKeyword("ulcer", 1, `\bulcers?\b`),
				NewKeyword("incision", 1),
				NewKeyword("granulation", 1),
				NewKeyword("slough", 1),
				NewKeyword("eschar", 1),
				NewKeyword("periwound", 1),
				NewPatternKeyword("measures", 1, `\bmeasur(?:es|ed|ing|ement|ements)\b`),
			},
			Threshold:       3,
			Bonus:           SpecializedBonus,
			Units:           []domain.UnitType{domain.UnitMedSurg},
			Sections:        []string{"Wound Assessment", "Measurements", "Treatment", "Patient Response", "Plan"},
			OverflowSection: "Wound Assessment",
			Order:           3,
		},
		{
			ID:   domain.FormatCriticalCare,
			Name: "Critical Care Flowsheet",
			Keywords: []Keyword{
				NewPatternKeyword("ventilator", 2, `\b(?:ventilator|vent settings|mechanically ventilated)\b`),
				NewPatternKeyword("drip", 1, `\bdrips?\b`),
				NewPatternKeyword("titration", 1, `\btitrat(?:e|ed|ing|ion)\b`),
				NewKeyword("sedation", 1),
				NewKeyword("map", 1),
				NewKeyword("cvp", 1),
				NewPatternKeyword("arterial line", 1, `\b(?:arterial line|a-line|art line)\b`),
				NewPatternKeyword("vasopressor", 2, `\b(?:vasopressors?|pressors?|norepinephrine|levophed|vasopressin)\b`),
				NewPatternKeyword("i&o", 1, `\b(?:i\s*&\s*o|intake and output)\b`),
				NewKeyword("fio2", 1),
				NewKeyword("peep", 1),
			},
			Threshold:       3,
			Bonus:           SpecializedBonus,
			Units:           []domain.UnitType{domain.UnitICU},
			Sections:        []string{"Hemodynamics", "Respiratory Support", "Infusions", "Intake & Output", "Assessment", "Plan"},
			OverflowSection: "Assessment",
			Order:           4,
		},
		{
			ID:   domain.FormatSOAP,
			Name: "SOAP",
			Keywords: []Keyword{
				NewKeyword("subjective", 2),
				NewKeyword("objective", 2),
				NewKeyword("assessment", 1),
				NewKeyword("plan", 1),
				NewKeyword("reports", 1),
				NewKeyword("complains of", 1),
				NewKeyword("denies", 1),
			},
			Cues: []StructuralCue{
				NewCue("subjective/objective labels", CueBonus, `\bsubjective\b`, `\bobjective\b`),
			},
			Sections:        []string{"Subjective", "Objective", "Assessment", "Plan"},
			OverflowSection: "Objective",
			Order:           5,
		},
		{
			ID:   domain.FormatSOAPIE,
			Name: "SOAPIE",
			Keywords: []Keyword{
				NewKeyword("subjective", 1),
				NewKeyword("objective", 1),
				NewKeyword("plan", 1),
				NewPatternKeyword("intervention", 2, `\binterventions?\b`),
				NewKeyword("implementation", 2),
				NewKeyword("evaluation", 2),
			},
			Cues: []StructuralCue{
				NewCue("intervention/evaluation labels", CueBonus, `\b(?:interventions?|implementation)\b`, `\bevaluation\b`),
			},
			Sections:        []string{"Subjective", "Objective", "Assessment", "Plan", "Intervention", "Evaluation"},
			OverflowSection: "Objective",
			Order:           6,
		},
		{
			ID:   domain.FormatDAR,
			Name: "DAR (Focus Charting)",
			Keywords: []Keyword{
				NewKeyword("data", 2),
				NewKeyword("action", 2),
				NewKeyword("response", 2),
				NewKeyword("focus", 1),
			},
			Cues: []StructuralCue{
				NewCue("data/action labels", CueBonus, `\bdata\s*:`, `\baction\s*:`),
			},
			Sections:        []string{"Data", "Action", "Response"},
			OverflowSection: "Data",
			Order:           7,
		},
		{
			ID:   domain.FormatPIE,
			Name: "PIE",
			Keywords: []Keyword{
				NewKeyword("problem", 3),
				NewKeyword("nursing diagnosis", 2),
				NewPatternKeyword("intervention", 1, `\binterventions?\b`),
				NewKeyword("evaluation", 1),
			},
			Cues: []StructuralCue{
				NewCue("problem followed by intervention", CueBonus, `\bproblem\b[\s\S]*\binterventions?\b`),
			},
			Sections:        []string{"Problem", "Intervention", "Evaluation"},
			OverflowSection: "Problem",
			Order:           8,
		},
		{
			ID:   domain.FormatSBAR,
			Name: "SBAR",
			Keywords: []Keyword{
				NewKeyword("situation", 2),
				NewKeyword("background", 2),
				NewKeyword("assessment", 1),
				NewKeyword("recommendation", 2),
				NewPatternKeyword("notified", 1, `\b(?:notified|paged|called)\b`),
			},
			Cues: []StructuralCue{
				NewCue("situation/background labels", CueBonus, `\bsituation\b`, `\bbackground\b`),
			},
			Sections:        []string{"Situation", "Background", "Assessment", "Recommendation"},
			OverflowSection: "Assessment",
			Order:           9,
		},
		{
			ID:              domain.FormatNarrative,
			Name:            "Narrative Note",
			Sections:        []string{"Narrative Summary", "Vital Signs", "Medications", "Interventions"},
			OverflowSection: "Narrative Summary",
			Order:           10,
		},
	}
}
