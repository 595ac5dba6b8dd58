// Package patterns holds every recognition rule of the drafting engine as declarative data.
//
// A Library is built once with Default and then shared read-only by the extractor, classifier and
// assembler. Adding a rule means adding a table row; nothing here holds state or performs I/O, and
// every rule can be exercised on its own against a sample string.
package patterns

import (
	"regexp"
	"sort"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// Version identifies the rule set. It is part of every draft cache key.
const Version = "2026.10"

// Library is the immutable rule set. Callers must not modify its tables after construction.
type Library struct {
	Version string

	Formats       []FormatSpec
	Vitals        []VitalRule
	Medications   MedicationRules
	Interventions []InterventionRule
	Allergies     AllergyRules
	IntakeOutput  IntakeOutputRules
	Wound         WoundRules

	Symptoms     Vocabulary
	Findings     Vocabulary
	SafetyChecks Vocabulary
	BodySystems  []Category
	ShiftPhases  []Category
	Units        []Category

	Statements    *regexp.Regexp
	Timestamps    *regexp.Regexp
	ListSeparator *regexp.Regexp

	byID map[domain.FormatID]int
}

// Default builds the standard rule set.
func Default() *Library {
	lib := &Library{
		Version:       Version,
		Vitals:        defaultVitalRules(),
		Medications:   defaultMedicationRules(),
		Interventions: defaultInterventionRules(),
		Allergies:     defaultAllergyRules(),
		IntakeOutput:  defaultIntakeOutputRules(),
		Wound:         defaultWoundRules(),
		Symptoms:      defaultSymptoms(),
		Findings:      defaultFindings(),
		SafetyChecks:  defaultSafetyChecks(),
		BodySystems:   defaultBodySystems(),
		ShiftPhases:   defaultShiftPhases(),
		Units:         defaultUnits(),
		Statements:    regexp.MustCompile(`"([^"]+)"|“([^”]+)”`),
		Timestamps:    regexp.MustCompile(`(?i)\b(?:\d{1,2}:\d{2}\s*(?:am|pm)|\d{4}\s*(?:hours|hrs))\b`),
		ListSeparator: defaultListSeparator(),
	}
	lib.setFormats(defaultFormats())
	return lib
}

// WithFormats returns a copy of the library that uses the given format table. The other tables
// are shared, which is safe because they are never modified.
func (l *Library) WithFormats(formats ...FormatSpec) *Library {
	cp := *l
	cp.setFormats(formats)
	return &cp
}

func (l *Library) setFormats(formats []FormatSpec) {
	sorted := make([]FormatSpec, len(formats))
	copy(sorted, formats)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	l.Formats = sorted
	l.byID = make(map[domain.FormatID]int, len(sorted))
	for i, f := range sorted {
		l.byID[f.ID] = i
	}
}

// Format looks up a format row by ID.
func (l *Library) Format(id domain.FormatID) (*FormatSpec, bool) {
	i, ok := l.byID[id]
	if !ok {
		return nil, false
	}
	return &l.Formats[i], true
}

// Specialized returns the specialized rows in evaluation order.
func (l *Library) Specialized() []*FormatSpec {
	return l.filter(true)
}

// Generic returns the generic rows in evaluation order.
func (l *Library) Generic() []*FormatSpec {
	return l.filter(false)
}

func (l *Library) filter(specialized bool) []*FormatSpec {
	out := []*FormatSpec{}
	for i := range l.Formats {
		if l.Formats[i].Specialized() == specialized {
			out = append(out, &l.Formats[i])
		}
	}
	return out
}

// Vital returns the rule for one vital sign.
func (l *Library) Vital(v domain.VitalSign) (VitalRule, bool) {
	for _, r := range l.Vitals {
		if r.Vital == v {
			return r, true
		}
	}
	return VitalRule{}, false
}
