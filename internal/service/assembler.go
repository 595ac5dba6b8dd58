package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
)

// NotDocumented is the fallback text for a section with no known renderer.
const NotDocumented = "Not documented."

// sectionRenderer produces a section's text. documented is false when the text is boilerplate.
type sectionRenderer func(f *domain.ExtractedFields) (text string, documented bool)

// SectionAssembler renders extracted fields into the named sections of a format.
type SectionAssembler struct {
	logger    *logrus.Logger
	lib       *patterns.Library
	renderers map[string]sectionRenderer
}

// NewSectionAssembler creates a new section assembler
func NewSectionAssembler(logger *logrus.Logger, lib *patterns.Library) *SectionAssembler {
	return &SectionAssembler{
		logger:    logger,
		lib:       lib,
		renderers: defaultRenderers(),
	}
}

// SectionNames returns the ordered section list of format, falling back to the default format.
func (a *SectionAssembler) SectionNames(format domain.FormatID) []string {
	spec, ok := a.spec(format)
	if !ok {
		return []string{}
	}
	return append([]string(nil), spec.Sections...)
}

func (a *SectionAssembler) spec(format domain.FormatID) (*patterns.FormatSpec, bool) {
	if spec, ok := a.lib.Format(format); ok {
		return spec, true
	}
	return a.lib.Format(domain.DefaultFormat)
}

// Assemble renders every section of format. Values that no section rendered are appended to the
// format's overflow section, so every extracted value appears verbatim somewhere. Same input,
// same output.
func (a *SectionAssembler) Assemble(format domain.FormatID, fields *domain.ExtractedFields) domain.Sections {
	if fields == nil {
		fields = domain.NewExtractedFields()
	}
	sections := domain.Sections{}
	spec, ok := a.spec(format)
	if !ok {
		return sections
	}

	boilerplate := map[string]bool{}
	for _, name := range spec.Sections {
		render, ok := a.renderers[name]
		if !ok {
			sections[name] = NotDocumented
			boilerplate[name] = true
			continue
		}
		text, documented := render(fields)
		sections[name] = text
		boilerplate[name] = !documented
	}

	a.coverOverflow(spec, fields, sections, boilerplate)

	a.logger.WithFields(logrus.Fields{
		"format":   spec.ID,
		"sections": len(sections),
	}).Debug("Assembled draft sections")

	return sections
}

func (a *SectionAssembler) coverOverflow(spec *patterns.FormatSpec, fields *domain.ExtractedFields, sections domain.Sections, boilerplate map[string]bool) {
	if spec.OverflowSection == "" {
		return
	}
	skip := ""
	if boilerplate[spec.OverflowSection] {
		skip = spec.OverflowSection
	}
	missing := []string{}
	for _, item := range coverageItems(fields) {
		if !sectionsContain(sections, skip, item) && !containsString(missing, item) {
			missing = append(missing, item)
		}
	}
	if len(missing) == 0 {
		return
	}

	extra := "Additional documented details: " + strings.Join(missing, "; ") + "."
	if boilerplate[spec.OverflowSection] || sections[spec.OverflowSection] == "" {
		sections[spec.OverflowSection] = extra
		return
	}
	sections[spec.OverflowSection] += "\n" + extra
}

// coverageItems lists what must appear verbatim in a draft, in a fixed order. Compound records
// (a medication, the fluid balance, the wound) are one item each, rendered as a whole line, so
// a record is covered only when its full description is present.
func coverageItems(f *domain.ExtractedFields) []string {
	items := []string{}
	add := func(vs ...string) {
		for _, v := range vs {
			if v = strings.TrimSuffix(v, "."); v != "" {
				items = append(items, v)
			}
		}
	}

	for _, vital := range domain.VitalSignOrder {
		add(f.VitalSigns[vital])
	}
	for _, m := range f.Medications {
		add(describeMedication(m))
	}
	add(f.Interventions...)
	add(f.Symptoms...)
	add(f.AssessmentFindings...)
	add(f.PatientStatements...)
	add(f.TimeStamps...)
	add(f.Allergies...)
	add(intakeOutputText(f), woundText(f))
	add(f.AssessmentSystems...)
	add(f.SafetyChecks...)
	return items
}

// sectionsContain reports whether any section other than skip holds value verbatim.
func sectionsContain(sections domain.Sections, skip, value string) bool {
	for name, text := range sections {
		if name != skip && strings.Contains(text, value) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedSources(l domain.Ledger) []string {
	keys := make([]string, 0, len(l.Sources))
	for k := range l.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func defaultRenderers() map[string]sectionRenderer {
	response := compose("Patient response not documented.", statementsText, responseText)
	interventions := compose("No interventions documented.", interventionsText, medicationsText)
	plan := fixed("Continue to monitor and reassess per unit protocol. Notify provider of significant changes.", safetyText)

	return map[string]sectionRenderer{
		// SOAP family
		"Subjective":   compose("No subjective complaints documented.", symptomsText, statementsText),
		"Objective":    compose("Vital signs and physical findings not documented.", vitalsText, findingsText, intakeOutputText, woundText),
		"Assessment":   compose("Assessment pending nurse review.", systemsText, findingsText, woundText),
		"Plan":         plan,
		"Intervention": interventions,
		"Evaluation":   response,

		// DAR / PIE
		"Data":     compose("No data documented.", vitalsText, symptomsText, findingsText, statementsText),
		"Action":   interventions,
		"Response": response,
		"Problem":  compose("No active problem identified in narrative.", symptomsText, findingsText),

		// SBAR
		"Situation":      compose("Situation not documented.", symptomsText, timestampsText),
		"Background":     compose("No background information documented.", allergiesText, medicationsText),
		"Recommendation": fixed("Recommend provider review of documented findings and continued monitoring.", safetyText),

		// Shift assessment
		"Shift Summary":      compose("Shift summary not documented.", timestampsText, symptomsText, statementsText),
		"Vital Signs":        compose("Vital signs not documented.", vitalsText),
		"Systems Assessment": compose("No body systems documented.", systemsText, findingsText),
		"Safety":             compose("Safety checks not documented.", safetyText),
		"Interventions":      compose("No interventions documented.", interventionsText),

		// Medication administration
		"Medications":    compose("No medications documented.", medicationsText),
		"Administration": compose("Administration details not documented.", administrationText, timestampsText),
		"Allergies":      compose("Allergies not documented.", allergiesText),

		// Wound care
		"Wound Assessment": compose("Wound not described.", woundText),
		"Measurements":     compose("Wound measurements not documented.", woundSizeText),
		"Treatment":        compose("No wound treatment documented.", interventionsText),
		"Patient Response": response,

		// Critical care
		"Hemodynamics":        compose("Hemodynamic values not documented.", vitalsSubset(domain.BloodPressure, domain.HeartRate, domain.MeanArterialPressure, domain.CentralVenousPressure)),
		"Respiratory Support": compose("Respiratory support not documented.", vitalsSubset(domain.RespiratoryRate, domain.OxygenSaturation)),
		"Infusions":           compose("No infusions documented.", infusionsText),
		"Intake & Output":     compose("Intake and output not documented.", intakeOutputText),

		// Narrative
		"Narrative Summary": compose("No narrative details documented.", symptomsText, statementsText, findingsText),
	}
}

type fragment func(f *domain.ExtractedFields) string

// compose joins the non-empty fragments line by line, or returns fallback when all are empty.
func compose(fallback string, parts ...fragment) sectionRenderer {
	return func(f *domain.ExtractedFields) (string, bool) {
		lines := []string{}
		for _, part := range parts {
			if s := part(f); s != "" {
				lines = append(lines, s)
			}
		}
		if len(lines) == 0 {
			return fallback, false
		}
		return strings.Join(lines, "\n"), true
	}
}

// fixed always leads with its sentence and appends any non-empty fragments.
func fixed(sentence string, parts ...fragment) sectionRenderer {
	return func(f *domain.ExtractedFields) (string, bool) {
		lines := []string{sentence}
		documented := false
		for _, part := range parts {
			if s := part(f); s != "" {
				lines = append(lines, s)
				documented = true
			}
		}
		return strings.Join(lines, "\n"), documented
	}
}

func vitalsText(f *domain.ExtractedFields) string {
	return vitalsLine(f, domain.VitalSignOrder)
}

func vitalsSubset(vitals ...domain.VitalSign) fragment {
	return func(f *domain.ExtractedFields) string {
		return vitalsLine(f, vitals)
	}
}

func vitalsLine(f *domain.ExtractedFields, order []domain.VitalSign) string {
	parts := []string{}
	for _, v := range order {
		if value, ok := f.VitalSigns[v]; ok && value != "" {
			parts = append(parts, v.Label()+" "+value+v.Unit())
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Vital signs: " + strings.Join(parts, ", ") + "."
}

func symptomsText(f *domain.ExtractedFields) string {
	return sentence("Patient reports ", f.Symptoms)
}

func findingsText(f *domain.ExtractedFields) string {
	return sentence("Findings: ", f.AssessmentFindings)
}

func systemsText(f *domain.ExtractedFields) string {
	return sentence("Systems assessed: ", f.AssessmentSystems)
}

func safetyText(f *domain.ExtractedFields) string {
	return sentence("Safety measures: ", f.SafetyChecks)
}

func timestampsText(f *domain.ExtractedFields) string {
	return sentence("Times documented: ", f.TimeStamps)
}

func statementsText(f *domain.ExtractedFields) string {
	if len(f.PatientStatements) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(f.PatientStatements))
	for _, s := range f.PatientStatements {
		quoted = append(quoted, `"`+s+`"`)
	}
	return "Patient states: " + strings.Join(quoted, "; ") + "."
}

func responseText(f *domain.ExtractedFields) string {
	out := []string{}
	for _, finding := range f.AssessmentFindings {
		if strings.HasPrefix(strings.ToLower(finding), "tolerated") {
			out = append(out, finding)
		}
	}
	return sentence("Patient ", out)
}

func interventionsText(f *domain.ExtractedFields) string {
	return bullets(f.Interventions)
}

func allergiesText(f *domain.ExtractedFields) string {
	if len(f.Allergies) == 1 && f.Allergies[0] == "NKDA" {
		return "No known drug allergies (NKDA)."
	}
	return sentence("Allergies: ", f.Allergies)
}

func medicationsText(f *domain.ExtractedFields) string {
	lines := make([]string, 0, len(f.Medications))
	for _, m := range f.Medications {
		lines = append(lines, describeMedication(m))
	}
	return bullets(lines)
}

func administrationText(f *domain.ExtractedFields) string {
	lines := make([]string, 0, len(f.Medications))
	for _, m := range f.Medications {
		route := m.Route
		if route == "" {
			route = "route not documented"
		}
		when := m.Time
		if when == "" {
			when = "time not documented"
		}
		line := fmt.Sprintf("%s administered %s at %s", m.Name, route, when)
		if m.Site != "" {
			line += ", site " + m.Site
		}
		lines = append(lines, line)
	}
	return bullets(lines)
}

func infusionsText(f *domain.ExtractedFields) string {
	lines := []string{}
	for _, m := range f.Medications {
		if strings.EqualFold(m.Route, "IV") {
			lines = append(lines, describeMedication(m))
		}
	}
	return bullets(lines)
}

func describeMedication(m domain.Medication) string {
	parts := []string{m.Name}
	for _, p := range []string{m.Dose, m.Route} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	line := strings.Join(parts, " ")
	if m.Time != "" {
		line += " at " + m.Time
	}
	if m.Site != "" {
		line += " (" + m.Site + ")"
	}
	return line
}

func intakeOutputText(f *domain.ExtractedFields) string {
	io := f.IntakeOutput
	if io == nil {
		return ""
	}
	return fmt.Sprintf("Intake: %s. Output: %s. Balance: %+d mL.", ledgerText(io.Intake), ledgerText(io.Output), io.Balance)
}

func ledgerText(l domain.Ledger) string {
	if len(l.Sources) == 0 {
		return "none recorded"
	}
	parts := []string{}
	for _, src := range sortedSources(l) {
		parts = append(parts, fmt.Sprintf("%s %d mL", src, l.Sources[src]))
	}
	return fmt.Sprintf("%s (total %d mL)", strings.Join(parts, ", "), l.Total)
}

func woundText(f *domain.ExtractedFields) string {
	w := f.WoundInfo
	if w.IsEmpty() {
		return ""
	}
	parts := []string{}
	if w.Location != "" {
		parts = append(parts, "location "+w.Location)
	}
	if w.Stage != "" {
		parts = append(parts, w.Stage)
	}
	if w.Size != "" {
		parts = append(parts, "size "+w.Size)
	}
	if w.Drainage != "" {
		parts = append(parts, "drainage "+w.Drainage)
	}
	return "Wound: " + strings.Join(parts, ", ") + "."
}

func woundSizeText(f *domain.ExtractedFields) string {
	if f.WoundInfo == nil || f.WoundInfo.Size == "" {
		return ""
	}
	return "Wound measures " + f.WoundInfo.Size + "."
}

func sentence(prefix string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return prefix + strings.Join(items, ", ") + "."
}

func bullets(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return "- " + strings.Join(items, "\n- ")
}
