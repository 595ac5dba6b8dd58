package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClassifyOptions carries caller-supplied context. A non-empty UnitType is preferred over the
// classifier's own unit detection.
type ClassifyOptions struct {
	UnitType UnitType `json:"unit_type,omitempty"`
}

// DetectedFormat is the classifier's decision together with the evidence behind it.
type DetectedFormat struct {
	Format     FormatID       `json:"format"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
	Indicators []string       `json:"indicators"`
	Context    *FormatContext `json:"context,omitempty"`
}

// FormatContext holds the side signals consulted during classification.
type FormatContext struct {
	ShiftPhase     ShiftPhase     `json:"shift_phase,omitempty"`
	UnitType       UnitType       `json:"unit_type,omitempty"`
	UnitTypeSource UnitTypeSource `json:"unit_type_source,omitempty"`
	BodySystems    []string       `json:"body_systems,omitempty"`
}

// Sections maps a section name to its text.
type Sections map[string]string

// StructuredDraft is the pipeline output handed to reviewers and prompt builders. Format is the
// format the sections were rendered in; it equals DetectedFormat.Format unless the caller chose one.
type StructuredDraft struct {
	ID              string           `json:"id"`
	Format          FormatID         `json:"format"`
	DetectedFormat  *DetectedFormat  `json:"detected_format"`
	ExtractedFields *ExtractedFields `json:"extracted_fields"`
	Sections        Sections         `json:"sections"`
	SectionOrder    []string         `json:"section_order"`
	ReadyForReview  bool             `json:"ready_for_review"`
	Analysis        FormatAnalysis   `json:"analysis"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Clone returns a deep copy so that editors never mutate a draft in place.
func (d *StructuredDraft) Clone() *StructuredDraft {
	if d == nil {
		return nil
	}
	out := *d
	if d.DetectedFormat != nil {
		df := *d.DetectedFormat
		df.Indicators = append([]string(nil), d.DetectedFormat.Indicators...)
		if d.DetectedFormat.Context != nil {
			c := *d.DetectedFormat.Context
			c.BodySystems = append([]string(nil), d.DetectedFormat.Context.BodySystems...)
			df.Context = &c
		}
		out.DetectedFormat = &df
	}
	out.ExtractedFields = d.ExtractedFields.Clone()
	out.Sections = make(Sections, len(d.Sections))
	for k, v := range d.Sections {
		out.Sections[k] = v
	}
	out.SectionOrder = append([]string(nil), d.SectionOrder...)
	if d.Analysis != nil {
		out.Analysis = d.Analysis.cloneAnalysis()
	}
	return &out
}

// Render joins the sections in order as "Name:\ntext" blocks.
func (d *StructuredDraft) Render() string {
	var out string
	for i, name := range d.SectionOrder {
		if i > 0 {
			out += "\n\n"
		}
		out += name + ":\n" + d.Sections[name]
	}
	return out
}

// UnmarshalJSON restores the Analysis variant from the rendered format.
func (d *StructuredDraft) UnmarshalJSON(data []byte) error {
	type plain StructuredDraft
	aux := struct {
		*plain
		Analysis json.RawMessage `json:"analysis"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Analysis) == 0 || string(aux.Analysis) == "null" {
		d.Analysis = nil
		return nil
	}
	format := d.Format
	if format == "" && d.DetectedFormat != nil {
		format = d.DetectedFormat.Format
	}
	analysis, err := decodeAnalysis(format, aux.Analysis)
	if err != nil {
		return fmt.Errorf("decoding %s analysis: %w", format, err)
	}
	d.Analysis = analysis
	return nil
}

// analysisDecoders restores the variant stored for a format. Formats without an entry decode
// as GenericAnalysis.
var analysisDecoders = map[FormatID]func(json.RawMessage) (FormatAnalysis, error){
	FormatShiftAssessment:          decodeVariant[ShiftAnalysis],
	FormatMedicationAdministration: decodeVariant[MedicationAnalysis],
	FormatWoundCare:                decodeVariant[WoundAnalysis],
	FormatCriticalCare:             decodeVariant[CriticalCareAnalysis],
}

func decodeVariant[T FormatAnalysis](raw json.RawMessage) (FormatAnalysis, error) {
	var a T
	err := json.Unmarshal(raw, &a)
	return a, err
}

func decodeAnalysis(format FormatID, raw json.RawMessage) (FormatAnalysis, error) {
	if decode, ok := analysisDecoders[format]; ok {
		return decode(raw)
	}
	return decodeVariant[GenericAnalysis](raw)
}

// FormatAnalysis is a closed set of per-format analysis variants. Each variant carries only the
// fields relevant to its format family.
type FormatAnalysis interface {
	AnalysisFormat() FormatID
	cloneAnalysis() FormatAnalysis
	isFormatAnalysis()
}

// ShiftAnalysis summarizes a comprehensive shift assessment.
type ShiftAnalysis struct {
	Phase          ShiftPhase `json:"phase"`
	SystemsCovered []string   `json:"systems_covered"`
	SafetyChecks   []string   `json:"safety_checks"`
}

// MedicationAnalysis summarizes a medication administration record.
type MedicationAnalysis struct {
	Medications []Medication `json:"medications"`
	Allergies   []string     `json:"allergies"`
}

// WoundAnalysis summarizes a wound care note.
type WoundAnalysis struct {
	Wound         *WoundInfo `json:"wound,omitempty"`
	Interventions []string   `json:"interventions"`
}

// CriticalCareAnalysis summarizes a critical care flowsheet narrative.
type CriticalCareAnalysis struct {
	Hemodynamics map[VitalSign]string `json:"hemodynamics"`
	IntakeOutput *IntakeOutput        `json:"intake_output,omitempty"`
}

// GenericAnalysis covers the narrative formats that have no format-specific fields.
type GenericAnalysis struct {
	Format FormatID `json:"format"`
}

func (ShiftAnalysis) AnalysisFormat() FormatID        { return FormatShiftAssessment }
func (MedicationAnalysis) AnalysisFormat() FormatID   { return FormatMedicationAdministration }
func (WoundAnalysis) AnalysisFormat() FormatID        { return FormatWoundCare }
func (CriticalCareAnalysis) AnalysisFormat() FormatID { return FormatCriticalCare }
func (g GenericAnalysis) AnalysisFormat() FormatID    { return g.Format }

func (a ShiftAnalysis) cloneAnalysis() FormatAnalysis {
	a.SystemsCovered = copyStrings(a.SystemsCovered)
	a.SafetyChecks = copyStrings(a.SafetyChecks)
	return a
}

func (a MedicationAnalysis) cloneAnalysis() FormatAnalysis {
	if a.Medications != nil {
		a.Medications = append([]Medication{}, a.Medications...)
	}
	a.Allergies = copyStrings(a.Allergies)
	return a
}

func (a WoundAnalysis) cloneAnalysis() FormatAnalysis {
	if a.Wound != nil {
		w := *a.Wound
		a.Wound = &w
	}
	a.Interventions = copyStrings(a.Interventions)
	return a
}

func (a CriticalCareAnalysis) cloneAnalysis() FormatAnalysis {
	if a.Hemodynamics != nil {
		h := make(map[VitalSign]string, len(a.Hemodynamics))
		for k, v := range a.Hemodynamics {
			h[k] = v
		}
		a.Hemodynamics = h
	}
	a.IntakeOutput = a.IntakeOutput.clone()
	return a
}

func (a GenericAnalysis) cloneAnalysis() FormatAnalysis { return a }

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func (ShiftAnalysis) isFormatAnalysis()        {}
func (MedicationAnalysis) isFormatAnalysis()   {}
func (WoundAnalysis) isFormatAnalysis()        {}
func (CriticalCareAnalysis) isFormatAnalysis() {}
func (GenericAnalysis) isFormatAnalysis()      {}

// ComposedNote is a draft plus the prose produced for it. When Degraded is set, Body is the
// rendered draft under a notice explaining why no generated prose is available.
type ComposedNote struct {
	Draft       *StructuredDraft  `json:"draft"`
	Body        string            `json:"body"`
	Degraded    bool              `json:"degraded"`
	Notice      string            `json:"notice,omitempty"`
	Redacted    bool              `json:"redacted"`
	Definitions map[string]string `json:"definitions,omitempty"`
}
