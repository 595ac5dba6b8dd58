package domain

// ExtractedFields is the bag of clinical facts pulled out of a narrative. Collections are never nil
// after extraction; optional compound fields are either nil or fully populated.
type ExtractedFields struct {
	VitalSigns         map[VitalSign]string `json:"vital_signs"`
	Medications        []Medication         `json:"medications"`
	Interventions      []string             `json:"interventions"`
	Symptoms           []string             `json:"symptoms"`
	AssessmentFindings []string             `json:"assessment_findings"`
	PatientStatements  []string             `json:"patient_statements"`
	TimeStamps         []string             `json:"time_stamps"`
	Allergies          []string             `json:"allergies"`
	IntakeOutput       *IntakeOutput        `json:"intake_output,omitempty"`
	WoundInfo          *WoundInfo           `json:"wound_info,omitempty"`
	AssessmentSystems  []string             `json:"assessment_systems"`
	SafetyChecks       []string             `json:"safety_checks"`
}

// Medication is a single administration mentioned in the narrative.
type Medication struct {
	Name  string `json:"name"`
	Dose  string `json:"dose"`
	Route string `json:"route"`
	Time  string `json:"time"`
	Site  string `json:"site,omitempty"`
}

// IntakeOutput summarizes fluid balance.
type IntakeOutput struct {
	Intake  Ledger `json:"intake"`
	Output  Ledger `json:"output"`
	Balance int    `json:"balance"`
}

// Ledger maps a fluid source to its volume in mL.
type Ledger struct {
	Sources map[string]int `json:"sources"`
	Total   int            `json:"total"`
}

// WoundInfo describes the first wound documented in the narrative.
type WoundInfo struct {
	Location string `json:"location,omitempty"`
	Stage    string `json:"stage,omitempty"`
	Size     string `json:"size,omitempty"`
	Drainage string `json:"drainage,omitempty"`
}

// NewExtractedFields returns a value with every collection initialized.
func NewExtractedFields() *ExtractedFields {
	return &ExtractedFields{
		VitalSigns:         map[VitalSign]string{},
		Medications:        []Medication{},
		Interventions:      []string{},
		Symptoms:           []string{},
		AssessmentFindings: []string{},
		PatientStatements:  []string{},
		TimeStamps:         []string{},
		Allergies:          []string{},
		AssessmentSystems:  []string{},
		SafetyChecks:       []string{},
	}
}

// IsEmpty reports whether nothing at all was extracted.
func (f *ExtractedFields) IsEmpty() bool {
	if f == nil {
		return true
	}
	return len(f.VitalSigns) == 0 &&
		len(f.Medications) == 0 &&
		len(f.Interventions) == 0 &&
		len(f.Symptoms) == 0 &&
		len(f.AssessmentFindings) == 0 &&
		len(f.PatientStatements) == 0 &&
		len(f.TimeStamps) == 0 &&
		len(f.Allergies) == 0 &&
		f.IntakeOutput == nil &&
		f.WoundInfo == nil &&
		len(f.AssessmentSystems) == 0 &&
		len(f.SafetyChecks) == 0
}

// Clone returns a deep copy.
func (f *ExtractedFields) Clone() *ExtractedFields {
	if f == nil {
		return nil
	}
	out := NewExtractedFields()
	for k, v := range f.VitalSigns {
		out.VitalSigns[k] = v
	}
	out.Medications = append(out.Medications, f.Medications...)
	out.Interventions = append(out.Interventions, f.Interventions...)
	out.Symptoms = append(out.Symptoms, f.Symptoms...)
	out.AssessmentFindings = append(out.AssessmentFindings, f.AssessmentFindings...)
	out.PatientStatements = append(out.PatientStatements, f.PatientStatements...)
	out.TimeStamps = append(out.TimeStamps, f.TimeStamps...)
	out.Allergies = append(out.Allergies, f.Allergies...)
	out.AssessmentSystems = append(out.AssessmentSystems, f.AssessmentSystems...)
	out.SafetyChecks = append(out.SafetyChecks, f.SafetyChecks...)
	out.IntakeOutput = f.IntakeOutput.clone()
	if f.WoundInfo != nil {
		w := *f.WoundInfo
		out.WoundInfo = &w
	}
	return out
}

// NewIntakeOutput builds a fully populated IntakeOutput from per-source volumes.
func NewIntakeOutput(intake, output map[string]int) *IntakeOutput {
	in := newLedger(intake)
	out := newLedger(output)
	return &IntakeOutput{
		Intake:  in,
		Output:  out,
		Balance: in.Total - out.Total,
	}
}

func newLedger(sources map[string]int) Ledger {
	l := Ledger{Sources: map[string]int{}}
	for k, v := range sources {
		l.Sources[k] = v
		l.Total += v
	}
	return l
}

func (io *IntakeOutput) clone() *IntakeOutput {
	if io == nil {
		return nil
	}
	out := *io
	out.Intake = io.Intake.clone()
	out.Output = io.Output.clone()
	return &out
}

func (l Ledger) clone() Ledger {
	out := Ledger{Sources: make(map[string]int, len(l.Sources)), Total: l.Total}
	for k, v := range l.Sources {
		out.Sources[k] = v
	}
	return out
}

// IsEmpty reports whether no wound attribute was captured.
func (w *WoundInfo) IsEmpty() bool {
	return w == nil || (w.Location == "" && w.Stage == "" && w.Size == "" && w.Drainage == "")
}
