// Package domain contains the core entities for turning transcribed nursing narratives into
// structured documentation drafts.
//
// Everything in this package is a value type. The drafting pipeline creates these values fresh for
// each narrative and never shares them between calls.
package domain

import (
	"errors"
)

// FormatID identifies a documentation format. Adding a format is a new FormatID plus a row in the
// pattern library's format table.
type FormatID string

const (
	FormatSOAP      FormatID = "soap"
	FormatSOAPIE    FormatID = "soapie"
	FormatDAR       FormatID = "dar"
	FormatPIE       FormatID = "pie"
	FormatSBAR      FormatID = "sbar"
	FormatNarrative FormatID = "narrative"

	FormatShiftAssessment          FormatID = "shift_assessment"
	FormatMedicationAdministration FormatID = "medication_administration"
	FormatWoundCare                FormatID = "wound_care"
	FormatCriticalCare             FormatID = "critical_care"
)

// DefaultFormat is returned when a narrative carries no recognizable signal.
const DefaultFormat = FormatNarrative

// AllFormats lists every known format in evaluation order.
var AllFormats = []FormatID{
	FormatShiftAssessment,
	FormatMedicationAdministration,
	FormatWoundCare,
	FormatCriticalCare,
	FormatSOAP,
	FormatSOAPIE,
	FormatDAR,
	FormatPIE,
	FormatSBAR,
	FormatNarrative,
}

// ShiftPhase is the point in a nursing shift the narrative was dictated at.
type ShiftPhase string

const (
	ShiftPhaseNone  ShiftPhase = ""
	ShiftPhaseStart ShiftPhase = "start"
	ShiftPhaseMid   ShiftPhase = "mid"
	ShiftPhaseEnd   ShiftPhase = "end"
)

// UnitType is the kind of care unit the narrative came from.
type UnitType string

const (
	UnitUnknown     UnitType = ""
	UnitICU         UnitType = "icu"
	UnitEmergency   UnitType = "emergency"
	UnitMedSurg     UnitType = "med_surg"
	UnitPediatrics  UnitType = "pediatrics"
	UnitObstetrics  UnitType = "obstetrics"
	UnitPsychiatric UnitType = "psychiatric"
)

// UnitTypeSource records where a unit type came from.
type UnitTypeSource string

const (
	UnitSourceNone     UnitTypeSource = ""
	UnitSourceCaller   UnitTypeSource = "caller"
	UnitSourceDetected UnitTypeSource = "detected"
)

// VitalSign names a vital-sign measurement.
type VitalSign string

const (
	BloodPressure         VitalSign = "blood_pressure"
	HeartRate             VitalSign = "heart_rate"
	RespiratoryRate       VitalSign = "respiratory_rate"
	Temperature           VitalSign = "temperature"
	OxygenSaturation      VitalSign = "oxygen_saturation"
	PainLevel             VitalSign = "pain_level"
	Weight                VitalSign = "weight"
	MeanArterialPressure  VitalSign = "mean_arterial_pressure"
	CentralVenousPressure VitalSign = "central_venous_pressure"
)

// VitalSignOrder is the display order used wherever vitals are rendered.
var VitalSignOrder = []VitalSign{
	BloodPressure,
	HeartRate,
	RespiratoryRate,
	Temperature,
	OxygenSaturation,
	PainLevel,
	Weight,
	MeanArterialPressure,
	CentralVenousPressure,
}

var (
	ErrNotFound            = errors.New("not found")
	ErrEmptyNarrative      = errors.New("narrative is empty")
	ErrInvalidFormat       = errors.New("invalid documentation format")
	ErrUpstreamUnavailable = errors.New("completion service unavailable")
)

// IsValid reports whether f is a known format.
func (f FormatID) IsValid() bool {
	for _, known := range AllFormats {
		if f == known {
			return true
		}
	}
	return false
}

// IsSpecialized reports whether f is a unit- or task-specific format.
func (f FormatID) IsSpecialized() bool {
	switch f {
	case FormatShiftAssessment, FormatMedicationAdministration, FormatWoundCare, FormatCriticalCare:
		return true
	default:
		return false
	}
}

func (f FormatID) String() string {
	return string(f)
}

// ParseFormatID converts user input into a FormatID.
func ParseFormatID(s string) (FormatID, error) {
	f := FormatID(s)
	if !f.IsValid() {
		return "", ErrInvalidFormat
	}
	return f, nil
}

// IsValid reports whether u is a known unit type. The unknown unit is valid.
func (u UnitType) IsValid() bool {
	switch u {
	case UnitUnknown, UnitICU, UnitEmergency, UnitMedSurg, UnitPediatrics, UnitObstetrics, UnitPsychiatric:
		return true
	default:
		return false
	}
}

func (u UnitType) String() string {
	if u == UnitUnknown {
		return "unknown"
	}
	return string(u)
}

func (p ShiftPhase) String() string {
	if p == ShiftPhaseNone {
		return "none"
	}
	return string(p)
}

// Label returns the human-readable vital-sign name used in section text.
func (v VitalSign) Label() string {
	switch v {
	case BloodPressure:
		return "BP"
	case HeartRate:
		return "HR"
	case RespiratoryRate:
		return "RR"
	case Temperature:
		return "Temp"
	case OxygenSaturation:
		return "SpO2"
	case PainLevel:
		return "Pain"
	case Weight:
		return "Weight"
	case MeanArterialPressure:
		return "MAP"
	case CentralVenousPressure:
		return "CVP"
	default:
		return string(v)
	}
}

// Unit returns the display unit appended after the raw value, if any.
func (v VitalSign) Unit() string {
	switch v {
	case OxygenSaturation:
		return "%"
	case PainLevel:
		return "/10"
	case MeanArterialPressure, BloodPressure:
		return " mmHg"
	case CentralVenousPressure:
		return " mmHg"
	default:
		return ""
	}
}
