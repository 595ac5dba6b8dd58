package service

import (
	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// analyzers builds the format-specific analysis variant. Formats without an entry get a
// GenericAnalysis.
var analyzers = map[domain.FormatID]func(*domain.DetectedFormat, *domain.ExtractedFields) domain.FormatAnalysis{
	domain.FormatShiftAssessment: func(d *domain.DetectedFormat, f *domain.ExtractedFields) domain.FormatAnalysis {
		a := domain.ShiftAnalysis{
			SystemsCovered: append([]string{}, f.AssessmentSystems...),
			SafetyChecks:   append([]string{}, f.SafetyChecks...),
		}
		if d != nil && d.Context != nil {
			a.Phase = d.Context.ShiftPhase
		}
		return a
	},
	domain.FormatMedicationAdministration: func(_ *domain.DetectedFormat, f *domain.ExtractedFields) domain.FormatAnalysis {
		return domain.MedicationAnalysis{
			Medications: append([]domain.Medication{}, f.Medications...),
			Allergies:   append([]string{}, f.Allergies...),
		}
	},
	domain.FormatWoundCare: func(_ *domain.DetectedFormat, f *domain.ExtractedFields) domain.FormatAnalysis {
		a := domain.WoundAnalysis{Interventions: append([]string{}, f.Interventions...)}
		if f.WoundInfo != nil {
			w := *f.WoundInfo
			a.Wound = &w
		}
		return a
	},
	domain.FormatCriticalCare: func(_ *domain.DetectedFormat, f *domain.ExtractedFields) domain.FormatAnalysis {
		a := domain.CriticalCareAnalysis{Hemodynamics: map[domain.VitalSign]string{}}
		for _, v := range []domain.VitalSign{domain.BloodPressure, domain.HeartRate, domain.MeanArterialPressure, domain.CentralVenousPressure} {
			if value, ok := f.VitalSigns[v]; ok {
				a.Hemodynamics[v] = value
			}
		}
		if f.IntakeOutput != nil {
			a.IntakeOutput = f.Clone().IntakeOutput
		}
		return a
	},
}

// Analyze returns the analysis variant for format.
func Analyze(format domain.FormatID, detected *domain.DetectedFormat, fields *domain.ExtractedFields) domain.FormatAnalysis {
	if fields == nil {
		fields = domain.NewExtractedFields()
	}
	if build, ok := analyzers[format]; ok {
		return build(detected, fields)
	}
	return domain.GenericAnalysis{Format: format}
}
