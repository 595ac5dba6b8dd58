package service

import (
	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// MinSections is the minimum number of rendered sections for a draft to be review-ready.
const MinSections = 3

// IsReady reports whether a draft carries enough raw material for human review: at least one
// vital sign, at least one symptom and MinSections sections. It says nothing about clinical
// accuracy.
func IsReady(sections domain.Sections, fields *domain.ExtractedFields) bool {
	if fields == nil {
		return false
	}
	return len(fields.VitalSigns) > 0 &&
		len(fields.Symptoms) > 0 &&
		len(sections) >= MinSections
}
