package external

import (
	"context"
	"regexp"
	"sort"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// redactionRule replaces every match of pattern with a bracketed category token.
type redactionRule struct {
	category string
	token    string
	pattern  *regexp.Regexp
}

// PatternRedactor masks identifiers that have a fixed shape: record numbers, phone numbers,
// social security numbers, email addresses and dates of birth. Names are left alone.
type PatternRedactor struct {
	rules []redactionRule
}

// NewPatternRedactor returns a redactor with the default identifier rules.
func NewPatternRedactor() *PatternRedactor {
	return &PatternRedactor{rules: []redactionRule{
		{"mrn", "[MRN]", regexp.MustCompile(`(?i)\b(?:MRN|medical record(?: number)?)[:#\s]*\d{5,10}\b`)},
		{"ssn", "[SSN]", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
		{"phone", "[PHONE]", regexp.MustCompile(`(?:\(\d{3}\)\s?|\b\d{3}[-.])\d{3}[-.]\d{4}\b`)},
		{"email", "[EMAIL]", regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)},
		{"dob", "[DOB]", regexp.MustCompile(`(?i)\b(?:DOB|date of birth)[:\s]*\d{1,2}/\d{1,2}/\d{2,4}\b`)},
	}}
}

type span struct {
	start, end int
	rule       *redactionRule
}

// Redact implements domain.Redactor. Findings report offsets into the input text.
func (r *PatternRedactor) Redact(_ context.Context, text string) (*domain.RedactionResult, error) {
	var spans []span
	for i := range r.rules {
		rule := &r.rules[i]
		for _, loc := range rule.pattern.FindAllStringIndex(text, -1) {
			spans = append(spans, span{start: loc[0], end: loc[1], rule: rule})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	result := &domain.RedactionResult{Findings: []domain.RedactionFinding{}}
	out := make([]byte, 0, len(text))
	last := 0
	for _, s := range spans {
		if s.start < last {
			continue
		}
		out = append(out, text[last:s.start]...)
		out = append(out, s.rule.token...)
		result.Findings = append(result.Findings, domain.RedactionFinding{
			Category: s.rule.category,
			Start:    s.start,
			End:      s.end,
		})
		last = s.end
	}
	out = append(out, text[last:]...)
	result.RedactedText = string(out)
	return result, nil
}
