package service

import (
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
)

// Clock returns the current time. The medication listing fallback is the only consumer.
type Clock func() time.Time

// FieldExtractor applies the pattern library to a narrative.
type FieldExtractor struct {
	logger *logrus.Logger
	lib    *patterns.Library
	clock  Clock
	io     *IntakeOutputExtractor
	wound  *WoundExtractor
}

// NewFieldExtractor creates a new field extractor. A nil clock means time.Now.
func NewFieldExtractor(logger *logrus.Logger, lib *patterns.Library, clock Clock) *FieldExtractor {
	if clock == nil {
		clock = time.Now
	}
	return &FieldExtractor{
		logger: logger,
		lib:    lib,
		clock:  clock,
		io:     NewIntakeOutputExtractor(lib),
		wound:  NewWoundExtractor(lib),
	}
}

// Extract pulls every field family out of narrative. It never fails: absent data yields empty
// collections and nil optional fields.
func (e *FieldExtractor) Extract(narrative string) *domain.ExtractedFields {
	fields := domain.NewExtractedFields()
	if strings.TrimSpace(narrative) == "" {
		return fields
	}

	for _, rule := range e.lib.Vitals {
		if value, ok := rule.Match(narrative); ok {
			fields.VitalSigns[rule.Vital] = value
		}
	}

	fields.Medications = e.extractMedications(narrative)
	fields.Interventions = e.extractInterventions(narrative)
	fields.Symptoms = e.lib.Symptoms.Matches(narrative)
	fields.AssessmentFindings = e.lib.Findings.Matches(narrative)
	fields.SafetyChecks = e.lib.SafetyChecks.Matches(narrative)
	fields.AssessmentSystems = DetectBodySystems(e.lib, narrative)
	fields.PatientStatements = e.extractStatements(narrative)
	fields.TimeStamps = dedupe(trimAll(e.lib.Timestamps.FindAllString(narrative, -1)))
	fields.Allergies = e.extractAllergies(narrative)
	fields.IntakeOutput = e.io.Extract(narrative)
	fields.WoundInfo = e.wound.Extract(narrative)

	e.logger.WithFields(logrus.Fields{
		"vitals":        len(fields.VitalSigns),
		"medications":   len(fields.Medications),
		"symptoms":      len(fields.Symptoms),
		"interventions": len(fields.Interventions),
		"systems":       len(fields.AssessmentSystems),
	}).Debug("Extracted narrative fields")

	return fields
}

func (e *FieldExtractor) extractInterventions(narrative string) []string {
	type hit struct {
		pos  int
		text string
	}
	hits := []hit{}
	for _, rule := range e.lib.Interventions {
		for _, loc := range rule.Pattern.FindAllStringIndex(narrative, -1) {
			text := strings.TrimSpace(narrative[loc[0]:loc[1]])
			if text != "" {
				hits = append(hits, hit{pos: loc[0], text: text})
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].text < hits[j].text
	})

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.text)
	}
	return dedupe(out)
}

func (e *FieldExtractor) extractStatements(narrative string) []string {
	out := []string{}
	for _, m := range e.lib.Statements.FindAllStringSubmatch(narrative, -1) {
		for _, group := range m[1:] {
			if s := strings.TrimSpace(group); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func (e *FieldExtractor) extractAllergies(narrative string) []string {
	if m := e.lib.Allergies.Phrase.FindStringSubmatch(narrative); m != nil {
		tokens := e.splitList(m[1])
		if len(tokens) == 1 && strings.EqualFold(tokens[0], "none") {
			return []string{"NKDA"}
		}
		if len(tokens) > 0 {
			return tokens
		}
	}
	if e.lib.Allergies.None.MatchString(narrative) {
		return []string{"NKDA"}
	}
	return []string{}
}

func (e *FieldExtractor) splitList(phrase string) []string {
	out := []string{}
	for _, part := range e.lib.ListSeparator.Split(phrase, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return dedupe(out)
}

// DetectBodySystems returns the names of the body systems mentioned in text, in table order.
func DetectBodySystems(lib *patterns.Library, text string) []string {
	out := []string{}
	for _, sys := range lib.BodySystems {
		if sys.Terms.Contains(text) {
			out = append(out, sys.Name)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
