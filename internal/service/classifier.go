package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/patterns"
)

const (
	// NeutralConfidence is reported when no format scored at all.
	NeutralConfidence = 0.5
	// ForcedConfidence is reported when shift phase plus a system-by-system assessment forces the
	// comprehensive shift assessment.
	ForcedConfidence = 0.95
	// SingleCandidatePrior is added to the denominator when exactly one format scored, so a lone
	// weak hit is not reported as certainty.
	SingleCandidatePrior = 2.0
	// MinForcedSystems is the number of distinct body systems that, together with a shift phase,
	// forces the shift assessment.
	MinForcedSystems = 3
)

// FormatClassifier scores a narrative against the format table.
type FormatClassifier struct {
	logger *logrus.Logger
	lib    *patterns.Library
}

// NewFormatClassifier creates a new format classifier
func NewFormatClassifier(logger *logrus.Logger, lib *patterns.Library) *FormatClassifier {
	return &FormatClassifier{logger: logger, lib: lib}
}

type candidate struct {
	spec  *patterns.FormatSpec
	eval  patterns.Evaluation
	total int
	notes []string
}

// Classify picks the documentation format for narrative. Specialized formats that clear their
// threshold always outrank generic ones; generic formats are only scored when none did.
func (c *FormatClassifier) Classify(narrative string, opts domain.ClassifyOptions) *domain.DetectedFormat {
	phase, phaseTerms := DetectShiftPhase(c.lib, narrative)
	systems := DetectBodySystems(c.lib, narrative)
	fctx := &domain.FormatContext{
		ShiftPhase:  phase,
		BodySystems: systems,
	}
	if opts.UnitType != domain.UnitUnknown && opts.UnitType.IsValid() {
		fctx.UnitType = opts.UnitType
		fctx.UnitTypeSource = domain.UnitSourceCaller
	} else if unit := DetectUnitType(c.lib, narrative); unit != domain.UnitUnknown {
		fctx.UnitType = unit
		fctx.UnitTypeSource = domain.UnitSourceDetected
	}

	if phase != domain.ShiftPhaseNone && len(systems) >= MinForcedSystems {
		indicators := append(append([]string{}, phaseTerms...), systems...)
		result := &domain.DetectedFormat{
			Format:     domain.FormatShiftAssessment,
			Confidence: ForcedConfidence,
			Reasoning: fmt.Sprintf("Shift phase %q with %d body systems assessed indicates a comprehensive shift assessment",
				phase, len(systems)),
			Indicators: indicators,
			Context:    fctx,
		}
		c.logDecision(result, "forced")
		return result
	}

	if result := c.classifySpecialized(narrative, fctx); result != nil {
		c.logDecision(result, "specialized")
		return result
	}

	result := c.classifyGeneric(narrative, fctx)
	c.logDecision(result, "generic")
	return result
}

func (c *FormatClassifier) classifySpecialized(narrative string, fctx *domain.FormatContext) *domain.DetectedFormat {
	candidates := []candidate{}
	for _, spec := range c.lib.Specialized() {
		ev := spec.Evaluate(narrative)
		c.logger.WithFields(logrus.Fields{
			"format": spec.ID,
			"hits":   len(ev.Hits),
			"score":  ev.Score(),
		}).Debug("Evaluated specialized format")

		if !spec.Qualifies(ev) {
			continue
		}
		cand := candidate{spec: spec, eval: ev, total: ev.Score() + spec.Bonus}
		if spec.HasUnit(fctx.UnitType) {
			cand.total += patterns.UnitAffinityBonus
			cand.notes = append(cand.notes, fmt.Sprintf("%s unit affinity", fctx.UnitType))
		}
		candidates = append(candidates, cand)
	}
	if len(candidates) == 0 {
		return nil
	}
	return c.decide(candidates, fctx)
}

func (c *FormatClassifier) classifyGeneric(narrative string, fctx *domain.FormatContext) *domain.DetectedFormat {
	candidates := []candidate{}
	for _, spec := range c.lib.Generic() {
		ev := spec.Evaluate(narrative)
		if ev.Score() <= 0 {
			continue
		}
		candidates = append(candidates, candidate{spec: spec, eval: ev, total: ev.Score()})
	}
	if len(candidates) == 0 {
		return &domain.DetectedFormat{
			Format:     domain.DefaultFormat,
			Confidence: NeutralConfidence,
			Reasoning:  fmt.Sprintf("No format indicators found; defaulting to %s", domain.DefaultFormat),
			Indicators: []string{},
			Context:    fctx,
		}
	}
	return c.decide(candidates, fctx)
}

// decide ranks candidates by total score, breaking ties by table order, and derives confidence
// from the winner's share of all candidate scores.
func (c *FormatClassifier) decide(candidates []candidate, fctx *domain.FormatContext) *domain.DetectedFormat {
	rankCandidates(candidates)
	winner := candidates[0]

	sum := 0
	for _, cand := range candidates {
		sum += cand.total
	}

	reasoning := fmt.Sprintf("%s scored %d from %d keyword hits", winner.spec.Name, winner.total, len(winner.eval.Hits))
	if len(winner.eval.Cues) > 0 {
		reasoning += fmt.Sprintf(" and structural cues (%s)", strings.Join(winner.eval.Cues, ", "))
	}
	if len(winner.notes) > 0 {
		reasoning += fmt.Sprintf(" plus %s", strings.Join(winner.notes, ", "))
	}
	if len(candidates) > 1 {
		reasoning += fmt.Sprintf("; runner-up %s scored %d", candidates[1].spec.Name, candidates[1].total)
	} else {
		reasoning += fmt.Sprintf(" (single candidate; confidence discounted by prior %g)", SingleCandidatePrior)
	}

	return &domain.DetectedFormat{
		Format:     winner.spec.ID,
		Confidence: Confidence(winner.total, sum, len(candidates)),
		Reasoning:  reasoning,
		Indicators: winner.eval.Indicators(),
		Context:    fctx,
	}
}

func rankCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].total != candidates[j].total {
			return candidates[i].total > candidates[j].total
		}
		return candidates[i].spec.Order < candidates[j].spec.Order
	})
}

// Confidence is the winner's share of the total score. With a single scoring candidate the share
// is discounted by SingleCandidatePrior. The result is always within [0,1].
func Confidence(winner, total, candidates int) float64 {
	if winner <= 0 || total <= 0 {
		return NeutralConfidence
	}
	var conf float64
	if candidates == 1 {
		conf = float64(winner) / (float64(winner) + SingleCandidatePrior)
	} else {
		conf = float64(winner) / float64(total)
	}
	return clamp01(conf)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (c *FormatClassifier) logDecision(result *domain.DetectedFormat, pass string) {
	c.logger.WithFields(logrus.Fields{
		"format":      result.Format,
		"confidence":  result.Confidence,
		"pass":        pass,
		"indicators":  len(result.Indicators),
		"shift_phase": result.Context.ShiftPhase.String(),
		"unit_type":   result.Context.UnitType.String(),
	}).Debug("Classified narrative format")
}

// DetectShiftPhase returns the shift phase with the most distinct cues and the cues it matched.
// Ties go to the earlier phase in the table.
func DetectShiftPhase(lib *patterns.Library, text string) (domain.ShiftPhase, []string) {
	best, terms := bestCategory(lib.ShiftPhases, text)
	if best == nil {
		return domain.ShiftPhaseNone, nil
	}
	return domain.ShiftPhase(best.Name), terms
}

// DetectUnitType returns the care unit with the most distinct cues, or UnitUnknown.
func DetectUnitType(lib *patterns.Library, text string) domain.UnitType {
	best, _ := bestCategory(lib.Units, text)
	if best == nil {
		return domain.UnitUnknown
	}
	return domain.UnitType(best.Name)
}

func bestCategory(categories []patterns.Category, text string) (*patterns.Category, []string) {
	var best *patterns.Category
	bestCount := 0
	for i := range categories {
		if n := categories[i].Terms.Count(text); n > bestCount {
			best = &categories[i]
			bestCount = n
		}
	}
	if best == nil {
		return nil, nil
	}
	return best, best.Terms.Matches(text)
}
