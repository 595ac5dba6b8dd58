package service

import (
	"sort"
	"strings"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

type medicationMatch struct {
	pos int
	med domain.Medication
}

// extractMedications prefers administration phrases; only when none are found does it fall back
// to a "medications: ..." listing stamped with the current clock time. A dose-less match inside
// a span already claimed by a dosed administration is the same event and is dropped. Only
// identical records collapse, so repeat doses at different times are all kept.
func (e *FieldExtractor) extractMedications(narrative string) []domain.Medication {
	rules := e.lib.Medications
	matches := []medicationMatch{}

	claimed := rules.Administration.FindAllStringSubmatchIndex(narrative, -1)
	for _, loc := range claimed {
		name, route := e.splitRoute(group(narrative, loc, 1))
		if r := group(narrative, loc, 3); r != "" {
			route = strings.ToUpper(r)
		}
		med := domain.Medication{Name: name, Dose: group(narrative, loc, 2), Route: route}
		matches = append(matches, e.completeMedication(narrative, loc, med))
	}
	for _, loc := range rules.RouteOnly.FindAllStringSubmatchIndex(narrative, -1) {
		if overlaps(claimed, loc) {
			continue
		}
		med := domain.Medication{
			Name:  e.cleanName(group(narrative, loc, 1)),
			Route: strings.ToUpper(group(narrative, loc, 2)),
		}
		matches = append(matches, e.completeMedication(narrative, loc, med))
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	meds := []domain.Medication{}
	seen := map[domain.Medication]bool{}
	for _, m := range matches {
		if m.med.Name == "" {
			continue
		}
		key := m.med
		key.Name = strings.ToLower(key.Name)
		key.Dose = strings.ToLower(strings.Join(strings.Fields(key.Dose), ""))
		if seen[key] {
			continue
		}
		seen[key] = true
		meds = append(meds, m.med)
	}
	if len(meds) > 0 {
		return meds
	}

	return e.listedMedications(narrative)
}

// splitRoute cuts a captured name at the first route word ("morphine IV" dictated before the
// dose) and returns that route in upper case.
func (e *FieldExtractor) splitRoute(captured string) (name, route string) {
	words := strings.Fields(e.cleanName(captured))
	for i := 1; i < len(words); i++ {
		if e.lib.Medications.IsRoute(words[i]) {
			return strings.Join(words[:i], " "), strings.ToUpper(words[i])
		}
	}
	return strings.Join(words, " "), ""
}

func overlaps(spans [][]int, loc []int) bool {
	for _, s := range spans {
		if loc[0] < s[1] && s[0] < loc[1] {
			return true
		}
	}
	return false
}

// completeMedication fills time and site from the rest of the sentence after the match.
func (e *FieldExtractor) completeMedication(narrative string, loc []int, med domain.Medication) medicationMatch {
	rest := narrative[loc[1]:]
	if tm := e.lib.Medications.TimeAfter.FindStringSubmatch(rest); tm != nil {
		med.Time = strings.TrimSpace(tm[1])
	}

	sentence := narrative[loc[0]:]
	if end := strings.IndexByte(sentence, '.'); end >= 0 {
		sentence = sentence[:end]
	}
	if site := e.lib.Medications.Site.FindStringSubmatch(sentence); site != nil {
		med.Site = site[1]
	}
	return medicationMatch{pos: loc[0], med: med}
}

func (e *FieldExtractor) listedMedications(narrative string) []domain.Medication {
	m := e.lib.Medications.Listing.FindStringSubmatch(narrative)
	if m == nil {
		return []domain.Medication{}
	}

	now := e.clock().Format("15:04")
	meds := []domain.Medication{}
	for _, name := range e.splitList(m[1]) {
		meds = append(meds, domain.Medication{Name: name, Time: now})
	}
	return meds
}

func (e *FieldExtractor) cleanName(name string) string {
	words := strings.Fields(name)
	for len(words) > 1 && e.isFiller(words[0]) {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

func (e *FieldExtractor) isFiller(word string) bool {
	for _, f := range e.lib.Medications.NameFillers {
		if strings.EqualFold(word, f) {
			return true
		}
	}
	return false
}

func group(s string, loc []int, n int) string {
	if 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}
	return strings.TrimSpace(s[loc[2*n]:loc[2*n+1]])
}
