package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// BuildNotePrompt returns the completion prompt that asks for a polished note in the draft's format.
// The prompt carries only the assembled sections and extracted facts, never the raw narrative.
func BuildNotePrompt(draft *domain.StructuredDraft, definitions map[string]string) string {
	var b strings.Builder

	b.WriteString(`You are a nursing documentation assistant. Rewrite the draft below into a concise, professional ` +
		string(draft.Format) + ` note for the patient's chart.

IMPORTANT INSTRUCTIONS:
- Keep exactly these section headings, in this order: ` + strings.Join(draft.SectionOrder, ", ") + `.
- Use only facts listed under DRAFT SECTIONS and EXTRACTED FACTS. Do not invent vital signs, doses, times or findings.
- Where a section says a value is not documented, keep that statement.
- Return plain text with each heading followed by a colon. No markdown.
`)

	b.WriteString("\nDRAFT SECTIONS:\n")
	b.WriteString(draft.Render())
	b.WriteString("\n")

	if facts := factLines(draft.ExtractedFields); len(facts) > 0 {
		b.WriteString("\nEXTRACTED FACTS:\n")
		for _, line := range facts {
			b.WriteString("- " + line + "\n")
		}
	}

	if len(definitions) > 0 {
		b.WriteString("\nTERMINOLOGY:\n")
		terms := make([]string, 0, len(definitions))
		for term := range definitions {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			fmt.Fprintf(&b, "- %s: %s\n", term, definitions[term])
		}
	}

	return b.String()
}

func factLines(f *domain.ExtractedFields) []string {
	if f == nil {
		return nil
	}
	lines := []string{}
	for _, v := range domain.VitalSignOrder {
		if value, ok := f.VitalSigns[v]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s%s", v.Label(), value, v.Unit()))
		}
	}
	for _, m := range f.Medications {
		lines = append(lines, "Medication: "+describeMedication(m))
	}
	if len(f.Allergies) > 0 {
		lines = append(lines, "Allergies: "+strings.Join(f.Allergies, ", "))
	}
	if len(f.Symptoms) > 0 {
		lines = append(lines, "Symptoms: "+strings.Join(f.Symptoms, ", "))
	}
	return lines
}
