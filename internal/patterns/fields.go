package patterns

import (
	"regexp"
	"strings"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// MedicationRules holds the administration-phrase extractors and the loose listing fallback.
type MedicationRules struct {
	// Administration captures name, dose and optional route after an administration verb.
	Administration *regexp.Regexp
	// RouteOnly captures name and route when no dose was dictated.
	RouteOnly *regexp.Regexp
	// TimeAfter captures an "at 0900" style time in the text following a match.
	TimeAfter *regexp.Regexp
	// Site captures an injection site.
	Site *regexp.Regexp
	// Listing is the "medications: a, b and c" fallback.
	Listing *regexp.Regexp
	// NameFillers are leading words stripped from captured names.
	NameFillers []string
	// Routes are the route abbreviations recognized after a medication name.
	Routes []string
}

// IsRoute reports whether word is one of the recognized route abbreviations.
func (r MedicationRules) IsRoute(word string) bool {
	for _, route := range r.Routes {
		if strings.EqualFold(word, route) {
			return true
		}
	}
	return false
}

// InterventionRule captures an intervention verb through the end of its sentence.
type InterventionRule struct {
	Verb    string
	Pattern *regexp.Regexp
}

// AllergyRules captures allergen lists and the no-known-allergies statement.
type AllergyRules struct {
	Phrase *regexp.Regexp
	None   *regexp.Regexp
}

// FluidDirection says which side of the ledger a fluid source belongs to.
type FluidDirection int

const (
	Intake FluidDirection = iota
	Output
)

// FluidSource normalizes a family of fluid terms to one ledger source.
type FluidSource struct {
	Name      string
	Direction FluidDirection
	Pattern   *regexp.Regexp
}

// IntakeOutputRules captures fluid volumes and the sources they belong to.
type IntakeOutputRules struct {
	Volume *regexp.Regexp
	// Window is how many bytes around a volume are searched for its source.
	Window  int
	Sources []FluidSource
}

// WoundRules captures wound descriptors. Cue must match before any attribute is taken.
type WoundRules struct {
	Cue      *regexp.Regexp
	Location *regexp.Regexp
	Stage    *regexp.Regexp
	Size     *regexp.Regexp
	Drainage *regexp.Regexp
}

func defaultMedicationRules() MedicationRules {
	const name = `([a-z][a-z0-9\-]*(?:\s+[a-z][a-z0-9\-]*){0,2}?)`
	const dose = `(\d+(?:\.\d+)?\s*(?:mg|mcg|g|ml|units?|meq|l))\b`
	routes := []string{"po", "iv", "im", "sq", "sc", "sl", "pr", "subq"}
	route := `(` + strings.Join(routes, "|") + `)\b`
	const verb = `\b(?:administered|gave|given)\s+`
	return MedicationRules{
		Administration: regexp.MustCompile(`(?i)` + verb + name + `\s+` + dose + `(?:\s+` + route + `)?`),
		RouteOnly:      regexp.MustCompile(`(?i)` + verb + name + `\s+` + route),
		TimeAfter:      regexp.MustCompile(`(?i)^[^.]*?\b(?:at|@)\s*(\d{1,2}:\d{2}(?:\s*(?:am|pm)\b)?|\d{4}\b)`),
		Site:           regexp.MustCompile(`(?i)\b((?:(?:left|right)\s+)?(?:deltoid|thigh|vastus lateralis|ventrogluteal|dorsogluteal|abdomen|upper arm|forearm|gluteal))\b`),
		Listing:        regexp.MustCompile(`(?i)\b(?:medications?|drugs?|meds)\s*:\s*([^.\n]+)`),
		NameFillers:    []string{"the", "patient", "pt", "a", "an"},
		Routes:         routes,
	}
}

// ListSeparator splits dictated lists on commas, "and" and "or".
func defaultListSeparator() *regexp.Regexp {
	return regexp.MustCompile(`(?i)\s*,\s*(?:and\s+|or\s+)?|\s+and\s+|\s+or\s+`)
}

var interventionVerbs = []string{
	"administered", "provided", "performed", "initiated", "applied", "assisted", "repositioned",
	"educated", "notified", "obtained", "monitored", "changed", "inserted", "removed",
	"encouraged", "ambulated", "suctioned", "irrigated",
}

func defaultInterventionRules() []InterventionRule {
	rules := make([]InterventionRule, 0, len(interventionVerbs))
	for _, verb := range interventionVerbs {
		rules = append(rules, InterventionRule{
			Verb:    verb,
			Pattern: regexp.MustCompile(`(?i)\b` + verb + `\b[^.]*`),
		})
	}
	return rules
}

func defaultAllergyRules() AllergyRules {
	return AllergyRules{
		Phrase: regexp.MustCompile(`(?i)\ballerg(?:y|ies|ic)\s*(?:to\b|:)\s*([^.\n;]+)`),
		None:   regexp.MustCompile(`(?i)\b(?:nkda|nka|no known (?:drug )?allergies)\b`),
	}
}

func fluid(name string, dir FluidDirection, terms string) FluidSource {
	return FluidSource{Name: name, Direction: dir, Pattern: regexp.MustCompile(`(?i)\b(?:` + terms + `)\b`)}
}

func defaultIntakeOutputRules() IntakeOutputRules {
	return IntakeOutputRules{
		Volume: regexp.MustCompile(`(?i)\b(\d{2,5})\s*(?:ml|cc)\b`),
		Window: 30,
		Sources: []FluidSource{
			fluid("tube_feeding", Intake, `tube feedings?|tube feeds?|enteral|peg|tf`),
			fluid("blood", Intake, `prbcs?|packed red (?:blood )?cells|blood transfusion|transfused|blood`),
			fluid("iv", Intake, `ivf|iv fluids?|iv|intravenous|infused`),
			fluid("oral", Intake, `po|oral|orally|by mouth|drank|fluids? intake`),
			fluid("ng", Output, `ng output|ngt|ng tube|ng|nasogastric`),
			fluid("urine", Output, `urine|uop|voided|void|foley`),
			fluid("emesis", Output, `emesis|vomited|vomitus`),
			fluid("drain", Output, `jp drain|jp|hemovac|drains?|chest tube`),
			fluid("stool", Output, `stool|bm|bowel movement`),
		},
	}
}

func defaultWoundRules() WoundRules {
	return WoundRules{
		Cue:      regexp.MustCompile(`(?i)\b(?:wounds?|ulcers?|pressure (?:injury|injuries|sore)|incisions?|lacerations?|skin tear)\b`),
		Location: regexp.MustCompile(`(?i)\b((?:(?:left|right)\s+)?(?:sacrum|sacral|coccyx|heel|ankle|hip|buttock|ischium|ischial|trochanter|abdomen|abdominal|shin|foot|knee|elbow|occiput))\b`),
		Stage:    regexp.MustCompile(`(?i)\b(stage\s*(?:[1-4]|iv|iii|ii|i)|unstageable|deep tissue (?:pressure )?injury|dti)\b`),
		Size:     regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?\s*(?:x|by)\s*\d+(?:\.\d+)?(?:\s*(?:x|by)\s*\d+(?:\.\d+)?)?\s*cm)\b`),
		Drainage: regexp.MustCompile(`(?i)\b(no drainage|(?:(?:scant|small|minimal|moderate|large|copious)\s+(?:amount of\s+)?)?(?:serosanguineous|serous|sanguineous|purulent|bloody)(?:\s+drainage)?)\b`),
	}
}

func defaultSymptoms() Vocabulary {
	return NewVocabulary("symptoms", MatchPrefix,
		"chest pain", "abdominal pain", "back pain", "shortness of breath", "dyspnea", "nausea",
		"vomiting", "dizziness", "headache", "fatigue", "weakness", "anxiety", "confusion", "cough",
		"fever", "chills", "diarrhea", "constipation", "numbness", "tingling", "palpitations",
		"itching", "pain",
	)
}

func defaultFindings() Vocabulary {
	return NewVocabulary("findings", MatchPrefix,
		"alert and oriented", "lungs clear", "clear to auscultation", "crackles", "wheez",
		"diminished breath sounds", "edema", "regular rhythm", "irregular rhythm", "bowel sounds",
		"distended", "tender", "diaphoretic", "cyanosis", "flushed", "warm and dry",
		"capillary refill", "pupils equal", "skin intact", "redness", "tolerated well", "tolerated",
	)
}

func defaultSafetyChecks() Vocabulary {
	return NewVocabulary("safety", MatchPrefix,
		"bed alarm", "fall precautions", "fall risk", "call light", "side rails", "lowest position",
		"non-skid", "restraint", "seizure precautions", "aspiration precautions", "isolation",
		"id band", "two identifiers", "allergy band",
	)
}

func defaultBodySystems() []Category {
	return []Category{
		NewCategory("neuro", "neuro", "neurological", "neurologic", "alert and oriented", "gcs", "pupils"),
		NewCategory("cardiovascular", "cardiac", "cardiovascular", "heart sounds", "rhythm", "pulses", "capillary refill"),
		NewCategory("respiratory", "respiratory", "lungs", "lung sounds", "breath sounds", "respirations"),
		NewCategory("gastrointestinal", "gi", "gastrointestinal", "abdomen", "bowel sounds"),
		NewCategory("genitourinary", "gu", "genitourinary", "voiding", "foley"),
		NewCategory("integumentary", "skin", "integumentary"),
		NewCategory("musculoskeletal", "musculoskeletal", "gait", "mobility", "range of motion"),
		NewCategory("psychosocial", "psychosocial", "mood", "affect", "coping"),
	}
}

func defaultShiftPhases() []Category {
	return []Category{
		NewCategory(string(domain.ShiftPhaseStart), "start of shift", "beginning of shift", "shift start", "received report", "initial assessment"),
		NewCategory(string(domain.ShiftPhaseMid), "mid-shift", "mid shift", "reassessment", "hourly rounding", "hourly rounds"),
		NewCategory(string(domain.ShiftPhaseEnd), "end of shift", "end-of-shift", "handoff", "hand-off", "giving report", "shift change", "bedside report"),
	}
}

func defaultUnits() []Category {
	return []Category{
		NewCategory(string(domain.UnitICU), "icu", "intensive care", "ventilator", "drip", "drips", "arterial line", "a-line", "sedation", "pressors"),
		NewCategory(string(domain.UnitEmergency), "emergency department", "emergency room", "triage", "ems", "ambulance"),
		NewCategory(string(domain.UnitMedSurg), "med-surg", "med surg", "medical-surgical", "post-op", "postoperative"),
		NewCategory(string(domain.UnitPediatrics), "pediatric", "peds", "infant", "child", "parent at bedside"),
		NewCategory(string(domain.UnitObstetrics), "labor", "delivery", "postpartum", "fetal", "fundus", "fundal height", "contractions"),
		NewCategory(string(domain.UnitPsychiatric), "psychiatric", "psych", "suicidal", "behavioral health", "safety sitter"),
	}
}
