package external

import (
	"context"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// StaticDictionary is an in-memory nursing terminology table. Lookups are case-insensitive.
type StaticDictionary struct {
	terms map[string]string
}

// NewStaticDictionary builds a dictionary from terms. A nil map means the built-in table.
func NewStaticDictionary(terms map[string]string) *StaticDictionary {
	if terms == nil {
		terms = defaultTerms
	}
	normalized := make(map[string]string, len(terms))
	for k, v := range terms {
		normalized[normalizeTerm(k)] = v
	}
	return &StaticDictionary{terms: normalized}
}

// LookupTerm implements domain.KnowledgeLookup.
func (d *StaticDictionary) LookupTerm(_ context.Context, word string) (string, bool) {
	def, ok := d.terms[normalizeTerm(word)]
	return def, ok
}

// Len returns the number of terms.
func (d *StaticDictionary) Len() int { return len(d.terms) }

// CachedLookup memoizes a slower KnowledgeLookup, misses included.
type CachedLookup struct {
	source domain.KnowledgeLookup
	cache  *lru.Cache[string, lookupResult]
	logger *logrus.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

type lookupResult struct {
	definition string
	found      bool
}

// NewCachedLookup wraps source with an LRU of the given size.
func NewCachedLookup(source domain.KnowledgeLookup, size int, logger *logrus.Logger) (*CachedLookup, error) {
	if size <= 0 {
		size = 512
	}
	cache, err := lru.New[string, lookupResult](size)
	if err != nil {
		return nil, err
	}
	return &CachedLookup{source: source, cache: cache, logger: logger}, nil
}

// LookupTerm implements domain.KnowledgeLookup.
func (c *CachedLookup) LookupTerm(ctx context.Context, word string) (string, bool) {
	key := normalizeTerm(word)
	if res, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return res.definition, res.found
	}
	c.misses.Add(1)

	def, found := c.source.LookupTerm(ctx, word)
	if ctx.Err() == nil {
		c.cache.Add(key, lookupResult{definition: def, found: found})
	}

	c.logger.WithFields(logrus.Fields{
		"term":  key,
		"found": found,
	}).Debug("Knowledge lookup")

	return def, found
}

// Stats returns cache hits and misses.
func (c *CachedLookup) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

var defaultTerms = map[string]string{
	"chest pain":          "Discomfort or pressure in the chest; evaluate for cardiac, pulmonary and musculoskeletal causes.",
	"shortness of breath": "Subjective difficulty breathing (dyspnea).",
	"dyspnea":             "Subjective difficulty breathing.",
	"nausea":              "Sensation of unease in the stomach with an urge to vomit.",
	"vomiting":            "Forceful expulsion of gastric contents through the mouth (emesis).",
	"dizziness":           "Lightheadedness or a sense of imbalance.",
	"headache":            "Pain in the head or upper neck.",
	"fatigue":             "Persistent tiredness not relieved by rest.",
	"confusion":           "Impaired orientation or clarity of thought.",
	"anxiety":             "Apprehension or worry, often with restlessness and tachycardia.",
	"fever":               "Body temperature above the normal range, typically above 38 C (100.4 F).",
	"chills":              "Shivering with a sensation of cold, often preceding fever.",
	"cough":               "Reflex expulsion of air to clear the airway.",
	"edema":               "Swelling from fluid accumulation in interstitial tissue.",
	"diarrhea":            "Frequent loose or liquid stools.",
	"constipation":        "Infrequent or difficult passage of stool.",
	"numbness":            "Reduced or absent sensation.",
	"weakness":            "Reduced muscle strength.",
	"itching":             "Pruritus; an irritating skin sensation provoking the urge to scratch.",
	"pain":                "Unpleasant sensory experience; document location, quality and 0-10 score.",
	"acetaminophen":       "Analgesic and antipyretic (Tylenol).",
	"tylenol":             "Brand of acetaminophen, an analgesic and antipyretic.",
	"ibuprofen":           "Nonsteroidal anti-inflammatory drug (NSAID).",
	"morphine":            "Opioid analgesic; monitor respiratory rate and sedation.",
	"hydromorphone":       "Opioid analgesic (Dilaudid); monitor respiratory rate and sedation.",
	"ondansetron":         "Antiemetic (Zofran); serotonin 5-HT3 antagonist.",
	"heparin":             "Anticoagulant; monitor for bleeding and platelet count.",
	"enoxaparin":          "Low molecular weight heparin (Lovenox); subcutaneous anticoagulant.",
	"lisinopril":          "ACE inhibitor for hypertension; monitor blood pressure and potassium.",
	"metoprolol":          "Beta blocker; hold for low heart rate or blood pressure per order.",
	"furosemide":          "Loop diuretic (Lasix); monitor output, potassium and blood pressure.",
	"insulin":             "Hormone lowering blood glucose; verify dose and glucose before giving.",
	"aspirin":             "Antiplatelet and analgesic (acetylsalicylic acid).",
	"cefazolin":           "First-generation cephalosporin antibiotic (Ancef).",
	"vancomycin":          "Glycopeptide antibiotic; monitor trough levels and renal function.",
	"norepinephrine":      "Vasopressor (Levophed) used to raise mean arterial pressure.",
	"propofol":            "Sedative-hypnotic infusion used for ventilated patients.",
	"nkda":                "No known drug allergies.",
}
