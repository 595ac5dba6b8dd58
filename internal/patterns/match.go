package patterns

import (
	"regexp"
	"strings"
)

// MatchMode controls how vocabulary terms are anchored in text.
type MatchMode int

const (
	// MatchPrefix requires a word boundary before the term only, so "tender" also matches
	// "tenderness".
	MatchPrefix MatchMode = iota
	// MatchWord requires word boundaries on both sides.
	MatchWord
)

// Vocabulary is a case-insensitive term list. Terms are reported in table order.
type Vocabulary struct {
	Name  string
	Mode  MatchMode
	Terms []string

	compiled []*regexp.Regexp
}

// NewVocabulary compiles a vocabulary. It panics on an invalid term, which can only come from a
// programming error in the rule tables.
func NewVocabulary(name string, mode MatchMode, terms ...string) Vocabulary {
	v := Vocabulary{
		Name:     name,
		Mode:     mode,
		Terms:    terms,
		compiled: make([]*regexp.Regexp, len(terms)),
	}
	for i, term := range terms {
		v.compiled[i] = regexp.MustCompile(termPattern(term, mode))
	}
	return v
}

func termPattern(term string, mode MatchMode) string {
	p := `(?i)\b` + regexp.QuoteMeta(term)
	if mode == MatchWord {
		p += `\b`
	}
	return p
}

// Matches returns the distinct terms found in text. A term already contained in an earlier match
// is skipped, so "chest pain" does not also report "pain".
func (v Vocabulary) Matches(text string) []string {
	found := []string{}
	for i, re := range v.compiled {
		if !re.MatchString(text) {
			continue
		}
		term := v.Terms[i]
		if coveredBy(term, found) {
			continue
		}
		found = append(found, term)
	}
	return found
}

// Count returns the number of distinct terms present in text.
func (v Vocabulary) Count(text string) int {
	n := 0
	for _, re := range v.compiled {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// Contains reports whether any term is present in text.
func (v Vocabulary) Contains(text string) bool {
	for _, re := range v.compiled {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func coveredBy(term string, found []string) bool {
	lower := strings.ToLower(term)
	for _, f := range found {
		if strings.Contains(strings.ToLower(f), lower) {
			return true
		}
	}
	return false
}

// Keyword is a weighted format indicator. Term is what gets reported as the indicator; the
// pattern defaults to Term with word boundaries on both sides.
type Keyword struct {
	Term   string
	Weight int

	re *regexp.Regexp
}

// NewKeyword builds a keyword matched as a whole word or phrase.
func NewKeyword(term string, weight int) Keyword {
	return Keyword{Term: term, Weight: weight, re: regexp.MustCompile(termPattern(term, MatchWord))}
}

// NewPatternKeyword builds a keyword with its own case-insensitive regular expression.
func NewPatternKeyword(term string, weight int, pattern string) Keyword {
	return Keyword{Term: term, Weight: weight, re: regexp.MustCompile(`(?i)` + pattern)}
}

// Matches reports whether the keyword occurs in text.
func (k Keyword) Matches(text string) bool {
	return k.re != nil && k.re.MatchString(text)
}

// StructuralCue is a fixed bonus awarded when every one of its patterns matches, such as explicit
// section labels or a "problem ... intervention" co-occurrence.
type StructuralCue struct {
	Name  string
	Bonus int

	patterns []*regexp.Regexp
}

// NewCue builds a structural cue from case-insensitive patterns that must all match.
func NewCue(name string, bonus int, patterns ...string) StructuralCue {
	c := StructuralCue{Name: name, Bonus: bonus}
	for _, p := range patterns {
		c.patterns = append(c.patterns, regexp.MustCompile(`(?i)`+p))
	}
	return c
}

// Matches reports whether every pattern of the cue occurs in text.
func (c StructuralCue) Matches(text string) bool {
	if len(c.patterns) == 0 {
		return false
	}
	for _, re := range c.patterns {
		if !re.MatchString(text) {
			return false
		}
	}
	return true
}

// Category is a named vocabulary, used where the extractor reports the category name rather than
// the matched term (body systems, shift phases, care units).
type Category struct {
	Name  string
	Terms Vocabulary
}

// NewCategory builds a word-anchored category.
func NewCategory(name string, terms ...string) Category {
	return Category{Name: name, Terms: NewVocabulary(name, MatchWord, terms...)}
}
