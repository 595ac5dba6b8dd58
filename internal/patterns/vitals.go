package patterns

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// VitalRule captures one vital sign as raw text. Validate rejects syntactically matched but
// clinically unparseable values; a rejected capture is dropped.
type VitalRule struct {
	Vital    domain.VitalSign
	Pattern  *regexp.Regexp
	Validate func(string) bool
}

// Match applies the rule to the first occurrence in text.
func (r VitalRule) Match(text string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	value := strings.TrimSpace(m[1])
	if value == "" {
		return "", false
	}
	if r.Validate != nil && !r.Validate(value) {
		return "", false
	}
	return value, true
}

// linker is the optional glue between a vital label and its value ("HR of 88", "BP: 120/80").
const linker = `\s*(?:of|is|was|=|:)?\s*`

// valueEnd closes a numeric value. A known unit may follow with no space ("98.6F", "88bpm",
// "120/80mmHg"); any other letter, a further digit or a decimal digit rejects the capture.
const valueEnd = `(?:(?:bpm|mmhg|cmh2o|f|c)\b|[^0-9.a-z]|\.(?:[^0-9]|$)|$)`

func vitalRule(vital domain.VitalSign, labels, value string, validate func(string) bool) VitalRule {
	return VitalRule{
		Vital:    vital,
		Pattern:  regexp.MustCompile(`(?i)\b(?:` + labels + `)` + linker + `(` + value + `)` + valueEnd),
		Validate: validate,
	}
}

func defaultVitalRules() []VitalRule {
	return []VitalRule{
		vitalRule(domain.BloodPressure, `bp|blood pressure`, `\d{2,3}\s*/\s*\d{2,3}`, validPressurePair),
		vitalRule(domain.HeartRate, `hr|heart rate|pulse`, `\d{2,3}`, intBetween(20, 300)),
		vitalRule(domain.RespiratoryRate, `rr|resp(?:iratory)? rate|respirations`, `\d{1,2}`, intBetween(4, 80)),
		vitalRule(domain.Temperature, `temp(?:erature)?`, `\d{2,3}(?:\.\d{1,2})?`, floatBetween(25, 110)),
		vitalRule(domain.OxygenSaturation, `o2 sat(?:uration)?|spo2|sao2|sats?|saturation|o2`, `\d{2,3}`, intBetween(50, 100)),
		vitalRule(domain.PainLevel, `pain(?:\s+(?:level|score))?`, `\d{1,2}`, intBetween(0, 10)),
		vitalRule(domain.Weight, `weight|wt`, `\d{1,3}(?:\.\d{1,2})?(?:\s*(?:kg|lbs?)\b)?`, leadingNumber),
		vitalRule(domain.MeanArterialPressure, `map|mean arterial pressure`, `\d{2,3}`, intBetween(20, 200)),
		vitalRule(domain.CentralVenousPressure, `cvp|central venous pressure`, `\d{1,2}`, intBetween(0, 40)),
	}
}

func intBetween(lo, hi int) func(string) bool {
	return func(s string) bool {
		n, err := strconv.Atoi(s)
		return err == nil && n >= lo && n <= hi
	}
}

func floatBetween(lo, hi float64) func(string) bool {
	return func(s string) bool {
		f, err := strconv.ParseFloat(s, 64)
		return err == nil && f >= lo && f <= hi
	}
}

func validPressurePair(s string) bool {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return false
	}
	sys, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	dia, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	return err1 == nil && err2 == nil && sys > dia && dia > 0
}

func leadingNumber(s string) bool {
	end := strings.IndexFunc(s, func(r rune) bool { return !(r == '.' || (r >= '0' && r <= '9')) })
	if end == -1 {
		end = len(s)
	}
	_, err := strconv.ParseFloat(s[:end], 64)
	return err == nil
}
