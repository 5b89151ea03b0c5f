package coding

import (
	"regexp"
	"strconv"
	"strings"
)

// Defaults for fields the model did not produce.
const (
	DefaultCode          = "not found"
	DefaultDescription   = "not specified"
	DefaultJustification = "based on clinical criteria"
	DefaultConfidence    = 0.85
)

// Diagnosis is the coded answer extracted from a model response.
type Diagnosis struct {
	Code          string  `json:"code"`
	Description   string  `json:"description"`
	Justification string  `json:"justification"`
	Confidence    float64 `json:"confidence"`
}

// Labels are accepted in English and Spanish, with or without accents.
var (
	codeRe          = regexp.MustCompile(`(?i)(?:primary code|c[oó]digo principal)\**\s*:\**\s*([a-z]\d+\.?\d*)`)
	descriptionRe   = regexp.MustCompile(`(?i)(?:description|descripci[oó]n)\**\s*:\**\s*(.+?)(?:\n|$)`)
	justificationRe = regexp.MustCompile(`(?i)(?:justification|justificaci[oó]n)\**\s*:\**\s*(.+?)(?:\n|$)`)
	confidenceRe    = regexp.MustCompile(`(?i)(?:confidence|confianza)\**\s*:\**\s*(\d+(?:\.\d+)?)\s*%`)
	nextLabelRe     = regexp.MustCompile(`(?i),?\s*(?:justification|justificaci[oó]n|confidence|confianza)\s*:`)
)

// ParseResponse extracts the primary diagnosis from free-form model output.
// Missing fields take their defaults.
func ParseResponse(text string) Diagnosis {
	d := Diagnosis{
		Code:          DefaultCode,
		Description:   DefaultDescription,
		Justification: DefaultJustification,
		Confidence:    DefaultConfidence,
	}

	if m := codeRe.FindStringSubmatch(text); m != nil {
		d.Code = strings.ToUpper(m[1])
	}
	if v := field(descriptionRe, text); v != "" {
		d.Description = v
	}
	if v := field(justificationRe, text); v != "" {
		d.Justification = v
	}
	if m := confidenceRe.FindStringSubmatch(text); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			d.Confidence = min(max(pct/100, 0), 1)
		}
	}
	return d
}

// field returns the single-line value after a label, cut at the next label
// when the model answers everything on one line.
func field(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v := m[1]
	if loc := nextLabelRe.FindStringIndex(v); loc != nil {
		v = v[:loc[0]]
	}
	return strings.Trim(strings.TrimSpace(v), "*,")
}
