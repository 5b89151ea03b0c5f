package coding

import (
	"fmt"
	"strings"
)

// PromptInput carries the clinical case and retrieval context for a prompt.
type PromptInput struct {
	Diagnosis string
	Symptoms  string
	Age       int // 0 means unknown
	Context   string
}

type promptFamily int

const (
	familyGeneric promptFamily = iota
	familyConcise
	familyDetailed
)

// familyFor picks the prompt style: small local gemma models get a short
// prompt, hosted GPT models a detailed one.
func familyFor(model string) promptFamily {
	switch {
	case strings.HasPrefix(model, "gemma"):
		return familyConcise
	case strings.HasPrefix(model, "gpt-") && !strings.HasPrefix(model, "gpt-oss"):
		return familyDetailed
	default:
		return familyGeneric
	}
}

// BuildPrompt renders the prompt for model.
func BuildPrompt(model string, in PromptInput) string {
	caseText := in.Diagnosis
	if s := strings.TrimSpace(in.Symptoms); s != "" {
		caseText += ". Symptoms: " + s
	}
	if in.Age > 0 {
		caseText += fmt.Sprintf(", Age: %d", in.Age)
	}

	switch familyFor(model) {
	case familyConcise:
		return "ICD-10 codes: " + in.Context + "\n" +
			"Query: " + caseText + "\n" +
			"Answer: Primary code: [CODE], Description: [DESCRIPTION], " +
			"Justification: [JUSTIFICATION], Confidence: [%]"
	case familyDetailed:
		var b strings.Builder
		b.WriteString("You are an expert ICD-10-ES medical coder.\n\n")
		b.WriteString("AVAILABLE CODES:\n")
		b.WriteString(in.Context)
		b.WriteString("\n\nCASE: ")
		b.WriteString(caseText)
		b.WriteString("\n\nINSTRUCTIONS: Select the most appropriate code from the list above, ")
		b.WriteString("considering both the diagnosis and the presented symptoms.\n\n")
		b.WriteString("FORMAT:\n")
		b.WriteString("Primary code: [CODE]\n")
		b.WriteString("Description: [DESCRIPTION]\n")
		b.WriteString("Justification: [JUSTIFICATION]\n")
		b.WriteString("Confidence: [PERCENTAGE]%")
		return b.String()
	default:
		return "Relevant ICD-10 codes: " + in.Context + "\n" +
			"Query: " + caseText + "\n" +
			"Answer: Primary code: [CODE], Description: [DESCRIPTION], " +
			"Justification: [JUSTIFICATION], Confidence: [%]"
	}
}
