package search

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/cie10rag/internal/domain/search/result"
)

// FormatContext renders hits as the code list handed to the language model.
// Similarity is printed as a percentage with one decimal.
func FormatContext(query string, hits []result.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MEDICAL QUERY: %s\n\n", query)
	b.WriteString("RELEVANT ICD-10-ES CODES FOUND:\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. %s - %s (Similarity: %.1f%%)\n",
			i+1, h.Code(), h.Description(), h.Similarity()*100)
	}
	b.WriteString("\nINSTRUCTIONS: Select the most appropriate code from the list above.")
	return b.String()
}
