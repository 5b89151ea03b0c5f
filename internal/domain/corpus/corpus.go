// Package corpus defines catalog records and the rules deciding which of them
// are indexed.
package corpus

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/cie10rag/internal/domain/text"
)

// Kind identifies which catalog a record belongs to.
type Kind string

// Supported catalogs.
const (
	KindDiagnosis Kind = "diagnosis"
	KindProcedure Kind = "procedure"
)

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// Record is one catalog row.
type Record struct {
	Code        string
	Description string
}

// CombinedText is the text a record is indexed by.
func (r Record) CombinedText() string {
	return r.Code + " " + r.Description
}

// Filtering thresholds.
const (
	MinCodeLen        = 4
	MinNormalizedText = 10
	// CategoryPrefix marks chapter headings, which are not billable codes.
	CategoryPrefix = "Cap."
)

// Rejection reasons reported by Accept.
type Reason string

// Reasons.
const (
	ReasonNone       Reason = ""
	ReasonEmptyCode  Reason = "empty_code"
	ReasonShortCode  Reason = "short_code"
	ReasonCategory   Reason = "category"
	ReasonShortText  Reason = "short_text"
	ReasonDuplicated Reason = "duplicate"
)

// Accept reports whether a single record is indexable and, if not, why.
func Accept(r Record) (bool, Reason) {
	code := strings.TrimSpace(r.Code)
	switch {
	case code == "":
		return false, ReasonEmptyCode
	case utf8.RuneCountInString(code) < MinCodeLen:
		return false, ReasonShortCode
	case strings.HasPrefix(code, CategoryPrefix):
		return false, ReasonCategory
	}
	if utf8.RuneCountInString(text.Normalize(r.CombinedText())) < MinNormalizedText {
		return false, ReasonShortText
	}
	return true, ReasonNone
}

// FilterStats counts rejected records by reason.
type FilterStats struct {
	Accepted int
	Rejected map[Reason]int
}

// Filter returns the indexable records in input order. Codes are trimmed; when a
// code repeats, the first occurrence wins.
func Filter(records []Record) ([]Record, FilterStats) {
	stats := FilterStats{Rejected: make(map[Reason]int)}
	out := make([]Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		r.Code = strings.TrimSpace(r.Code)
		r.Description = strings.TrimSpace(r.Description)
		ok, reason := Accept(r)
		if !ok {
			stats.Rejected[reason]++
			continue
		}
		if _, dup := seen[r.Code]; dup {
			stats.Rejected[ReasonDuplicated]++
			continue
		}
		seen[r.Code] = struct{}{}
		out = append(out, r)
	}
	stats.Accepted = len(out)
	return out, stats
}
