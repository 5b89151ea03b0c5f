// Package text normalizes and tokenizes clinical text for indexing and querying.
package text

import (
	"strings"
	"unicode"
)

// Normalize lower-cases s, replaces every rune that is neither a word character
// nor an accented Spanish letter with a space, collapses whitespace and trims.
// Empty or punctuation-only input yields "".
func Normalize(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if !isWordRune(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tokens splits normalized text into words.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

// NGrams returns the contiguous word n-grams of tokens with lengths minN..maxN,
// shortest first for each start position.
func NGrams(tokens []string, minN, maxN int) []string {
	if len(tokens) == 0 || minN < 1 || maxN < minN {
		return nil
	}
	out := make([]string, 0, len(tokens)*(maxN-minN+1))
	for i := range tokens {
		for n := minN; n <= maxN && i+n <= len(tokens); n++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// isWordRune matches letters (accented ones and ñ/ü included), digits and underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
