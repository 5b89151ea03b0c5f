// Package threshold picks the minimum similarity a hit needs to be reported,
// based on how much text the query carries.
package threshold

// Rule applies Value to queries with more than MinTokens tokens.
type Rule struct {
	MinTokens int
	Value     float64
}

// Default is used when no rule matches.
const Default = 0.05

// rules are ordered by MinTokens descending; first match wins.
var rules = []Rule{
	{MinTokens: 3, Value: 0.03},
}

// For returns the similarity threshold for a query of the given token count.
// Longer queries spread weight over more terms and get a lower bar.
func For(tokens int) float64 {
	for _, r := range rules {
		if tokens > r.MinTokens {
			return r.Value
		}
	}
	return Default
}
