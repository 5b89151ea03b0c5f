package tfidf

import "math"

// Vector is a sparse term vector with ascending term ids.
type Vector struct {
	Terms   []int32
	Weights []float64
	// Tokens is the word count of the normalized source text.
	Tokens int
}

// IsEmpty reports whether the vector has no non-zero weights.
func (v Vector) IsEmpty() bool { return len(v.Terms) == 0 }

// Norm returns the L2 norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v.Weights {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Dot computes the dot product of two vectors via merge-join over sorted term ids.
func (v Vector) Dot(o Vector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(v.Terms) && j < len(o.Terms) {
		switch {
		case v.Terms[i] == o.Terms[j]:
			dot += v.Weights[i] * o.Weights[j]
			i++
			j++
		case v.Terms[i] < o.Terms[j]:
			i++
		default:
			j++
		}
	}
	return dot
}
