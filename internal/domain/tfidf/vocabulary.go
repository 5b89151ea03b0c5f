// Package tfidf fits a term-weighting vocabulary over word n-grams and
// projects text into L2-normalized sparse TF-IDF vectors.
package tfidf

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/cie10rag/internal/domain"
	"github.com/kailas-cloud/cie10rag/internal/domain/text"
)

// N-gram range shared by Fit and Transform.
const (
	MinNGram = 1
	MaxNGram = 3
)

// Params controls which n-grams survive vocabulary fitting.
type Params struct {
	// MaxTerms caps the vocabulary to the most document-frequent terms. 0 = unlimited.
	MaxTerms int
	// MinDocCount is the minimum number of documents a term must appear in.
	MinDocCount int
	// MaxDocFraction drops terms present in more than this share of documents.
	MaxDocFraction float64
}

// DefaultParams returns the weighting used for the ICD-10-ES catalog.
func DefaultParams() Params {
	return Params{MaxTerms: 15000, MinDocCount: 1, MaxDocFraction: 0.95}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if p.MaxTerms < 0 {
		return fmt.Errorf("%w: max_terms must be >= 0, got %d", domain.ErrInvalidVocabulary, p.MaxTerms)
	}
	if p.MinDocCount < 1 {
		return fmt.Errorf("%w: min_doc_count must be >= 1, got %d", domain.ErrInvalidVocabulary, p.MinDocCount)
	}
	if p.MaxDocFraction <= 0 || p.MaxDocFraction > 1 {
		return fmt.Errorf("%w: max_doc_fraction must be in (0, 1], got %g",
			domain.ErrInvalidVocabulary, p.MaxDocFraction)
	}
	return nil
}

// Vocabulary maps retained terms to stable ids and idf weights.
// Immutable after Fit; Transform is safe for concurrent use.
type Vocabulary struct {
	ids   map[string]int32
	terms []string  // by id
	idf   []float64 // by id
	docs  int
}

type termFrequency struct {
	term string
	df   int
}

// Fit builds a vocabulary from texts. Term ids follow the lexical order of the
// retained terms, so fitting the same corpus twice yields identical ids.
func Fit(texts []string, p Params) (*Vocabulary, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no documents to fit", domain.ErrInvalidVocabulary)
	}

	df := make(map[string]int)
	seen := make(map[string]struct{})
	for _, t := range texts {
		clear(seen)
		for _, g := range ngrams(t) {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			df[g]++
		}
	}

	n := len(texts)
	maxDF := p.MaxDocFraction * float64(n)
	kept := make([]termFrequency, 0, len(df))
	for term, c := range df {
		if c < p.MinDocCount || float64(c) > maxDF {
			continue
		}
		kept = append(kept, termFrequency{term: term, df: c})
	}

	if p.MaxTerms > 0 && len(kept) > p.MaxTerms {
		sort.Slice(kept, func(i, j int) bool {
			if kept[i].df != kept[j].df {
				return kept[i].df > kept[j].df
			}
			return kept[i].term < kept[j].term
		})
		kept = kept[:p.MaxTerms]
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no terms within document frequency bounds", domain.ErrInvalidVocabulary)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].term < kept[j].term })

	v := &Vocabulary{
		ids:   make(map[string]int32, len(kept)),
		terms: make([]string, len(kept)),
		idf:   make([]float64, len(kept)),
		docs:  n,
	}
	for i, tf := range kept {
		v.ids[tf.term] = int32(i) //nolint:gosec // bounded by MaxTerms
		v.terms[i] = tf.term
		v.idf[i] = math.Log(float64(n) / float64(tf.df))
	}
	return v, nil
}

// Transform projects text into an L2-normalized TF-IDF vector.
// Unknown n-grams are dropped; the result may be empty.
func (v *Vocabulary) Transform(s string) Vector {
	tokens := text.Tokens(text.Normalize(s))
	vec := Vector{Tokens: len(tokens)}

	tf := make(map[int32]float64)
	for _, g := range text.NGrams(tokens, MinNGram, MaxNGram) {
		if id, ok := v.ids[g]; ok {
			tf[id]++
		}
	}

	ids := make([]int32, 0, len(tf))
	for id := range tf {
		if v.idf[id] > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return vec
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	weights := make([]float64, len(ids))
	var sum float64
	for i, id := range ids {
		w := tf[id] * v.idf[id]
		weights[i] = w
		sum += w * w
	}
	norm := math.Sqrt(sum)
	for i := range weights {
		weights[i] /= norm
	}

	vec.Terms = ids
	vec.Weights = weights
	return vec
}

// Len returns the number of retained terms.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Documents returns the number of documents the vocabulary was fit on.
func (v *Vocabulary) Documents() int { return v.docs }

// Lookup returns the id and idf of a term.
func (v *Vocabulary) Lookup(term string) (id int32, idf float64, ok bool) {
	id, ok = v.ids[term]
	if !ok {
		return 0, 0, false
	}
	return id, v.idf[id], true
}

// Term returns the term with the given id.
func (v *Vocabulary) Term(id int32) string { return v.terms[id] }

// Terms returns all retained terms ordered by id.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

func ngrams(s string) []string {
	return text.NGrams(text.Tokens(text.Normalize(s)), MinNGram, MaxNGram)
}
