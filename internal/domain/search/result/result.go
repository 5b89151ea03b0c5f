package result

import "github.com/kailas-cloud/cie10rag/internal/domain/corpus"

// Result is a single search hit.
type Result struct {
	code        string
	description string
	similarity  float64
	kind        corpus.Kind
}

// New creates a search result.
func New(code, description string, similarity float64, kind corpus.Kind) Result {
	return Result{code: code, description: description, similarity: similarity, kind: kind}
}

// Code returns the ICD-10-ES code.
func (r *Result) Code() string { return r.code }

// Description returns the code description.
func (r *Result) Description() string { return r.description }

// Similarity returns the cosine similarity in [0, 1].
func (r *Result) Similarity() float64 { return r.similarity }

// Kind returns the corpus the hit came from.
func (r *Result) Kind() corpus.Kind { return r.kind }

// WithKind returns a copy tagged with kind.
func (r Result) WithKind(kind corpus.Kind) Result {
	r.kind = kind
	return r
}
