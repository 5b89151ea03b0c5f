package search

import (
	"github.com/kailas-cloud/cie10rag/internal/domain/search/result"
	"github.com/kailas-cloud/cie10rag/internal/domain/tfidf"
)

// Vectorizer turns query text into a weighted sparse vector.
type Vectorizer interface {
	Transform(text string) tfidf.Vector
}

// Index answers similarity queries over one corpus.
type Index interface {
	Search(query tfidf.Vector, topK int) []result.Result
	Len() int
}
