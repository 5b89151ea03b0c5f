// Package index holds an immutable sparse vector index over one catalog and
// answers cosine-similarity queries against it.
package index

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/cie10rag/internal/domain/corpus"
	"github.com/kailas-cloud/cie10rag/internal/domain/tfidf"
)

// Index stores L2-normalized document vectors in CSR layout plus a term-major
// posting list. It is read-only after Build; a nil *Index behaves as empty.
type Index struct {
	kind corpus.Kind
	docs []corpus.Record

	// CSR rows: doc i owns cols/vals[rowPtr[i]:rowPtr[i+1]].
	rowPtr []int
	cols   []int32
	vals   []float64

	// postings: term t owns postDocs/postWeights[termPtr[t]:termPtr[t+1]].
	termPtr     []int
	postDocs    []int32
	postWeights []float64

	norms []float64
}

// Build packs docs and their vectors. Documents whose vector is empty are skipped.
func Build(kind corpus.Kind, docs []corpus.Record, vectors []tfidf.Vector) (*Index, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("index %s: %d documents but %d vectors", kind, len(docs), len(vectors))
	}

	idx := &Index{
		kind:   kind,
		docs:   make([]corpus.Record, 0, len(docs)),
		rowPtr: make([]int, 1, len(docs)+1),
		norms:  make([]float64, 0, len(docs)),
	}

	var maxTerm int32 = -1
	for i, v := range vectors {
		if v.IsEmpty() {
			continue
		}
		if len(v.Terms) != len(v.Weights) {
			return nil, fmt.Errorf("index %s: document %d has %d terms but %d weights",
				kind, i, len(v.Terms), len(v.Weights))
		}
		idx.docs = append(idx.docs, docs[i])
		idx.cols = append(idx.cols, v.Terms...)
		idx.vals = append(idx.vals, v.Weights...)
		idx.rowPtr = append(idx.rowPtr, len(idx.cols))
		idx.norms = append(idx.norms, v.Norm())
		if last := v.Terms[len(v.Terms)-1]; last > maxTerm {
			maxTerm = last
		}
	}

	idx.buildPostings(int(maxTerm) + 1)
	return idx, nil
}

// buildPostings transposes the CSR rows with a counting pass so each posting
// list is ordered by document.
func (idx *Index) buildPostings(terms int) {
	idx.termPtr = make([]int, terms+1)
	for _, t := range idx.cols {
		idx.termPtr[t+1]++
	}
	for t := 0; t < terms; t++ {
		idx.termPtr[t+1] += idx.termPtr[t]
	}

	idx.postDocs = make([]int32, len(idx.cols))
	idx.postWeights = make([]float64, len(idx.cols))
	next := make([]int, terms)
	copy(next, idx.termPtr[:terms])
	for d := 0; d < len(idx.docs); d++ {
		for k := idx.rowPtr[d]; k < idx.rowPtr[d+1]; k++ {
			t := idx.cols[k]
			p := next[t]
			idx.postDocs[p] = int32(d) //nolint:gosec // document count fits int32
			idx.postWeights[p] = idx.vals[k]
			next[t]++
		}
	}
}

// Kind returns the catalog this index serves.
func (idx *Index) Kind() corpus.Kind {
	if idx == nil {
		return ""
	}
	return idx.kind
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.docs)
}

// Document returns the i-th indexed record.
func (idx *Index) Document(i int) corpus.Record { return idx.docs[i] }

// Norm returns the L2 norm of the i-th stored row.
func (idx *Index) Norm(i int) float64 { return idx.norms[i] }

// Terms returns the number of distinct term columns.
func (idx *Index) Terms() int {
	if idx == nil || len(idx.termPtr) == 0 {
		return 0
	}
	return len(idx.termPtr) - 1
}

// scores returns the dot product of query with every document, clamped to [0, 1].
func (idx *Index) scores(query tfidf.Vector) []float64 {
	out := make([]float64, len(idx.docs))
	terms := int32(idx.Terms()) //nolint:gosec // bounded by vocabulary size
	for i, t := range query.Terms {
		if t < 0 || t >= terms {
			continue
		}
		w := query.Weights[i]
		for p := idx.termPtr[t]; p < idx.termPtr[t+1]; p++ {
			out[idx.postDocs[p]] += w * idx.postWeights[p]
		}
	}
	for i, s := range out {
		out[i] = math.Min(1, math.Max(0, s))
	}
	return out
}
