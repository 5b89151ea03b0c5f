package index

import (
	"container/heap"
	"sort"

	"github.com/kailas-cloud/cie10rag/internal/domain/search/result"
	"github.com/kailas-cloud/cie10rag/internal/domain/search/threshold"
	"github.com/kailas-cloud/cie10rag/internal/domain/tfidf"
)

// candidate is a scored document position.
type candidate struct {
	doc   int
	score float64
}

// worse orders candidates so the heap root is the one to drop first:
// lower score, or equal score and later insertion.
func worse(a, b candidate) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.doc > b.doc
}

type candidateHeap []candidate

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Search returns up to topK documents most similar to query, above the
// length-dependent threshold, ordered by similarity descending. Ties keep
// insertion order.
func (idx *Index) Search(query tfidf.Vector, topK int) []result.Result {
	if idx.Len() == 0 || query.IsEmpty() || topK <= 0 {
		return nil
	}

	pool := idx.candidates(idx.scores(query), 2*topK)

	minSim := threshold.For(query.Tokens)
	kept := pool[:0]
	for _, c := range pool {
		if c.score > minSim {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	if len(kept) > topK {
		kept = kept[:topK]
	}

	out := make([]result.Result, len(kept))
	for i, c := range kept {
		d := idx.docs[c.doc]
		out[i] = result.New(d.Code, d.Description, c.score, idx.kind)
	}
	return out
}

// candidates selects the n best non-zero scores, best first.
func (idx *Index) candidates(scores []float64, n int) []candidate {
	n = min(n, len(scores))
	h := make(candidateHeap, 0, n)
	for doc, s := range scores {
		if s <= 0 {
			continue
		}
		c := candidate{doc: doc, score: s}
		if len(h) < n {
			heap.Push(&h, c)
			continue
		}
		if worse(h[0], c) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	out := make([]candidate, len(h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(candidate)
	}
	return out
}
