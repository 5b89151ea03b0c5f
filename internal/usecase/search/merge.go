package search

import (
	"sort"

	"github.com/kailas-cloud/cie10rag/internal/domain/search/result"
)

// merge concatenates diagnoses then procedures, stable-sorts by similarity
// descending and keeps topK. total is the concatenated length.
func merge(diag, proc []result.Result, topK int) (merged []result.Result, total int) {
	all := make([]result.Result, 0, len(diag)+len(proc))
	all = append(all, diag...)
	all = append(all, proc...)
	total = len(all)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Similarity() > all[j].Similarity()
	})
	if len(all) > topK {
		all = all[:topK]
	}
	return all, total
}
