package coding

import (
	"context"

	"github.com/kailas-cloud/cie10rag/internal/usecase/search"
)

// Searcher retrieves candidate codes for a clinical query.
type Searcher interface {
	SearchAll(ctx context.Context, query string, topK int) (search.Outcome, error)
}

// ResponseCache stores encoded responses per (diagnosis, model).
type ResponseCache interface {
	Get(query, model string) ([]byte, bool)
	Put(query, model string, value []byte)
}
