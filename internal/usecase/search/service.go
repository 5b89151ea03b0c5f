package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/cie10rag/internal/domain/corpus"
	"github.com/kailas-cloud/cie10rag/internal/domain/search/result"
	"github.com/kailas-cloud/cie10rag/internal/domain/tfidf"
	"github.com/kailas-cloud/cie10rag/internal/metrics"
)

// Outcome is the result of searching both corpora for one query.
type Outcome struct {
	Query      string
	Diagnoses  []result.Result
	Procedures []result.Result
	// Merged holds the best hits across both corpora, at most topK.
	Merged []result.Result
	// TotalFound counts hits before Merged was truncated.
	TotalFound int
}

// Service runs retrieval over the diagnosis and procedure indexes.
type Service struct {
	vec  Vectorizer
	diag Index
	proc Index
}

// New creates a search service. proc can be nil when no procedure catalog is loaded.
func New(vec Vectorizer, diag, proc Index) *Service {
	return &Service{vec: vec, diag: diag, proc: proc}
}

// SearchAll vectorizes query once and searches diagnoses with topK and
// procedures with topK/2 in parallel. Diagnoses precede procedures in the
// concatenation, so equal similarities favour diagnoses after the stable sort.
func (s *Service) SearchAll(ctx context.Context, query string, topK int) (Outcome, error) {
	out := Outcome{Query: query}
	if strings.TrimSpace(query) == "" || topK <= 0 {
		return out, nil
	}

	q := s.vec.Transform(query)
	if q.IsEmpty() {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err //nolint:wrapcheck // context error
		}
		out.Diagnoses = s.searchOne(s.diag, corpus.KindDiagnosis, q, topK)
		return nil
	})
	if s.proc != nil {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err //nolint:wrapcheck // context error
			}
			out.Procedures = s.searchOne(s.proc, corpus.KindProcedure, q, topK/2)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{Query: query}, fmt.Errorf("search all: %w", err)
	}

	out.Merged, out.TotalFound = merge(out.Diagnoses, out.Procedures, topK)
	return out, nil
}

// Context searches with maxResults and renders the hits as an LLM prompt block.
func (s *Service) Context(ctx context.Context, query string, maxResults int) (string, error) {
	out, err := s.SearchAll(ctx, query, maxResults)
	if err != nil {
		return "", err
	}
	return FormatContext(query, out.Merged), nil
}

func (s *Service) searchOne(idx Index, kind corpus.Kind, q tfidf.Vector, topK int) []result.Result {
	start := time.Now()
	hits := idx.Search(q, topK)
	metrics.SearchDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
	metrics.SearchResultsTotal.WithLabelValues(kind.String()).Add(float64(len(hits)))

	for i := range hits {
		hits[i] = hits[i].WithKind(kind)
	}
	return hits
}
