// Package catalog builds the searchable ICD-10-ES catalog from raw corpus records.
package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cie10rag/internal/domain"
	"github.com/kailas-cloud/cie10rag/internal/domain/corpus"
	"github.com/kailas-cloud/cie10rag/internal/domain/index"
	"github.com/kailas-cloud/cie10rag/internal/domain/tfidf"
)

// Catalog is the immutable result of Build: one vocabulary fit on diagnoses
// and an index per corpus.
type Catalog struct {
	vocab      *tfidf.Vocabulary
	diagnoses  *index.Index
	procedures *index.Index // nil when no procedure corpus was given
}

// Stats describes catalog sizes.
type Stats struct {
	Diagnoses      int
	Procedures     int
	VocabularySize int
}

// Build filters both corpora, fits the vocabulary on diagnoses only and
// indexes each corpus with it. The diagnosis corpus is required. A nil proc
// means no procedure corpus was configured; a non-nil one, even empty, that
// yields no documents is an error.
func Build(
	ctx context.Context, diag, proc []corpus.Record, params tfidf.Params, logger *zap.Logger,
) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	diagDocs, diagStats := corpus.Filter(diag)
	logFilter(logger, corpus.KindDiagnosis, len(diag), diagStats)
	if len(diagDocs) == 0 {
		return nil, domain.NewCorpusError(corpus.KindDiagnosis.String(), domain.ErrEmptyCorpus)
	}

	texts := make([]string, len(diagDocs))
	for i, d := range diagDocs {
		texts[i] = d.CombinedText()
	}
	vocab, err := tfidf.Fit(texts, params)
	if err != nil {
		return nil, domain.NewCorpusError(corpus.KindDiagnosis.String(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	diagIdx, err := buildIndex(vocab, corpus.KindDiagnosis, diagDocs, texts)
	if err != nil {
		return nil, err
	}

	c := &Catalog{vocab: vocab, diagnoses: diagIdx}

	if proc != nil {
		procDocs, procStats := corpus.Filter(proc)
		logFilter(logger, corpus.KindProcedure, len(proc), procStats)
		if len(procDocs) == 0 {
			return nil, domain.NewCorpusError(corpus.KindProcedure.String(), domain.ErrEmptyCorpus)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build catalog: %w", err)
		}
		c.procedures, err = buildIndex(vocab, corpus.KindProcedure, procDocs, nil)
		if err != nil {
			return nil, err
		}
	}

	st := c.Stats()
	logger.Info("Catalog built",
		zap.Int("diagnoses", st.Diagnoses),
		zap.Int("procedures", st.Procedures),
		zap.Int("vocabulary", st.VocabularySize),
		zap.Duration("took", time.Since(start)),
	)
	return c, nil
}

func buildIndex(
	vocab *tfidf.Vocabulary, kind corpus.Kind, docs []corpus.Record, texts []string,
) (*index.Index, error) {
	vectors := make([]tfidf.Vector, len(docs))
	for i, d := range docs {
		if texts != nil {
			vectors[i] = vocab.Transform(texts[i])
		} else {
			vectors[i] = vocab.Transform(d.CombinedText())
		}
	}
	idx, err := index.Build(kind, docs, vectors)
	if err != nil {
		return nil, domain.NewCorpusError(kind.String(), err)
	}
	if idx.Len() == 0 {
		return nil, domain.NewCorpusError(kind.String(), domain.ErrEmptyCorpus)
	}
	return idx, nil
}

func logFilter(logger *zap.Logger, kind corpus.Kind, total int, st corpus.FilterStats) {
	fields := []zap.Field{
		zap.String("corpus", kind.String()),
		zap.Int("records", total),
		zap.Int("accepted", st.Accepted),
	}
	for reason, n := range st.Rejected {
		fields = append(fields, zap.Int("rejected_"+string(reason), n))
	}
	logger.Info("Corpus filtered", fields...)
}

// Vocabulary returns the fitted vocabulary.
func (c *Catalog) Vocabulary() *tfidf.Vocabulary { return c.vocab }

// Diagnoses returns the diagnosis index.
func (c *Catalog) Diagnoses() *index.Index { return c.diagnoses }

// Procedures returns the procedure index, or nil.
func (c *Catalog) Procedures() *index.Index { return c.procedures }

// Stats returns document counts and vocabulary size.
func (c *Catalog) Stats() Stats {
	return Stats{
		Diagnoses:      c.diagnoses.Len(),
		Procedures:     c.procedures.Len(),
		VocabularySize: c.vocab.Len(),
	}
}
