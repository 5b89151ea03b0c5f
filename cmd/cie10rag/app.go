package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cie10rag/internal/config"
	domcorpus "github.com/kailas-cloud/cie10rag/internal/domain/corpus"
	"github.com/kailas-cloud/cie10rag/internal/domain/tfidf"
	logpkg "github.com/kailas-cloud/cie10rag/internal/logger"
	"github.com/kailas-cloud/cie10rag/internal/repository/corpus"
	"github.com/kailas-cloud/cie10rag/internal/usecase/catalog"
	searchuc "github.com/kailas-cloud/cie10rag/internal/usecase/search"
)

// loadCatalog reads both corpora and builds the indexes. The procedure
// corpus is skipped when no path is configured.
func loadCatalog(ctx context.Context, cfg config.Config, logger *zap.Logger) (*catalog.Catalog, error) {
	diag, err := loadCorpus(ctx, "diagnoses", cfg.Corpus.Diagnoses, logger)
	if err != nil {
		return nil, err
	}

	var proc []domcorpus.Record
	if cfg.Corpus.Procedures.Path != "" {
		proc, err = loadCorpus(ctx, "procedures", cfg.Corpus.Procedures, logger)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("No procedure corpus configured, searching diagnoses only")
	}

	params := tfidf.Params{
		MaxTerms:       cfg.Vectorizer.TermLimit(),
		MinDocCount:    cfg.Vectorizer.MinDocCount,
		MaxDocFraction: cfg.Vectorizer.MaxDocFraction,
	}
	cat, err := catalog.Build(ctx, diag, proc, params, logpkg.Component(logger, "catalog"))
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return cat, nil
}

func loadCorpus(
	ctx context.Context, name string, src config.SourceConfig, logger *zap.Logger,
) ([]domcorpus.Record, error) {
	records, stats, err := corpus.Load(ctx, corpus.Source{
		Path:              src.Path,
		Format:            corpus.Format(src.Format),
		CodeColumn:        src.CodeColumn,
		DescriptionColumn: src.DescriptionColumn,
	})
	if err != nil {
		return nil, fmt.Errorf("load %s corpus: %w", name, err)
	}
	logger.Info("Corpus loaded",
		zap.String("corpus", name),
		zap.String("path", src.Path),
		zap.Int("rows", stats.Rows),
		zap.Int("skipped", stats.Skipped),
	)
	return records, nil
}

// newSearchService wires the catalog indexes into the search use case.
func newSearchService(cat *catalog.Catalog) *searchuc.Service {
	// Pass nil interface (not typed nil pointer) when there is no procedure index.
	var proc searchuc.Index
	if cat.Procedures() != nil {
		proc = cat.Procedures()
	}
	return searchuc.New(cat.Vocabulary(), cat.Diagnoses(), proc)
}
