package cie10rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cie10rag/internal/domain"
	domcorpus "github.com/kailas-cloud/cie10rag/internal/domain/corpus"
	"github.com/kailas-cloud/cie10rag/internal/domain/search/result"
	"github.com/kailas-cloud/cie10rag/internal/domain/tfidf"
	"github.com/kailas-cloud/cie10rag/internal/repository/corpus"
	"github.com/kailas-cloud/cie10rag/internal/repository/querycache"
	"github.com/kailas-cloud/cie10rag/internal/usecase/catalog"
	codinguc "github.com/kailas-cloud/cie10rag/internal/usecase/coding"
	searchuc "github.com/kailas-cloud/cie10rag/internal/usecase/search"
)

// Client is the cie10rag SDK entry point. It is safe for concurrent use.
type Client struct {
	catalog *catalog.Catalog
	search  *searchuc.Service
	coding  *codinguc.Service // nil without a Generator
	cache   *querycache.Cache
	obs     *observer
}

// New loads the catalogs and builds the search indexes.
// The provided context bounds loading and indexing.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.diagnoses.empty() {
		return nil, errors.New("cie10rag: diagnosis catalog required (use WithDiagnosesFile or WithDiagnoses)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	c, err := build(ctx, cfg, obs)
	if err != nil {
		obs.observe("load", start, err)
		return nil, err
	}
	st := c.catalog.Stats()
	obs.observe("load", start, nil,
		slog.Int("diagnoses", st.Diagnoses),
		slog.Int("procedures", st.Procedures),
		slog.Int("vocabulary", st.VocabularySize),
	)
	return c, nil
}

func build(ctx context.Context, cfg *clientConfig, obs *observer) (*Client, error) {
	diag, err := loadSource(ctx, cfg.diagnoses)
	if err != nil {
		return nil, fmt.Errorf("cie10rag: diagnoses: %w", err)
	}
	var proc []domcorpus.Record
	if !cfg.procedures.empty() {
		proc, err = loadSource(ctx, cfg.procedures)
		if err != nil {
			return nil, fmt.Errorf("cie10rag: procedures: %w", err)
		}
	}

	cat, err := catalog.Build(ctx, diag, proc, vocabularyParams(cfg), zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("cie10rag: build catalog: %w", err)
	}

	// A nil *index.Index must not reach the search service as a non-nil interface.
	var procIdx searchuc.Index
	if cat.Procedures() != nil {
		procIdx = cat.Procedures()
	}
	client := &Client{
		catalog: cat,
		search:  searchuc.New(cat.Vocabulary(), cat.Diagnoses(), procIdx),
		obs:     obs,
	}

	if cfg.generator == nil {
		return client, nil
	}

	cacheCfg := querycache.DefaultConfig()
	if cfg.cacheHighWater > 0 {
		cacheCfg = querycache.Config{HighWater: cfg.cacheHighWater, LowWater: cfg.cacheLowWater}
	}
	client.cache, err = querycache.New(cacheCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("cie10rag: %w", err)
	}

	models, err := codinguc.NewModelCatalog(toInternalModels(cfg.models))
	if err != nil {
		return nil, fmt.Errorf("cie10rag: %w", err)
	}
	gen := &generatorAdapter{inner: cfg.generator}
	client.coding = codinguc.New(
		codinguc.Config{DefaultModel: cfg.defaultModel},
		client.search,
		client.cache,
		models,
		map[codinguc.Provider]domain.Generator{
			codinguc.ProviderOllama: gen,
			codinguc.ProviderOpenAI: gen,
		},
		zap.NewNop(),
	)
	return client, nil
}

func loadSource(ctx context.Context, s source) ([]domcorpus.Record, error) {
	if s.path == "" {
		out := make([]domcorpus.Record, len(s.records))
		for i, r := range s.records {
			out[i] = domcorpus.Record{Code: r.Code, Description: r.Description}
		}
		return out, nil
	}
	records, _, err := corpus.Load(ctx, corpus.Source{
		Path:              s.path,
		CodeColumn:        s.codeColumn,
		DescriptionColumn: s.descriptionColumn,
	})
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return records, nil
}

func vocabularyParams(cfg *clientConfig) tfidf.Params {
	p := tfidf.DefaultParams()
	switch {
	case cfg.maxTerms < 0:
		p.MaxTerms = 0
	case cfg.maxTerms > 0:
		p.MaxTerms = cfg.maxTerms
	}
	if cfg.minDocCount > 0 {
		p.MinDocCount = cfg.minDocCount
	}
	if cfg.maxDocFraction > 0 {
		p.MaxDocFraction = cfg.maxDocFraction
	}
	return p
}

// Search returns the best diagnosis and procedure hits for query, at most limit.
// A query without indexed terms yields an empty result, not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) (SearchResult, error) {
	start := time.Now()
	res, err := c.doSearch(ctx, query, limit)
	c.obs.observe("search", start, err, slog.Int("limit", limit), slog.Int("hits", len(res.Hits)))
	if err == nil {
		c.obs.observeHits("search", len(res.Hits))
	}
	return res, err
}

func (c *Client) doSearch(ctx context.Context, query string, limit int) (SearchResult, error) {
	if limit <= 0 {
		return SearchResult{}, fmt.Errorf("cie10rag: limit must be positive: %w", ErrInvalidQuery)
	}
	out, err := c.search.SearchAll(ctx, query, limit)
	if err != nil {
		return SearchResult{}, fmt.Errorf("cie10rag: search: %w", err)
	}
	return SearchResult{
		Query:      query,
		Hits:       fromResults(out.Merged),
		TotalFound: out.TotalFound,
	}, nil
}

// Context renders the best maxResults hits as a prompt block for a language model.
func (c *Client) Context(ctx context.Context, query string, maxResults int) (string, error) {
	start := time.Now()
	var (
		text string
		err  error
	)
	if maxResults <= 0 {
		err = fmt.Errorf("cie10rag: maxResults must be positive: %w", ErrInvalidQuery)
	} else {
		text, err = c.search.Context(ctx, query, maxResults)
	}
	c.obs.observe("context", start, err, slog.Int("max_results", maxResults))
	return text, err
}

// Code proposes an ICD-10-ES code for a clinical diagnosis.
// Repeated requests for the same diagnosis and model are served from cache.
func (c *Client) Code(ctx context.Context, req CodeRequest) (CodeResult, error) {
	start := time.Now()
	res, err := c.doCode(ctx, req)
	c.obs.observe("code", start, err, slog.String("model", req.Model), slog.String("engine", res.Engine))
	if err == nil {
		c.obs.observeHits("code", len(res.SuggestedCodes))
	}
	return res, err
}

func (c *Client) doCode(ctx context.Context, req CodeRequest) (CodeResult, error) {
	if c.coding == nil {
		return CodeResult{}, fmt.Errorf("cie10rag: no generator configured (use WithGenerator): %w", ErrUnknownModel)
	}
	resp, err := c.coding.Generate(ctx, codinguc.Request{
		Diagnosis: req.Diagnosis,
		Symptoms:  req.Symptoms,
		Age:       req.Age,
		Model:     req.Model,
	})
	if err != nil {
		return CodeResult{}, fmt.Errorf("cie10rag: code: %w", err)
	}

	suggested := make([]Hit, len(resp.SuggestedCodes))
	for i, s := range resp.SuggestedCodes {
		suggested[i] = Hit{
			Code:        s.Code,
			Description: s.Description,
			Similarity:  s.Similarity,
			Kind:        Kind(s.Type),
		}
	}
	return CodeResult{
		Diagnosis: resp.ProposedDiagnosis,
		Primary: Diagnosis{
			Code:          resp.Primary.Code,
			Description:   resp.Primary.Description,
			Justification: resp.Primary.Justification,
			Confidence:    resp.Primary.Confidence,
		},
		Engine:         resp.Engine,
		Context:        resp.Context,
		SuggestedCodes: suggested,
		ProcessingTime: resp.ProcessingTime,
	}, nil
}

// Models lists the generation models Code accepts, local models first.
// It is empty when no Generator is configured.
func (c *Client) Models() []Model {
	if c.coding == nil {
		return nil
	}
	g := c.coding.Models()
	out := make([]Model, 0, len(g.Local)+len(g.Cloud))
	for _, m := range g.Local {
		out = append(out, Model{ID: m.ID, Name: m.Name})
	}
	for _, m := range g.Cloud {
		out = append(out, Model{ID: m.ID, Name: m.Name, Cloud: true})
	}
	return out
}

// Stats reports catalog sizes and cache counters.
func (c *Client) Stats() Stats {
	cs := c.catalog.Stats()
	st := Stats{
		Diagnoses:      cs.Diagnoses,
		Procedures:     cs.Procedures,
		VocabularySize: cs.VocabularySize,
	}
	if c.cache != nil {
		qs := c.cache.Stats()
		st.CacheEntries = qs.Entries
		st.CacheHits = qs.Hits
		st.CacheMisses = qs.Misses
		st.CacheHitRate = qs.HitRate()
	}
	return st
}

func fromResults(rs []result.Result) []Hit {
	out := make([]Hit, len(rs))
	for i := range rs {
		r := &rs[i]
		out[i] = Hit{
			Code:        r.Code(),
			Description: r.Description(),
			Similarity:  r.Similarity(),
			Kind:        Kind(r.Kind()),
		}
	}
	return out
}

func toInternalModels(models []Model) []codinguc.Model {
	if len(models) == 0 {
		return codinguc.DefaultModels()
	}
	out := make([]codinguc.Model, len(models))
	for i, m := range models {
		p := codinguc.ProviderOllama
		if m.Cloud {
			p = codinguc.ProviderOpenAI
		}
		out[i] = codinguc.Model{ID: m.ID, Name: m.Name, Provider: p}
	}
	return out
}

// generatorAdapter bridges the public Generator to the internal contract.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, model, prompt string) (domain.GenerationResult, error) {
	g, err := a.inner.Generate(ctx, model, prompt)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return domain.GenerationResult{Text: g.Text, TotalTokens: g.TotalTokens}, nil
}
