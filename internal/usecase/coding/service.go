// Package coding turns a clinical diagnosis into a proposed ICD-10-ES code by
// retrieving candidates and asking a language model to choose among them.
package coding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cie10rag/internal/domain"
	"github.com/kailas-cloud/cie10rag/internal/domain/search/result"
	"github.com/kailas-cloud/cie10rag/internal/usecase/search"
)

// Defaults for Config.
const (
	DefaultContextResults = 6
	DefaultSuggestedCodes = 5
	DefaultDatabase       = "CIE-10-ES Ministerio de Sanidad"

	cachedSuffix   = " (cached)"
	fallbackSuffix = " (fallback)"
)

// Config tunes the coding flow.
type Config struct {
	DefaultModel   string
	ContextResults int
	SuggestedCodes int
	Database       string
}

func (c *Config) applyDefaults() {
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModelID
	}
	if c.ContextResults <= 0 {
		c.ContextResults = DefaultContextResults
	}
	if c.SuggestedCodes <= 0 {
		c.SuggestedCodes = DefaultSuggestedCodes
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
}

// Request is a coding request.
type Request struct {
	Diagnosis string
	Age       int
	Symptoms  string
	Model     string
}

// Suggestion is a retrieved candidate code returned alongside the answer.
type Suggestion struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Similarity  float64 `json:"similarity"`
	Type        string  `json:"type"`
}

// Response is the coding answer. It is JSON-encoded into the query cache.
type Response struct {
	ProposedDiagnosis string       `json:"proposed_diagnosis"`
	Primary           Diagnosis    `json:"primary_diagnosis"`
	Secondary         []Diagnosis  `json:"secondary_diagnoses"`
	ProcessingTime    float64      `json:"processing_time"`
	Engine            string       `json:"engine"`
	Database          string       `json:"database"`
	Context           string       `json:"rag_context,omitempty"`
	SuggestedCodes    []Suggestion `json:"suggested_codes"`
}

// Service runs the cached retrieve-prompt-generate-parse flow.
type Service struct {
	cfg        Config
	searcher   Searcher
	cache      ResponseCache
	models     *ModelCatalog
	generators map[Provider]domain.Generator
	logger     *zap.Logger
}

// New creates a coding service. cache can be nil. generators maps providers
// to configured backends; models whose provider is absent fall back to the
// default model.
func New(
	cfg Config,
	searcher Searcher,
	cache ResponseCache,
	models *ModelCatalog,
	generators map[Provider]domain.Generator,
	logger *zap.Logger,
) *Service {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:        cfg,
		searcher:   searcher,
		cache:      cache,
		models:     models,
		generators: generators,
		logger:     logger,
	}
}

// Models returns the catalog grouped by locality.
func (s *Service) Models() ModelGroups {
	return s.models.Groups()
}

// ModelCount returns the catalog size.
func (s *Service) ModelCount() int {
	return s.models.Len()
}

// Generate proposes a code for req.Diagnosis.
func (s *Service) Generate(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	diagnosis := strings.TrimSpace(req.Diagnosis)
	if diagnosis == "" {
		return Response{}, fmt.Errorf("diagnosis is required: %w", domain.ErrInvalidQuery)
	}
	if req.Age < 0 {
		return Response{}, fmt.Errorf("age must be non-negative: %w", domain.ErrInvalidQuery)
	}
	requested := req.Model
	if requested == "" {
		requested = s.cfg.DefaultModel
	}

	if resp, ok := s.cached(diagnosis, requested); ok {
		resp.Engine += cachedSuffix
		resp.ProcessingTime = time.Since(start).Seconds()
		return resp, nil
	}

	outcome, err := s.searcher.SearchAll(ctx, diagnosis, s.cfg.ContextResults)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve context: %w", err)
	}
	contextText := search.FormatContext(diagnosis, outcome.Merged)

	model, gen, fallback, err := s.resolve(requested)
	if err != nil {
		return Response{}, err
	}

	prompt := BuildPrompt(model.ID, PromptInput{
		Diagnosis: diagnosis,
		Symptoms:  req.Symptoms,
		Age:       req.Age,
		Context:   contextText,
	})

	out, err := gen.Generate(ctx, model.ID, prompt)
	if err != nil {
		return Response{}, fmt.Errorf("generate with %s: %w", model.ID, err)
	}
	domain.UsageFromContext(ctx).AddTokens(out.TotalTokens)

	engine := model.Engine()
	if fallback {
		engine += fallbackSuffix
	}

	resp := Response{
		ProposedDiagnosis: diagnosis,
		Primary:           ParseResponse(out.Text),
		Secondary:         []Diagnosis{},
		Engine:            engine,
		Database:          s.cfg.Database,
		Context:           contextText,
		SuggestedCodes:    suggestions(outcome.Merged, s.cfg.SuggestedCodes),
		ProcessingTime:    time.Since(start).Seconds(),
	}
	s.store(diagnosis, requested, resp)
	return resp, nil
}

// resolve maps a requested model id to a catalog model and its generator,
// falling back to the default model when the id is unknown or its provider
// is not configured.
func (s *Service) resolve(id string) (Model, domain.Generator, bool, error) {
	if m, ok := s.models.Lookup(id); ok {
		if gen := s.generators[m.Provider]; gen != nil {
			return m, gen, false, nil
		}
	}

	m, ok := s.models.Lookup(s.cfg.DefaultModel)
	if !ok {
		return Model{}, nil, false, fmt.Errorf("default model %s: %w", s.cfg.DefaultModel, domain.ErrUnknownModel)
	}
	gen := s.generators[m.Provider]
	if gen == nil {
		return Model{}, nil, false, fmt.Errorf("no %s provider for %s: %w", m.Provider, id, domain.ErrUnknownModel)
	}
	s.logger.Warn("Model unavailable, using fallback",
		zap.String("requested", id),
		zap.String("fallback", m.ID),
	)
	return m, gen, true, nil
}

func (s *Service) cached(diagnosis, model string) (Response, bool) {
	if s.cache == nil {
		return Response{}, false
	}
	raw, ok := s.cache.Get(diagnosis, model)
	if !ok {
		return Response{}, false
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.logger.Warn("Discarding undecodable cached response", zap.Error(err))
		return Response{}, false
	}
	return resp, true
}

func (s *Service) store(diagnosis, model string, resp Response) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("Failed to encode response for cache", zap.Error(err))
		return
	}
	s.cache.Put(diagnosis, model, raw)
}

func suggestions(hits []result.Result, n int) []Suggestion {
	n = min(n, len(hits))
	out := make([]Suggestion, n)
	for i := range n {
		h := &hits[i]
		out[i] = Suggestion{
			Code:        h.Code(),
			Description: h.Description(),
			Similarity:  h.Similarity(),
			Type:        h.Kind().String(),
		}
	}
	return out
}
