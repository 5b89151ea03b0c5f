package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cie10rag/internal/domain"
	"github.com/kailas-cloud/cie10rag/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/cie10rag/internal/logger"
	codinguc "github.com/kailas-cloud/cie10rag/internal/usecase/coding"
	healthuc "github.com/kailas-cloud/cie10rag/internal/usecase/health"
	searchuc "github.com/kailas-cloud/cie10rag/internal/usecase/search"
	statsuc "github.com/kailas-cloud/cie10rag/internal/usecase/stats"
	"github.com/kailas-cloud/cie10rag/internal/version"
)

const maxRequestBody = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Config holds request limits and defaults.
type Config struct {
	DefaultTopK       int
	MaxTopK           int
	ContextResults    int
	GenerationTimeout time.Duration
}

// Server serves the retrieval and coding HTTP API.
type Server struct {
	cfg           Config
	search        *searchuc.Service
	coding        *codinguc.Service
	stats         *statsuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	cfg Config,
	search *searchuc.Service,
	coding *codinguc.Service,
	stats *statsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 10
	}
	if cfg.MaxTopK < cfg.DefaultTopK {
		cfg.MaxTopK = max(100, cfg.DefaultTopK)
	}
	if cfg.ContextResults <= 0 {
		cfg.ContextResults = codinguc.DefaultContextResults
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		search: search,
		coding: coding,
		stats:  stats,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrUnknownModel, http.StatusServiceUnavailable, ErrorCodeModelUnavailable),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorCodeTimeout),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, ErrorCodeGenerationFailed),
	}
	return s
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message:   "ICD-10-ES medical coding with RAG",
		Version:   version.Version,
		Status:    "operational",
		RAGSystem: "active",
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	ragSystem := "active"
	if report.Checks[healthuc.ComponentCatalog] != healthuc.CheckOK {
		ragSystem = "unavailable"
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:          string(report.Status),
		Checks:          checks,
		RAGSystem:       ragSystem,
		ModelsAvailable: s.coding.ModelCount(),
	})
}

// ListModels handles GET /models.
func (s *Server) ListModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.coding.Models())
}

// Generate handles POST /generate.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Diagnosis) == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "diagnosis is required")
		return
	}

	ctx := r.Context()
	if s.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.GenerationTimeout)
		defer cancel()
	}
	ctx, usage := domain.NewContextWithUsage(ctx)

	resp, err := s.coding.Generate(ctx, codinguc.Request{
		Diagnosis: req.Diagnosis,
		Age:       derefInt(req.Age),
		Symptoms:  derefString(req.Symptoms),
		Model:     derefString(req.Model),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	logpkg.AddEventFields(r.Context(),
		zap.String("engine", resp.Engine),
		zap.Int("suggested_codes", len(resp.SuggestedCodes)),
	)
	if usage.Used {
		logpkg.AddEventFields(r.Context(), zap.Int("generation_tokens", usage.TotalTokens))
	}
	setGenerationHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

// Search handles GET /rag/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	query, ok := s.bindQuery(w, r)
	if !ok {
		return
	}
	topK, ok := s.bindLimit(w, r, "top_k", s.cfg.DefaultTopK)
	if !ok {
		return
	}

	out, err := s.search.SearchAll(r.Context(), query, topK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	logpkg.AddEventFields(r.Context(), zap.Int("top_k", topK), zap.Int("results", len(out.Merged)))

	items := make([]SearchResultItem, len(out.Merged))
	for i := range out.Merged {
		items[i] = searchResultToDTO(&out.Merged[i])
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:      query,
		Results:    items,
		TotalFound: out.TotalFound,
	})
}

// Context handles GET /rag/context.
func (s *Server) Context(w http.ResponseWriter, r *http.Request) {
	query, ok := s.bindQuery(w, r)
	if !ok {
		return
	}
	maxResults, ok := s.bindLimit(w, r, "max_results", s.cfg.ContextResults)
	if !ok {
		return
	}

	text, err := s.search.Context(r.Context(), query, maxResults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ContextResponse{Query: query, Context: text})
}

// PerformanceStats handles GET /performance/stats.
func (s *Server) PerformanceStats(w http.ResponseWriter, _ *http.Request) {
	rep := s.stats.Report()
	writeJSON(w, http.StatusOK, StatsResponse{
		CacheStats: CacheStats{
			TotalCached: rep.Cache.Entries,
			Hits:        rep.Cache.Hits,
			Misses:      rep.Cache.Misses,
			Evictions:   rep.Cache.Evictions,
			HitRate:     rep.HitRate,
			HighWater:   rep.Cache.HighWater,
			LowWater:    rep.Cache.LowWater,
		},
		RAGStats: RAGStats{
			TotalDiagnoses:     rep.Catalog.Diagnoses,
			TotalProcedures:    rep.Catalog.Procedures,
			VectorizerFeatures: rep.Catalog.VocabularySize,
		},
		SystemInfo: SystemInfo{
			Version:  rep.Version.Version,
			Commit:   rep.Version.Commit,
			Features: rep.Features,
		},
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindQuery reads the required "query" parameter. A blank value is accepted
// and yields no results.
func (s *Server) bindQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var query string
	if err := runtime.BindQueryParameter("form", true, true, "query", r.URL.Query(), &query); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter query")
		return "", false
	}
	return query, true
}

// bindLimit reads an optional positive integer parameter bounded by MaxTopK.
func (s *Server) bindLimit(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter "+name)
		return 0, false
	}
	if v == nil {
		return def, true
	}
	if *v <= 0 || *v > s.cfg.MaxTopK {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			name+" must be between 1 and "+strconv.Itoa(s.cfg.MaxTopK))
		return 0, false
	}
	return *v, true
}

func setGenerationHeaders(w http.ResponseWriter, usage *domain.GenerationUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrUnknownModel,
		domain.ErrGenerationFailed,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func searchResultToDTO(r *result.Result) SearchResultItem {
	return SearchResultItem{
		Code:        r.Code(),
		Description: r.Description(),
		Similarity:  r.Similarity(),
		Type:        r.Kind().String(),
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
