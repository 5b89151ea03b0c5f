package chi

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeMethodNotAllowed ErrorCode = "method_not_allowed"
	ErrorCodeModelUnavailable ErrorCode = "model_unavailable"
	ErrorCodeGenerationFailed ErrorCode = "generation_failed"
	ErrorCodeTimeout          ErrorCode = "timeout"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Message   string `json:"message"`
	Version   string `json:"version"`
	Status    string `json:"status"`
	RAGSystem string `json:"rag_system"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status          string            `json:"status"`
	Checks          map[string]string `json:"checks"`
	RAGSystem       string            `json:"rag_system"`
	ModelsAvailable int               `json:"models_available"`
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Diagnosis string  `json:"diagnosis"`
	Age       *int    `json:"age,omitempty"`
	Symptoms  *string `json:"symptoms,omitempty"`
	Model     *string `json:"model,omitempty"`
}

// SearchResultItem is one retrieved code.
type SearchResultItem struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Similarity  float64 `json:"similarity"`
	Type        string  `json:"type"`
}

// SearchResponse is the body of GET /rag/search.
type SearchResponse struct {
	Query      string             `json:"query"`
	Results    []SearchResultItem `json:"results"`
	TotalFound int                `json:"total_found"`
}

// ContextResponse is the body of GET /rag/context.
type ContextResponse struct {
	Query   string `json:"query"`
	Context string `json:"context"`
}

// CacheStats is the cache section of StatsResponse.
type CacheStats struct {
	TotalCached int     `json:"total_cached"`
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	Evictions   uint64  `json:"evictions"`
	HitRate     float64 `json:"cache_hit_rate"`
	HighWater   int     `json:"high_water"`
	LowWater    int     `json:"low_water"`
}

// RAGStats is the catalog section of StatsResponse.
type RAGStats struct {
	TotalDiagnoses     int `json:"total_diagnoses"`
	TotalProcedures    int `json:"total_procedures"`
	VectorizerFeatures int `json:"vectorizer_features"`
}

// SystemInfo is the build section of StatsResponse.
type SystemInfo struct {
	Version  string   `json:"version"`
	Commit   string   `json:"commit"`
	Features []string `json:"features"`
}

// StatsResponse is the body of GET /performance/stats.
type StatsResponse struct {
	CacheStats CacheStats `json:"cache_stats"`
	RAGStats   RAGStats   `json:"rag_stats"`
	SystemInfo SystemInfo `json:"system_info"`
}
