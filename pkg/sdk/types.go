package cie10rag

import "context"

// Kind tells which catalog a hit came from.
type Kind string

// Kind constants.
const (
	KindDiagnosis Kind = "diagnosis"
	KindProcedure Kind = "procedure"
)

// Record is one catalog row passed in memory.
type Record struct {
	Code        string
	Description string
}

// Hit is a single search result.
type Hit struct {
	Code        string
	Description string
	Similarity  float64
	Kind        Kind
}

// SearchResult holds the best hits across both catalogs.
type SearchResult struct {
	Query string
	Hits  []Hit
	// TotalFound counts hits above threshold before truncation to the limit.
	TotalFound int
}

// Diagnosis is a code proposed by the language model.
type Diagnosis struct {
	Code          string
	Description   string
	Justification string
	Confidence    float64
}

// CodeRequest asks for a code proposal.
type CodeRequest struct {
	Diagnosis string
	Symptoms  string
	Age       int
	// Model is a catalog model id. Empty selects the default model.
	Model string
}

// CodeResult is a code proposal with the evidence it was based on.
type CodeResult struct {
	Diagnosis      string
	Primary        Diagnosis
	Engine         string
	Context        string
	SuggestedCodes []Hit
	ProcessingTime float64
}

// Model is a generation model entry.
type Model struct {
	ID   string
	Name string
	// Cloud marks hosted models. Local models are listed first.
	Cloud bool
}

// Generation is the text returned by a Generator.
type Generation struct {
	Text        string
	TotalTokens int
}

// Generator produces text for a prompt with the given model.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (Generation, error)
}

// Stats describes the loaded catalogs and the code proposal cache.
type Stats struct {
	Diagnoses      int
	Procedures     int
	VocabularySize int
	CacheEntries   int
	CacheHits      uint64
	CacheMisses    uint64
	CacheHitRate   float64
}
