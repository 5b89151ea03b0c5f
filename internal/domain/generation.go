package domain

import "context"

// Generator is the text-generation contract between the coding use case and LLM providers.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (GenerationResult, error)
}

// HealthChecker verifies generation provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// GenerationResult carries the completion text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
