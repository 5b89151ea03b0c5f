// Package ollama adapts a local Ollama server to domain.Generator via langchaingo.
package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cie10rag/internal/domain"
	"github.com/kailas-cloud/cie10rag/internal/metrics"
)

const provider = "ollama"

// Sampling defaults used by the local models.
const (
	DefaultTemperature = 0.1
	DefaultTopP        = 0.9
	DefaultMaxTokens   = 1000
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Config holds the Ollama connection and sampling settings.
type Config struct {
	BaseURL      string
	DefaultModel string
	Temperature  float64
	TopP         float64
	MaxTokens    int
	Logger       *zap.Logger
}

// Generator sends prompts to an Ollama server.
type Generator struct {
	client      contentGenerator
	temperature float64
	topP        float64
	maxTokens   int
	logger      *zap.Logger
}

// NewGenerator creates an Ollama-backed generator.
func NewGenerator(cfg *Config) (*Generator, error) {
	opts := []ollama.Option{}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	if cfg.DefaultModel != "" {
		opts = append(opts, ollama.WithModel(cfg.DefaultModel))
	}
	client, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return newGenerator(client, cfg), nil
}

func newGenerator(client contentGenerator, cfg *Config) *Generator {
	g := &Generator{
		client:      client,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
	if g.temperature <= 0 {
		g.temperature = DefaultTemperature
	}
	if g.topP <= 0 {
		g.topP = DefaultTopP
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultMaxTokens
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, model, prompt string) (domain.GenerationResult, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	start := time.Now()
	resp, err := g.client.GenerateContent(ctx, messages,
		llms.WithModel(model),
		llms.WithTemperature(g.temperature),
		llms.WithTopP(g.topP),
		llms.WithMaxTokens(g.maxTokens),
	)
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(provider, model, "request_error").Inc()
		g.logger.Warn("Ollama generation failed", zap.String("model", model), zap.Error(err))
		return domain.GenerationResult{}, fmt.Errorf("ollama %s: %w: %w", model, err, domain.ErrGenerationFailed)
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(provider, model, "empty_response").Inc()
		return domain.GenerationResult{}, fmt.Errorf("ollama %s: empty response: %w", model, domain.ErrGenerationFailed)
	}

	choice := resp.Choices[0]
	res := domain.GenerationResult{
		Text:             choice.Content,
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:      intInfo(choice.GenerationInfo, "TotalTokens"),
	}
	if res.TotalTokens == 0 {
		res.TotalTokens = res.PromptTokens + res.CompletionTokens
	}

	metrics.GenerationRequestsTotal.WithLabelValues(provider, model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	if res.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(res.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(provider, model, "completion").Add(float64(res.CompletionTokens))
	}
	return res, nil
}

// intInfo reads a numeric generation-info field regardless of its concrete type.
func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
