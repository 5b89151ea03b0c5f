package ollama

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/kailas-cloud/cie10rag/internal/domain"
	"github.com/kailas-cloud/cie10rag/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterGenerationMetrics()
	os.Exit(m.Run())
}

type fakeClient struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeClient) GenerateContent(
	_ context.Context, messages []llms.MessageContent, options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.opts)
	}
	return f.resp, f.err
}

func TestGenerate(t *testing.T) {
	client := &fakeClient{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content: "Primary code: E11.9",
		GenerationInfo: map[string]any{
			"PromptTokens":     80,
			"CompletionTokens": 12,
			"TotalTokens":      92,
		},
	}}}}
	g := newGenerator(client, &Config{})

	res, err := g.Generate(context.Background(), "gemma3:4b", "the prompt")
	require.NoError(t, err)

	assert.Equal(t, "Primary code: E11.9", res.Text)
	assert.Equal(t, 80, res.PromptTokens)
	assert.Equal(t, 12, res.CompletionTokens)
	assert.Equal(t, 92, res.TotalTokens)

	require.Len(t, client.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, client.messages[0].Role)
	assert.Equal(t, "gemma3:4b", client.opts.Model)
	assert.InDelta(t, DefaultTemperature, client.opts.Temperature, 1e-9)
	assert.InDelta(t, DefaultTopP, client.opts.TopP, 1e-9)
	assert.Equal(t, DefaultMaxTokens, client.opts.MaxTokens)
}

func TestGenerate_TotalFromParts(t *testing.T) {
	client := &fakeClient{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        "ok",
		GenerationInfo: map[string]any{"PromptTokens": float64(5), "CompletionTokens": int64(3)},
	}}}}

	res, err := newGenerator(client, &Config{MaxTokens: 200}).Generate(context.Background(), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, 8, res.TotalTokens)
	assert.Equal(t, 200, client.opts.MaxTokens)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		g := newGenerator(&fakeClient{err: errors.New("connection refused")}, &Config{})
		_, err := g.Generate(context.Background(), "m", "p")
		require.ErrorIs(t, err, domain.ErrGenerationFailed)
	})

	t.Run("empty", func(t *testing.T) {
		g := newGenerator(&fakeClient{resp: &llms.ContentResponse{}}, &Config{})
		_, err := g.Generate(context.Background(), "m", "p")
		require.ErrorIs(t, err, domain.ErrGenerationFailed)
	})

	t.Run("blank content", func(t *testing.T) {
		resp := &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "  "}}}
		g := newGenerator(&fakeClient{resp: resp}, &Config{})
		_, err := g.Generate(context.Background(), "m", "p")
		require.ErrorIs(t, err, domain.ErrGenerationFailed)
	})
}

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator(&Config{BaseURL: "http://localhost:11434", DefaultModel: "gemma3:4b"})
	require.NoError(t, err)
	assert.NotNil(t, g)
}
