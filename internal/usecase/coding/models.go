package coding

import (
	"fmt"

	"github.com/kailas-cloud/cie10rag/internal/domain"
)

// Provider identifies the backend that serves a model.
type Provider string

const (
	// ProviderOllama serves local models.
	ProviderOllama Provider = "ollama"
	// ProviderOpenAI serves cloud models.
	ProviderOpenAI Provider = "openai"
)

// Local reports whether the provider runs on the local host.
func (p Provider) Local() bool { return p == ProviderOllama }

// displayName is the provider label used in engine names.
func (p Provider) displayName() string {
	switch p {
	case ProviderOllama:
		return "Ollama"
	case ProviderOpenAI:
		return "OpenAI"
	default:
		return string(p)
	}
}

// Model is one entry of the generation model catalog.
type Model struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Provider Provider `json:"provider" yaml:"provider"`
	Power    string   `json:"power" yaml:"power"`
}

// Engine is the human-readable engine label, e.g. "Ollama Gemma3 4B".
func (m Model) Engine() string {
	return m.Provider.displayName() + " " + m.Name
}

// DefaultModelID is used when a request names no model or an unusable one.
const DefaultModelID = "gemma3:4b"

// DefaultModels returns the built-in catalog.
func DefaultModels() []Model {
	return []Model{
		{ID: "gpt-oss:120b", Name: "GPT-OSS 120B", Provider: ProviderOllama, Power: "maximum"},
		{ID: "gpt-oss:20b", Name: "GPT-OSS 20B", Provider: ProviderOllama, Power: "high"},
		{ID: "gemma3:27b", Name: "Gemma3 27B", Provider: ProviderOllama, Power: "high"},
		{ID: "gemma3:12b", Name: "Gemma3 12B", Provider: ProviderOllama, Power: "medium"},
		{ID: "gemma3:4b", Name: "Gemma3 4B", Provider: ProviderOllama, Power: "low"},
		{ID: "deepseek-r1:8b", Name: "DeepSeek R1 8B", Provider: ProviderOllama, Power: "medium"},
		{ID: "qwen3:8b", Name: "Qwen3 8B", Provider: ProviderOllama, Power: "medium"},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Provider: ProviderOpenAI, Power: "maximum"},
		{ID: "gpt-4", Name: "GPT-4", Provider: ProviderOpenAI, Power: "high"},
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Provider: ProviderOpenAI, Power: "medium"},
	}
}

// ModelCatalog indexes models by id, preserving declaration order.
type ModelCatalog struct {
	models []Model
	byID   map[string]int
}

// NewModelCatalog validates ids and providers. Duplicate ids are rejected.
func NewModelCatalog(models []Model) (*ModelCatalog, error) {
	c := &ModelCatalog{
		models: make([]Model, 0, len(models)),
		byID:   make(map[string]int, len(models)),
	}
	for _, m := range models {
		if m.ID == "" {
			return nil, fmt.Errorf("model with empty id: %w", domain.ErrInvalidConfig)
		}
		if m.Provider != ProviderOllama && m.Provider != ProviderOpenAI {
			return nil, fmt.Errorf("model %s: unsupported provider %q: %w", m.ID, m.Provider, domain.ErrInvalidConfig)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate model %s: %w", m.ID, domain.ErrInvalidConfig)
		}
		if m.Name == "" {
			m.Name = m.ID
		}
		c.byID[m.ID] = len(c.models)
		c.models = append(c.models, m)
	}
	return c, nil
}

// Lookup finds a model by id.
func (c *ModelCatalog) Lookup(id string) (Model, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Model{}, false
	}
	return c.models[i], true
}

// Len returns the number of models.
func (c *ModelCatalog) Len() int { return len(c.models) }

// ModelGroups splits the catalog by where models run.
type ModelGroups struct {
	Local []Model `json:"local"`
	Cloud []Model `json:"cloud"`
}

// Groups returns local and cloud models in declaration order.
func (c *ModelCatalog) Groups() ModelGroups {
	g := ModelGroups{Local: []Model{}, Cloud: []Model{}}
	for _, m := range c.models {
		if m.Provider.Local() {
			g.Local = append(g.Local, m)
		} else {
			g.Cloud = append(g.Cloud, m)
		}
	}
	return g
}
