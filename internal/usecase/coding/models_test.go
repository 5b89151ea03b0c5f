package coding

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/cie10rag/internal/domain"
)

func TestDefaultModels(t *testing.T) {
	c, err := NewModelCatalog(DefaultModels())
	if err != nil {
		t.Fatalf("NewModelCatalog: %v", err)
	}
	if c.Len() != 10 {
		t.Fatalf("expected 10 models, got %d", c.Len())
	}

	g := c.Groups()
	if len(g.Local) != 7 || len(g.Cloud) != 3 {
		t.Errorf("groups = %d local, %d cloud", len(g.Local), len(g.Cloud))
	}

	m, ok := c.Lookup(DefaultModelID)
	if !ok {
		t.Fatal("default model missing")
	}
	if m.Engine() != "Ollama Gemma3 4B" {
		t.Errorf("Engine() = %q", m.Engine())
	}
	if gpt, _ := c.Lookup("gpt-4"); gpt.Engine() != "OpenAI GPT-4" {
		t.Errorf("Engine() = %q", gpt.Engine())
	}
}

func TestNewModelCatalog_Invalid(t *testing.T) {
	cases := map[string][]Model{
		"empty id":     {{Provider: ProviderOllama}},
		"bad provider": {{ID: "x", Provider: "azure"}},
		"duplicate":    {{ID: "a", Provider: ProviderOllama}, {ID: "a", Provider: ProviderOpenAI}},
	}
	for name, models := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewModelCatalog(models); !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestNewModelCatalog_NameDefaultsToID(t *testing.T) {
	c, err := NewModelCatalog([]Model{{ID: "llama3:8b", Provider: ProviderOllama}})
	if err != nil {
		t.Fatal(err)
	}
	m, _ := c.Lookup("llama3:8b")
	if m.Name != "llama3:8b" {
		t.Errorf("Name = %q", m.Name)
	}
}
