package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		Corpus: CorpusConfig{
			Diagnoses: SourceConfig{Path: "data/diagnoses.csv"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.HTTP.Port)
	}
	if cfg.Vectorizer.MaxTerms != 15000 || cfg.Vectorizer.MinDocCount != 1 || cfg.Vectorizer.MaxDocFraction != 0.95 {
		t.Errorf("unexpected vectorizer defaults: %+v", cfg.Vectorizer)
	}
	if cfg.Search.DefaultTopK != 10 || cfg.Search.ContextResults != 6 || cfg.Search.SuggestedCodes != 5 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Cache.HighWater != 1000 || cfg.Cache.LowWater != 500 {
		t.Errorf("unexpected cache bounds: %+v", cfg.Cache)
	}
	if cfg.Cache.Driver != DriverFile || cfg.Cache.Key != "cie10rag:query_cache" {
		t.Errorf("unexpected cache snapshot defaults: %+v", cfg.Cache)
	}
	if cfg.Generation.DefaultModel != "gemma3:4b" || cfg.Generation.MaxTokens != 1000 {
		t.Errorf("unexpected generation defaults: %+v", cfg.Generation)
	}
}

func TestTermLimit(t *testing.T) {
	if got := (VectorizerConfig{MaxTerms: -1}).TermLimit(); got != 0 {
		t.Errorf("expected unlimited (0), got %d", got)
	}
	if got := (VectorizerConfig{MaxTerms: 500}).TermLimit(); got != 500 {
		t.Errorf("expected 500, got %d", got)
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"diagnoses path", func(c *Config) { c.Corpus.Diagnoses.Path = "" }, "corpus.diagnoses.path"},
		{"format", func(c *Config) { c.Corpus.Procedures.Format = "xlsx" }, "corpus.procedures.format"},
		{"doc fraction", func(c *Config) { c.Vectorizer.MaxDocFraction = 1.5 }, "max_doc_fraction"},
		{"top k", func(c *Config) { c.Search.DefaultTopK = 500 }, "default_top_k"},
		{"water marks", func(c *Config) { c.Cache.LowWater = 2000 }, "cache.low_water"},
		{"driver", func(c *Config) { c.Cache.Driver = "s3" }, "cache.driver"},
		{"redis addrs", func(c *Config) { c.Cache.Driver = DriverValkey }, "database.addrs"},
		{"interval", func(c *Config) { c.Cache.IntervalSec = -1 }, "snapshot_interval_sec"},
		{"model provider", func(c *Config) {
			c.Generation.Models = []ModelConfig{{ID: "x", Provider: "azure"}}
		}, "generation.models[0].provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestValidate_RedisWithAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = DriverRedis
	cfg.Database.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CIE10_TEST_KEY", "secret")

	got := string(expandEnvVars([]byte("a: ${CIE10_TEST_KEY}\nb: ${CIE10_TEST_MISSING:-fallback}\nc: ${CIE10_TEST_MISSING}")))
	want := "a: secret\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("CIE10_TEST_OPENAI_KEY", "sk-test")

	path := filepath.Join(t.TempDir(), "test.yaml")
	yaml := `
http:
  port: 8081
corpus:
  diagnoses:
    path: data/diagnoses.parquet
    code_column: codigo
  procedures:
    path: data/procedures.csv
vectorizer:
  max_terms: -1
cache:
  driver: none
generation:
  openai:
    api_key: ${CIE10_TEST_OPENAI_KEY}
  models:
    - id: gemma3:4b
      name: Gemma3 4B
      provider: ollama
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Corpus.Diagnoses.CodeColumn != "codigo" || cfg.Corpus.Procedures.Path != "data/procedures.csv" {
		t.Errorf("corpus = %+v", cfg.Corpus)
	}
	if cfg.Vectorizer.TermLimit() != 0 {
		t.Errorf("expected unlimited terms, got %d", cfg.Vectorizer.TermLimit())
	}
	if cfg.Cache.Driver != DriverNone {
		t.Errorf("driver = %q", cfg.Cache.Driver)
	}
	if cfg.Generation.OpenAI.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.Generation.OpenAI.APIKey)
	}
	if len(cfg.Generation.Models) != 1 || cfg.Generation.Models[0].Provider != "ollama" {
		t.Errorf("models = %+v", cfg.Generation.Models)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
