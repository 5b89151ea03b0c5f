package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the cie10rag service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Search     SearchConfig     `yaml:"search"`
	Cache      CacheConfig      `yaml:"cache"`
	Database   DatabaseConfig   `yaml:"database"`
	Generation GenerationConfig `yaml:"generation"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys means open access.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CorpusConfig locates the two code tables.
type CorpusConfig struct {
	Diagnoses  SourceConfig `yaml:"diagnoses"`
	Procedures SourceConfig `yaml:"procedures"` // optional
}

// SourceConfig describes one tabular corpus file.
type SourceConfig struct {
	Path              string `yaml:"path"`
	Format            string `yaml:"format"` // csv, parquet (default: from extension)
	CodeColumn        string `yaml:"code_column"`
	DescriptionColumn string `yaml:"description_column"`
}

// VectorizerConfig holds TF-IDF vocabulary parameters.
type VectorizerConfig struct {
	MaxTerms       int     `yaml:"max_terms"` // negative = unlimited
	MinDocCount    int     `yaml:"min_doc_count"`
	MaxDocFraction float64 `yaml:"max_doc_fraction"`
}

// SearchConfig holds result-size settings.
type SearchConfig struct {
	DefaultTopK    int `yaml:"default_top_k"`
	MaxTopK        int `yaml:"max_top_k"`
	ContextResults int `yaml:"context_results"`
	SuggestedCodes int `yaml:"suggested_codes"`
}

// CacheConfig holds query cache bounds and snapshot settings.
type CacheConfig struct {
	HighWater   int    `yaml:"high_water"`
	LowWater    int    `yaml:"low_water"`
	Driver      string `yaml:"driver"` // none, file, badger, redis, valkey
	Path        string `yaml:"path"`   // directory for file and badger drivers
	Key         string `yaml:"key"`
	IntervalSec int    `yaml:"snapshot_interval_sec"` // 0 = only on shutdown
}

// DatabaseConfig holds redis/valkey connection settings for the snapshot store.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// GenerationConfig holds LLM provider settings.
type GenerationConfig struct {
	DefaultModel string        `yaml:"default_model"`
	TimeoutSec   int           `yaml:"timeout_sec"`
	Temperature  float64       `yaml:"temperature"`
	TopP         float64       `yaml:"top_p"`
	MaxTokens    int           `yaml:"max_tokens"`
	Ollama       OllamaConfig  `yaml:"ollama"`
	OpenAI       OpenAIConfig  `yaml:"openai"`
	Models       []ModelConfig `yaml:"models"` // empty = built-in catalog
}

// OllamaConfig holds local model server settings.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"` // empty disables local models
}

// OpenAIConfig holds cloud API settings.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key"` // empty disables cloud models
	BaseURL      string `yaml:"base_url"`
	SystemPrompt string `yaml:"system_prompt"`
}

// TermLimit converts MaxTerms to the vocabulary cap, where 0 means unlimited.
func (v VectorizerConfig) TermLimit() int {
	if v.MaxTerms < 0 {
		return 0
	}
	return v.MaxTerms
}

// ModelConfig is one generation catalog entry.
type ModelConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"` // ollama, openai
	Power    string `yaml:"power"`
}

// Snapshot drivers.
const (
	DriverNone   = "none"
	DriverFile   = "file"
	DriverBadger = "badger"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 9999
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 180
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Vectorizer.MaxTerms == 0 {
		c.Vectorizer.MaxTerms = 15000
	}
	if c.Vectorizer.MinDocCount <= 0 {
		c.Vectorizer.MinDocCount = 1
	}
	if c.Vectorizer.MaxDocFraction <= 0 {
		c.Vectorizer.MaxDocFraction = 0.95
	}
	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 10
	}
	if c.Search.MaxTopK <= 0 {
		c.Search.MaxTopK = 100
	}
	if c.Search.ContextResults <= 0 {
		c.Search.ContextResults = 6
	}
	if c.Search.SuggestedCodes <= 0 {
		c.Search.SuggestedCodes = 5
	}
	if c.Cache.HighWater <= 0 {
		c.Cache.HighWater = 1000
	}
	if c.Cache.LowWater <= 0 {
		c.Cache.LowWater = 500
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = DriverFile
	}
	if c.Cache.Path == "" {
		c.Cache.Path = filepath.Join(os.TempDir(), "cie10rag")
	}
	if c.Cache.Key == "" {
		c.Cache.Key = "cie10rag:query_cache"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Generation.DefaultModel == "" {
		c.Generation.DefaultModel = "gemma3:4b"
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 120
	}
	if c.Generation.Temperature <= 0 {
		c.Generation.Temperature = 0.1
	}
	if c.Generation.TopP <= 0 {
		c.Generation.TopP = 0.9
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 1000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Corpus.Diagnoses.Path == "" {
		return fmt.Errorf("corpus.diagnoses.path is required")
	}
	for name, src := range map[string]SourceConfig{
		"diagnoses":  c.Corpus.Diagnoses,
		"procedures": c.Corpus.Procedures,
	} {
		switch src.Format {
		case "", "csv", "parquet":
			// ok
		default:
			return fmt.Errorf("corpus.%s.format must be \"csv\" or \"parquet\", got %q", name, src.Format)
		}
	}
	if c.Vectorizer.MaxDocFraction > 1 {
		return fmt.Errorf("vectorizer.max_doc_fraction must be in (0, 1], got %g", c.Vectorizer.MaxDocFraction)
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k (%d) exceeds search.max_top_k (%d)",
			c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	if c.Cache.LowWater > c.Cache.HighWater {
		return fmt.Errorf("cache.low_water (%d) exceeds cache.high_water (%d)",
			c.Cache.LowWater, c.Cache.HighWater)
	}
	switch c.Cache.Driver {
	case DriverNone, DriverFile, DriverBadger:
		// ok
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for cache.driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be one of none, file, badger, redis, valkey, got %q", c.Cache.Driver)
	}
	if c.Cache.IntervalSec < 0 {
		return fmt.Errorf("cache.snapshot_interval_sec must be non-negative, got %d", c.Cache.IntervalSec)
	}
	for i, m := range c.Generation.Models {
		if m.ID == "" {
			return fmt.Errorf("generation.models[%d].id is required", i)
		}
		switch m.Provider {
		case "ollama", "openai":
			// ok
		default:
			return fmt.Errorf("generation.models[%d].provider must be \"ollama\" or \"openai\", got %q", i, m.Provider)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
