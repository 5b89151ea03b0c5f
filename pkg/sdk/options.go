package cie10rag

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	diagnoses  source
	procedures source

	maxTerms       int
	minDocCount    int
	maxDocFraction float64

	cacheHighWater int
	cacheLowWater  int

	generator    Generator
	models       []Model
	defaultModel string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// source is either a file on disk or records passed in memory.
type source struct {
	path              string
	codeColumn        string
	descriptionColumn string
	records           []Record
}

func (s source) empty() bool { return s.path == "" && len(s.records) == 0 }

// WithDiagnosesFile loads the diagnosis catalog from a CSV or parquet file
// with "code" and "description" columns. Required unless WithDiagnoses is used.
func WithDiagnosesFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.diagnoses.path, c.diagnoses.records = path, nil
	})
}

// WithProceduresFile loads the optional procedure catalog from a file.
func WithProceduresFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.procedures.path, c.procedures.records = path, nil
	})
}

// WithColumns overrides the column names of both catalog files.
func WithColumns(code, description string) Option {
	return optionFunc(func(c *clientConfig) {
		c.diagnoses.codeColumn, c.diagnoses.descriptionColumn = code, description
		c.procedures.codeColumn, c.procedures.descriptionColumn = code, description
	})
}

// WithDiagnoses uses in-memory diagnosis records instead of a file.
func WithDiagnoses(records []Record) Option {
	return optionFunc(func(c *clientConfig) {
		c.diagnoses.path, c.diagnoses.records = "", records
	})
}

// WithProcedures uses in-memory procedure records instead of a file.
func WithProcedures(records []Record) Option {
	return optionFunc(func(c *clientConfig) {
		c.procedures.path, c.procedures.records = "", records
	})
}

// WithVocabulary tunes vocabulary fitting.
// Defaults: maxTerms=15000, minDocCount=1, maxDocFraction=0.95.
// A negative maxTerms keeps every term.
func WithVocabulary(maxTerms, minDocCount int, maxDocFraction float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTerms = maxTerms
		c.minDocCount = minDocCount
		c.maxDocFraction = maxDocFraction
	})
}

// WithCache sets the code proposal cache bounds. When the cache grows past
// highWater the oldest entries are dropped down to lowWater.
// Defaults: 1000 and 500.
func WithCache(highWater, lowWater int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheHighWater = highWater
		c.cacheLowWater = lowWater
	})
}

// WithGenerator enables Code. Every catalog model is served by g.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithModels replaces the built-in model catalog. defaultModel is used when
// a request names no model or an unknown one; empty keeps gemma3:4b.
func WithModels(defaultModel string, models ...Model) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultModel = defaultModel
		c.models = models
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
