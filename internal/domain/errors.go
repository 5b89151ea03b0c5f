package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCorpus signals a corpus with no indexable documents after filtering.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrInvalidQuery signals a malformed search or coding request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnknownModel signals a model that is not in the generation catalog.
	ErrUnknownModel = errors.New("unknown model")
	// ErrGenerationFailed signals a text-generation provider failure.
	ErrGenerationFailed = errors.New("generation provider error")
	// ErrInvalidVocabulary signals bad vocabulary fitting parameters or an empty fit.
	ErrInvalidVocabulary = errors.New("invalid vocabulary")
	// ErrInvalidConfig signals a configuration that fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)

// CorpusError reports which corpus failed to build.
type CorpusError struct {
	Corpus string
	Err    error
}

func (e *CorpusError) Error() string {
	return fmt.Sprintf("corpus %s: %s", e.Corpus, e.Err.Error())
}

func (e *CorpusError) Unwrap() error { return e.Err }

// NewCorpusError wraps err with the corpus name.
func NewCorpusError(corpus string, err error) error {
	return &CorpusError{Corpus: corpus, Err: err}
}
