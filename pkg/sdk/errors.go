package cie10rag

import "github.com/kailas-cloud/cie10rag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyCorpus       = domain.ErrEmptyCorpus
	ErrInvalidQuery      = domain.ErrInvalidQuery
	ErrUnknownModel      = domain.ErrUnknownModel
	ErrGenerationFailed  = domain.ErrGenerationFailed
	ErrInvalidVocabulary = domain.ErrInvalidVocabulary
)
