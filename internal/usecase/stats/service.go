// Package stats reports runtime statistics of the retrieval service.
package stats

import (
	"github.com/kailas-cloud/cie10rag/internal/repository/querycache"
	"github.com/kailas-cloud/cie10rag/internal/usecase/catalog"
	"github.com/kailas-cloud/cie10rag/internal/version"
)

// Features advertised by the service.
var Features = []string{
	"query_cache",
	"model_specific_prompts",
	"dynamic_thresholds",
	"procedure_search",
}

// CacheStatter exposes query cache counters.
type CacheStatter interface {
	Stats() querycache.Stats
}

// CatalogStatter exposes catalog sizes.
type CatalogStatter interface {
	Stats() catalog.Stats
}

// Report is a point-in-time view of cache and catalog state.
type Report struct {
	Cache    querycache.Stats
	HitRate  float64
	Catalog  catalog.Stats
	Version  version.Info
	Features []string
}

// Service assembles Reports.
type Service struct {
	cache   CacheStatter
	catalog CatalogStatter
}

// New creates a Service. cache can be nil when caching is disabled.
func New(cache CacheStatter, cat CatalogStatter) *Service {
	return &Service{cache: cache, catalog: cat}
}

// Report collects current statistics.
func (s *Service) Report() Report {
	r := Report{
		Catalog:  s.catalog.Stats(),
		Version:  version.Get(),
		Features: Features,
	}
	if s.cache != nil {
		r.Cache = s.cache.Stats()
		r.HitRate = r.Cache.HitRate()
	}
	return r
}
