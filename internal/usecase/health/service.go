package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentCatalog    = "catalog"
	ComponentStore      = "snapshot_store"
	ComponentGeneration = "generation"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	documents  int
	store      StorePinger
	generation GenerationChecker
}

// New creates a Service. documents is the number of indexed diagnoses;
// store and generation can be nil.
func New(documents int, store StorePinger, generation GenerationChecker) *Service {
	return &Service{documents: documents, store: store, generation: generation}
}

// Check runs health checks against all components. An empty catalog makes
// the service unhealthy; any other failure only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.documents > 0 {
		checks[ComponentCatalog] = CheckOK
	} else {
		checks[ComponentCatalog] = CheckError
	}

	if s.store != nil {
		checks[ComponentStore] = result(s.store.Ping(ctx))
	}
	if s.generation != nil {
		checks[ComponentGeneration] = result(s.generation.HealthCheck(ctx))
	}

	if checks[ComponentCatalog] == CheckError {
		return Report{Status: Unhealthy, Checks: checks}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
