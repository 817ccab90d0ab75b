package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled indicates an optional component that is not configured.
	CheckDisabled CheckResult = "disabled"
)

// Report aggregates health check results.
type Report struct {
	Status    Status                 `json:"status"`
	IndexSize int                    `json:"index_size"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	store       StoreReader
	embedding   EmbeddingChecker
	chatEnabled bool
}

// New creates a Service. embedding can be nil.
func New(store StoreReader, embedding EmbeddingChecker, chatEnabled bool) *Service {
	return &Service{store: store, embedding: embedding, chatEnabled: chatEnabled}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["index"] = CheckOK
	size := s.store.Size()

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.chatEnabled {
		checks["chat"] = CheckOK
	} else {
		checks["chat"] = CheckDisabled
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, IndexSize: size, Checks: checks}
}
