package health

import "context"

// StoreReader checks vector store availability.
type StoreReader interface {
	Size() int
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
