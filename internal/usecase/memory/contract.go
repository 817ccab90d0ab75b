package memory

import "github.com/kailas-cloud/recall/internal/domain"

// VectorIndex is the long-term side of memory.
type VectorIndex interface {
	Search(query []float32, k int) ([]domain.SearchResult, error)
	Add(embedding []float32, doc domain.Document) (string, error)
}

// RecencyBuffer is the short-term side of memory.
type RecencyBuffer interface {
	Store(content, url, title string, metadata map[string]string)
	Match(query string, limit int) []domain.ShortTermEntry
}
