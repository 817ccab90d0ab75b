package indexing

import "github.com/kailas-cloud/recall/internal/domain"

// VectorIndex is the storage contract for indexed pages.
type VectorIndex interface {
	Add(embedding []float32, doc domain.Document) (string, error)
	Search(query []float32, k int) ([]domain.SearchResult, error)
	Size() int
	ContainsURL(url string) bool
	Clear() error
	Stats() domain.Stats
}
