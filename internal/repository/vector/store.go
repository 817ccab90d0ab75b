// Package vector implements the document vector store: an append-only
// in-memory collection of embeddings and page metadata answering exact
// nearest-neighbor queries, snapshot-persisted to disk on every mutation.
package vector

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/vectormath"
)

// minScore drops results whose similarity converts below this threshold.
const minScore = 0.3

// scoreFromDistance converts a squared L2 distance to a similarity in (0,1].
// Distance 0 maps to 1; the decay keeps dissimilar vectors under minScore.
func scoreFromDistance(d float64) float64 {
	return math.Exp(-d / 3)
}

type record struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Title   string `json:"title,omitempty"`
}

// Store is the flat vector index plus metadata. A single mutex serializes
// mutations; the snapshot files are replaced atomically so a crash mid-write
// never corrupts the previous snapshot.
type Store struct {
	mu        sync.RWMutex
	dim       int
	vectors   [][]float32
	records   []record
	indexPath string
	metaPath  string
	logger    *zap.Logger
}

// New opens (or creates) a store with the given snapshot paths. A readable
// existing snapshot is loaded; an unreadable one is logged and replaced by an
// empty index, matching how the index always came up even with a damaged
// data directory.
func New(indexPath, metaPath string, logger *zap.Logger) *Store {
	s := &Store{
		dim:       domain.Dimension,
		indexPath: indexPath,
		metaPath:  metaPath,
		logger:    logger,
	}

	vectors, records, err := loadSnapshot(indexPath, metaPath, s.dim)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to load vector snapshot, starting empty",
				zap.String("index_path", indexPath), zap.Error(err))
		}
		return s
	}

	s.vectors = vectors
	s.records = records
	logger.Info("Vector store loaded",
		zap.Int("documents", len(records)), zap.Int("dimension", s.dim))
	return s
}

// Add appends the embedding and document, assigns id = current size, and
// snapshot-persists synchronously. When persistence fails the returned error
// is a StorageDriftError: the document is in memory (and the id valid) but
// not on disk.
func (s *Store) Add(embedding []float32, doc domain.Document) (string, error) {
	if len(embedding) != s.dim {
		return "", fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(embedding), s.dim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := strconv.Itoa(len(s.records))
	s.vectors = append(s.vectors, embedding)
	s.records = append(s.records, record{URL: doc.URL, Content: doc.Content, Title: doc.Title})

	if err := s.persistLocked(); err != nil {
		return id, domain.NewStorageDrift("add", err)
	}
	return id, nil
}

// Search computes the squared Euclidean distance from query to every stored
// vector, converts distances to similarity scores, drops low-relevance rows
// and returns at most k results ordered by descending score. An empty store
// returns an empty slice.
func (s *Store) Search(query []float32, k int) ([]domain.SearchResult, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(query), s.dim)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.SearchResult, 0, k)
	for i, vec := range s.vectors {
		score := scoreFromDistance(vectormath.SquaredL2(query, vec))
		if score < minScore {
			continue
		}
		rec := s.records[i]
		results = append(results, domain.SearchResult{
			ID:      strconv.Itoa(i),
			URL:     rec.URL,
			Title:   rec.Title,
			Content: rec.Content,
			Score:   score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Size returns the number of stored documents.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ContainsURL reports whether any stored document has the given URL.
func (s *Store) ContainsURL(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.URL == url {
			return true
		}
	}
	return false
}

// Clear resets the store to an empty index of the same dimension and
// persists the empty snapshot. The id counter resets along with the data:
// ids are only unique within one store generation.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors = nil
	s.records = nil

	if err := s.persistLocked(); err != nil {
		return domain.NewStorageDrift("clear", err)
	}
	s.logger.Info("Vector store cleared")
	return nil
}

// Stats reports document count, dimension and on-disk index size.
func (s *Store) Stats() domain.Stats {
	s.mu.RLock()
	count := len(s.records)
	s.mu.RUnlock()

	var bytes int64
	if fi, err := os.Stat(s.indexPath); err == nil {
		bytes = fi.Size()
	}
	return domain.Stats{TotalDocuments: count, Dimension: s.dim, IndexSizeBytes: bytes}
}

// SnapshotPaths returns the index and metadata file paths (used by the
// export handler).
func (s *Store) SnapshotPaths() (indexPath, metaPath string) {
	return s.indexPath, s.metaPath
}

func (s *Store) persistLocked() error {
	if err := writeIndexFile(s.indexPath, s.dim, s.vectors); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := writeMetaFile(s.metaPath, s.records); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	s.logger.Debug("Vector snapshot written", zap.Int("documents", len(s.records)))
	return nil
}
