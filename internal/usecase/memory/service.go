// Package memory retrieves long-term candidates from the vector index and
// short-term candidates from the recency buffer.
package memory

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/category"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
)

// Defaults for retrieval bounds.
const (
	DefaultSearchK        = 10
	DefaultShortTermLimit = 5
)

// Service is the memory stage.
type Service struct {
	index          VectorIndex
	buffer         RecencyBuffer
	embed          domain.Embedder
	searchK        int
	shortTermLimit int
	logger         *zap.Logger
}

// New creates the memory stage. Non-positive bounds fall back to defaults.
func New(index VectorIndex, buffer RecencyBuffer, embed domain.Embedder, searchK, shortTermLimit int, logger *zap.Logger) *Service {
	if searchK <= 0 {
		searchK = DefaultSearchK
	}
	if shortTermLimit <= 0 {
		shortTermLimit = DefaultShortTermLimit
	}
	return &Service{
		index:          index,
		buffer:         buffer,
		embed:          embed,
		searchK:        searchK,
		shortTermLimit: shortTermLimit,
		logger:         logger,
	}
}

// Retrieve gathers candidates from both memories. Retrieval failures degrade
// to empty lists rather than failing the pipeline; only the skip-confidential
// preference is applied here; category filtering stays in the action stage
// because categories are not assigned yet.
func (s *Service) Retrieve(ctx context.Context, query string, p domain.Perception, userCtx prefs.Tree) domain.Recall {
	longTerm := s.retrieveLongTerm(ctx, query, p, userCtx)
	shortTerm := s.buffer.Match(query, s.shortTermLimit)

	recall := domain.Recall{
		LongTerm:   longTerm,
		ShortTerm:  shortTerm,
		TotalCount: len(longTerm) + len(shortTerm),
	}
	s.logger.Debug("Memories retrieved",
		zap.Int("long_term", len(longTerm)),
		zap.Int("short_term", len(shortTerm)))
	return recall
}

func (s *Service) retrieveLongTerm(ctx context.Context, query string, p domain.Perception, userCtx prefs.Tree) []domain.SearchResult {
	embedding := p.Embedding
	if embedding == nil {
		res, err := s.embed.Embed(ctx, query)
		if err != nil {
			s.logger.Warn("Long-term retrieval skipped: embedding failed", zap.Error(err))
			return nil
		}
		embedding = res.Embedding
	}

	results, err := s.index.Search(embedding, s.searchK)
	if err != nil {
		s.logger.Warn("Long-term retrieval failed", zap.Error(err))
		return nil
	}

	if !userCtx.Bool(prefs.KeySkipConfidential, true) {
		return results
	}
	kept := results[:0]
	for _, r := range results {
		if category.IsConfidentialURL(r.URL) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// StoreLongTerm embeds the document content and appends it to the vector
// index.
func (s *Service) StoreLongTerm(ctx context.Context, doc domain.Document) (string, error) {
	res, err := s.embed.Embed(ctx, doc.Content)
	if err != nil {
		return "", err
	}
	return s.index.Add(res.Embedding, doc)
}

// StoreShortTerm prepends an entry to the recency buffer.
func (s *Service) StoreShortTerm(content, url, title string, metadata map[string]string) {
	s.buffer.Store(content, url, title, metadata)
}
