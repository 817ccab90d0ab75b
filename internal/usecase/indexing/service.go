// Package indexing covers the inbound document operations: indexing a
// visited page, raw similarity search, dedup checks and store maintenance.
package indexing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
)

// DefaultRawSearchK is the result cap for raw (non-pipeline) search.
const DefaultRawSearchK = 5

// Service handles document ingestion and direct index queries.
type Service struct {
	index  VectorIndex
	embed  domain.Embedder
	logger *zap.Logger
}

// New creates an indexing service.
func New(index VectorIndex, embed domain.Embedder, logger *zap.Logger) *Service {
	return &Service{index: index, embed: embed, logger: logger}
}

// Index embeds the page content and appends it to the vector store,
// returning the assigned document id.
func (s *Service) Index(ctx context.Context, url, content, title string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: url is required", domain.ErrValidation)
	}
	if content == "" {
		return "", fmt.Errorf("%w: content is required", domain.ErrValidation)
	}

	res, err := s.embed.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("embed content: %w", err)
	}

	id, err := s.index.Add(res.Embedding, domain.Document{URL: url, Title: title, Content: content})
	if err != nil {
		return id, err
	}

	s.logger.Info("Page indexed", zap.String("doc_id", id), zap.String("url", url))
	return id, nil
}

// Search embeds the query and runs an exact nearest-neighbor search,
// bypassing the agent pipeline.
func (s *Service) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if k <= 0 {
		k = DefaultRawSearchK
	}

	res, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.index.Search(res.Embedding, k)
}

// Embed exposes the raw embedding of a text (the /embed debugging surface).
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrValidation)
	}
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return res.Embedding, nil
}

// ContainsURL reports whether the page was already indexed.
func (s *Service) ContainsURL(url string) bool {
	return s.index.ContainsURL(url)
}

// Stats reports the store size and layout.
func (s *Service) Stats() domain.Stats {
	return s.index.Stats()
}

// Clear drops all indexed data, resetting document ids along with it.
func (s *Service) Clear() error {
	return s.index.Clear()
}
