// Package chat answers free-text questions grounded in the indexed pages.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
)

// contextK is how many retrieved pages ground one answer.
const contextK = 3

// Retriever runs a raw similarity search for grounding context.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}

// Service generates answers with the configured chat provider. The provider
// is optional: without one every Respond call fails with
// domain.ErrChatNotConfigured and the rest of the system is unaffected.
type Service struct {
	chatter   domain.Chatter
	retriever Retriever
	logger    *zap.Logger
}

// New creates a chat service. chatter may be nil.
func New(chatter domain.Chatter, retriever Retriever, logger *zap.Logger) *Service {
	return &Service{chatter: chatter, retriever: retriever, logger: logger}
}

// Enabled reports whether a chat provider is configured.
func (s *Service) Enabled() bool { return s.chatter != nil }

// Respond retrieves grounding context for the query and asks the provider
// for an answer.
func (s *Service) Respond(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if s.chatter == nil {
		return "", domain.ErrChatNotConfigured
	}

	results, err := s.retriever.Search(ctx, query, contextK)
	if err != nil {
		// Degrade to an ungrounded answer rather than failing the request.
		s.logger.Warn("Chat context retrieval failed", zap.Error(err))
		results = nil
	}

	contents := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Content)
	}

	answer, err := s.chatter.Respond(ctx, query, strings.Join(contents, "\n"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrChatProviderError, err)
	}
	return answer, nil
}
