// Package perception derives intent, a heuristic category guess, keyword
// tokens, an embedding and a relevance estimate from the raw query text.
package perception

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/category"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
)

var questionWords = []string{"what", "who", "where", "when", "why", "how"}

var actionVerbs = []string{"find", "show", "get", "download", "search"}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true,
}

// Service is the perception stage.
type Service struct {
	embed  domain.Embedder
	logger *zap.Logger
}

// New creates the perception stage.
func New(embed domain.Embedder, logger *zap.Logger) *Service {
	return &Service{embed: embed, logger: logger}
}

// Analyze never fails hard: when the embedding call errors the result
// degrades to unknown intent, a naive keyword split and a neutral relevance
// score, with the error noted on the result.
func (s *Service) Analyze(ctx context.Context, query string, userCtx prefs.Tree) domain.Perception {
	res, err := s.embed.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("Perception analysis degraded", zap.String("query", query), zap.Error(err))
		return domain.Perception{
			Query:          query,
			Intent:         domain.IntentUnknown,
			Category:       category.Others,
			Keywords:       strings.Fields(query),
			RelevanceScore: 0.5,
			Error:          err.Error(),
		}
	}

	cat := category.Detect(query)
	p := domain.Perception{
		Query:          query,
		Intent:         determineIntent(query),
		Category:       cat,
		Keywords:       extractKeywords(query),
		RelevanceScore: relevance(query, cat, userCtx),
		Embedding:      res.Embedding,
	}

	s.logger.Debug("Perception analysis complete",
		zap.String("intent", p.Intent),
		zap.String("category", p.Category),
		zap.Float64("relevance", p.RelevanceScore))
	return p
}

func determineIntent(query string) string {
	lower := strings.ToLower(query)
	for _, w := range questionWords {
		if strings.Contains(lower, w) {
			if strings.Contains(query, "?") {
				return domain.IntentQuestion
			}
			return domain.IntentSearch
		}
	}
	for _, v := range actionVerbs {
		if strings.Contains(lower, v) {
			return domain.IntentSearch
		}
	}
	return domain.IntentSearch
}

func extractKeywords(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if !stopWords[w] && len(w) > 2 {
			keywords = append(keywords, w)
		}
	}
	if len(keywords) == 0 {
		return strings.Fields(query)
	}
	return keywords
}

// relevance starts at 0.7, adds 0.2 when the detected category appears in
// the user's favorite topics and 0.1 for queries of three or more tokens,
// clipped to 1.0.
func relevance(query, cat string, userCtx prefs.Tree) float64 {
	score := 0.7
	topics := strings.ToLower(userCtx.String(prefs.KeyFavoriteTopics, ""))
	if topics != "" && strings.Contains(topics, strings.ToLower(cat)) {
		score += 0.2
	}
	if len(strings.Fields(query)) >= 3 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
