// Package action executes a decision plan against retrieved candidates:
// filtering, score adjustment, category tagging and final ranking.
package action

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/category"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
)

// categoryDemotion multiplies the score of results outside the user's
// category restriction instead of dropping them.
const categoryDemotion = 0.3

// Service is the action stage.
type Service struct {
	logger *zap.Logger
}

// New creates the action stage.
func New(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// Execute runs the plan's actions in order. A failure inside the search
// action surfaces as an unsuccessful search outcome without affecting the
// other actions.
func (s *Service) Execute(query string, plan domain.Plan, recall domain.Recall, userCtx prefs.Tree) domain.ActionOutcome {
	var out domain.ActionOutcome
	for _, act := range plan.Actions {
		switch act {
		case domain.ActionSearch:
			out.Search = s.executeSearch(plan, recall)
		case domain.ActionHighlight:
			out.Highlight = &domain.HighlightOutcome{Enabled: true, Query: query}
		case domain.ActionCategorize:
			out.Categorize = &domain.CategorizeOutcome{Enabled: plan.Categorization}
		case domain.ActionFavoriteEnabled:
			out.FavoriteEnabled = true
		}
	}
	return out
}

func (s *Service) executeSearch(plan domain.Plan, recall domain.Recall) (outcome *domain.SearchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Search action failed", zap.Any("panic", r))
			outcome = &domain.SearchOutcome{Success: false, Error: fmt.Sprint(r)}
		}
	}()

	results := s.applyRules(recall.LongTerm, plan.Filtering)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return &domain.SearchOutcome{Success: true, Results: results, Count: len(results)}
}

// applyRules applies the filtering rules, then tags survivors with their
// heuristic category: confidential URLs are dropped outright, results
// outside the category restriction are demoted (not dropped) and marked,
// and anything below the relevance floor after adjustment is removed.
// The restriction compares whatever category a candidate already carries
// (Others when untagged); retrieval candidates arrive untagged, so an
// active restriction demotes them all.
func (s *Service) applyRules(candidates []domain.SearchResult, rules domain.FilteringRules) []domain.SearchResult {
	restrict := make(map[string]bool, len(rules.Categories))
	for _, name := range rules.Categories {
		restrict[name] = true
	}

	results := make([]domain.SearchResult, 0, len(candidates))
	for _, r := range candidates {
		if rules.SkipConfidentialSites && category.IsConfidentialURL(r.URL) {
			continue
		}

		r.OriginalScore = r.Score

		if len(restrict) > 0 {
			name := r.Category
			if name == "" {
				name = category.Others
			}
			if !restrict[name] {
				r.Score *= categoryDemotion
				r.RelevanceReduced = true
			}
		}

		if r.Score < rules.MinRelevanceScore {
			continue
		}

		if r.Category == "" {
			r.Category = category.DetectWithURL(r.Title+" "+r.Content, r.URL)
		}
		results = append(results, r)
	}
	return results
}
