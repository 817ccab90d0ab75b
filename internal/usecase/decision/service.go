// Package decision turns preferences, perception and retrieved memories
// into an action plan: which actions to run, scoring weights, filtering
// rules and action priorities.
package decision

import (
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/category"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
)

// userPreferencesWeight is the fixed weight the scoring config assigns to
// preference-driven adjustments.
const userPreferencesWeight = 0.3

// minRelevanceScore is the post-adjustment floor under which the action
// stage drops a result.
const minRelevanceScore = 0.3

// Service is the decision stage.
type Service struct {
	logger *zap.Logger
}

// New creates the decision stage.
func New(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// MakeDecision assembles the plan. The action list has a fixed order and
// does not depend on perception or memory contents: search always runs,
// highlight and categorize follow their preference toggles, and
// favorite_enabled is always appended last.
func (s *Service) MakeDecision(query string, p domain.Perception, m domain.Recall, userCtx prefs.Tree) domain.Plan {
	actions := []string{domain.ActionSearch}
	if userCtx.Bool(prefs.KeyHighlightTerms, true) {
		actions = append(actions, domain.ActionHighlight)
	}
	categorize := userCtx.Bool(prefs.KeyCategorizeResults, false)
	if categorize {
		actions = append(actions, domain.ActionCategorize)
	}
	actions = append(actions, domain.ActionFavoriteEnabled)

	skipConfidential := userCtx.Bool(prefs.KeySkipConfidential, true)

	plan := domain.Plan{
		Actions:        actions,
		Categorization: categorize,
		Scoring: domain.ScoringConfig{
			BoostMatchingCategories: true,
			PenalizeConfidential:    skipConfidential,
			UserPreferencesWeight:   userPreferencesWeight,
		},
		Filtering: domain.FilteringRules{
			SkipConfidentialSites: skipConfidential,
			Categories:            userCtx.Categories(),
			MinRelevanceScore:     minRelevanceScore,
		},
		Priority: priorities(actions),
	}

	s.logger.Debug("Decision made", zap.Strings("actions", plan.Actions))
	return plan
}

// priorities gives search, highlight and categorize their fixed ranks; any
// other action is ranked by its list position plus one.
func priorities(actions []string) map[string]int {
	out := make(map[string]int, len(actions))
	for i, action := range actions {
		switch action {
		case domain.ActionSearch:
			out[action] = 1
		case domain.ActionHighlight:
			out[action] = 2
		case domain.ActionCategorize:
			out[action] = 3
		default:
			out[action] = i + 1
		}
	}
	return out
}

// CategorizeContent is the one-shot keyword categorization: a single table
// lookup over title, content and URL. A match carries the fixed 0.8
// confidence; content matching nothing degrades to Others at 0.5. The
// prototype classifier is authoritative when both run.
func (s *Service) CategorizeContent(title, content, url string, userCtx prefs.Tree) domain.Categorization {
	text := strings.ToLower(title + " " + content)
	name := category.DetectWithURL(text, url)
	confidence := 0.8
	if name == category.Others {
		confidence = 0.5
	}
	return domain.Categorization{
		Categories:      []string{name},
		PrimaryCategory: name,
		Confidence:      confidence,
	}
}

// ScoreResult adjusts a retrieval score by user preference: +0.1 when any
// comma-separated favorite topic appears in the content, halved for
// confidential URLs when the user skips those, clipped to 1.0.
func (s *Service) ScoreResult(result domain.SearchResult, query string, userCtx prefs.Tree) float64 {
	score := result.Score

	content := strings.ToLower(result.Content)
	topics := userCtx.String(prefs.KeyFavoriteTopics, "")
	for _, topic := range strings.Split(topics, ",") {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if topic != "" && strings.Contains(content, topic) {
			score += 0.1
			break
		}
	}

	if userCtx.Bool(prefs.KeySkipConfidential, true) && category.IsConfidentialURL(result.URL) {
		score *= 0.5
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
