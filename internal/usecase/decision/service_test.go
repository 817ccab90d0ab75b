package decision

import (
	"math"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/category"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
)

func TestMakeDecision_DefaultActions(t *testing.T) {
	svc := New(zap.NewNop())

	plan := svc.MakeDecision("q", domain.Perception{}, domain.Recall{}, prefs.Tree{})

	want := []string{domain.ActionSearch, domain.ActionHighlight, domain.ActionFavoriteEnabled}
	if !reflect.DeepEqual(plan.Actions, want) {
		t.Errorf("actions = %v, want %v", plan.Actions, want)
	}
	if plan.Categorization {
		t.Error("categorization should be off by default")
	}
	if !plan.Filtering.SkipConfidentialSites {
		t.Error("skip_confidential should default to true")
	}
	if plan.Filtering.MinRelevanceScore != minRelevanceScore {
		t.Errorf("min relevance = %v, want %v", plan.Filtering.MinRelevanceScore, minRelevanceScore)
	}
	if plan.Scoring.UserPreferencesWeight != userPreferencesWeight {
		t.Errorf("preferences weight = %v, want %v", plan.Scoring.UserPreferencesWeight, userPreferencesWeight)
	}
}

func TestMakeDecision_PreferenceToggles(t *testing.T) {
	svc := New(zap.NewNop())
	tree := prefs.Tree{
		prefs.KeyHighlightTerms:    false,
		prefs.KeyCategorizeResults: true,
		prefs.KeySkipConfidential:  false,
		prefs.KeyCategories:        []any{"Technology", "Sports"},
	}

	plan := svc.MakeDecision("q", domain.Perception{}, domain.Recall{}, tree)

	want := []string{domain.ActionSearch, domain.ActionCategorize, domain.ActionFavoriteEnabled}
	if !reflect.DeepEqual(plan.Actions, want) {
		t.Errorf("actions = %v, want %v", plan.Actions, want)
	}
	if !plan.Categorization {
		t.Error("categorization should follow the preference")
	}
	if plan.Filtering.SkipConfidentialSites || plan.Scoring.PenalizeConfidential {
		t.Error("confidential handling should follow skip_confidential=false")
	}
	if got := plan.Filtering.Categories; !reflect.DeepEqual(got, []string{"Technology", "Sports"}) {
		t.Errorf("category restriction = %v", got)
	}
}

func TestMakeDecision_Priorities(t *testing.T) {
	svc := New(zap.NewNop())
	tree := prefs.Tree{prefs.KeyCategorizeResults: true}

	plan := svc.MakeDecision("q", domain.Perception{}, domain.Recall{}, tree)

	for action, want := range map[string]int{
		domain.ActionSearch:     1,
		domain.ActionHighlight:  2,
		domain.ActionCategorize: 3,
	} {
		if plan.Priority[action] != want {
			t.Errorf("priority[%s] = %d, want %d", action, plan.Priority[action], want)
		}
	}
	// favorite_enabled sits last in the list and takes its position rank.
	if plan.Priority[domain.ActionFavoriteEnabled] != len(plan.Actions) {
		t.Errorf("priority[favorite_enabled] = %d, want %d",
			plan.Priority[domain.ActionFavoriteEnabled], len(plan.Actions))
	}
}

func TestCategorizeContent(t *testing.T) {
	svc := New(zap.NewNop())

	got := svc.CategorizeContent("Go 1.24 released", "compiler and runtime improvements for software teams", "", prefs.Tree{})
	if got.PrimaryCategory != category.Technology {
		t.Fatalf("category = %q, want %q", got.PrimaryCategory, category.Technology)
	}
	if got.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8 for a keyword match", got.Confidence)
	}
	if !reflect.DeepEqual(got.Categories, []string{category.Technology}) {
		t.Errorf("categories = %v", got.Categories)
	}
}

func TestCategorizeContent_FallbackOthers(t *testing.T) {
	svc := New(zap.NewNop())

	got := svc.CategorizeContent("untitled", "nothing of note", "", prefs.Tree{})
	if got.PrimaryCategory != category.Others {
		t.Fatalf("category = %q, want %q", got.PrimaryCategory, category.Others)
	}
	if got.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5 for the fallback", got.Confidence)
	}
}

func TestScoreResult(t *testing.T) {
	svc := New(zap.NewNop())
	tree := prefs.Tree{prefs.KeyFavoriteTopics: "cooking, technology"}

	tests := []struct {
		name   string
		result domain.SearchResult
		tree   prefs.Tree
		want   float64
	}{
		{
			name:   "favorite topic boost",
			result: domain.SearchResult{Content: "New technology stack", Score: 0.5},
			tree:   tree,
			want:   0.6,
		},
		{
			name:   "no matching topic",
			result: domain.SearchResult{Content: "Football scores", Score: 0.5},
			tree:   tree,
			want:   0.5,
		},
		{
			name:   "boost clips at one",
			result: domain.SearchResult{Content: "technology overview", Score: 0.95},
			tree:   tree,
			want:   1.0,
		},
		{
			name:   "confidential halved",
			result: domain.SearchResult{URL: "https://mybank.com", Content: "statement", Score: 0.8},
			tree:   prefs.Tree{},
			want:   0.4,
		},
		{
			name:   "confidential kept when skip disabled",
			result: domain.SearchResult{URL: "https://mybank.com", Content: "statement", Score: 0.8},
			tree:   prefs.Tree{prefs.KeySkipConfidential: false},
			want:   0.8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.ScoreResult(tt.result, "q", tt.tree)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ScoreResult = %v, want %v", got, tt.want)
			}
		})
	}
}
