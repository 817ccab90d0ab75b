package recall

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/category"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
)

type axisEmbedder struct{}

func (axisEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	lower := strings.ToLower(text)
	axis := 2
	switch {
	case strings.Contains(lower, "sport"):
		axis = 0
	case strings.Contains(lower, "tech"):
		axis = 1
	}
	vec := make([]float32, domain.Dimension)
	vec[axis] = 1
	return domain.EmbeddingResult{Embedding: vec}, nil
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(WithEmbedder(axisEmbedder{}), WithDataDir(t.TempDir()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RequiresEmbedder(t *testing.T) {
	if _, err := New(WithDataDir(t.TempDir())); err == nil {
		t.Fatal("expected an error without an embedder")
	}
}

func TestClient_IndexAndSearch(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id, err := c.Index(ctx, "https://example.com/tech", "modern tech stacks in practice", "Tech stacks")
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if id != "0" {
		t.Errorf("id = %q", id)
	}
	if !c.ContainsURL("https://example.com/tech") {
		t.Error("ContainsURL should report the indexed page")
	}

	results, err := c.Search(ctx, "tech tooling")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].URL != "https://example.com/tech" {
		t.Fatalf("results = %+v", results)
	}

	if got := c.Stats(); got.TotalDocuments != 1 || got.Dimension != domain.Dimension {
		t.Errorf("stats = %+v", got)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if c.Stats().TotalDocuments != 0 {
		t.Error("store should be empty after Clear")
	}
}

func TestClient_ProcessExposesStages(t *testing.T) {
	c := newTestClient(t)

	result := c.Process(context.Background(), "anything at all")
	if result.Error != "" {
		t.Fatalf("pipeline error: %s", result.Error)
	}
	if result.Perception == nil || result.Memory == nil || result.Plan == nil || result.Action == nil {
		t.Errorf("result = %+v, want all stage outputs populated", result)
	}
}

func TestClient_RememberFeedsSearchShortTerm(t *testing.T) {
	c := newTestClient(t)

	c.Remember("notes about golang generics", "https://go.dev/blog", "Generics")

	result := c.Process(context.Background(), "golang generics")
	if result.Memory == nil || len(result.Memory.ShortTerm) != 1 {
		t.Fatalf("memory = %+v, want one short-term hit", result.Memory)
	}
}

func TestClient_ChatNotConfigured(t *testing.T) {
	c := newTestClient(t)

	if _, err := c.Chat(context.Background(), "q"); !errors.Is(err, domain.ErrChatNotConfigured) {
		t.Errorf("err = %v, want ErrChatNotConfigured", err)
	}
}

func TestClient_ClassifyAndFeedback(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	got := c.Classify(ctx, "https://example.com/review", "review of the latest tech releases", "Roundup")
	if got.Category != category.Technology {
		t.Errorf("category = %q, want %q", got.Category, category.Technology)
	}

	if err := c.Feedback("https://example.com/recap", "Recap", "championship recap", category.Sports); err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	examples := c.Preferences().FeedbackExamples(category.Sports)
	if len(examples) != 1 || examples[0].URL != "https://example.com/recap" {
		t.Errorf("feedback examples = %+v", examples)
	}
}

func TestClient_UpdatePreferences(t *testing.T) {
	c := newTestClient(t)

	updated, err := c.UpdatePreferences(prefs.Tree{prefs.KeyFavoriteTopics: "sports"})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if updated.String(prefs.KeyFavoriteTopics, "") != "sports" {
		t.Errorf("favorite_topics = %v", updated[prefs.KeyFavoriteTopics])
	}
	if !updated.Bool(prefs.KeySkipConfidential, false) {
		t.Error("defaults must survive the merge")
	}
}
