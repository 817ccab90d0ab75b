package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 7,
		TotalTokens:  7,
	}, nil
}

func TestCachedEmbedder_HitSkipsInner(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := New(inner, 100, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first, err := c.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("first Embed failed: %v", err)
	}
	if first.TotalTokens != 7 {
		t.Errorf("miss TotalTokens = %d, want 7", first.TotalTokens)
	}

	// ristretto applies Set asynchronously
	c.cache.Wait()

	second, err := c.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("second Embed failed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1 (cache hit)", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit TotalTokens = %d, want 0", second.TotalTokens)
	}
	if len(second.Embedding) != 3 {
		t.Errorf("hit embedding length = %d", len(second.Embedding))
	}
}

func TestCachedEmbedder_DistinctTexts(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := New(inner, 100, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	_, _ = c.Embed(context.Background(), "first")
	c.cache.Wait()
	_, _ = c.Embed(context.Background(), "second")

	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2 for distinct texts", inner.calls)
	}
}

func TestCachedEmbedder_ErrorNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("provider down")}
	c, err := New(inner, 100, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error from inner embedder")
	}
	c.cache.Wait()

	inner.err = nil
	result, err := c.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, failed result must not be cached", inner.calls)
	}
	if result.TotalTokens != 7 {
		t.Errorf("retry TotalTokens = %d, want fresh result", result.TotalTokens)
	}
}
