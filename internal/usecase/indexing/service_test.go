package indexing

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
)

type fakeIndex struct {
	docs     []domain.Document
	results  []domain.SearchResult
	gotK     int
	cleared  bool
	contains bool
}

func (f *fakeIndex) Add(embedding []float32, doc domain.Document) (string, error) {
	f.docs = append(f.docs, doc)
	return "0", nil
}

func (f *fakeIndex) Search(query []float32, k int) ([]domain.SearchResult, error) {
	f.gotK = k
	return f.results, nil
}

func (f *fakeIndex) Size() int               { return len(f.docs) }
func (f *fakeIndex) ContainsURL(string) bool { return f.contains }
func (f *fakeIndex) Clear() error            { f.cleared = true; return nil }
func (f *fakeIndex) Stats() domain.Stats {
	return domain.Stats{TotalDocuments: len(f.docs), Dimension: domain.Dimension}
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vec}, nil
}

func TestIndex(t *testing.T) {
	index := &fakeIndex{}
	svc := New(index, &stubEmbedder{vec: []float32{1, 2}}, zap.NewNop())

	id, err := svc.Index(context.Background(), "https://go.dev", "the go programming language", "Go")
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if id != "0" {
		t.Errorf("id = %q", id)
	}
	if len(index.docs) != 1 || index.docs[0].URL != "https://go.dev" || index.docs[0].Title != "Go" {
		t.Errorf("stored doc = %+v", index.docs)
	}
}

func TestIndex_Validation(t *testing.T) {
	svc := New(&fakeIndex{}, &stubEmbedder{}, zap.NewNop())

	if _, err := svc.Index(context.Background(), "", "content", ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing url: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Index(context.Background(), "https://go.dev", "", ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing content: err = %v, want ErrValidation", err)
	}
}

func TestIndex_EmbedderError(t *testing.T) {
	embedErr := errors.New("provider down")
	svc := New(&fakeIndex{}, &stubEmbedder{err: embedErr}, zap.NewNop())

	if _, err := svc.Index(context.Background(), "https://go.dev", "content", ""); !errors.Is(err, embedErr) {
		t.Errorf("err = %v, want wrapped embedder error", err)
	}
}

func TestSearch(t *testing.T) {
	index := &fakeIndex{results: []domain.SearchResult{{ID: "0", Score: 0.9}}}
	svc := New(index, &stubEmbedder{vec: []float32{1}}, zap.NewNop())

	results, err := svc.Search(context.Background(), "go talks", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || index.gotK != 2 {
		t.Errorf("results = %v, k = %d", results, index.gotK)
	}
}

func TestSearch_DefaultK(t *testing.T) {
	index := &fakeIndex{}
	svc := New(index, &stubEmbedder{vec: []float32{1}}, zap.NewNop())

	if _, err := svc.Search(context.Background(), "q", 0); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if index.gotK != DefaultRawSearchK {
		t.Errorf("k = %d, want default %d", index.gotK, DefaultRawSearchK)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := New(&fakeIndex{}, &stubEmbedder{}, zap.NewNop())

	if _, err := svc.Search(context.Background(), "", 5); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestEmbed(t *testing.T) {
	svc := New(&fakeIndex{}, &stubEmbedder{vec: []float32{0.1, 0.2}}, zap.NewNop())

	vec, err := svc.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("vec = %v", vec)
	}

	if _, err := svc.Embed(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty text: err = %v, want ErrValidation", err)
	}
}

func TestMaintenance(t *testing.T) {
	index := &fakeIndex{contains: true}
	svc := New(index, &stubEmbedder{}, zap.NewNop())

	if !svc.ContainsURL("https://go.dev") {
		t.Error("ContainsURL should delegate to the store")
	}
	if err := svc.Clear(); err != nil || !index.cleared {
		t.Errorf("Clear: err=%v cleared=%v", err, index.cleared)
	}
	if got := svc.Stats(); got.Dimension != domain.Dimension {
		t.Errorf("stats = %+v", got)
	}
}
