package agent

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/category"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
)

type stubPerceiver struct {
	perception domain.Perception
	panicMsg   string
}

func (s *stubPerceiver) Analyze(ctx context.Context, query string, userCtx prefs.Tree) domain.Perception {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.perception
}

type stubRetriever struct {
	recall   domain.Recall
	panicMsg string
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, p domain.Perception, userCtx prefs.Tree) domain.Recall {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.recall
}

type stubPlanner struct {
	plan domain.Plan
}

func (s *stubPlanner) MakeDecision(query string, p domain.Perception, m domain.Recall, userCtx prefs.Tree) domain.Plan {
	return s.plan
}

type stubExecutor struct {
	outcome domain.ActionOutcome
}

func (s *stubExecutor) Execute(query string, plan domain.Plan, recall domain.Recall, userCtx prefs.Tree) domain.ActionOutcome {
	return s.outcome
}

type stubClassifier struct {
	called bool
}

func (s *stubClassifier) Classify(ctx context.Context, results []domain.SearchResult, categories []string, tree prefs.Tree) []domain.SearchResult {
	s.called = true
	out := make([]domain.SearchResult, len(results))
	for i, r := range results {
		r.Category = category.Technology
		r.CategoryLabels = []string{category.Technology}
		r.CategoryConfidences = []float64{0.9}
		out[i] = r
	}
	return out
}

func TestProcess_RunsAllStages(t *testing.T) {
	perceiver := &stubPerceiver{perception: domain.Perception{Intent: domain.IntentSearch}}
	retriever := &stubRetriever{recall: domain.Recall{TotalCount: 2}}
	planner := &stubPlanner{plan: domain.Plan{Actions: []string{domain.ActionSearch}}}
	executor := &stubExecutor{outcome: domain.ActionOutcome{
		Search: &domain.SearchOutcome{Success: true, Count: 2},
	}}
	classify := &stubClassifier{}
	svc := New(perceiver, retriever, planner, executor, classify, zap.NewNop())

	result := svc.Process(context.Background(), "find go talks", prefs.Tree{})

	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.Query != "find go talks" {
		t.Errorf("query = %q", result.Query)
	}
	if result.Perception == nil || result.Perception.Intent != domain.IntentSearch {
		t.Errorf("perception = %+v", result.Perception)
	}
	if result.Memory == nil || result.Memory.TotalCount != 2 {
		t.Errorf("memory = %+v", result.Memory)
	}
	if result.Plan == nil || len(result.Plan.Actions) != 1 {
		t.Errorf("plan = %+v", result.Plan)
	}
	if result.Action == nil || result.Action.Search == nil || !result.Action.Search.Success {
		t.Errorf("action = %+v", result.Action)
	}
	if classify.called {
		t.Error("classifier must not run when the plan skips categorization")
	}
}

func TestProcess_ClassifierOverridesHeuristicTags(t *testing.T) {
	executor := &stubExecutor{outcome: domain.ActionOutcome{
		Search: &domain.SearchOutcome{
			Success: true,
			Results: []domain.SearchResult{{ID: "0", Category: category.Sports}},
			Count:   1,
		},
	}}
	classify := &stubClassifier{}
	svc := New(&stubPerceiver{}, &stubRetriever{},
		&stubPlanner{plan: domain.Plan{Categorization: true}}, executor, classify, zap.NewNop())

	result := svc.Process(context.Background(), "q", prefs.Tree{})

	if !classify.called {
		t.Fatal("classifier should run when the plan enables categorization")
	}
	r := result.Action.Search.Results[0]
	if r.Category != category.Technology {
		t.Errorf("category = %q, want the classifier's %q", r.Category, category.Technology)
	}
	if len(r.CategoryConfidences) != 1 || r.CategoryConfidences[0] != 0.9 {
		t.Errorf("confidences = %v", r.CategoryConfidences)
	}
}

func TestProcess_ClassifierSkippedOnFailedSearch(t *testing.T) {
	executor := &stubExecutor{outcome: domain.ActionOutcome{
		Search: &domain.SearchOutcome{Success: false, Error: "index unavailable"},
	}}
	classify := &stubClassifier{}
	svc := New(&stubPerceiver{}, &stubRetriever{},
		&stubPlanner{plan: domain.Plan{Categorization: true}}, executor, classify, zap.NewNop())

	svc.Process(context.Background(), "q", prefs.Tree{})

	if classify.called {
		t.Error("classifier must not run over a failed search outcome")
	}
}

func TestProcess_FailureKeepsEarlierStageOutputs(t *testing.T) {
	perceiver := &stubPerceiver{perception: domain.Perception{Intent: domain.IntentQuestion}}
	retriever := &stubRetriever{panicMsg: "retrieval blew up"}
	svc := New(perceiver, retriever, &stubPlanner{}, &stubExecutor{}, &stubClassifier{}, zap.NewNop())

	result := svc.Process(context.Background(), "q", prefs.Tree{})

	if !strings.Contains(result.Error, "retrieval blew up") {
		t.Fatalf("error = %q, want the failure message", result.Error)
	}
	if result.Perception == nil || result.Perception.Intent != domain.IntentQuestion {
		t.Errorf("perception = %+v, want it preserved despite the failure", result.Perception)
	}
	if result.Memory != nil || result.Plan != nil || result.Action != nil {
		t.Errorf("later stages = %+v %+v %+v, want nil", result.Memory, result.Plan, result.Action)
	}
}

func TestProcess_FailureInFirstStage(t *testing.T) {
	svc := New(&stubPerceiver{panicMsg: "bad analyzer"}, &stubRetriever{},
		&stubPlanner{}, &stubExecutor{}, &stubClassifier{}, zap.NewNop())

	result := svc.Process(context.Background(), "q", prefs.Tree{})

	if result.Error == "" {
		t.Fatal("expected an error")
	}
	if result.Query != "q" {
		t.Errorf("query = %q, want it always set", result.Query)
	}
	if result.Perception != nil {
		t.Errorf("perception = %+v, want nil", result.Perception)
	}
}
