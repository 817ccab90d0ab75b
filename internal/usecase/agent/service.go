// Package agent sequences the four pipeline stages (perception, memory,
// decision, action) for one query and assembles the combined result.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
	"github.com/kailas-cloud/recall/internal/usecase/classifier"
)

// Perceiver is the perception stage contract.
type Perceiver interface {
	Analyze(ctx context.Context, query string, userCtx prefs.Tree) domain.Perception
}

// Retriever is the memory stage contract.
type Retriever interface {
	Retrieve(ctx context.Context, query string, p domain.Perception, userCtx prefs.Tree) domain.Recall
}

// Planner is the decision stage contract.
type Planner interface {
	MakeDecision(query string, p domain.Perception, m domain.Recall, userCtx prefs.Tree) domain.Plan
}

// Executor is the action stage contract.
type Executor interface {
	Execute(query string, plan domain.Plan, recall domain.Recall, userCtx prefs.Tree) domain.ActionOutcome
}

// Classifier annotates search results with prototype-based categories.
type Classifier interface {
	Classify(ctx context.Context, results []domain.SearchResult, categories []string, tree prefs.Tree) []domain.SearchResult
}

// Service is the orchestrator: a fixed, stateless, sequential four-stage
// computation per request. No retries between stages, no branching back.
type Service struct {
	perception Perceiver
	memory     Retriever
	decision   Planner
	action     Executor
	classify   Classifier
	logger     *zap.Logger
}

// New creates the orchestrator.
func New(p Perceiver, m Retriever, d Planner, a Executor, c Classifier, logger *zap.Logger) *Service {
	return &Service{perception: p, memory: m, decision: d, action: a, classify: c, logger: logger}
}

// Process runs one query through the pipeline. A failure anywhere inside the
// sequence aborts the request; stage outputs computed before the failure are
// kept on the result so callers do not lose diagnostic context.
func (s *Service) Process(ctx context.Context, query string, userCtx prefs.Tree) (result domain.AgentResult) {
	result = domain.AgentResult{Query: query}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Pipeline failed", zap.String("query", query), zap.Any("panic", r))
			result.Error = fmt.Sprint(r)
		}
	}()

	p := s.perception.Analyze(ctx, query, userCtx)
	result.Perception = &p

	recall := s.memory.Retrieve(ctx, query, p, userCtx)
	result.Memory = &recall

	plan := s.decision.MakeDecision(query, p, recall, userCtx)
	result.Plan = &plan

	outcome := s.action.Execute(query, plan, recall, userCtx)

	// When the plan asked for categorization, the prototype classifier runs
	// over the executed search results and its assignment is authoritative:
	// it overwrites the action stage's heuristic keyword tags.
	if plan.Categorization && outcome.Search != nil && outcome.Search.Success {
		outcome.Search.Results = s.classify.Classify(
			ctx, outcome.Search.Results, classifier.CategorySet(userCtx), userCtx,
		)
	}
	result.Action = &outcome

	s.logger.Debug("Pipeline complete", zap.String("query", query))
	return result
}
