// Package recall embeds the personal search assistant: a persisted vector
// index over visited pages, a preference-aware retrieval pipeline and a
// prototype-based page classifier, usable without the HTTP server.
package recall

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
	prefsrepo "github.com/kailas-cloud/recall/internal/repository/preferences"
	"github.com/kailas-cloud/recall/internal/repository/shortterm"
	vectorrepo "github.com/kailas-cloud/recall/internal/repository/vector"
	actionuc "github.com/kailas-cloud/recall/internal/usecase/action"
	agentuc "github.com/kailas-cloud/recall/internal/usecase/agent"
	chatuc "github.com/kailas-cloud/recall/internal/usecase/chat"
	classifieruc "github.com/kailas-cloud/recall/internal/usecase/classifier"
	decisionuc "github.com/kailas-cloud/recall/internal/usecase/decision"
	indexinguc "github.com/kailas-cloud/recall/internal/usecase/indexing"
	memoryuc "github.com/kailas-cloud/recall/internal/usecase/memory"
	perceptionuc "github.com/kailas-cloud/recall/internal/usecase/perception"
)

// Result is one search hit.
type Result = domain.SearchResult

// PipelineResult is the full output of one agent run.
type PipelineResult = domain.AgentResult

// Stats describes the index.
type Stats = domain.Stats

// Client is the embedded recall engine.
type Client struct {
	indexing   *indexinguc.Service
	agent      *agentuc.Service
	chat       *chatuc.Service
	classifier *classifieruc.Service
	prefStore  *prefsrepo.Store
	recency    *shortterm.Buffer
}

// New creates an embedded client. An embedder is required; everything else
// has defaults.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dataDir:             "data",
		shortTermCapacity:   shortterm.DefaultCapacity,
		shortTermTTLSec:     int(shortterm.DefaultTTL / time.Second),
		searchK:             10,
		shortTermLimit:      5,
		classifierTopK:      2,
		classifierThreshold: 0.18,
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.embedder == nil {
		return nil, errors.New("recall: embedder required (use WithEmbedder)")
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	vectorStore := vectorrepo.New(
		filepath.Join(cfg.dataDir, "index.bin"),
		filepath.Join(cfg.dataDir, "metadata.json"),
		logger,
	)
	prefStore := prefsrepo.New(filepath.Join(cfg.dataDir, "user_preferences.json"), logger)
	recency := shortterm.New(cfg.shortTermCapacity, time.Duration(cfg.shortTermTTLSec)*time.Second)

	indexingSvc := indexinguc.New(vectorStore, cfg.embedder, logger)
	perceptionSvc := perceptionuc.New(cfg.embedder, logger)
	memorySvc := memoryuc.New(
		vectorStore, recency, cfg.embedder,
		cfg.searchK, cfg.shortTermLimit, logger,
	)
	classifierSvc := classifieruc.New(cfg.embedder, cfg.classifierTopK, cfg.classifierThreshold, logger)
	agentSvc := agentuc.New(
		perceptionSvc, memorySvc, decisionuc.New(logger), actionuc.New(logger),
		classifierSvc, logger,
	)
	chatSvc := chatuc.New(cfg.chatter, indexingSvc, logger)

	return &Client{
		indexing:   indexingSvc,
		agent:      agentSvc,
		chat:       chatSvc,
		classifier: classifierSvc,
		prefStore:  prefStore,
		recency:    recency,
	}, nil
}

// Index embeds a page and stores it in the long-term index. Returns the
// assigned document id.
func (c *Client) Index(ctx context.Context, url, content, title string) (string, error) {
	return c.indexing.Index(ctx, url, content, title)
}

// Remember stores a page fragment in short-term memory only.
func (c *Client) Remember(content, url, title string) {
	c.recency.Store(content, url, title, nil)
}

// Search runs the full perception, memory, decision, action pipeline with
// the stored preferences and returns the ranked results.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	result := c.Process(ctx, query)
	if result.Error != "" {
		return nil, errors.New(result.Error)
	}
	if result.Action == nil || result.Action.Search == nil {
		return nil, nil
	}
	return result.Action.Search.Results, nil
}

// Process runs the pipeline and returns every stage's output.
func (c *Client) Process(ctx context.Context, query string) PipelineResult {
	return c.agent.Process(ctx, query, c.prefStore.Get())
}

// RawSearch hits the vector index directly, without the pipeline.
func (c *Client) RawSearch(ctx context.Context, query string, k int) ([]Result, error) {
	return c.indexing.Search(ctx, query, k)
}

// Chat answers a question grounded in the indexed pages. Fails with
// domain.ErrChatNotConfigured when no chat provider was set.
func (c *Client) Chat(ctx context.Context, query string) (string, error) {
	return c.chat.Respond(ctx, query)
}

// Classify assigns categories to a page without indexing it.
func (c *Client) Classify(ctx context.Context, url, content, title string) Result {
	tree := c.prefStore.Get()
	in := []domain.SearchResult{{URL: url, Title: title, Content: content}}
	return c.classifier.Classify(ctx, in, classifieruc.CategorySet(tree), tree)[0]
}

// Feedback records a manual category correction for a page. The correction
// seeds the classifier prototypes and pins the URL to the category.
func (c *Client) Feedback(url, title, content, category string) error {
	updated := classifieruc.RecordFeedback(c.prefStore.Get(), url, title, content, category)
	return c.prefStore.Replace(updated)
}

// Preferences returns a copy of the stored preference tree.
func (c *Client) Preferences() prefs.Tree {
	return c.prefStore.Get()
}

// UpdatePreferences deep-merges the patch into the stored tree and returns
// the merged result.
func (c *Client) UpdatePreferences(patch prefs.Tree) (prefs.Tree, error) {
	return c.prefStore.Update(patch)
}

// ContainsURL reports whether the URL is already indexed.
func (c *Client) ContainsURL(url string) bool {
	return c.indexing.ContainsURL(url)
}

// Stats returns index statistics.
func (c *Client) Stats() Stats {
	return c.indexing.Stats()
}

// Clear drops the index and its snapshot files.
func (c *Client) Clear() error {
	return c.indexing.Clear()
}
