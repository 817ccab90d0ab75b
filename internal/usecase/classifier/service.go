// Package classifier assigns categories to search results by cosine
// similarity against per-category prototype embeddings, with explicit
// per-URL user feedback overriding similarity.
package classifier

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/category"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
	"github.com/kailas-cloud/recall/internal/vectormath"
)

// Defaults for prototype matching.
const (
	DefaultTopK      = 2
	DefaultThreshold = 0.18
)

// prototypeSeedExamples caps how many recent feedback examples seed a
// category prototype.
const prototypeSeedExamples = 5

// Service is the prototype classifier. Classification never returns an
// error to callers: failures degrade to the Others category.
type Service struct {
	embed     domain.Embedder
	topK      int
	threshold float64
	logger    *zap.Logger
}

// New creates a classifier. Non-positive topK/threshold fall back to the
// defaults.
func New(embed domain.Embedder, topK int, threshold float64, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Service{embed: embed, topK: topK, threshold: threshold, logger: logger}
}

// CategorySet returns the categories to classify against: the built-in
// taxonomy, the user-defined categories, and the Others fallback.
func CategorySet(tree prefs.Tree) []string {
	out := make([]string, 0, len(category.Priority)+2)
	out = append(out, category.Priority...)
	seen := make(map[string]bool, len(out))
	for _, name := range out {
		seen[name] = true
	}
	for _, name := range tree.Categories() {
		if !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	if !seen[category.Others] {
		out = append(out, category.Others)
	}
	return out
}

// BuildPrototypes embeds one seed string per category (its name, an
// optionally overridden description, override keywords, and up to five
// most-recent feedback example texts) and L2-normalizes the result.
func (s *Service) BuildPrototypes(
	ctx context.Context, categories []string, tree prefs.Tree,
) (map[string][]float32, error) {
	prototypes := make(map[string][]float32, len(categories))
	for _, name := range categories {
		parts := []string{name}

		override := tree.CategoryOverride(name)
		desc := override.Description
		if desc == "" {
			desc = category.DefaultDescription(name)
		}
		if desc != "" {
			parts = append(parts, desc)
		}
		if len(override.Keywords) > 0 {
			parts = append(parts, strings.Join(override.Keywords, ", "))
		}
		examples := tree.FeedbackExamples(name)
		if len(examples) > prototypeSeedExamples {
			examples = examples[:prototypeSeedExamples]
		}
		for _, ex := range examples {
			text := strings.TrimSpace(ex.Title + " " + ex.Content)
			if text != "" {
				parts = append(parts, text)
			}
		}

		seed := strings.Join(parts, "\n")
		res, err := s.embed.Embed(ctx, seed)
		if err != nil {
			return nil, err
		}
		prototypes[name] = vectormath.NormalizeL2(res.Embedding)
	}
	return prototypes, nil
}

// Classify annotates each result with category, category_labels and
// category_confidences. Exact URL feedback overrides similarity with
// confidence 1.0. Any failure, whether the prototype build or a single
// result's embedding, degrades the affected results to Others instead of
// erroring.
func (s *Service) Classify(
	ctx context.Context, results []domain.SearchResult, categories []string, tree prefs.Tree,
) []domain.SearchResult {
	if len(results) == 0 {
		return results
	}

	prototypes, err := s.BuildPrototypes(ctx, categories, tree)
	if err != nil {
		s.logger.Error("Failed to build category prototypes", zap.Error(err))
		out := make([]domain.SearchResult, len(results))
		for i, r := range results {
			out[i] = degrade(r)
		}
		return out
	}

	urlFeedback := urlFeedbackMap(tree)

	out := make([]domain.SearchResult, len(results))
	for i, r := range results {
		if name, ok := urlFeedback[r.URL]; ok && r.URL != "" {
			r.Category = name
			r.CategoryLabels = []string{name}
			r.CategoryConfidences = []float64{1.0}
			out[i] = r
			continue
		}
		out[i] = s.classifyOne(ctx, r, categories, prototypes)
	}
	return out
}

func (s *Service) classifyOne(
	ctx context.Context, r domain.SearchResult, categories []string, prototypes map[string][]float32,
) domain.SearchResult {
	text := r.Title + "\n" + r.Content + "\n" + r.URL
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("Failed to embed result for classification",
			zap.String("url", r.URL), zap.Error(err))
		return degrade(r)
	}
	emb := vectormath.NormalizeL2(res.Embedding)

	type scored struct {
		name string
		sim  float64
	}
	sims := make([]scored, 0, len(categories))
	for _, name := range categories {
		proto, ok := prototypes[name]
		if !ok {
			continue
		}
		// cosine similarity: both vectors are normalized
		sims = append(sims, scored{name: name, sim: vectormath.Dot(emb, proto)})
	}
	sort.SliceStable(sims, func(i, j int) bool { return sims[i].sim > sims[j].sim })

	var labels []string
	var confidences []float64
	for _, sc := range sims {
		if len(labels) >= s.topK {
			break
		}
		if sc.sim >= s.threshold {
			labels = append(labels, sc.name)
			confidences = append(confidences, sc.sim)
		}
	}
	if len(labels) == 0 {
		best := 0.0
		if len(sims) > 0 {
			best = sims[0].sim
		}
		labels = []string{category.Others}
		confidences = []float64{best}
	}

	r.Category = labels[0]
	r.CategoryLabels = labels
	r.CategoryConfidences = confidences
	return r
}

// urlFeedbackMap flattens all feedback examples into url -> category. When
// the same URL was filed under several categories, the alphabetically first
// category wins: iteration order is made deterministic by sorting names.
func urlFeedbackMap(tree prefs.Tree) map[string]string {
	names := tree.FeedbackCategories()
	sort.Strings(names)

	out := make(map[string]string)
	for _, name := range names {
		for _, ex := range tree.FeedbackExamples(name) {
			if ex.URL == "" {
				continue
			}
			if _, taken := out[ex.URL]; !taken {
				out[ex.URL] = name
			}
		}
	}
	return out
}

func degrade(r domain.SearchResult) domain.SearchResult {
	r.Category = category.Others
	r.CategoryLabels = []string{category.Others}
	r.CategoryConfidences = []float64{0}
	return r
}

// RecordFeedback returns a copy of the preference tree with the correction
// prepended to the category's feedback list (capped at the feedback limit).
// The caller persists the returned tree.
func RecordFeedback(tree prefs.Tree, url, title, content, name string) prefs.Tree {
	return tree.WithFeedback(name, prefs.FeedbackExample{URL: url, Title: title, Content: content})
}
