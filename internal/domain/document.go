package domain

import "time"

// Dimension is the embedding dimension fixed by the embedding model
// (nomic-embed-text-v1.5). The vector store enforces it for every row.
const Dimension = 768

// Document is one indexed page: metadata stored alongside its embedding.
// Documents are immutable after Add; removal only happens via a full Clear.
type Document struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// SearchResult is a per-query projection of a Document with ranking and
// classification annotations. It is ephemeral and owned by the pipeline
// stage that produced it.
type SearchResult struct {
	ID      string `json:"id,omitempty"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`

	// Score is the retrieval similarity in [0,1], later adjusted by the
	// decision and action stages.
	Score float64 `json:"score"`
	// OriginalScore preserves the retrieval score before adjustments.
	OriginalScore float64 `json:"original_score,omitempty"`
	// RelevanceReduced marks results demoted by category restriction
	// instead of being dropped.
	RelevanceReduced bool `json:"relevance_reduced,omitempty"`

	Category            string    `json:"category,omitempty"`
	CategoryLabels      []string  `json:"category_labels,omitempty"`
	CategoryConfidences []float64 `json:"category_confidences,omitempty"`
}

// ShortTermEntry is one item of the bounded recency buffer.
type ShortTermEntry struct {
	Content   string            `json:"content"`
	URL       string            `json:"url,omitempty"`
	Title     string            `json:"title,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Stats describes the vector store contents.
type Stats struct {
	TotalDocuments int   `json:"total_documents"`
	Dimension      int   `json:"dimension"`
	IndexSizeBytes int64 `json:"index_size_bytes"`
}
