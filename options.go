package recall

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
)

// Option configures the embedded client.
type Option func(*clientConfig)

type clientConfig struct {
	dataDir             string
	embedder            domain.Embedder
	chatter             domain.Chatter
	logger              *zap.Logger
	shortTermCapacity   int
	shortTermTTLSec     int
	searchK             int
	shortTermLimit      int
	classifierTopK      int
	classifierThreshold float64
}

// WithDataDir sets the directory for the index, metadata and preferences
// snapshots. Defaults to "data".
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithEmbedder sets the embedding provider. Required.
func WithEmbedder(e domain.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithChatter sets the optional chat provider. Without one Chat returns an
// error and everything else works.
func WithChatter(ch domain.Chatter) Option {
	return func(c *clientConfig) {
		c.chatter = ch
	}
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithShortTermMemory tunes the recency buffer capacity and TTL in seconds.
func WithShortTermMemory(capacity, ttlSec int) Option {
	return func(c *clientConfig) {
		c.shortTermCapacity = capacity
		c.shortTermTTLSec = ttlSec
	}
}

// WithSearchK sets how many long-term candidates the pipeline retrieves.
func WithSearchK(k int) Option {
	return func(c *clientConfig) {
		c.searchK = k
	}
}

// WithClassifier tunes the multi-label classifier: how many labels may be
// kept per page and the minimum similarity for a label.
func WithClassifier(topK int, threshold float64) Option {
	return func(c *clientConfig) {
		c.classifierTopK = topK
		c.classifierThreshold = threshold
	}
}
