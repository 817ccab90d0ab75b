// Package shortterm implements the bounded, time-expiring recency buffer
// backing the memory stage's short-term recall.
package shortterm

import (
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/recall/internal/domain"
)

// Defaults for the buffer bounds.
const (
	DefaultCapacity = 100
	DefaultTTL      = time.Hour
)

// Buffer keeps the most recent entries at the head. Expired entries are
// pruned lazily on each read, never eagerly.
type Buffer struct {
	mu       sync.Mutex
	entries  []domain.ShortTermEntry
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// New creates a buffer with the given bounds. Non-positive values fall back
// to the defaults.
func New(capacity int, ttl time.Duration) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Buffer{capacity: capacity, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source (tests).
func (b *Buffer) WithClock(now func() time.Time) *Buffer {
	b.now = now
	return b
}

// Store prepends an entry stamped with the current time, truncating from the
// tail once the buffer exceeds its capacity.
func (b *Buffer) Store(content, url, title string, metadata map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := domain.ShortTermEntry{
		Content:   content,
		URL:       url,
		Title:     title,
		Timestamp: b.now(),
		Metadata:  metadata,
	}
	b.entries = append([]domain.ShortTermEntry{entry}, b.entries...)
	if len(b.entries) > b.capacity {
		b.entries = b.entries[:b.capacity]
	}
}

// Match prunes expired entries, then returns up to limit entries (buffer
// order, most-recent-first) whose content contains the query as a substring
// or shares any whitespace-split token with it.
func (b *Buffer) Match(query string, limit int) []domain.ShortTermEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked()

	queryLower := strings.ToLower(query)
	tokens := strings.Fields(queryLower)

	results := make([]domain.ShortTermEntry, 0, limit)
	for _, entry := range b.entries {
		if len(results) >= limit {
			break
		}
		content := strings.ToLower(entry.Content)
		if strings.Contains(content, queryLower) || containsAnyToken(content, tokens) {
			results = append(results, entry)
		}
	}
	return results
}

// Len prunes expired entries and returns the remaining count.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()
	return len(b.entries)
}

func (b *Buffer) pruneLocked() {
	cutoff := b.now().Add(-b.ttl)
	kept := b.entries[:0]
	for _, entry := range b.entries {
		if entry.Timestamp.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	b.entries = kept
}

func containsAnyToken(content string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(content, tok) {
			return true
		}
	}
	return false
}
