// Package preferences persists the user preference tree as a single JSON
// document with deep-merge update semantics.
package preferences

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
)

// Store is the file-backed preference store. A single mutex serializes the
// read-modify-write snapshot cycle so concurrent patches cannot lose updates.
type Store struct {
	mu     sync.Mutex
	path   string
	tree   prefs.Tree
	logger *zap.Logger
}

// New opens the store, seeding defaults when the file does not exist yet. An
// unreadable file is logged and replaced by defaults rather than refusing to
// start.
func New(path string, logger *zap.Logger) *Store {
	s := &Store{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read preferences, using defaults",
				zap.String("path", path), zap.Error(err))
		}
		s.tree = prefs.Default()
		if err := s.persistLocked(); err != nil {
			logger.Warn("Failed to seed preferences file", zap.Error(err))
		}
		return s
	}

	var tree prefs.Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		logger.Warn("Failed to parse preferences, using defaults",
			zap.String("path", path), zap.Error(err))
		tree = prefs.Default()
	}
	s.tree = tree
	return s
}

// Get returns a deep copy of the current preference tree.
func (s *Store) Get() prefs.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Clone()
}

// Update deep-merges the patch into the stored tree and persists the result.
func (s *Store) Update(patch prefs.Tree) (prefs.Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree = prefs.Merge(s.tree, patch)
	if err := s.persistLocked(); err != nil {
		return nil, domain.NewStorageDrift("update preferences", err)
	}
	s.logger.Debug("Preferences updated")
	return s.tree.Clone(), nil
}

// Replace swaps in a whole new tree (used for pure-function updates such as
// recorded feedback) and persists it.
func (s *Store) Replace(tree prefs.Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree = tree.Clone()
	if err := s.persistLocked(); err != nil {
		return domain.NewStorageDrift("replace preferences", err)
	}
	return nil
}

// AddFavorite bookmarks a page, stamping it with the current time.
func (s *Store) AddFavorite(url, title, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree = s.tree.WithFavorite(prefs.Favorite{
		URL: url, Title: title, Content: content, AddedAt: time.Now(),
	})
	if err := s.persistLocked(); err != nil {
		return domain.NewStorageDrift("add favorite", err)
	}
	return nil
}

// RemoveFavorite drops any bookmark for the URL.
func (s *Store) RemoveFavorite(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree = s.tree.WithoutFavorite(url)
	if err := s.persistLocked(); err != nil {
		return domain.NewStorageDrift("remove favorite", err)
	}
	return nil
}

// AddCategory registers a user-defined category, optionally with a
// description override.
func (s *Store) AddCategory(name, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tree.Categories() {
		if existing == name {
			return fmt.Errorf("%w: %s", domain.ErrCategoryAlreadyExists, name)
		}
	}

	patch := prefs.Tree{prefs.KeyCategories: appendString(s.tree[prefs.KeyCategories], name)}
	if description != "" {
		patch[prefs.KeyCategoryOverrides] = map[string]any{
			name: map[string]any{"description": description},
		}
	}
	s.tree = prefs.Merge(s.tree, patch)

	if err := s.persistLocked(); err != nil {
		return domain.NewStorageDrift("add category", err)
	}
	return nil
}

// RemoveCategory drops a user-defined category and its override.
func (s *Store) RemoveCategory(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, _ := s.tree[prefs.KeyCategories].([]any)
	kept := make([]any, 0, len(list))
	found := false
	for _, v := range list {
		if v == any(name) {
			found = true
			continue
		}
		kept = append(kept, v)
	}
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, name)
	}
	s.tree[prefs.KeyCategories] = kept
	if overrides, ok := s.tree[prefs.KeyCategoryOverrides].(map[string]any); ok {
		delete(overrides, name)
	}

	if err := s.persistLocked(); err != nil {
		return domain.NewStorageDrift("remove category", err)
	}
	return nil
}

func (s *Store) persistLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.tree); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func appendString(list any, s string) []any {
	existing, _ := list.([]any)
	out := make([]any, 0, len(existing)+1)
	out = append(out, existing...)
	return append(out, s)
}
