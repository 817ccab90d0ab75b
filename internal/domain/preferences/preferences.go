// Package preferences models the nested user preference document as a tree
// of object, list and scalar nodes with deep-merge update semantics.
package preferences

import (
	"time"
)

// Well-known top-level keys of the preference tree.
const (
	KeyCategories        = "categories"
	KeyCategoryOverrides = "category_overrides"
	KeyCategoryFeedback  = "category_feedback"
	KeyFavorites         = "favorites"
	KeySkipConfidential  = "skip_confidential_sites"
	KeyHighlightTerms    = "highlight_search_terms"
	KeyCategorizeResults = "categorize_results"
	KeyFavoriteTopics    = "favorite_topics"
)

// MaxFeedbackExamples bounds the per-category feedback list.
const MaxFeedbackExamples = 20

// Tree is the nested preference document. Node values are what encoding/json
// produces: objects (map[string]any), lists ([]any) and scalars (string,
// bool, float64, nil). Merge recurses into objects and overwrites everything
// else wholesale.
type Tree map[string]any

// FeedbackExample is one user correction tying a URL to a category.
type FeedbackExample struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Favorite is one bookmarked page.
type Favorite struct {
	URL     string    `json:"url"`
	Title   string    `json:"title,omitempty"`
	Content string    `json:"content,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Override is a user-supplied replacement for a category's prototype seed.
type Override struct {
	Description string
	Keywords    []string
}

// Default returns the preference tree seeded on first load.
func Default() Tree {
	return Tree{
		"interests":          "general knowledge",
		"location":           "global",
		KeyFavoriteTopics:    "all topics",
		"taste_preferences":  "neutral",
		KeySkipConfidential:  true,
		KeyHighlightTerms:    true,
		KeyCategorizeResults: false,
		KeyCategories:        []any{},
		KeyFavorites:         []any{},
	}
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	return Tree(cloneObject(map[string]any(t)))
}

// Bool returns the scalar at key, or def when absent or not a bool.
func (t Tree) Bool(key string, def bool) bool {
	if v, ok := t[key].(bool); ok {
		return v
	}
	return def
}

// String returns the scalar at key, or def when absent or not a string.
func (t Tree) String(key, def string) string {
	if v, ok := t[key].(string); ok {
		return v
	}
	return def
}

// StringList returns the list at key with its string elements.
func (t Tree) StringList(key string) []string {
	list, ok := t[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Categories returns the user-defined category names.
func (t Tree) Categories() []string {
	return t.StringList(KeyCategories)
}

// CategoryOverride returns the user override for a category, if any.
func (t Tree) CategoryOverride(name string) Override {
	overrides, ok := t[KeyCategoryOverrides].(map[string]any)
	if !ok {
		return Override{}
	}
	o, ok := overrides[name].(map[string]any)
	if !ok {
		return Override{}
	}
	var out Override
	if d, ok := o["description"].(string); ok {
		out.Description = d
	}
	if kws, ok := o["keywords"].([]any); ok {
		for _, kw := range kws {
			if s, ok := kw.(string); ok {
				out.Keywords = append(out.Keywords, s)
			}
		}
	}
	return out
}

// FeedbackExamples returns the feedback list for a category,
// most-recent-first.
func (t Tree) FeedbackExamples(name string) []FeedbackExample {
	fb, ok := t[KeyCategoryFeedback].(map[string]any)
	if !ok {
		return nil
	}
	list, ok := fb[name].([]any)
	if !ok {
		return nil
	}
	out := make([]FeedbackExample, 0, len(list))
	for _, v := range list {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		ex := FeedbackExample{}
		ex.URL, _ = entry["url"].(string)
		ex.Title, _ = entry["title"].(string)
		ex.Content, _ = entry["content"].(string)
		out = append(out, ex)
	}
	return out
}

// FeedbackCategories returns the category names that have feedback examples.
func (t Tree) FeedbackCategories() []string {
	fb, ok := t[KeyCategoryFeedback].(map[string]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(fb))
	for name := range fb {
		out = append(out, name)
	}
	return out
}

// WithFeedback returns a copy of the tree with the example prepended to the
// category's feedback list, truncated to MaxFeedbackExamples. The receiver
// is not modified.
func (t Tree) WithFeedback(name string, ex FeedbackExample) Tree {
	out := t.Clone()
	fb, ok := out[KeyCategoryFeedback].(map[string]any)
	if !ok {
		fb = map[string]any{}
	}
	list, _ := fb[name].([]any)
	entry := map[string]any{"url": ex.URL, "title": ex.Title, "content": ex.Content}
	list = append([]any{entry}, list...)
	if len(list) > MaxFeedbackExamples {
		list = list[:MaxFeedbackExamples]
	}
	fb[name] = list
	out[KeyCategoryFeedback] = fb
	return out
}

// Favorites returns the bookmarked pages.
func (t Tree) Favorites() []Favorite {
	list, ok := t[KeyFavorites].([]any)
	if !ok {
		return nil
	}
	out := make([]Favorite, 0, len(list))
	for _, v := range list {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		f := Favorite{}
		f.URL, _ = entry["url"].(string)
		f.Title, _ = entry["title"].(string)
		f.Content, _ = entry["content"].(string)
		if ts, ok := entry["added_at"].(string); ok {
			f.AddedAt, _ = time.Parse(time.RFC3339, ts)
		}
		out = append(out, f)
	}
	return out
}

// WithFavorite returns a copy with the favorite appended. An existing entry
// for the same URL is replaced in place.
func (t Tree) WithFavorite(f Favorite) Tree {
	out := t.Clone()
	list, _ := out[KeyFavorites].([]any)
	entry := map[string]any{
		"url":      f.URL,
		"title":    f.Title,
		"content":  f.Content,
		"added_at": f.AddedAt.UTC().Format(time.RFC3339),
	}
	replaced := false
	for i, v := range list {
		if m, ok := v.(map[string]any); ok {
			if u, _ := m["url"].(string); u == f.URL {
				list[i] = entry
				replaced = true
				break
			}
		}
	}
	if !replaced {
		list = append(list, entry)
	}
	out[KeyFavorites] = list
	return out
}

// WithoutFavorite returns a copy with any favorite for url removed.
func (t Tree) WithoutFavorite(url string) Tree {
	out := t.Clone()
	list, _ := out[KeyFavorites].([]any)
	kept := make([]any, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			if u, _ := m["url"].(string); u == url {
				continue
			}
		}
		kept = append(kept, v)
	}
	out[KeyFavorites] = kept
	return out
}
