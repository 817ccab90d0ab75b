package chi

import (
	"encoding/json"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/recall/internal/domain"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
	classifieruc "github.com/kailas-cloud/recall/internal/usecase/classifier"
)

// GetPreferences handles GET /api/preferences.
func (s *Server) GetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.preferences.Get())
}

// UpdatePreferences handles PATCH /api/preferences. The body is deep-merged
// into the stored tree; nested objects merge key-wise, everything else
// overwrites.
func (s *Server) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch prefs.Tree
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := s.preferences.Update(patch)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// AddFavorite handles POST /api/favorites.
func (s *Server) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "url is required")
		return
	}

	if err := s.preferences.AddFavorite(req.URL, req.Title, req.Content); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// RemoveFavorite handles DELETE /api/favorites.
func (s *Server) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "url is required")
		return
	}

	if err := s.preferences.RemoveFavorite(req.URL); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ListCategories handles GET /api/categories: built-in plus user categories.
func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	tree := s.preferences.Get()
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": classifieruc.CategorySet(tree),
	})
}

// CreateCategory handles POST /api/categories.
func (s *Server) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "name is required")
		return
	}

	if err := s.preferences.AddCategory(req.Name, req.Description); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}

// DeleteCategory handles DELETE /api/categories/{name}.
func (s *Server) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := chirouter.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "name is required")
		return
	}

	if err := s.preferences.RemoveCategory(name); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// SubmitFeedback handles POST /api/feedback: a manual category correction
// that seeds the classifier prototypes from now on.
func (s *Server) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL      string `json:"url"`
		Title    string `json:"title"`
		Content  string `json:"content"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "url and category are required")
		return
	}

	updated := classifieruc.RecordFeedback(s.preferences.Get(), req.URL, req.Title, req.Content, req.Category)
	if err := s.preferences.Replace(updated); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Classify handles POST /api/classify: one-shot classification of a page
// without indexing it.
func (s *Server) Classify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
		Title   string `json:"title"`
		URL     string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "content is required")
		return
	}

	tree := s.preferences.Get()
	in := []domain.SearchResult{{URL: req.URL, Title: req.Title, Content: req.Content}}
	out := s.classifier.Classify(r.Context(), in, classifieruc.CategorySet(tree), tree)

	writeJSON(w, http.StatusOK, map[string]any{
		"category":             out[0].Category,
		"category_labels":      out[0].CategoryLabels,
		"category_confidences": out[0].CategoryConfidences,
	})
}
