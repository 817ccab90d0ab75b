// Package chi implements the HTTP API on the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	prefs "github.com/kailas-cloud/recall/internal/domain/preferences"
	"github.com/kailas-cloud/recall/internal/metrics"
	agentuc "github.com/kailas-cloud/recall/internal/usecase/agent"
	chatuc "github.com/kailas-cloud/recall/internal/usecase/chat"
	classifieruc "github.com/kailas-cloud/recall/internal/usecase/classifier"
	healthuc "github.com/kailas-cloud/recall/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/recall/internal/usecase/indexing"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest            = "bad_request"
	codeValidationFailed      = "validation_failed"
	codeEmbeddingProvider     = "embedding_provider_error"
	codeChatNotConfigured     = "chat_not_configured"
	codeChatProvider          = "chat_provider_error"
	codeStorageError          = "storage_error"
	codeCategoryNotFound      = "category_not_found"
	codeCategoryAlreadyExists = "category_already_exists"
	codeInternalError         = "internal_error"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// PreferencesStore is the preferences persistence the handlers need.
type PreferencesStore interface {
	Get() prefs.Tree
	Update(patch prefs.Tree) (prefs.Tree, error)
	Replace(tree prefs.Tree) error
	AddFavorite(url, title, content string) error
	RemoveFavorite(url string) error
	AddCategory(name, description string) error
	RemoveCategory(name string) error
}

// SnapshotSource exposes the on-disk snapshot files for export.
type SnapshotSource interface {
	SnapshotPaths() (indexPath, metaPath string)
}

// Server wires the HTTP handlers to the use-case services.
type Server struct {
	indexing      *indexinguc.Service
	agent         *agentuc.Service
	chat          *chatuc.Service
	classifier    *classifieruc.Service
	health        *healthuc.Service
	preferences   PreferencesStore
	snapshots     SnapshotSource
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	indexing *indexinguc.Service,
	agent *agentuc.Service,
	chat *chatuc.Service,
	classifier *classifieruc.Service,
	health *healthuc.Service,
	preferences PreferencesStore,
	snapshots SnapshotSource,
	logger *zap.Logger,
) *Server {
	s := &Server{
		indexing:    indexing,
		agent:       agent,
		chat:        chat,
		classifier:  classifier,
		health:      health,
		preferences: preferences,
		snapshots:   snapshots,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrCategoryNotFound, http.StatusNotFound, codeCategoryNotFound),
		sentinelHandler(domain.ErrCategoryAlreadyExists, http.StatusConflict, codeCategoryAlreadyExists),
		sentinelHandler(domain.ErrChatNotConfigured, http.StatusNotImplemented, codeChatNotConfigured),
		sentinelHandler(domain.ErrChatProviderError, http.StatusBadGateway, codeChatProvider),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrStorage, http.StatusInternalServerError, codeStorageError),
	}
	return s
}

// Router builds the chi router with middleware and all API routes.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chirouter.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chirouter.Router) {
		r.Post("/index", s.IndexDocument)
		r.Post("/search", s.Search)
		r.Post("/chat", s.Chat)
		r.Post("/embed", s.Embed)
		r.Get("/health", s.HealthCheck)
		r.Get("/stats", s.GetStats)
		r.Post("/check-indexed", s.CheckIndexed)
		r.Post("/clear-index", s.ClearIndex)
		r.Get("/download-index", s.DownloadIndex)

		r.Get("/preferences", s.GetPreferences)
		r.Patch("/preferences", s.UpdatePreferences)
		r.Post("/favorites", s.AddFavorite)
		r.Delete("/favorites", s.RemoveFavorite)
		r.Get("/categories", s.ListCategories)
		r.Post("/categories", s.CreateCategory)
		r.Delete("/categories/{name}", s.DeleteCategory)
		r.Post("/feedback", s.SubmitFeedback)
		r.Post("/classify", s.Classify)
	})

	return r
}

// IndexDocument handles POST /api/index.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL     string `json:"url"`
		Content string `json:"content"`
		Title   string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id, err := s.indexing.Index(r.Context(), req.URL, req.Content, req.Title)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	metrics.IndexDocuments.Set(float64(s.indexing.Stats().TotalDocuments))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"doc_id":  id,
	})
}

// Search handles POST /api/search: the full perception, memory, decision,
// action pipeline over the stored index.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query       string     `json:"query"`
		UserContext prefs.Tree `json:"user_context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	userCtx := s.preferences.Get()
	if len(req.UserContext) > 0 {
		userCtx = prefs.Merge(userCtx, req.UserContext)
	}

	start := time.Now()
	result := s.agent.Process(r.Context(), req.Query, userCtx)
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	status := "ok"
	if result.Error != "" {
		status = "error"
	}
	metrics.PipelineRunsTotal.WithLabelValues(status).Inc()

	var results []domain.SearchResult
	if result.Action != nil && result.Action.Search != nil {
		results = result.Action.Search.Results
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  result.Error == "",
		"results":  results,
		"count":    len(results),
		"pipeline": result,
	})
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	answer, err := s.chat.Respond(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"response": answer})
}

// Embed handles POST /api/embed.
func (s *Server) Embed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "text is required")
		return
	}

	vec, err := s.indexing.Embed(r.Context(), req.Text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"embedding": vec})
}

// HealthCheck handles GET /health and GET /api/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// GetStats handles GET /api/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.indexing.Stats())
}

// CheckIndexed handles POST /api/check-indexed.
func (s *Server) CheckIndexed(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, map[string]any{
		"is_indexed": s.indexing.ContainsURL(req.URL),
	})
}

// ClearIndex handles POST /api/clear-index.
func (s *Server) ClearIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.indexing.Clear(); err != nil {
		s.handleDomainError(w, err)
		return
	}

	metrics.IndexDocuments.Set(0)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrDimensionMismatch,
		domain.ErrCategoryNotFound,
		domain.ErrCategoryAlreadyExists,
		domain.ErrChatNotConfigured,
		domain.ErrChatProviderError,
		domain.ErrEmbeddingProviderError,
		domain.ErrStorage,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
