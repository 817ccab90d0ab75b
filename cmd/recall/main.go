package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/config"
	"github.com/kailas-cloud/recall/internal/domain"
	logpkg "github.com/kailas-cloud/recall/internal/logger"
	"github.com/kailas-cloud/recall/internal/metrics"
	"github.com/kailas-cloud/recall/internal/repository/embcache"
	prefsrepo "github.com/kailas-cloud/recall/internal/repository/preferences"
	"github.com/kailas-cloud/recall/internal/repository/shortterm"
	vectorrepo "github.com/kailas-cloud/recall/internal/repository/vector"
	chiTransport "github.com/kailas-cloud/recall/internal/transport/chi"
	geminiChat "github.com/kailas-cloud/recall/internal/transport/gemini"
	openaiEmb "github.com/kailas-cloud/recall/internal/transport/openai"
	actionuc "github.com/kailas-cloud/recall/internal/usecase/action"
	agentuc "github.com/kailas-cloud/recall/internal/usecase/agent"
	chatuc "github.com/kailas-cloud/recall/internal/usecase/chat"
	classifieruc "github.com/kailas-cloud/recall/internal/usecase/classifier"
	decisionuc "github.com/kailas-cloud/recall/internal/usecase/decision"
	healthuc "github.com/kailas-cloud/recall/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/recall/internal/usecase/indexing"
	memoryuc "github.com/kailas-cloud/recall/internal/usecase/memory"
	perceptionuc "github.com/kailas-cloud/recall/internal/usecase/perception"
	"github.com/kailas-cloud/recall/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting recall API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("data_dir", cfg.Storage.DataDir),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o750); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIndexMetrics()

	embedder := buildEmbedder(cfg, logger)

	// Optional chat provider: an absent key degrades chat, nothing else.
	var chatter domain.Chatter
	if cfg.Chat.APIKey != "" {
		gc, err := geminiChat.NewChatter(context.Background(), &geminiChat.Config{
			APIKey: cfg.Chat.APIKey,
			Model:  cfg.Chat.Model,
			Logger: logger,
		})
		if err != nil {
			logger.Fatal("Failed to create chat provider", zap.Error(err))
		}
		defer func() { _ = gc.Close() }()
		chatter = gc
		logger.Info("Chat provider enabled", zap.String("model", cfg.Chat.Model))
	} else {
		logger.Info("Chat provider disabled (no api key)")
	}

	// Repositories
	vectorStore := vectorrepo.New(
		filepath.Join(cfg.Storage.DataDir, cfg.Storage.IndexFile),
		filepath.Join(cfg.Storage.DataDir, cfg.Storage.MetadataFile),
		logger,
	)
	prefStore := prefsrepo.New(
		filepath.Join(cfg.Storage.DataDir, cfg.Storage.PreferencesFile),
		logger,
	)
	recency := shortterm.New(
		cfg.Agent.ShortTermCapacity,
		time.Duration(cfg.Agent.ShortTermTTLSec)*time.Second,
	)

	metrics.IndexDocuments.Set(float64(vectorStore.Size()))

	// Use case services
	indexingSvc := indexinguc.New(vectorStore, embedder, logger)
	perceptionSvc := perceptionuc.New(embedder, logger)
	memorySvc := memoryuc.New(
		vectorStore, recency, embedder,
		cfg.Agent.SearchK, cfg.Agent.ShortTermLimit, logger,
	)
	decisionSvc := decisionuc.New(logger)
	actionSvc := actionuc.New(logger)
	classifierSvc := classifieruc.New(
		embedder, cfg.Agent.ClassifierTopK, cfg.Agent.ClassifierThreshold, logger,
	)
	agentSvc := agentuc.New(perceptionSvc, memorySvc, decisionSvc, actionSvc, classifierSvc, logger)
	chatSvc := chatuc.New(chatter, indexingSvc, logger)
	healthSvc := healthuc.New(vectorStore, newEmbeddingHealthChecker(embedder), chatSvc.Enabled())

	server := chiTransport.NewServer(
		indexingSvc, agentSvc, chatSvc, classifierSvc, healthSvc,
		prefStore, vectorStore, logger,
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI-compatible -> Cached.
func buildEmbedder(cfg config.Config, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:   cfg.Embedding.APIKey,
		BaseURL:  cfg.Embedding.BaseURL,
		Model:    cfg.Embedding.Model,
		Provider: cfg.Embedding.Provider,
		Timeout:  time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:   logger,
	})

	if cfg.Embedding.CacheEntries <= 0 {
		return base
	}

	cached, err := embcache.New(base, cfg.Embedding.CacheEntries, metrics.EmbeddingCacheTotal, logger)
	if err != nil {
		logger.Warn("Failed to create embedding cache, using uncached embedder", zap.Error(err))
		return base
	}
	return cached
}
