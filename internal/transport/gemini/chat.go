// Package gemini provides the optional chat (RAG answer) provider backed by
// Google's Gemini API.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/kailas-cloud/recall/internal/domain"
)

// Chatter implements domain.Chatter on top of a Gemini generative model.
type Chatter struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// Config holds the chat provider settings.
type Config struct {
	APIKey string
	Model  string
	Logger *zap.Logger
}

// NewChatter creates a Gemini chat provider. An empty API key is a caller
// error; the service treats chat as disabled and never constructs one.
func NewChatter(ctx context.Context, cfg *Config) (*Chatter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &Chatter{
		client: client,
		model:  model,
		logger: cfg.Logger,
	}, nil
}

// Respond implements domain.Chatter. When contextText is non-empty the query
// is grounded with it; otherwise the raw query goes to the model.
func (c *Chatter) Respond(ctx context.Context, query, contextText string) (string, error) {
	prompt := query
	if contextText != "" {
		prompt = fmt.Sprintf(
			"Context information:\n%s\n\nUser query: %s\n\nPlease provide a helpful response based on the context and query.",
			contextText, query,
		)
	}

	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %v: %w", err, domain.ErrChatProviderError)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty gemini response: %w", domain.ErrChatProviderError)
	}

	var answer string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			answer += string(text)
		}
	}
	if answer == "" {
		return "", fmt.Errorf("no text parts in gemini response: %w", domain.ErrChatProviderError)
	}

	if resp.UsageMetadata != nil {
		c.logger.Debug("gemini response",
			zap.String("model", c.model),
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("total_tokens", resp.UsageMetadata.TotalTokenCount),
		)
	}

	return answer, nil
}

// Close releases the underlying client.
func (c *Chatter) Close() error {
	return c.client.Close()
}
