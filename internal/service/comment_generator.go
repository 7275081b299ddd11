package service

import (
	"context"
	"fmt"

	"github.com/fadilmartias/comment-assistant/internal/config"
	"github.com/fadilmartias/comment-assistant/internal/model"
	"go.uber.org/zap"
)

// CommentGenerator turns one batch of students into comments.
type CommentGenerator interface {
	GenerateComments(ctx context.Context, batch []model.StudentRecord, cfg model.GenerationConfig) ([]model.GeneratedComment, error)
	Ping(ctx context.Context) (string, error)
}

// GeneratorFactory builds a generator bound to apiKey. It is called once per run
// so a key saved mid-session takes effect on the next run.
type GeneratorFactory func(ctx context.Context, apiKey string) (CommentGenerator, error)

func NewGeneratorFactory(genConfig *config.GenerationConfig, geminiConfig *config.GeminiConfig, openRouterConfig *config.OpenRouterConfig, log *zap.Logger) (GeneratorFactory, error) {
	switch genConfig.Provider {
	case config.ProviderGemini:
		return func(ctx context.Context, apiKey string) (CommentGenerator, error) {
			return NewGeminiService(ctx, apiKey, geminiConfig, genConfig, log)
		}, nil
	case config.ProviderOpenRouter:
		return func(_ context.Context, apiKey string) (CommentGenerator, error) {
			return NewOpenRouterService(apiKey, openRouterConfig, genConfig, log), nil
		}, nil
	}
	return nil, fmt.Errorf("unknown GENERATION_PROVIDER %q", genConfig.Provider)
}

// FallbackAPIKey returns the environment-provided key for the configured provider.
func FallbackAPIKey(genConfig *config.GenerationConfig, geminiConfig *config.GeminiConfig, openRouterConfig *config.OpenRouterConfig) string {
	if genConfig.Provider == config.ProviderOpenRouter {
		return openRouterConfig.APIKey
	}
	return geminiConfig.APIKey
}
