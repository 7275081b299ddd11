package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fadilmartias/comment-assistant/internal/config"
	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// OpenRouterService generates comments through an OpenAI-compatible chat
// completions endpoint, using the same prompts as the Gemini provider.
type OpenRouterService struct {
	Model       string
	Temperature float32
	client      *resty.Client
	log         *zap.Logger
}

func NewOpenRouterService(apiKey string, openRouterConfig *config.OpenRouterConfig, genConfig *config.GenerationConfig, log *zap.Logger) *OpenRouterService {
	client := resty.New().
		SetBaseURL(openRouterConfig.BaseURL).
		SetTimeout(genConfig.RequestTimeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &OpenRouterService{
		Model:       openRouterConfig.Model,
		Temperature: genConfig.Temperature,
		client:      client,
		log:         log.Named("openrouter"),
	}
}

func (s *OpenRouterService) Ping(ctx context.Context) (string, error) {
	return s.complete(ctx, map[string]any{
		"model": s.Model,
		"messages": []map[string]string{
			{"role": "user", "content": "Trả lời đúng một từ: OK"},
		},
	})
}

func (s *OpenRouterService) GenerateComments(ctx context.Context, batch []model.StudentRecord, cfg model.GenerationConfig) ([]model.GeneratedComment, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	prompt := BuildPrompt(batch, cfg)

	// json_schema mode requires an object at the top level, so the list is wrapped.
	payload := map[string]any{
		"model":       s.Model,
		"temperature": s.Temperature,
		"messages": []map[string]string{
			{"role": "system", "content": prompt.System},
			{"role": "user", "content": prompt.User},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "student_comments",
				"strict": true,
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"comments": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"id":      map[string]string{"type": "string"},
									"comment": map[string]string{"type": "string"},
								},
								"required":             []string{"id", "comment"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []string{"comments"},
					"additionalProperties": false,
				},
			},
		},
	}

	start := time.Now()
	text, err := s.complete(ctx, payload)
	if err != nil {
		s.log.Warn("chat completion failed", zap.Int("batch_size", len(batch)), zap.Error(err))
		return nil, err
	}

	comments, err := ParseComments(text)
	if err != nil {
		return nil, err
	}
	s.log.Debug("batch generated",
		zap.Int("batch_size", len(batch)),
		zap.Int("comments", len(comments)),
		zap.Duration("took", time.Since(start)),
	)
	return comments, nil
}

func (s *OpenRouterService) complete(ctx context.Context, payload map[string]any) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if resp.IsError() {
		msg := gjson.Get(resp.String(), "error.message").String()
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("chat completion returned %d: %s", resp.StatusCode(), msg)
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if text == "" {
		return "", fmt.Errorf("no response from LLM")
	}
	return text, nil
}
