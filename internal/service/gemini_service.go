package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/comment-assistant/internal/config"
	"github.com/fadilmartias/comment-assistant/internal/model"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type GeminiService struct {
	Client         *genai.Client
	Model          string
	Temperature    float32
	RequestTimeout time.Duration
	log            *zap.Logger
}

func NewGeminiService(ctx context.Context, apiKey string, geminiConfig *config.GeminiConfig, genConfig *config.GenerationConfig, log *zap.Logger) (*GeminiService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if geminiConfig.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: geminiConfig.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{
		Client:         client,
		Model:          geminiConfig.Model,
		Temperature:    genConfig.Temperature,
		RequestTimeout: genConfig.RequestTimeout,
		log:            log.Named("gemini"),
	}, nil
}

func (s *GeminiService) Ping(ctx context.Context) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	result, err := s.Client.Models.GenerateContent(
		timeoutCtx,
		s.Model,
		genai.Text("Trả lời đúng một từ: OK"),
		nil,
	)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// GenerateComments sends one batch with a JSON schema so the model answers with
// an array of {id, comment}. Failures are returned as-is; nothing is retried.
func (s *GeminiService) GenerateComments(ctx context.Context, batch []model.StudentRecord, cfg model.GenerationConfig) ([]model.GeneratedComment, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	prompt := BuildPrompt(batch, cfg)

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       genai.Ptr(s.Temperature),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    commentListSchema(),
	}

	start := time.Now()
	result, err := s.Client.Models.GenerateContent(
		timeoutCtx,
		s.Model,
		genai.Text(prompt.User),
		genConfig,
	)
	if err != nil {
		s.log.Warn("generate content failed", zap.Int("batch_size", len(batch)), zap.Error(err))
		return nil, fmt.Errorf("generate content failed: %w", err)
	}
	if err := s.validateGenerateResponse(result); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}

	comments, err := ParseComments(result.Text())
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

func commentListSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"id":      {Type: genai.TypeString},
				"comment": {Type: genai.TypeString},
			},
			Required: []string{"id", "comment"},
		},
	}
}

func (s *GeminiService) validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}

	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}

	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}

	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}

	return nil
}
