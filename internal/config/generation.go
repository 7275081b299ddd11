package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// GenerationConfig controls how comment batches are produced, independent of
// the per-session grade/term/subject settings.
type GenerationConfig struct {
	Provider       string
	BatchSize      int
	Temperature    float32
	RequestTimeout time.Duration
}

var (
	generationConfig *GenerationConfig
	generationOnce   sync.Once
)

func LoadGenerationConfig() *GenerationConfig {
	generationOnce.Do(func() {
		provider := os.Getenv("GENERATION_PROVIDER")
		if provider == "" {
			provider = ProviderGemini
		}
		generationConfig = &GenerationConfig{
			Provider:       provider,
			BatchSize:      int(getEnvInt64("GENERATION_BATCH_SIZE", 5)),
			Temperature:    getEnvFloat32("GENERATION_TEMPERATURE", 0.95),
			RequestTimeout: getEnvDuration("GENERATION_TIMEOUT", 90*time.Second),
		}
	})
	return generationConfig
}

func getEnvFloat32(key string, fallback float32) float32 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil || v < 0 {
		log.Printf("Warning: invalid %s=%q, using %v", key, raw, fallback)
		return fallback
	}
	return float32(v)
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return v
}
