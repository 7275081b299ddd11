package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultUploadMaxFileSize = 5 * 1024 * 1024
	defaultSessionTTL        = 6 * time.Hour
)

type AppConfig struct {
	Name              string
	Env               string
	Port              string
	BaseURL           string
	CatalogFile       string
	UploadMaxFileSize int64
	// SessionTTL is how long an idle session is kept in memory.
	SessionTTL time.Duration
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
			log.Printf("Warning: APP_ENV not set, defaulting to %s", env)
		}
		name := os.Getenv("APP_NAME")
		if name == "" {
			name = "Trợ Lý Đánh Giá"
		}
		port := os.Getenv("APP_PORT")
		if port == "" {
			port = ":8080"
		}
		appConfig = &AppConfig{
			Name:              name,
			Env:               env,
			Port:              port,
			BaseURL:           os.Getenv("APP_URL"),
			CatalogFile:       os.Getenv("CATALOG_FILE"),
			UploadMaxFileSize: getEnvInt64("UPLOAD_MAX_FILE_SIZE", defaultUploadMaxFileSize),
			SessionTTL:        getEnvDuration("SESSION_TTL", defaultSessionTTL),
		}
	})
	return appConfig
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func getEnvInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}
