package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Upstream UpstreamConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Host               string
	Port               string
	Environment        string
	LogLevel           string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	URL string
}

type UpstreamConfig struct {
	APIBase      string
	APIKey       string
	DefaultModel string
}

type AuthConfig struct {
	TokenTTL time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Host:               getEnv("BACKEND_HOST", "0.0.0.0"),
			Port:               getEnv("BACKEND_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/backend.log"),
			CorsAllowedOrigins: getEnv("CORS_ORIGINS", "http://localhost:8501"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "sqlite:///chat_history.db"),
		},
		Upstream: UpstreamConfig{
			APIBase:      getEnv("UPSTREAM_API_BASE", ""),
			APIKey:       getEnv("UPSTREAM_API_KEY", ""),
			DefaultModel: getEnv("DEFAULT_MODEL", "gpt-3.5-turbo"),
		},
		Auth: AuthConfig{
			TokenTTL: time.Duration(getEnvAsInt("AUTH_TOKEN_TTL_HOURS", 24*7)) * time.Hour,
		},
	}

	if cfg.Upstream.APIBase == "" {
		return nil, fmt.Errorf("UPSTREAM_API_BASE is required")
	}
	if _, err := cfg.Database.Path(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Path extracts the filesystem path from the configured sqlite URL.
// Only sqlite:/// URLs are supported.
func (d DatabaseConfig) Path() (string, error) {
	const prefix = "sqlite:///"
	if !strings.HasPrefix(d.URL, prefix) {
		return "", fmt.Errorf("only sqlite:/// URLs are supported for DATABASE_URL, got %q", d.URL)
	}
	return strings.TrimPrefix(d.URL, prefix), nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
