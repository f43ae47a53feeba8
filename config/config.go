package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	TelegramBotToken string
	AdminGroupID     int64

	DatabaseURL   string
	StorageDriver string

	ServerPort         int
	CORSAllowedOrigins []string

	WebAppURL       string
	WebAppJWTSecret string
	WebAppTokenTTL  time.Duration

	ConversationIdleTimeout time.Duration
	LogLevel                slog.Level

	R2 R2Config
}

// R2Config - настройки выгрузки составов в Cloudflare R2. Пустой AccountID отключает выгрузку.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

func (c R2Config) Enabled() bool {
	return c.AccountID != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StorageDriver:    getEnvDefault("STORAGE_DRIVER", StorageDriverPostgres),
		WebAppURL:        os.Getenv("WEBAPP_URL"),
		WebAppJWTSecret:  os.Getenv("WEBAPP_JWT_SECRET"),
	}

	adminGroup := os.Getenv("ADMIN_GROUP_ID")
	if adminGroup == "" {
		return nil, fmt.Errorf("ADMIN_GROUP_ID environment variable is not set")
	}
	id, err := strconv.ParseInt(adminGroup, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_GROUP_ID environment variable: %w", err)
	}
	cfg.AdminGroupID = id

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case StorageDriverMemory:
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q",
			StorageDriverPostgres, StorageDriverMemory, cfg.StorageDriver)
	}

	if cfg.WebAppJWTSecret == "" {
		return nil, fmt.Errorf("WEBAPP_JWT_SECRET environment variable is not set")
	}

	port, err := strconv.Atoi(getEnvDefault("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	if cfg.WebAppTokenTTL, err = parseDuration("WEBAPP_TOKEN_TTL", "1h"); err != nil {
		return nil, err
	}
	if cfg.ConversationIdleTimeout, err = parseDuration("CONVERSATION_IDLE_TIMEOUT", "30m"); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(getEnvDefault("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnvDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}

	cfg.R2 = R2Config{
		AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("R2_BUCKET_NAME"),
		PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}
	if cfg.R2.Enabled() {
		if cfg.R2.AccessKeyID == "" || cfg.R2.SecretAccessKey == "" || cfg.R2.BucketName == "" || cfg.R2.PublicBaseURL == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID is set, but R2 credentials, bucket or public URL are missing")
		}
	}

	return cfg, nil
}

// RequireBotToken проверяет токен отдельно: команда migrate без него работает.
func (c *Config) RequireBotToken() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	return nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}
