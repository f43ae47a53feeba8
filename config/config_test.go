package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"TELEGRAM_BOT_TOKEN", "ADMIN_GROUP_ID", "DATABASE_URL", "STORAGE_DRIVER", "SERVER_PORT",
	"WEBAPP_URL", "WEBAPP_JWT_SECRET", "WEBAPP_TOKEN_TTL", "CONVERSATION_IDLE_TIMEOUT",
	"CORS_ALLOWED_ORIGINS", "LOG_LEVEL",
	"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL",
}

func setEnv(t *testing.T, values map[string]string) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, values[key])
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		"ADMIN_GROUP_ID":    "-1001234",
		"DATABASE_URL":      "postgres://localhost/bot",
		"WEBAPP_JWT_SECRET": "secret",
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, baseEnv())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234), cfg.AdminGroupID)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, time.Hour, cfg.WebAppTokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.ConversationIdleTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.R2.Enabled())
	assert.Error(t, cfg.RequireBotToken())
}

func TestLoad_Overrides(t *testing.T) {
	env := baseEnv()
	env["STORAGE_DRIVER"] = "memory"
	env["DATABASE_URL"] = ""
	env["SERVER_PORT"] = "9090"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.test, https://b.test,"
	env["LOG_LEVEL"] = "debug"
	env["TELEGRAM_BOT_TOKEN"] = "token"
	setEnv(t, env)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.NoError(t, cfg.RequireBotToken())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "missing admin group", key: "ADMIN_GROUP_ID", val: ""},
		{name: "bad admin group", key: "ADMIN_GROUP_ID", val: "admins"},
		{name: "missing database url", key: "DATABASE_URL", val: ""},
		{name: "unknown driver", key: "STORAGE_DRIVER", val: "sqlite"},
		{name: "missing jwt secret", key: "WEBAPP_JWT_SECRET", val: ""},
		{name: "port out of range", key: "SERVER_PORT", val: "70000"},
		{name: "bad ttl", key: "WEBAPP_TOKEN_TTL", val: "soon"},
		{name: "negative idle timeout", key: "CONVERSATION_IDLE_TIMEOUT", val: "-5m"},
		{name: "bad log level", key: "LOG_LEVEL", val: "loud"},
		{name: "partial r2", key: "R2_ACCOUNT_ID", val: "acc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			env[tt.key] = tt.val
			setEnv(t, env)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
