package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"POSTGRES_URI", "MONGODB_URI", "MONGO_URI", "REDIS_URI", "PORT", "FRONTEND_URL", "FRONTEND_URL_2", "ALLOWED_ORIGINS", "ENV"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.PostgresURI, "emoai")
	assert.Contains(t, cfg.MongoURI, "emoai")
	assert.False(t, cfg.IsProduction())
}

func TestLoadAllowedOriginsList(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://emoai.app, https://staging.emoai.app ,")

	cfg := Load()

	assert.Equal(t, []string{"https://emoai.app", "https://staging.emoai.app"}, cfg.AllowedOrigins)
}

func TestLoadFrontendFallback(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("FRONTEND_URL", "https://emoai.app")
	t.Setenv("FRONTEND_URL_2", "http://localhost:5173")

	cfg := Load()

	assert.Equal(t, []string{"https://emoai.app", "http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestIsProduction(t *testing.T) {
	t.Setenv("ENV", "Production")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "production", cfg.Environment)
}
