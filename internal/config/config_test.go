package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "BACKEND_MODE", "BACKEND_API_URL", "BACKEND_TIMEOUT_SECONDS", "BACKEND_MAX_RETRIES",
		"DATABASE_URL", "DB_HOST", "JWT_SECRET", "DIRECTORY_CACHE_TTL_SECONDS", "DIRECTORY_CACHE_SIZE",
		"ALLOWED_ORIGINS", "POD_IMAGES_FOLDER",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, BackendRemote, cfg.BackendMode)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 2, cfg.BackendMaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.DirectoryCacheTTL)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.JWTSecret, "no secret is injected when unset")
	assert.Equal(t, "imagenes", cfg.PODImagesFolder)
	assert.Len(t, cfg.AllowedOrigins, 2)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_MODE", "LOCAL")
	t.Setenv("BACKEND_API_URL", "https://api.example.com/v1/")
	t.Setenv("BACKEND_MAX_RETRIES", "-3")
	t.Setenv("DIRECTORY_CACHE_TTL_SECONDS", "abc")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "orders")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg := Load()
	assert.Equal(t, BackendLocal, cfg.BackendMode)
	assert.Equal(t, "https://api.example.com/v1", cfg.BackendAPIURL)
	assert.Equal(t, 2, cfg.BackendMaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.DirectoryCacheTTL)
	assert.Contains(t, cfg.DatabaseURL, "@db:5432/orders?sslmode=disable")
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}
