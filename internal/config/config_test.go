package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "SITE_DOMAIN", "ALLOWED_ORIGINS", "MAX_BODY_BYTES", "HANDLER_TIMEOUT_MS", "PORT"} {
		t.Setenv(k, "")
	}

	cfg := Parse()

	assert.False(t, cfg.Production)
	assert.Equal(t, "development", cfg.Env())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int64(65_536), cfg.MaxBodyBytes)
	assert.Equal(t, 25*time.Second, cfg.HandlerTimeout)
	assert.Equal(t, []string{"https://example.com", "https://www.example.com"}, cfg.AllowedOrigins)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("SITE_DOMAIN", "church.example")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example/ , ,https://b.example")
	t.Setenv("MAX_BODY_BYTES", "1024")
	t.Setenv("HANDLER_TIMEOUT_MS", "1500")
	t.Setenv("HEALTH_CHECK_TOKEN", "s3cret")

	cfg := Parse()

	assert.True(t, cfg.Production)
	assert.Equal(t, "church.example", cfg.SiteDomain)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
	assert.Equal(t, 1500*time.Millisecond, cfg.HandlerTimeout)
	assert.Equal(t, "s3cret", cfg.HealthToken)
}

func TestParseIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_BODY_BYTES", "lots")
	t.Setenv("HANDLER_TIMEOUT_MS", "-5")

	cfg := Parse()

	assert.Equal(t, int64(65_536), cfg.MaxBodyBytes)
	assert.Equal(t, 25*time.Second, cfg.HandlerTimeout)
}
