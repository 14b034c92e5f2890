package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"example.com/siteforms/internal/guard"
)

type Config struct {
	Port           string
	Production     bool
	LogLevel       string
	SiteDomain     string
	AllowedOrigins []string
	MaxBodyBytes   int64
	HandlerTimeout time.Duration

	CRMBaseURL    string
	CRMToken      string
	CRMLocationID string

	WebhookURL    string
	WebhookSecret string

	RecaptchaSecret    string
	RecaptchaSiteKey   string
	RecaptchaVerifyURL string

	RedisURL    string
	RedisToken  string
	DatabaseURL string

	HealthToken     string
	TrustedIPHeader string

	SentryDSN string
	Release   string
}

func Parse() Config {
	domain := getString("SITE_DOMAIN", "example.com")
	origins := getList("ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = guard.SiteOrigins(domain)
	}
	return Config{
		Port:           getString("PORT", "8080"),
		Production:     strings.EqualFold(getString("APP_ENV", "development"), "production"),
		LogLevel:       getString("LOG_LEVEL", ""),
		SiteDomain:     domain,
		AllowedOrigins: origins,
		MaxBodyBytes:   int64(getInt("MAX_BODY_BYTES", 65_536)),
		HandlerTimeout: getDuration("HANDLER_TIMEOUT_MS", 25*time.Second),

		CRMBaseURL:    getString("CRM_BASE_URL", ""),
		CRMToken:      getString("CRM_API_TOKEN", ""),
		CRMLocationID: getString("CRM_LOCATION_ID", ""),

		WebhookURL:    getString("WEBHOOK_URL", ""),
		WebhookSecret: getString("WEBHOOK_SECRET", ""),

		RecaptchaSecret:    getString("RECAPTCHA_SECRET_KEY", ""),
		RecaptchaSiteKey:   getString("RECAPTCHA_SITE_KEY", ""),
		RecaptchaVerifyURL: getString("RECAPTCHA_VERIFY_URL", ""),

		RedisURL:    getString("REDIS_URL", ""),
		RedisToken:  getString("REDIS_TOKEN", ""),
		DatabaseURL: getString("DATABASE_URL", ""),

		HealthToken:     getString("HEALTH_CHECK_TOKEN", ""),
		TrustedIPHeader: getString("TRUSTED_IP_HEADER", "X-Real-IP"),

		SentryDSN: getString("SENTRY_DSN", ""),
		Release:   getString("RELEASE", ""),
	}
}

// Env is the environment name reported to logs and error tracking.
func (c Config) Env() string {
	if c.Production {
		return "production"
	}
	return "development"
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getDuration reads a millisecond count.
func getDuration(key string, def time.Duration) time.Duration {
	if n := getInt(key, -1); n > 0 {
		return time.Duration(n) * time.Millisecond
	}
	return def
}

func getList(key string) []string {
	csv := strings.TrimSpace(os.Getenv(key))
	if csv == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(csv, ",") {
		v = strings.TrimRight(strings.TrimSpace(v), "/")
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
