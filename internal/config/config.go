package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"junketops-service/internal/pkg/jwt"
)

type AppConfig struct {
	// Server
	HTTPAddr string

	// Upstream junket API. AltBaseURL is the standby host tried when the
	// primary fails; leave it empty to run with a single source.
	UpstreamBaseURL string
	UpstreamAltURL  string
	UpstreamToken   string
	UpstreamTimeout time.Duration

	// Reporting
	GlobalCurrency  string
	RatesPath       string
	RefreshInterval time.Duration

	// Cache
	CacheBackend string
	CacheTTL     time.Duration
	RedisAddr    string
	RedisPass    string

	// JWT
	JWT jwt.Config

	// HTTP hygiene
	CORSOrigins    []string
	RateLimitEvery time.Duration
	RateLimitBurst int

	// Dev-only token minting endpoint. Never enable in production.
	EnableDevTokens bool
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr: getEnv("HTTP_ADDR", ":8000"),

		UpstreamBaseURL: getEnv("UPSTREAM_BASE_URL", "http://localhost:9000"),
		UpstreamAltURL:  getEnv("UPSTREAM_ALT_URL", ""),
		UpstreamToken:   getEnv("UPSTREAM_TOKEN", ""),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),

		GlobalCurrency:  getEnv("GLOBAL_CURRENCY", "HKD"),
		RatesPath:       getEnv("FX_RATES_PATH", "configs/rates.json"),
		RefreshInterval: getEnvDuration("REPORT_REFRESH_INTERVAL", 5*time.Minute),

		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		CacheTTL:     getEnvDuration("CACHE_TTL", 2*time.Minute),
		RedisAddr:    getEnv("REDIS_ADDR", "redis-junketops:6379"),
		RedisPass:    getEnv("REDIS_PASS", ""),

		JWT: jwt.Config{
			// The private key stays unset in normal deployments; tokens
			// are issued upstream and only verified here.
			PrivPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
			PubPath:  getEnv("JWT_PUBLIC_KEY_PATH", "/app/secrets/jwt_public.pem"),
			Issuer:   "junketops",
			Audience: "junketops-dashboard",
			TTL:      24 * time.Hour,
			KID:      "junketops-key",
		},

		CORSOrigins:    getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitEvery: getEnvDuration("RATE_LIMIT_EVERY", 100*time.Millisecond),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 30),

		EnableDevTokens: strings.ToLower(getEnv("ENABLE_DEV_TOKENS", "false")) == "true",
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
