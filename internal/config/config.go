package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/adgate/adgate-api/internal/models"
)

type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	FrontendCallbackURL string
	BaseURL             string

	Google OAuthConfig
	Meta   MetaConfig

	// RateLimits is the tier default table, resolved once at startup.
	// Per-key overrides on the key record take precedence at request time.
	RateLimits map[models.Tier]RateLimit
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type MetaConfig struct {
	// BaseURL includes the Graph API version, e.g.
	// https://graph.facebook.com/v19.0. Overridable for tests.
	BaseURL string
	Timeout time.Duration
}

type RateLimit struct {
	PerMinute int
	PerDay    int
}

// DefaultRateLimits returns the built-in tier table.
func DefaultRateLimits() map[models.Tier]RateLimit {
	return map[models.Tier]RateLimit{
		models.TierFree:       {PerMinute: 10, PerDay: 100},
		models.TierPro:        {PerMinute: 60, PerDay: 5000},
		models.TierEnterprise: {PerMinute: 300, PerDay: 50000},
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"))
	if err != nil {
		refreshExpiry = 168 * time.Hour
	}

	metaTimeout, err := time.ParseDuration(getEnv("META_TIMEOUT", "20s"))
	if err != nil {
		metaTimeout = 20 * time.Second
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:        getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		FrontendCallbackURL: getEnv("FRONTEND_CALLBACK_URL", "http://localhost:3000/auth/callback"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),

		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},

		Meta: MetaConfig{
			BaseURL: getEnv("META_GRAPH_URL", "https://graph.facebook.com/v19.0"),
			Timeout: metaTimeout,
		},

		RateLimits: DefaultRateLimits(),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
