package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	SignupBaseURL string
	AdminAPIKey   string

	PairingCodeTTL  time.Duration
	APIKeyCacheTTL  time.Duration
	PairingSweepInt time.Duration

	RedisAddr     string
	RedisPassword string

	StripeSecretKey string
	StripeBaseURL   string
	StripeTimeout   time.Duration

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "tapcard"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		SignupBaseURL: strings.TrimRight(getenv("SIGNUP_BASE_URL", "https://join.tapcard.dev"), "/"),
		AdminAPIKey:   strings.TrimSpace(getenv("ADMIN_API_KEY", "")),

		PairingCodeTTL:  getenvDuration("PAIRING_CODE_TTL", 10*time.Minute),
		APIKeyCacheTTL:  getenvDuration("API_KEY_CACHE_TTL", 30*time.Second),
		PairingSweepInt: getenvDuration("PAIRING_SWEEP_INTERVAL", time.Minute),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		StripeSecretKey: strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
		StripeBaseURL:   getenv("STRIPE_BASE_URL", "https://api.stripe.com"),
		StripeTimeout:   getenvDuration("STRIPE_TIMEOUT", 30*time.Second),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "tapcard"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
