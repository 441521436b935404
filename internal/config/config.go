package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	JWTSecret           string
	JWTAlgorithm        string
	JWTAccessTTLMinutes int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	OTLPEndpoint    string
	OTLPSampleRatio float64
	AllowedOrigins  []string
	TrustedProxies  []string
	LoginRateLimit  int
	MaxBodyBytes    int64

	SeedUsername string
	SeedEmail    string
	SeedPassword string
}

func Load() Config {
	// a missing .env file is fine, the environment wins anyway
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: getEnv("DB_URL", buildDBURL()),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTAlgorithm:        getEnv("JWT_ALGORITHM", "HS256"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 30),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,

		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),
		AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		TrustedProxies:  splitList(getEnv("TRUSTED_PROXIES", "")),
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		SeedUsername: getEnv("SEED_USERNAME", ""),
		SeedEmail:    getEnv("SEED_EMAIL", ""),
		SeedPassword: getEnv("SEED_PASSWORD", ""),
	}
}

// Validate reports configuration that would leave the server unable to
// issue tokens safely. Dev and test runs fall back to a throwaway secret.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.Env != "dev" && c.Env != "test" {
			return errors.New("JWT_SECRET is required")
		}
		c.JWTSecret = "dev-only-insecure-secret"
	}

	if c.JWTAccessTTLMinutes <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL_MINUTES must be positive, got %d", c.JWTAccessTTLMinutes)
	}

	if c.Port <= 0 {
		return fmt.Errorf("PORT must be positive, got %d", c.Port)
	}

	return nil
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "taskhub")
	pass := getEnv("DB_PASSWORD", "taskhub")
	name := getEnv("DB_NAME", "taskhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a store call. A nil parent falls back to Background.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fallback
		}
		return f
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
