// Package config builds runtime configuration from the environment so main
// stays lean. A local .env file is honored in development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"credchain/pkg/domain"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	// AdminAddress is the registry administrator at boot. Required.
	AdminAddress domain.Address

	JWTSigningKey string
	TokenTTL      time.Duration

	// DatabaseURL selects the Postgres store; empty means in-memory.
	DatabaseURL string

	Redis          RedisConfig
	VerifyCacheTTL time.Duration
}

// RedisConfig holds connection settings for the verification cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

const (
	defaultAddr           = ":8080"
	defaultTokenTTL       = 15 * time.Minute
	defaultVerifyCacheTTL = 5 * time.Minute
)

// Load reads configuration from the environment. It fails fast on a missing
// or malformed admin address rather than booting an unadministrable registry.
func Load() (Server, error) {
	_ = godotenv.Load()

	cfg := Server{
		Addr:           envOr("CREDCHAIN_ADDR", defaultAddr),
		Environment:    envOr("CREDCHAIN_ENV", "development"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		JWTSigningKey:  os.Getenv("JWT_SIGNING_KEY"),
		TokenTTL:       envDurationOr("TOKEN_TTL", defaultTokenTTL),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		VerifyCacheTTL: envDurationOr("VERIFY_CACHE_TTL", defaultVerifyCacheTTL),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	raw := os.Getenv("CREDCHAIN_ADMIN_ADDRESS")
	if raw == "" {
		return Server{}, fmt.Errorf("CREDCHAIN_ADMIN_ADDRESS is required")
	}
	admin, err := domain.ParseAddress(raw)
	if err != nil {
		return Server{}, fmt.Errorf("CREDCHAIN_ADMIN_ADDRESS: %w", err)
	}
	cfg.AdminAddress = admin

	if cfg.JWTSigningKey == "" {
		if cfg.Environment != "development" {
			return Server{}, fmt.Errorf("JWT_SIGNING_KEY is required outside development")
		}
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
