package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	tokenward "github.com/tokenward/tokenward"
	"github.com/tokenward/tokenward/jwt"
)

type serverConfig struct {
	Addr        string
	DatabaseURL string
	RedisAddr   string
	RedisDB     int
	CORSOrigins []string

	Engine tokenward.Config
}

// loadConfig reads the environment, with .env as an optional local
// overlay. TOKENWARD_JWT_SECRET and TOKENWARD_DATABASE_URL are required;
// everything else has a default.
func loadConfig() (serverConfig, error) {
	_ = godotenv.Load()

	cfg := serverConfig{
		Addr:        envString("TOKENWARD_ADDR", ":8080"),
		DatabaseURL: envString("TOKENWARD_DATABASE_URL", ""),
		RedisAddr:   envString("TOKENWARD_REDIS_ADDR", "localhost:6379"),
		CORSOrigins: splitList(envString("TOKENWARD_CORS_ORIGINS", "*")),
		Engine:      tokenward.DefaultConfig(),
	}

	secret := os.Getenv("TOKENWARD_JWT_SECRET")
	if secret == "" {
		return serverConfig{}, fmt.Errorf("TOKENWARD_JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		return serverConfig{}, fmt.Errorf("TOKENWARD_DATABASE_URL is required")
	}
	cfg.Engine.JWT.SigningMethod = jwt.MethodHS256
	cfg.Engine.JWT.PrivateKey = []byte(secret)
	cfg.Engine.JWT.PublicKey = nil
	cfg.Engine.JWT.Issuer = envString("TOKENWARD_ISSUER", "tokenward")

	var err error
	if cfg.Engine.JWT.AccessTTL, err = envDuration("TOKENWARD_ACCESS_TTL", cfg.Engine.JWT.AccessTTL); err != nil {
		return serverConfig{}, err
	}
	if cfg.Engine.JWT.RefreshTTL, err = envDuration("TOKENWARD_REFRESH_TTL", cfg.Engine.JWT.RefreshTTL); err != nil {
		return serverConfig{}, err
	}
	if cfg.Engine.JWT.Leeway, err = envDuration("TOKENWARD_LEEWAY", cfg.Engine.JWT.Leeway); err != nil {
		return serverConfig{}, err
	}
	if cfg.RedisDB, err = envInt("TOKENWARD_REDIS_DB", 0); err != nil {
		return serverConfig{}, err
	}

	cfg.Engine.Revocation.Enabled = !envBool("TOKENWARD_STATELESS")
	cfg.Engine.Revocation.KeyPrefix = envString("TOKENWARD_KEY_PREFIX", cfg.Engine.Revocation.KeyPrefix)

	return cfg, nil
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func envInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func envBool(key string) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
